package models

import "time"

// LaunchStatus describes the overall state of a launch session.
type LaunchStatus string

const (
	// StatusLaunching means the session is still starting resources.
	StatusLaunching LaunchStatus = "launching"

	// StatusRunning means all resources started successfully.
	StatusRunning LaunchStatus = "running"

	// StatusFailed means a resource failed to start.
	StatusFailed LaunchStatus = "failed"

	// StatusStopped means the session was shut down.
	StatusStopped LaunchStatus = "stopped"
)

// LaunchState tracks one Run-mode launch session.
type LaunchState struct {
	// ID is the unique session identifier.
	ID string `json:"id"`

	// Application is the application name.
	Application string `json:"application"`

	// Status is the overall session status.
	Status LaunchStatus `json:"status"`

	// Phase is the current launch phase.
	Phase string `json:"phase"`

	// Placements maps resource names to their runtime placement.
	Placements map[string]*Placement `json:"placements"`

	// Order lists placed resources in launch order. Teardown walks it in
	// reverse so dependents stop before their dependencies.
	Order []string `json:"order,omitempty"`

	// Events is the ordered launch event log.
	Events []LaunchEvent `json:"events"`

	// ErrorMessage holds the failure reason when Status is failed.
	ErrorMessage string `json:"errorMessage,omitempty"`

	// StartedAt is when the session began.
	StartedAt time.Time `json:"startedAt"`

	// CompletedAt is when the session finished launching or failed.
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Placement records where one launched resource runs.
type Placement struct {
	// Resource is the resource name.
	Resource string `json:"resource"`

	// ContainerID is the Docker container ID, when containerized.
	ContainerID string `json:"containerId,omitempty"`

	// ProcessID is the OS process ID, for executables and projects.
	ProcessID int `json:"processId,omitempty"`

	// Endpoints maps endpoint names to their allocated URLs.
	Endpoints map[string]string `json:"endpoints,omitempty"`

	// Status is the resource's runtime status.
	Status string `json:"status"`

	// StartedAt is when the resource started.
	StartedAt time.Time `json:"startedAt"`
}

// LaunchEvent is one entry in the launch event log.
type LaunchEvent struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event severity: info, warning, or error.
	Type string `json:"type"`

	// Phase is the launch phase the event belongs to.
	Phase string `json:"phase"`

	// Resource is the resource the event concerns, if any.
	Resource string `json:"resource,omitempty"`

	// Message is the human-readable event description.
	Message string `json:"message"`
}

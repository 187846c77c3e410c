// Package launcher starts an application graph in Run mode: it allocates
// endpoints, resolves environments and arguments against live values, and
// brings resources up in dependency-ordered waves. Containers run through the
// Docker API; executables and projects run as local processes.
package launcher

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	dockerclient "github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"evalgo.org/maestro/internal/resolve"
	"evalgo.org/maestro/models"
)

// DockerClient is the subset of the Docker API the launcher needs.
type DockerClient interface {
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
}

// NewDockerClient creates a Docker client for the given socket. Plain paths
// are treated as unix sockets.
func NewDockerClient(socket string) (DockerClient, error) {
	host := socket
	if !strings.Contains(socket, "://") {
		host = "unix://" + socket
	}
	cli, err := dockerclient.NewClientWithOpts(
		dockerclient.WithHost(host),
		dockerclient.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}
	return cli, nil
}

// Options contains launch options.
type Options struct {
	// Application is the application name; it prefixes container names.
	Application string

	// Host is the address endpoints are allocated on.
	Host string

	// BasePort is the first host port considered for allocation.
	BasePort int

	// Network is the Docker network containers join. Empty uses the
	// default bridge.
	Network string

	// PullImages pulls container images before starting them.
	PullImages bool

	// StartTimeout bounds the whole launch (default: 5 minutes).
	StartTimeout time.Duration

	// StopTimeout bounds container shutdown.
	StopTimeout time.Duration

	// RollbackOnError removes already-started resources when a later
	// resource fails.
	RollbackOnError bool

	// WaveSettle is how long to wait after each wave before starting the
	// next (default: 2 seconds).
	WaveSettle time.Duration
}

// Launcher starts and stops application resources.
type Launcher struct {
	// Docker runs container and dockerfile resources.
	Docker DockerClient

	// Runner starts executable and project resources as local processes.
	Runner ProcessRunner

	// Notifier, when set, receives every launch event as it is recorded.
	Notifier func(models.LaunchEvent)
}

// New creates a launcher.
func New(docker DockerClient, runner ProcessRunner) *Launcher {
	return &Launcher{Docker: docker, Runner: runner}
}

// Launch starts every launchable resource in the graph. Parameter and
// connection-string values come from params. The returned state is also
// populated on failure.
func (l *Launcher) Launch(ctx context.Context, resources []*models.Resource, params models.ParameterSource, opts Options) (*models.LaunchState, error) {
	if opts.StartTimeout == 0 {
		opts.StartTimeout = 5 * time.Minute
	}
	if opts.WaveSettle == 0 {
		opts.WaveSettle = 2 * time.Second
	}

	launchCtx, cancel := context.WithTimeout(ctx, opts.StartTimeout)
	defer cancel()

	state := &models.LaunchState{
		ID:          fmt.Sprintf("launch-%s-%s", opts.Application, uuid.NewString()),
		Application: opts.Application,
		Status:      models.StatusLaunching,
		Phase:       "initialization",
		Placements:  make(map[string]*models.Placement),
		Events:      []models.LaunchEvent{},
		StartedAt:   time.Now(),
	}
	l.addEvent(state, "info", "initialization", "", "Starting launch")

	if opts.RollbackOnError {
		defer func() {
			if state.Status == models.StatusFailed {
				l.rollback(ctx, state, opts)
			}
		}()
	}

	state.Phase = "endpoint-allocation"
	allocator := NewAllocator(opts.Host, opts.BasePort)
	if err := allocator.AllocateAll(resources); err != nil {
		return l.failLaunch(state, "endpoint-allocation", err)
	}

	state.Phase = "planning"
	waves, err := Waves(resources)
	if err != nil {
		return l.failLaunch(state, "planning", err)
	}

	state.Phase = "resource-launch"
	ec := models.NewRunContext(params)
	for waveNum, wave := range waves {
		l.addEvent(state, "info", "resource-launch", "",
			fmt.Sprintf("Starting wave %d/%d with %d resource(s)", waveNum+1, len(waves), len(wave)))

		for _, r := range wave {
			if err := l.launchResource(launchCtx, r, ec, state, opts); err != nil {
				return l.failLaunch(state, "resource-launch", fmt.Errorf("failed to launch resource %s: %w", r.Name, err))
			}
		}

		if waveNum < len(waves)-1 {
			select {
			case <-launchCtx.Done():
				return l.failLaunch(state, "resource-launch", launchCtx.Err())
			case <-time.After(opts.WaveSettle):
			}
		}
	}

	now := time.Now()
	state.Status = models.StatusRunning
	state.Phase = "completed"
	state.CompletedAt = &now
	l.addEvent(state, "info", "completed", "", "Launch completed successfully")

	return state, nil
}

// launchResource starts a single resource and records its placement.
func (l *Launcher) launchResource(ctx context.Context, r *models.Resource, ec *models.ExecutionContext, state *models.LaunchState, opts Options) error {
	env, err := resolve.EnvironmentVariables(ctx, r, ec)
	if err != nil {
		return err
	}
	args, err := resolve.Arguments(ctx, r, ec)
	if err != nil {
		return err
	}

	var placement *models.Placement
	switch r.Kind {
	case models.KindContainer, models.KindDockerfile:
		placement, err = l.launchContainer(ctx, r, env, args, state, opts)
	case models.KindExecutable, models.KindProject:
		placement, err = l.launchProcess(ctx, r, env, args, state)
	default:
		return fmt.Errorf("resource kind %s is not launchable", r.Kind)
	}
	if err != nil {
		return err
	}

	placement.Endpoints = endpointURLs(r)
	state.Placements[r.Name] = placement
	state.Order = append(state.Order, r.Name)
	return nil
}

// teardownOrder returns placement names in reverse launch order, so
// dependents come down before their dependencies. Placements missing from the
// recorded order are appended sorted by name.
func teardownOrder(state *models.LaunchState) []string {
	names := make([]string, 0, len(state.Placements))
	seen := make(map[string]bool, len(state.Placements))
	for i := len(state.Order) - 1; i >= 0; i-- {
		name := state.Order[i]
		if _, ok := state.Placements[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range state.Placements {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// launchContainer creates and starts a Docker container for the resource.
func (l *Launcher) launchContainer(ctx context.Context, r *models.Resource, env []resolve.EnvVar, args []string, state *models.LaunchState, opts Options) (*models.Placement, error) {
	imageName, err := containerImage(r, opts.Application)
	if err != nil {
		return nil, err
	}
	containerName := fmt.Sprintf("%s-%s", opts.Application, r.Name)

	l.addEvent(state, "info", "resource-launch", r.Name,
		fmt.Sprintf("Starting container %s with image %s", containerName, imageName))

	if opts.PullImages && r.Kind == models.KindContainer {
		if err := l.pullImage(ctx, imageName); err != nil {
			return nil, err
		}
	}

	config := &container.Config{
		Image: imageName,
		Env:   make([]string, 0, len(env)),
	}
	for _, e := range env {
		config.Env = append(config.Env, fmt.Sprintf("%s=%s", e.Name, e.Value))
	}
	if len(args) > 0 {
		config.Cmd = args
	}

	hostConfig := &container.HostConfig{
		PortBindings: make(nat.PortMap),
	}
	if len(r.Endpoints()) > 0 {
		config.ExposedPorts = make(nat.PortSet)
	}
	for _, ep := range r.Endpoints() {
		alloc, ok := ep.Allocated()
		if !ok {
			continue
		}
		targetPort := ep.TargetPort
		if targetPort == 0 {
			targetPort = alloc.Port
		}
		port := nat.Port(fmt.Sprintf("%d/tcp", targetPort))
		config.ExposedPorts[port] = struct{}{}
		hostConfig.PortBindings[port] = []nat.PortBinding{
			{HostPort: fmt.Sprintf("%d", alloc.Port)},
		}
	}

	var networkConfig *network.NetworkingConfig
	if opts.Network != "" {
		networkConfig = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				opts.Network: {},
			},
		}
	}

	resp, err := l.Docker.ContainerCreate(ctx, config, hostConfig, networkConfig, nil, containerName)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}
	if err := l.Docker.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	l.addEvent(state, "info", "resource-launch", r.Name,
		fmt.Sprintf("Container started with ID %s", resp.ID))

	return &models.Placement{
		Resource:    r.Name,
		ContainerID: resp.ID,
		Status:      "running",
		StartedAt:   time.Now(),
	}, nil
}

// launchProcess starts an executable or project as a local process.
func (l *Launcher) launchProcess(ctx context.Context, r *models.Resource, env []resolve.EnvVar, args []string, state *models.LaunchState) (*models.Placement, error) {
	if l.Runner == nil {
		return nil, fmt.Errorf("no process runner configured for resource kind %s", r.Kind)
	}

	spec, err := processSpec(r, env, args)
	if err != nil {
		return nil, err
	}

	l.addEvent(state, "info", "resource-launch", r.Name,
		fmt.Sprintf("Starting process %s", spec.Command))

	pid, err := l.Runner.Start(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to start process: %w", err)
	}

	l.addEvent(state, "info", "resource-launch", r.Name,
		fmt.Sprintf("Process started with PID %d", pid))

	return &models.Placement{
		Resource:  r.Name,
		ProcessID: pid,
		Status:    "running",
		StartedAt: time.Now(),
	}, nil
}

// Stop shuts down every resource placed by a launch session. Errors are
// recorded as events and Stop keeps going; the first error is returned.
func (l *Launcher) Stop(ctx context.Context, state *models.LaunchState, opts Options) error {
	l.addEvent(state, "info", "shutdown", "", "Stopping launch session")

	var firstErr error
	for _, name := range teardownOrder(state) {
		placement := state.Placements[name]
		switch {
		case placement.ContainerID != "":
			stopOpts := container.StopOptions{}
			if opts.StopTimeout > 0 {
				seconds := int(opts.StopTimeout.Seconds())
				stopOpts.Timeout = &seconds
			}
			if err := l.Docker.ContainerStop(ctx, placement.ContainerID, stopOpts); err != nil {
				l.addEvent(state, "error", "shutdown", name, fmt.Sprintf("Failed to stop container: %v", err))
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if err := l.Docker.ContainerRemove(ctx, placement.ContainerID, container.RemoveOptions{}); err != nil {
				l.addEvent(state, "error", "shutdown", name, fmt.Sprintf("Failed to remove container: %v", err))
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		case placement.ProcessID != 0 && l.Runner != nil:
			if err := l.Runner.Stop(placement.ProcessID); err != nil {
				l.addEvent(state, "error", "shutdown", name, fmt.Sprintf("Failed to stop process: %v", err))
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		}
		placement.Status = "stopped"
		l.addEvent(state, "info", "shutdown", name, "Resource stopped")
	}

	state.Status = models.StatusStopped
	state.Phase = "stopped"
	l.addEvent(state, "info", "shutdown", "", "Launch session stopped")
	return firstErr
}

func (l *Launcher) pullImage(ctx context.Context, imageName string) error {
	reader, err := l.Docker.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", imageName, err)
	}
	defer reader.Close()

	// Consume pull output so the pull completes before the create.
	_, err = io.Copy(io.Discard, reader)
	return err
}

// rollback removes resources started by a failed launch.
func (l *Launcher) rollback(ctx context.Context, state *models.LaunchState, opts Options) {
	l.addEvent(state, "info", "rollback", "", "Starting rollback")

	for _, name := range teardownOrder(state) {
		placement := state.Placements[name]
		switch {
		case placement.ContainerID != "":
			if err := l.Docker.ContainerRemove(ctx, placement.ContainerID, container.RemoveOptions{Force: true}); err != nil {
				l.addEvent(state, "error", "rollback", name, fmt.Sprintf("Failed to remove container: %v", err))
				continue
			}
		case placement.ProcessID != 0 && l.Runner != nil:
			if err := l.Runner.Stop(placement.ProcessID); err != nil {
				l.addEvent(state, "error", "rollback", name, fmt.Sprintf("Failed to stop process: %v", err))
				continue
			}
		}
		placement.Status = "removed"
		l.addEvent(state, "info", "rollback", name, "Resource removed")
	}

	l.addEvent(state, "info", "rollback", "", "Rollback completed")
}

// failLaunch marks a launch as failed.
func (l *Launcher) failLaunch(state *models.LaunchState, phase string, err error) (*models.LaunchState, error) {
	now := time.Now()
	state.Status = models.StatusFailed
	state.Phase = phase
	state.ErrorMessage = err.Error()
	state.CompletedAt = &now

	l.addEvent(state, "error", phase, "", err.Error())
	return state, err
}

// addEvent appends an event to the state and notifies any listener.
func (l *Launcher) addEvent(state *models.LaunchState, eventType, phase, resource, message string) {
	event := models.LaunchEvent{
		Timestamp: time.Now(),
		Type:      eventType,
		Phase:     phase,
		Resource:  resource,
		Message:   message,
	}
	state.Events = append(state.Events, event)
	if l.Notifier != nil {
		l.Notifier(event)
	}
}

// containerImage determines the image to run for a container or dockerfile
// resource. Dockerfile resources run the conventional local tag produced by
// building their context.
func containerImage(r *models.Resource, application string) (string, error) {
	if img, ok := models.LastAnnotation[*models.ContainerImageAnnotation](r); ok {
		return img.Image, nil
	}
	if _, ok := models.LastAnnotation[*models.DockerfileAnnotation](r); ok {
		return fmt.Sprintf("%s-%s:latest", application, r.Name), nil
	}
	return "", fmt.Errorf("resource %s has no container image", r.Name)
}

// endpointURLs collects resolved endpoint URLs for a resource's placement.
func endpointURLs(r *models.Resource) map[string]string {
	endpoints := r.Endpoints()
	if len(endpoints) == 0 {
		return nil
	}
	urls := make(map[string]string, len(endpoints))
	for _, ep := range endpoints {
		url, err := ep.ResolvedURL()
		if err != nil {
			continue
		}
		urls[ep.Name] = url
	}
	return urls
}

package models

// Operation selects how reference expressions resolve: Run produces concrete
// values for local launch, Publish produces symbolic manifest placeholders.
type Operation int

const (
	// OperationRun resolves expressions to concrete strings.
	OperationRun Operation = iota

	// OperationPublish resolves expressions to {resource.path} placeholders.
	OperationPublish
)

// String returns the lower-case mode name.
func (o Operation) String() string {
	switch o {
	case OperationRun:
		return "run"
	case OperationPublish:
		return "publish"
	}
	return "unknown"
}

// ParameterSource supplies configured parameter and connection-string values
// in Run mode. Implementations must be safe for concurrent reads; the
// execution context is shared across concurrent resource resolutions.
type ParameterSource interface {
	// Parameter returns the configured value for a parameter resource.
	Parameter(name string) (string, bool)

	// ConnectionString returns the configured value for a
	// connection-string resource.
	ConnectionString(name string) (string, bool)
}

// ExecutionContext carries the operation mode and, in Run mode, the parameter
// source. It is constructed once per application build, never mutated, and
// passed explicitly into every resolution call.
type ExecutionContext struct {
	Operation  Operation
	Parameters ParameterSource
}

// NewRunContext creates an execution context for Run mode backed by the given
// parameter source.
func NewRunContext(params ParameterSource) *ExecutionContext {
	return &ExecutionContext{Operation: OperationRun, Parameters: params}
}

// NewPublishContext creates an execution context for Publish mode. Parameter
// lookups never happen in Publish mode; placeholders are substituted instead.
func NewPublishContext() *ExecutionContext {
	return &ExecutionContext{Operation: OperationPublish}
}

// EmptyParameters is a ParameterSource with no values configured.
type EmptyParameters struct{}

// Parameter always reports no value.
func (EmptyParameters) Parameter(string) (string, bool) { return "", false }

// ConnectionString always reports no value.
func (EmptyParameters) ConnectionString(string) (string, bool) { return "", false }

// MapParameters is an in-memory ParameterSource, used by tests and by the
// appfile loader for inline defaults.
type MapParameters struct {
	// Values maps parameter names to configured values.
	Values map[string]string

	// ConnectionStrings maps connection-string resource names to values.
	ConnectionStrings map[string]string
}

// Parameter looks up a parameter value.
func (m MapParameters) Parameter(name string) (string, bool) {
	v, ok := m.Values[name]
	return v, ok
}

// ConnectionString looks up a connection-string value.
func (m MapParameters) ConnectionString(name string) (string, bool) {
	v, ok := m.ConnectionStrings[name]
	return v, ok
}

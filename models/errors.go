package models

import "fmt"

// MissingConnectionStringError reports a non-optional reference to a resource
// that exposes no connection string and nothing else a reference could inject.
type MissingConnectionStringError struct {
	// Resource is the referenced resource name.
	Resource string
}

func (e *MissingConnectionStringError) Error() string {
	return fmt.Sprintf("resource %q has no connection string", e.Resource)
}

// MissingParameterValueError reports a parameter with no configured value
// during Run-mode resolution. Publish mode never produces this error; the
// parameter renders as a manifest placeholder instead.
type MissingParameterValueError struct {
	// Parameter is the parameter resource name.
	Parameter string
}

func (e *MissingParameterValueError) Error() string {
	return fmt.Sprintf("parameter %q has no value configured", e.Parameter)
}

// EndpointNotAllocatedError reports a Run-mode reference to an endpoint that
// the launcher has not allocated yet.
type EndpointNotAllocatedError struct {
	// Resource is the owning resource name, when known.
	Resource string

	// Endpoint is the binding name.
	Endpoint string
}

func (e *EndpointNotAllocatedError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("endpoint %q on resource %q is not allocated", e.Endpoint, e.Resource)
	}
	return fmt.Sprintf("endpoint %q is not allocated", e.Endpoint)
}

// UnknownResourceError reports a reference to a resource name that does not
// exist in the application graph. It surfaces at resolution time, not at
// declaration time.
type UnknownResourceError struct {
	// Source is the resource holding the reference, when known.
	Source string

	// Target is the unknown resource name.
	Target string
}

func (e *UnknownResourceError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("resource %q references unknown resource %q", e.Source, e.Target)
	}
	return fmt.Sprintf("unknown resource %q", e.Target)
}

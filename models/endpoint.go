package models

import (
	"fmt"
	"strings"
)

// EndpointAnnotation declares a named, schemed network binding on a resource.
// An endpoint starts unallocated; the launcher allocates it exactly once per
// run with a concrete host and port. Allocation is terminal for the lifetime
// of a run.
type EndpointAnnotation struct {
	// Name is the binding name, unique per resource.
	Name string

	// Scheme is the URI scheme (http, https, tcp, ...).
	Scheme string

	// TargetPort is the port the workload listens on inside its
	// container/process. Zero means unspecified.
	TargetPort int

	// Port is the requested host port. Zero lets the launcher pick one.
	Port int

	// Proxied endpoints are fronted by the launcher's proxy and get a host
	// port distinct from the target port.
	Proxied bool

	// External marks the endpoint as reachable from outside the
	// application; it only affects the manifest binding shape.
	External bool

	// TargetHostWildcard makes the workload bind to all interfaces instead
	// of loopback.
	TargetHostWildcard bool

	// ExternalURL pins the endpoint to a fixed absolute URL. Used by
	// external-service resources, which have no allocation step.
	ExternalURL string

	allocated *AllocatedEndpoint
}

// AllocatedEndpoint is the concrete address assigned to an endpoint for one
// run.
type AllocatedEndpoint struct {
	Host   string
	Port   int
	Scheme string
}

// URL renders the allocated address as scheme://host:port.
func (a *AllocatedEndpoint) URL() string {
	return fmt.Sprintf("%s://%s:%d", a.Scheme, a.Host, a.Port)
}

// Allocate assigns the concrete address. Allocating twice is a usage error.
func (e *EndpointAnnotation) Allocate(host string, port int) error {
	if e.allocated != nil {
		return fmt.Errorf("endpoint %q is already allocated to %s", e.Name, e.allocated.URL())
	}
	e.allocated = &AllocatedEndpoint{Host: host, Port: port, Scheme: e.Scheme}
	return nil
}

// Allocated returns the concrete address, or false while unallocated.
func (e *EndpointAnnotation) Allocated() (*AllocatedEndpoint, bool) {
	if e.allocated != nil {
		return e.allocated, true
	}
	return nil, false
}

// ResolvedURL returns the endpoint's concrete URL in Run mode: the fixed
// external URL when set, otherwise the allocated address.
func (e *EndpointAnnotation) ResolvedURL() (string, error) {
	if e.ExternalURL != "" {
		return e.ExternalURL, nil
	}
	a, ok := e.Allocated()
	if !ok {
		return "", &EndpointNotAllocatedError{Endpoint: e.Name}
	}
	return a.URL(), nil
}

// EndpointProperty selects which facet of an endpoint a reference resolves.
type EndpointProperty string

const (
	EndpointPropertyURL        EndpointProperty = "url"
	EndpointPropertyHost       EndpointProperty = "host"
	EndpointPropertyPort       EndpointProperty = "port"
	EndpointPropertyScheme     EndpointProperty = "scheme"
	EndpointPropertyTargetPort EndpointProperty = "targetPort"
)

// ParseEndpointProperty maps a manifest path segment to an endpoint property.
func ParseEndpointProperty(s string) (EndpointProperty, bool) {
	switch strings.ToLower(s) {
	case "url":
		return EndpointPropertyURL, true
	case "host":
		return EndpointPropertyHost, true
	case "port":
		return EndpointPropertyPort, true
	case "scheme":
		return EndpointPropertyScheme, true
	case "targetport":
		return EndpointPropertyTargetPort, true
	}
	return "", false
}

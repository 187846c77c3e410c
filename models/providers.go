package models

import (
	"context"
	"fmt"
	"strconv"
)

// ParameterReference resolves the value of a parameter resource. In Run mode
// the value comes from the execution context's parameter source, falling back
// to the parameter's declared default; a parameter with neither fails with
// MissingParameterValueError. In Publish mode it renders {name.value}.
type ParameterReference struct {
	target *Resource
}

// Param creates a reference to a parameter resource.
func Param(target *Resource) *ParameterReference {
	return &ParameterReference{target: target}
}

// ProviderValue resolves the configured parameter value.
func (p *ParameterReference) ProviderValue(ctx context.Context, ec *ExecutionContext) (string, error) {
	if ec.Parameters != nil {
		if v, ok := ec.Parameters.Parameter(p.target.Name); ok {
			return v, nil
		}
	}
	if pa, ok := LastAnnotation[*ParameterAnnotation](p.target); ok && pa.HasDefault {
		return pa.Default, nil
	}
	return "", &MissingParameterValueError{Parameter: p.target.Name}
}

// ManifestExpression renders the parameter placeholder.
func (p *ParameterReference) ManifestExpression() string {
	return "{" + p.target.Name + ".value}"
}

// ReferencedResource returns the parameter resource.
func (p *ParameterReference) ReferencedResource() *Resource { return p.target }

// EndpointReference resolves one facet of a named endpoint on a resource.
// The zero property resolves the full URL.
type EndpointReference struct {
	target   *Resource
	endpoint *EndpointAnnotation
	property EndpointProperty
}

// EndpointRef creates a reference to the named endpoint of target, resolving
// its URL. The endpoint must exist when the reference is created.
func EndpointRef(target *Resource, binding string) (*EndpointReference, error) {
	ep, ok := target.Endpoint(binding)
	if !ok {
		return nil, fmt.Errorf("resource %q has no endpoint %q", target.Name, binding)
	}
	return &EndpointReference{target: target, endpoint: ep, property: EndpointPropertyURL}, nil
}

// Property returns a copy of the reference resolving a different endpoint
// facet.
func (e *EndpointReference) Property(p EndpointProperty) *EndpointReference {
	return &EndpointReference{target: e.target, endpoint: e.endpoint, property: p}
}

// Binding returns the referenced binding name.
func (e *EndpointReference) Binding() string { return e.endpoint.Name }

// ProviderValue resolves the endpoint facet against the allocated address.
func (e *EndpointReference) ProviderValue(ctx context.Context, ec *ExecutionContext) (string, error) {
	switch e.property {
	case EndpointPropertyScheme:
		return e.endpoint.Scheme, nil
	case EndpointPropertyTargetPort:
		return strconv.Itoa(e.endpoint.TargetPort), nil
	case EndpointPropertyURL, "":
		url, err := e.endpoint.ResolvedURL()
		if err != nil {
			return "", &EndpointNotAllocatedError{Resource: e.target.Name, Endpoint: e.endpoint.Name}
		}
		return url, nil
	}
	a, ok := e.endpoint.Allocated()
	if !ok {
		return "", &EndpointNotAllocatedError{Resource: e.target.Name, Endpoint: e.endpoint.Name}
	}
	switch e.property {
	case EndpointPropertyHost:
		return a.Host, nil
	case EndpointPropertyPort:
		return strconv.Itoa(a.Port), nil
	}
	return "", fmt.Errorf("unknown endpoint property %q", e.property)
}

// ManifestExpression renders {resource.bindings.binding.property}.
func (e *EndpointReference) ManifestExpression() string {
	prop := e.property
	if prop == "" {
		prop = EndpointPropertyURL
	}
	return fmt.Sprintf("{%s.bindings.%s.%s}", e.target.Name, e.endpoint.Name, prop)
}

// ReferencedResource returns the endpoint's owning resource.
func (e *EndpointReference) ReferencedResource() *Resource { return e.target }

// ConnectionStringReference resolves the connection string of another
// resource. Connection-string resources read their value from the execution
// context; every other kind must carry a ConnectionStringAnnotation.
type ConnectionStringReference struct {
	target *Resource
}

// ConnectionStringRef creates a reference to target's connection string.
func ConnectionStringRef(target *Resource) *ConnectionStringReference {
	return &ConnectionStringReference{target: target}
}

// ProviderValue resolves the target's connection string, following embedded
// references transitively.
func (c *ConnectionStringReference) ProviderValue(ctx context.Context, ec *ExecutionContext) (string, error) {
	if c.target.Kind == KindConnectionString {
		if ec.Parameters != nil {
			if v, ok := ec.Parameters.ConnectionString(c.target.Name); ok {
				return v, nil
			}
		}
		return "", &MissingParameterValueError{Parameter: c.target.Name}
	}
	cs, ok := LastAnnotation[*ConnectionStringAnnotation](c.target)
	if !ok {
		return "", &MissingConnectionStringError{Resource: c.target.Name}
	}
	return cs.Expression.ProviderValue(ctx, ec)
}

// ManifestExpression renders the connection-string placeholder.
func (c *ConnectionStringReference) ManifestExpression() string {
	if c.target.Kind == KindConnectionString {
		return "{" + c.target.Name + ".value}"
	}
	return "{" + c.target.Name + ".connectionString}"
}

// ReferencedResource returns the connection string's owning resource.
func (c *ConnectionStringReference) ReferencedResource() *Resource { return c.target }

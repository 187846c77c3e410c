// Package maestro is the public builder API for declaring a distributed
// application graph: containers, projects, executables, parameters,
// connection strings, and external services, wired together with endpoints
// and references.
//
// The builder only attaches annotations to resources. All derived
// configuration — environment variables, service-discovery URLs, connection
// strings, and the deployment manifest — is computed later by the resolution
// engine and the manifest projector from the annotation set.
package maestro

import (
	"context"
	"fmt"
	"net/url"

	"evalgo.org/maestro/internal/resolve"
	"evalgo.org/maestro/internal/validation"
	"evalgo.org/maestro/models"
)

// Builder accumulates the resource graph of one application.
type Builder struct {
	name      string
	resources []*models.Resource
	byName    map[string]*models.Resource
}

// New creates an empty application builder.
func New(name string) *Builder {
	return &Builder{
		name:   name,
		byName: make(map[string]*models.Resource),
	}
}

// Name returns the application name.
func (b *Builder) Name() string { return b.name }

// Resources returns all resources in declaration order.
func (b *Builder) Resources() []*models.Resource {
	out := make([]*models.Resource, len(b.resources))
	copy(out, b.resources)
	return out
}

// Resource looks a resource up by name.
func (b *Builder) Resource(name string) (*models.Resource, bool) {
	r, ok := b.byName[name]
	return r, ok
}

func (b *Builder) addResource(name string, kind models.ResourceKind) (*ResourceBuilder, error) {
	if err := validation.ResourceName(name); err != nil {
		return nil, err
	}
	if _, exists := b.byName[name]; exists {
		return nil, fmt.Errorf("resource %q is already declared", name)
	}
	r := models.NewResource(name, kind)
	b.resources = append(b.resources, r)
	b.byName[name] = r
	return &ResourceBuilder{app: b, resource: r}, nil
}

// AddContainer declares a container resource running the given image.
func (b *Builder) AddContainer(name, image string) (*ResourceBuilder, error) {
	rb, err := b.addResource(name, models.KindContainer)
	if err != nil {
		return nil, err
	}
	rb.resource.AddAnnotation(&models.ContainerImageAnnotation{Image: image})
	return rb, nil
}

// AddDockerfile declares a container built from a local Dockerfile.
func (b *Builder) AddDockerfile(name, contextDir, dockerfilePath string) (*ResourceBuilder, error) {
	rb, err := b.addResource(name, models.KindDockerfile)
	if err != nil {
		return nil, err
	}
	if dockerfilePath == "" {
		dockerfilePath = "Dockerfile"
	}
	rb.resource.AddAnnotation(&models.DockerfileAnnotation{Path: dockerfilePath, Context: contextDir})
	return rb, nil
}

// AddProject declares a project resource rooted at the given project path.
func (b *Builder) AddProject(name, path string) (*ResourceBuilder, error) {
	rb, err := b.addResource(name, models.KindProject)
	if err != nil {
		return nil, err
	}
	rb.resource.AddAnnotation(&models.ProjectAnnotation{Path: path})
	return rb, nil
}

// AddExecutable declares a locally executed command.
func (b *Builder) AddExecutable(name, command, workingDir string, args ...any) (*ResourceBuilder, error) {
	rb, err := b.addResource(name, models.KindExecutable)
	if err != nil {
		return nil, err
	}
	rb.resource.AddAnnotation(&models.ExecutableAnnotation{Command: command, WorkingDirectory: workingDir})
	if len(args) > 0 {
		rb.WithArgs(args...)
	}
	return rb, nil
}

// ParameterOption customizes a parameter declaration.
type ParameterOption func(*models.ParameterAnnotation)

// Secret marks the parameter as sensitive in the publish manifest.
func Secret() ParameterOption {
	return func(a *models.ParameterAnnotation) { a.Secret = true }
}

// WithDefault gives the parameter a fixed default value.
func WithDefault(value string) ParameterOption {
	return func(a *models.ParameterAnnotation) {
		a.Default = value
		a.HasDefault = true
	}
}

// WithGeneratedDefault requests a generated default of at least minLength
// characters in the publish manifest.
func WithGeneratedDefault(minLength int) ParameterOption {
	return func(a *models.ParameterAnnotation) { a.GenerateMinLength = minLength }
}

// AddParameter declares an externally supplied configuration value. Run mode
// reads it from configuration; publish mode emits a manifest input.
func (b *Builder) AddParameter(name string, opts ...ParameterOption) (*ResourceBuilder, error) {
	rb, err := b.addResource(name, models.KindParameter)
	if err != nil {
		return nil, err
	}
	annotation := &models.ParameterAnnotation{}
	for _, opt := range opts {
		opt(annotation)
	}
	rb.resource.AddAnnotation(annotation)
	return rb, nil
}

// AddConnectionString declares a named connection string whose value is
// supplied by configuration at run time.
func (b *Builder) AddConnectionString(name string) (*ResourceBuilder, error) {
	return b.addResource(name, models.KindConnectionString)
}

// AddExternalService declares a service outside the application graph,
// pinned to a fixed URL. The URL must be absolute with no path other than
// "/" and no query or fragment. The service gets one endpoint named after
// the URL scheme, permanently bound to the URL.
func (b *Builder) AddExternalService(name, rawURL string) (*ResourceBuilder, error) {
	if err := validation.ExternalServiceURL(rawURL); err != nil {
		return nil, err
	}
	rb, err := b.addResource(name, models.KindExternalService)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	rb.resource.AddAnnotation(&models.EndpointAnnotation{
		Name:        u.Scheme,
		Scheme:      u.Scheme,
		ExternalURL: rawURL,
	})
	return rb, nil
}

// ResourceBuilder attaches annotations to one resource. Methods chain.
type ResourceBuilder struct {
	app      *Builder
	resource *models.Resource
}

// Resource returns the underlying resource.
func (rb *ResourceBuilder) Resource() *models.Resource { return rb.resource }

// EndpointOption customizes an endpoint declaration.
type EndpointOption func(*models.EndpointAnnotation)

// WithHostPort requests a specific host port instead of a launcher-assigned
// one.
func WithHostPort(port int) EndpointOption {
	return func(e *models.EndpointAnnotation) { e.Port = port }
}

// Proxied fronts the endpoint with the launcher's proxy.
func Proxied() EndpointOption {
	return func(e *models.EndpointAnnotation) { e.Proxied = true }
}

// ExternalEndpoint marks the endpoint as reachable from outside the
// application in the manifest.
func ExternalEndpoint() EndpointOption {
	return func(e *models.EndpointAnnotation) { e.External = true }
}

// WithEndpoint declares a named, schemed endpoint on the resource.
func (rb *ResourceBuilder) WithEndpoint(name, scheme string, targetPort int, opts ...EndpointOption) *ResourceBuilder {
	ep := &models.EndpointAnnotation{Name: name, Scheme: scheme, TargetPort: targetPort}
	for _, opt := range opts {
		opt(ep)
	}
	rb.resource.AddAnnotation(ep)
	return rb
}

// WithHTTPEndpoint declares an endpoint named "http" with scheme http.
func (rb *ResourceBuilder) WithHTTPEndpoint(targetPort int, opts ...EndpointOption) *ResourceBuilder {
	return rb.WithEndpoint("http", "http", targetPort, opts...)
}

// WithHTTPSEndpoint declares an endpoint named "https" with scheme https.
func (rb *ResourceBuilder) WithHTTPSEndpoint(targetPort int, opts ...EndpointOption) *ResourceBuilder {
	return rb.WithEndpoint("https", "https", targetPort, opts...)
}

// WithEnvironment sets one environment variable. The value may be a raw
// string, a ValueProvider, or a ReferenceExpression; deferred values resolve
// at run or publish time. Resources referenced by the value are recorded as
// relationships, once per unique resource.
func (rb *ResourceBuilder) WithEnvironment(key string, value any) *ResourceBuilder {
	rb.recordValueRelationships(value)
	rb.resource.AddAnnotation(&models.EnvironmentCallbackAnnotation{
		Callback: func(ctx context.Context, env *models.EnvironmentContext) error {
			env.Set(key, value)
			return nil
		},
	})
	return rb
}

// WithEnvironmentCallback attaches a raw environment callback.
func (rb *ResourceBuilder) WithEnvironmentCallback(cb models.EnvironmentCallback) *ResourceBuilder {
	rb.resource.AddAnnotation(&models.EnvironmentCallbackAnnotation{Callback: cb})
	return rb
}

// WithArgs appends launch arguments. Entries may be raw strings or deferred
// values.
func (rb *ResourceBuilder) WithArgs(args ...any) *ResourceBuilder {
	for _, a := range args {
		rb.recordValueRelationships(a)
	}
	rb.resource.AddAnnotation(&models.ArgumentsCallbackAnnotation{
		Callback: func(ctx context.Context, argCtx *models.ArgumentContext) error {
			argCtx.Append(args...)
			return nil
		},
	})
	return rb
}

// ReferenceOption customizes a reference declaration.
type ReferenceOption func(*resolve.ReferenceOptions)

// WithConnectionName overrides the target's name in every emitted key.
func WithConnectionName(name string) ReferenceOption {
	return func(o *resolve.ReferenceOptions) { o.Name = name }
}

// Optional suppresses the missing-connection-string error when the target
// has nothing to inject.
func Optional() ReferenceOption {
	return func(o *resolve.ReferenceOptions) { o.Optional = true }
}

// WithReference declares that this resource depends on target, injecting
// target's connection string, service-discovery URLs, endpoint shorthands,
// and connection properties into this resource's environment according to
// the resource's injection flags.
func (rb *ResourceBuilder) WithReference(target *ResourceBuilder, opts ...ReferenceOption) *ResourceBuilder {
	return rb.WithResourceReference(target.resource, opts...)
}

// WithResourceReference is WithReference for a bare resource.
func (rb *ResourceBuilder) WithResourceReference(target *models.Resource, opts ...ReferenceOption) *ResourceBuilder {
	options := resolve.ReferenceOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	rb.resource.EnsureRelationship(target, models.RelationshipReference)
	rb.resource.AddAnnotation(&models.EnvironmentCallbackAnnotation{
		Callback: resolve.ReferenceEnvironment(target, options),
	})
	return rb
}

// WithInjectionFlags narrows which reference categories this resource's
// environment receives. Last call wins.
func (rb *ResourceBuilder) WithInjectionFlags(flags models.InjectionFlags) *ResourceBuilder {
	rb.resource.AddAnnotation(&models.InjectionFlagsAnnotation{Flags: flags})
	return rb
}

// WaitFor orders this resource's startup after target. It never affects the
// environment.
func (rb *ResourceBuilder) WaitFor(target *ResourceBuilder) *ResourceBuilder {
	rb.resource.EnsureRelationship(target.resource, models.RelationshipWaitFor)
	return rb
}

// WithConnectionString gives the resource a connection string. Resources
// referenced inside the expression are recorded as relationships.
func (rb *ResourceBuilder) WithConnectionString(expr *models.ReferenceExpression) *ResourceBuilder {
	rb.recordValueRelationships(expr)
	rb.resource.AddAnnotation(&models.ConnectionStringAnnotation{Expression: expr})
	return rb
}

// WithConnectionProperties exposes named connection sub-properties. Multiple
// calls combine last-write-wins per key.
func (rb *ResourceBuilder) WithConnectionProperties(props ...models.ConnectionProperty) *ResourceBuilder {
	for _, p := range props {
		rb.recordValueRelationships(p.Value)
	}
	rb.resource.AddAnnotation(&models.ConnectionPropertiesAnnotation{Properties: props})
	return rb
}

// WithManifestCallback customizes the resource's manifest entry after
// projection. Last call wins.
func (rb *ResourceBuilder) WithManifestCallback(fn func(*models.ManifestResource) error) *ResourceBuilder {
	rb.resource.AddAnnotation(&models.ManifestCallbackAnnotation{Callback: fn})
	return rb
}

// recordValueRelationships records one Reference relationship per unique
// resource the value points at.
func (rb *ResourceBuilder) recordValueRelationships(value any) {
	switch v := value.(type) {
	case *models.ReferenceExpression:
		for _, target := range v.ReferencedResources() {
			if target != rb.resource {
				rb.resource.EnsureRelationship(target, models.RelationshipReference)
			}
		}
	case models.ResourceReferencer:
		if target := v.ReferencedResource(); target != nil && target != rb.resource {
			rb.resource.EnsureRelationship(target, models.RelationshipReference)
		}
	}
}

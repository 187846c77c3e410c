package models

import "context"

// Annotation is a capability or data record attached to a resource. It is the
// sole extension mechanism of the application model: whether a resource has a
// connection string, endpoints, or environment callbacks is decided by
// testing for the corresponding annotation type, never by resource subtyping.
type Annotation interface {
	annotation()
}

// RelationshipReference names a dependency relationship used by the launcher
// for startup ordering and by graph views.
const (
	RelationshipReference = "Reference"
	RelationshipWaitFor   = "WaitFor"
)

// EnvironmentCallback mutates the environment context of a resource during
// resolution. Callbacks run sequentially in declaration order; a callback may
// read keys written by earlier callbacks.
type EnvironmentCallback func(ctx context.Context, env *EnvironmentContext) error

// EnvironmentCallbackAnnotation attaches an environment callback to a
// resource.
type EnvironmentCallbackAnnotation struct {
	Callback EnvironmentCallback
}

// ArgumentsCallback mutates the argument list of a resource during
// resolution.
type ArgumentsCallback func(ctx context.Context, args *ArgumentContext) error

// ArgumentsCallbackAnnotation attaches an arguments callback to a resource.
type ArgumentsCallbackAnnotation struct {
	Callback ArgumentsCallback
}

// ConnectionStringAnnotation gives a resource a connection string. The
// expression may embed endpoints and parameters of other resources; it is
// resolved lazily at run or publish time.
type ConnectionStringAnnotation struct {
	Expression *ReferenceExpression
}

// ConnectionProperty is a single named sub-property of a connection
// (Host, Port, Username, ...).
type ConnectionProperty struct {
	Name  string
	Value *ReferenceExpression
}

// ConnectionPropertiesAnnotation exposes an ordered set of connection
// sub-properties. A resource may carry several of these; property sets are
// combined last-write-wins per key with the base ordering preserved.
type ConnectionPropertiesAnnotation struct {
	Properties []ConnectionProperty
}

// RelationshipAnnotation records that the owning resource has a named
// relationship to another resource.
type RelationshipAnnotation struct {
	Target *Resource
	Type   string
}

// InjectionFlags selects which environment-variable categories a reference
// emits for the owning resource.
type InjectionFlags uint8

const (
	// InjectConnectionString emits ConnectionStrings__<name>.
	InjectConnectionString InjectionFlags = 1 << iota

	// InjectServiceDiscovery emits services__<name>__<binding>__<n>.
	InjectServiceDiscovery

	// InjectEndpoints emits <NAME>_<BINDING> shorthand keys.
	InjectEndpoints

	// InjectConnectionProperties emits <NAME>_<PROPERTY> keys.
	InjectConnectionProperties
)

// InjectNone suppresses every category.
const InjectNone InjectionFlags = 0

// InjectAll enables every category. It is the default for all resource kinds
// unless narrowed by an InjectionFlagsAnnotation.
const InjectAll = InjectConnectionString | InjectServiceDiscovery | InjectEndpoints | InjectConnectionProperties

// Has reports whether f contains flag.
func (f InjectionFlags) Has(flag InjectionFlags) bool {
	return f&flag == flag && flag != 0
}

// InjectionFlagsAnnotation overrides the injection defaults of the owning
// resource. Last one wins.
type InjectionFlagsAnnotation struct {
	Flags InjectionFlags
}

// ContainerImageAnnotation names the container image of a container resource.
type ContainerImageAnnotation struct {
	Image string
}

// DockerfileAnnotation describes a container built from a local Dockerfile.
type DockerfileAnnotation struct {
	// Path is the Dockerfile path relative to the context directory.
	Path string

	// Context is the build context directory.
	Context string
}

// ProjectAnnotation points a project resource at its project file. The
// launcher reads launch settings relative to this path.
type ProjectAnnotation struct {
	Path string
}

// ExecutableAnnotation describes a locally executed command.
type ExecutableAnnotation struct {
	Command          string
	WorkingDirectory string
}

// ParameterAnnotation carries parameter metadata. Secret parameters are
// marked in the publish manifest; GenerateMinLength requests a generated
// default of at least that length.
type ParameterAnnotation struct {
	Secret            bool
	Default           string
	HasDefault        bool
	GenerateMinLength int
}

// ManifestCallbackAnnotation customizes the manifest entry of the owning
// resource after the projector builds it. Retrieved last-wins.
type ManifestCallbackAnnotation struct {
	Callback func(res *ManifestResource) error
}

func (*EnvironmentCallbackAnnotation) annotation()  {}
func (*ArgumentsCallbackAnnotation) annotation()    {}
func (*ConnectionStringAnnotation) annotation()     {}
func (*ConnectionPropertiesAnnotation) annotation() {}
func (*RelationshipAnnotation) annotation()         {}
func (*InjectionFlagsAnnotation) annotation()       {}
func (*ContainerImageAnnotation) annotation()       {}
func (*DockerfileAnnotation) annotation()           {}
func (*ProjectAnnotation) annotation()              {}
func (*ExecutableAnnotation) annotation()           {}
func (*ParameterAnnotation) annotation()            {}
func (*ManifestCallbackAnnotation) annotation()     {}
func (*EndpointAnnotation) annotation()             {}

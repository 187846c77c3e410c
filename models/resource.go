// Package models defines the application model for Maestro: resources,
// annotations, endpoints, reference expressions, and the manifest document
// format.
//
// A resource is a named node in the application graph (container, project,
// executable, parameter, connection string, external service). All behavior
// and data attached to a resource travels as annotations; there is no
// subclass-specific storage. The resolution engine and the manifest projector
// consume the annotation set in declaration order.
package models

// ResourceKind identifies what a resource represents in the application graph.
type ResourceKind string

const (
	// KindProject is a buildable application project with launch settings.
	KindProject ResourceKind = "project"

	// KindContainer is a container image run by the launcher.
	KindContainer ResourceKind = "container"

	// KindDockerfile is a container built from a local Dockerfile.
	KindDockerfile ResourceKind = "dockerfile"

	// KindExecutable is a locally executed command.
	KindExecutable ResourceKind = "executable"

	// KindParameter is an externally supplied configuration value.
	KindParameter ResourceKind = "parameter"

	// KindConnectionString is a named connection string supplied at run time.
	KindConnectionString ResourceKind = "connection-string"

	// KindExternalService is a service outside the application graph,
	// identified by a fixed URL.
	KindExternalService ResourceKind = "external-service"
)

// Resource is a named node in the application graph. Resource names are
// unique within one application and case-sensitive.
//
// Annotations are appended in declaration order and retrieved in the same
// order. A resource is not safe for concurrent mutation; the builder
// constructs the graph before any resolution runs.
type Resource struct {
	// Name is the unique resource name.
	Name string

	// Kind identifies the resource kind.
	Kind ResourceKind

	annotations []Annotation
}

// NewResource creates a resource with no annotations.
func NewResource(name string, kind ResourceKind) *Resource {
	return &Resource{Name: name, Kind: kind}
}

// AddAnnotation appends an annotation. Duplicates of the same type are
// allowed; retrieval order equals insertion order.
func (r *Resource) AddAnnotation(a Annotation) {
	r.annotations = append(r.annotations, a)
}

// Annotations returns a copy of the annotation list in insertion order.
func (r *Resource) Annotations() []Annotation {
	out := make([]Annotation, len(r.annotations))
	copy(out, r.annotations)
	return out
}

// AnnotationsOfType returns all annotations of type T on r in insertion
// order. The second return value is false when r carries none.
func AnnotationsOfType[T Annotation](r *Resource) ([]T, bool) {
	var out []T
	for _, a := range r.annotations {
		if t, ok := a.(T); ok {
			out = append(out, t)
		}
	}
	return out, len(out) > 0
}

// LastAnnotation returns the most recently added annotation of type T.
// It is the "last wins" accessor for singleton-style annotations such as
// connection strings and manifest publishing callbacks.
func LastAnnotation[T Annotation](r *Resource) (T, bool) {
	for i := len(r.annotations) - 1; i >= 0; i-- {
		if t, ok := r.annotations[i].(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// HasAnnotation reports whether r carries at least one annotation of type T.
func HasAnnotation[T Annotation](r *Resource) bool {
	_, ok := LastAnnotation[T](r)
	return ok
}

// EnsureRelationship records a named relationship from r to target unless an
// identical one already exists. Relationships are observational; they drive
// launcher ordering and graph views, never env-var injection.
func (r *Resource) EnsureRelationship(target *Resource, relType string) {
	for _, a := range r.annotations {
		if rel, ok := a.(*RelationshipAnnotation); ok {
			if rel.Target == target && rel.Type == relType {
				return
			}
		}
	}
	r.AddAnnotation(&RelationshipAnnotation{Target: target, Type: relType})
}

// Relationships returns all relationship annotations on r in insertion order.
func (r *Resource) Relationships() []*RelationshipAnnotation {
	rels, _ := AnnotationsOfType[*RelationshipAnnotation](r)
	return rels
}

// Endpoints returns all endpoint annotations on r in declaration order.
func (r *Resource) Endpoints() []*EndpointAnnotation {
	eps, _ := AnnotationsOfType[*EndpointAnnotation](r)
	return eps
}

// Endpoint returns the endpoint annotation with the given name.
func (r *Resource) Endpoint(name string) (*EndpointAnnotation, bool) {
	for _, ep := range r.Endpoints() {
		if ep.Name == name {
			return ep, true
		}
	}
	return nil, false
}

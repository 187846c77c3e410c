// Package appfile loads a declarative application definition (maestro.yaml)
// and builds the resource graph from it.
//
// String values in env, args, connection strings, and connection properties
// may embed {resource.path} references — {db.connectionString},
// {pg-password.value}, {api.bindings.http.url} — which compile into lazily
// resolved reference expressions.
package appfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"evalgo.org/maestro/internal/validation"
	"evalgo.org/maestro/models"
	"evalgo.org/maestro/pkg/maestro"
)

// Document is the root of an application definition file.
type Document struct {
	// Name is the application name.
	Name string `yaml:"name" validate:"required,resourcename"`

	// Resources declares the application graph in order.
	Resources []ResourceSpec `yaml:"resources" validate:"required,min=1,dive"`
}

// ResourceSpec declares one resource. Which fields apply depends on kind.
type ResourceSpec struct {
	// Name is the unique resource name.
	Name string `yaml:"name" validate:"required,resourcename"`

	// Kind is one of: container, dockerfile, project, executable,
	// parameter, connection-string, external-service.
	Kind string `yaml:"kind" validate:"required,oneof=container dockerfile project executable parameter connection-string external-service"`

	// Image is the container image (kind container).
	Image string `yaml:"image,omitempty"`

	// Context and Dockerfile describe a local build (kind dockerfile).
	Context    string `yaml:"context,omitempty"`
	Dockerfile string `yaml:"dockerfile,omitempty"`

	// Path is the project path (kind project).
	Path string `yaml:"path,omitempty"`

	// Command and WorkingDir describe an executable (kind executable).
	Command    string `yaml:"command,omitempty"`
	WorkingDir string `yaml:"workingDir,omitempty"`

	// URL pins an external service (kind external-service).
	URL string `yaml:"url,omitempty"`

	// Secret, Default and GenerateMinLength apply to parameters.
	Secret            bool    `yaml:"secret,omitempty"`
	Default           *string `yaml:"default,omitempty"`
	GenerateMinLength int     `yaml:"generateMinLength,omitempty"`

	// Endpoints declares named network bindings.
	Endpoints []EndpointSpec `yaml:"endpoints,omitempty" validate:"dive"`

	// Env sets environment variables in order. Values may be templates.
	Env []EnvVarSpec `yaml:"env,omitempty" validate:"dive"`

	// Args appends launch arguments. Entries may be templates.
	Args []string `yaml:"args,omitempty"`

	// References injects other resources' configuration.
	References []ReferenceSpec `yaml:"references,omitempty" validate:"dive"`

	// WaitFor orders startup after the named resources.
	WaitFor []string `yaml:"waitFor,omitempty"`

	// ConnectionString is a template for the resource's connection string.
	ConnectionString string `yaml:"connectionString,omitempty"`

	// ConnectionProperties exposes named sub-properties; values may be
	// templates.
	ConnectionProperties []PropertySpec `yaml:"connectionProperties,omitempty" validate:"dive"`
}

// EndpointSpec declares one endpoint.
type EndpointSpec struct {
	Name       string `yaml:"name" validate:"required"`
	Scheme     string `yaml:"scheme" validate:"required"`
	TargetPort int    `yaml:"targetPort,omitempty" validate:"omitempty,min=1,max=65535"`
	Port       int    `yaml:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	External   bool   `yaml:"external,omitempty"`
	Proxied    bool   `yaml:"proxied,omitempty"`
}

// EnvVarSpec is one ordered environment entry.
type EnvVarSpec struct {
	Name  string `yaml:"name" validate:"required"`
	Value string `yaml:"value"`
}

// ReferenceSpec declares a reference to another resource.
type ReferenceSpec struct {
	Target   string `yaml:"target" validate:"required"`
	Name     string `yaml:"name,omitempty"`
	Optional bool   `yaml:"optional,omitempty"`
}

// PropertySpec is one named connection property.
type PropertySpec struct {
	Name  string `yaml:"name" validate:"required"`
	Value string `yaml:"value" validate:"required"`
}

// LoadFile parses, validates, and builds the application declared at path.
func LoadFile(path string) (*maestro.Builder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading app definition: %w", err)
	}
	return Load(data)
}

// Load parses, validates, and builds an application definition document.
func Load(data []byte) (*maestro.Builder, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// Parse decodes and validates the document without building resources.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing app definition: %w", err)
	}
	result := validation.New().Struct(&doc)
	if !result.Valid {
		first := result.Errors[0]
		return nil, fmt.Errorf("invalid app definition: %s: %s", first.Field, first.Message)
	}
	return &doc, nil
}

// Build constructs the resource graph. Resources are created in declaration
// order first, then wired, so templates and references may point forward.
func Build(doc *Document) (*maestro.Builder, error) {
	b := maestro.New(doc.Name)

	builders := make(map[string]*maestro.ResourceBuilder, len(doc.Resources))
	for i := range doc.Resources {
		spec := &doc.Resources[i]
		rb, err := createResource(b, spec)
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", spec.Name, err)
		}
		builders[spec.Name] = rb
	}

	lookup := func(name string) (*models.Resource, bool) { return b.Resource(name) }
	for i := range doc.Resources {
		spec := &doc.Resources[i]
		if err := wireResource(builders[spec.Name], spec, builders, lookup); err != nil {
			return nil, fmt.Errorf("resource %q: %w", spec.Name, err)
		}
	}
	return b, nil
}

func createResource(b *maestro.Builder, spec *ResourceSpec) (*maestro.ResourceBuilder, error) {
	switch spec.Kind {
	case "container":
		if spec.Image == "" {
			return nil, fmt.Errorf("container requires an image")
		}
		return b.AddContainer(spec.Name, spec.Image)
	case "dockerfile":
		if spec.Context == "" {
			return nil, fmt.Errorf("dockerfile requires a context directory")
		}
		return b.AddDockerfile(spec.Name, spec.Context, spec.Dockerfile)
	case "project":
		if spec.Path == "" {
			return nil, fmt.Errorf("project requires a path")
		}
		return b.AddProject(spec.Name, spec.Path)
	case "executable":
		if spec.Command == "" {
			return nil, fmt.Errorf("executable requires a command")
		}
		return b.AddExecutable(spec.Name, spec.Command, spec.WorkingDir)
	case "parameter":
		var opts []maestro.ParameterOption
		if spec.Secret {
			opts = append(opts, maestro.Secret())
		}
		if spec.Default != nil {
			opts = append(opts, maestro.WithDefault(*spec.Default))
		}
		if spec.GenerateMinLength > 0 {
			opts = append(opts, maestro.WithGeneratedDefault(spec.GenerateMinLength))
		}
		return b.AddParameter(spec.Name, opts...)
	case "connection-string":
		return b.AddConnectionString(spec.Name)
	case "external-service":
		if spec.URL == "" {
			return nil, fmt.Errorf("external-service requires a url")
		}
		return b.AddExternalService(spec.Name, spec.URL)
	}
	return nil, fmt.Errorf("unknown resource kind %q", spec.Kind)
}

func wireResource(rb *maestro.ResourceBuilder, spec *ResourceSpec, builders map[string]*maestro.ResourceBuilder, lookup ResourceLookup) error {
	for _, ep := range spec.Endpoints {
		var opts []maestro.EndpointOption
		if ep.Port > 0 {
			opts = append(opts, maestro.WithHostPort(ep.Port))
		}
		if ep.External {
			opts = append(opts, maestro.ExternalEndpoint())
		}
		if ep.Proxied {
			opts = append(opts, maestro.Proxied())
		}
		rb.WithEndpoint(ep.Name, ep.Scheme, ep.TargetPort, opts...)
	}

	for _, env := range spec.Env {
		value, err := templateValue(env.Value, lookup)
		if err != nil {
			return fmt.Errorf("env %q: %w", env.Name, err)
		}
		rb.WithEnvironment(env.Name, value)
	}

	if len(spec.Args) > 0 {
		args := make([]any, 0, len(spec.Args))
		for i, arg := range spec.Args {
			value, err := templateValue(arg, lookup)
			if err != nil {
				return fmt.Errorf("arg %d: %w", i, err)
			}
			args = append(args, value)
		}
		rb.WithArgs(args...)
	}

	if spec.ConnectionString != "" {
		expr, _, err := ParseTemplate(spec.ConnectionString, lookup)
		if err != nil {
			return fmt.Errorf("connectionString: %w", err)
		}
		rb.WithConnectionString(expr)
	}

	if len(spec.ConnectionProperties) > 0 {
		props := make([]models.ConnectionProperty, 0, len(spec.ConnectionProperties))
		for _, p := range spec.ConnectionProperties {
			expr, _, err := ParseTemplate(p.Value, lookup)
			if err != nil {
				return fmt.Errorf("connection property %q: %w", p.Name, err)
			}
			props = append(props, models.ConnectionProperty{Name: p.Name, Value: expr})
		}
		rb.WithConnectionProperties(props...)
	}

	for _, ref := range spec.References {
		target, ok := builders[ref.Target]
		if !ok {
			return &models.UnknownResourceError{Source: spec.Name, Target: ref.Target}
		}
		var opts []maestro.ReferenceOption
		if ref.Name != "" {
			opts = append(opts, maestro.WithConnectionName(ref.Name))
		}
		if ref.Optional {
			opts = append(opts, maestro.Optional())
		}
		rb.WithReference(target, opts...)
	}

	for _, name := range spec.WaitFor {
		target, ok := builders[name]
		if !ok {
			return &models.UnknownResourceError{Source: spec.Name, Target: name}
		}
		rb.WaitFor(target)
	}
	return nil
}

// templateValue compiles a possibly templated string: plain strings pass
// through unchanged, strings with references compile into expressions.
func templateValue(s string, lookup ResourceLookup) (any, error) {
	expr, hasRefs, err := ParseTemplate(s, lookup)
	if err != nil {
		return nil, err
	}
	if !hasRefs {
		return s, nil
	}
	return expr, nil
}

package models

// Manifest is the publish-mode projection of the application graph: a JSON
// tree keyed by resource name. Field presence is conditional — a field is
// absent when the corresponding annotation is not used, never emitted as a
// null or empty placeholder.
type Manifest struct {
	// Schema is the manifest schema URL.
	Schema string `json:"$schema,omitempty"`

	// Resources maps resource names to their manifest entries.
	Resources map[string]*ManifestResource `json:"resources"`
}

// ManifestResource is one resource entry in the manifest. Type is a closed,
// versioned kind discriminator (container.v0, project.v0, dockerfile.v0,
// executable.v0, parameter.v0, value.v0); evolution of the format is
// additive.
type ManifestResource struct {
	// Type is the versioned resource kind string.
	Type string `json:"type"`

	// Path is the project file or Dockerfile path.
	Path string `json:"path,omitempty"`

	// Context is the Dockerfile build context directory.
	Context string `json:"context,omitempty"`

	// Image is the container image reference.
	Image string `json:"image,omitempty"`

	// Command is the executable command.
	Command string `json:"command,omitempty"`

	// WorkingDirectory is the executable working directory.
	WorkingDirectory string `json:"workingDirectory,omitempty"`

	// ConnectionString is the symbolic connection-string expression.
	ConnectionString string `json:"connectionString,omitempty"`

	// Value is the symbolic value expression of parameter resources.
	Value string `json:"value,omitempty"`

	// Env maps environment variable names to symbolic values.
	Env map[string]string `json:"env,omitempty"`

	// Args is the symbolic argument list.
	Args []string `json:"args,omitempty"`

	// Bindings maps binding names to structured binding objects.
	Bindings map[string]*ManifestBinding `json:"bindings,omitempty"`

	// Inputs maps input names to input declarations (parameters only).
	Inputs map[string]*ManifestInput `json:"inputs,omitempty"`

	// Metadata carries free-form deployment metadata.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ManifestBinding is the structured form of an endpoint in the manifest.
// Endpoints render as binding objects, never as resolved URLs.
type ManifestBinding struct {
	// Scheme is the URI scheme.
	Scheme string `json:"scheme"`

	// Protocol is the transport protocol (tcp, udp).
	Protocol string `json:"protocol"`

	// Transport is the application transport (http, http2, tcp).
	Transport string `json:"transport"`

	// TargetPort is the workload port, when declared.
	TargetPort int `json:"targetPort,omitempty"`

	// Port is the requested host port, when declared.
	Port int `json:"port,omitempty"`

	// External marks the binding as externally reachable.
	External bool `json:"external,omitempty"`
}

// ManifestInput declares a deploy-time input of a parameter resource.
type ManifestInput struct {
	// Type is the input value type.
	Type string `json:"type"`

	// Secret marks the input as sensitive. Absent unless true.
	Secret bool `json:"secret,omitempty"`

	// Default optionally supplies or generates a default value.
	Default *ManifestInputDefault `json:"default,omitempty"`
}

// ManifestInputDefault supplies a default for a manifest input.
type ManifestInputDefault struct {
	// Value is a fixed default.
	Value string `json:"value,omitempty"`

	// Generate requests a generated default.
	Generate *ManifestGenerate `json:"generate,omitempty"`
}

// ManifestGenerate describes generated default values.
type ManifestGenerate struct {
	// MinLength is the minimum generated length.
	MinLength int `json:"minLength,omitempty"`
}

// Package manifest projects the application graph into the publish-mode
// deployment manifest: a JSON tree keyed by resource name where deferred
// values render as symbolic {resource.path} placeholders and endpoints render
// as structured binding objects.
package manifest

import (
	"context"
	"fmt"

	"evalgo.org/maestro/internal/resolve"
	"evalgo.org/maestro/models"
)

// SchemaURL identifies the manifest document format.
const SchemaURL = "https://json.schemastore.org/aspire-8.0.json"

// Build projects every resource into its manifest entry. Expressions resolve
// symbolically; missing parameter values never fail a publish.
func Build(ctx context.Context, resources []*models.Resource) (*models.Manifest, error) {
	m := &models.Manifest{
		Schema:    SchemaURL,
		Resources: make(map[string]*models.ManifestResource, len(resources)),
	}

	ec := models.NewPublishContext()
	for _, r := range resources {
		entry, err := projectResource(ctx, r, ec)
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", r.Name, err)
		}
		if cb, ok := models.LastAnnotation[*models.ManifestCallbackAnnotation](r); ok {
			if err := cb.Callback(entry); err != nil {
				return nil, fmt.Errorf("resource %q: manifest callback failed: %w", r.Name, err)
			}
		}
		m.Resources[r.Name] = entry
	}
	return m, nil
}

func projectResource(ctx context.Context, r *models.Resource, ec *models.ExecutionContext) (*models.ManifestResource, error) {
	switch r.Kind {
	case models.KindContainer:
		entry := &models.ManifestResource{Type: "container.v0"}
		if img, ok := models.LastAnnotation[*models.ContainerImageAnnotation](r); ok {
			entry.Image = img.Image
		}
		return entry, projectWorkload(ctx, r, ec, entry)

	case models.KindDockerfile:
		entry := &models.ManifestResource{Type: "dockerfile.v0"}
		if df, ok := models.LastAnnotation[*models.DockerfileAnnotation](r); ok {
			entry.Path = df.Path
			entry.Context = df.Context
		}
		return entry, projectWorkload(ctx, r, ec, entry)

	case models.KindProject:
		entry := &models.ManifestResource{Type: "project.v0"}
		if p, ok := models.LastAnnotation[*models.ProjectAnnotation](r); ok {
			entry.Path = p.Path
		}
		return entry, projectWorkload(ctx, r, ec, entry)

	case models.KindExecutable:
		entry := &models.ManifestResource{Type: "executable.v0"}
		if e, ok := models.LastAnnotation[*models.ExecutableAnnotation](r); ok {
			entry.Command = e.Command
			entry.WorkingDirectory = e.WorkingDirectory
		}
		return entry, projectWorkload(ctx, r, ec, entry)

	case models.KindParameter:
		return projectParameter(r), nil

	case models.KindConnectionString:
		return &models.ManifestResource{
			Type:             "value.v0",
			ConnectionString: "{" + r.Name + ".value}",
		}, nil

	case models.KindExternalService:
		entry := &models.ManifestResource{Type: "value.v0"}
		for _, ep := range r.Endpoints() {
			if ep.ExternalURL != "" {
				entry.ConnectionString = ep.ExternalURL
				break
			}
		}
		return entry, nil
	}

	return nil, fmt.Errorf("unknown resource kind %q", r.Kind)
}

// projectWorkload fills the parts shared by runnable resources: env, args,
// bindings, and connection string. Fields stay absent when the resource has
// nothing to contribute.
func projectWorkload(ctx context.Context, r *models.Resource, ec *models.ExecutionContext, entry *models.ManifestResource) error {
	env, err := resolve.EnvironmentVariables(ctx, r, ec)
	if err != nil {
		return err
	}
	if len(env) > 0 {
		entry.Env = make(map[string]string, len(env))
		for _, v := range env {
			entry.Env[v.Name] = v.Value
		}
	}

	args, err := resolve.Arguments(ctx, r, ec)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		entry.Args = args
	}

	endpoints := r.Endpoints()
	if len(endpoints) > 0 {
		entry.Bindings = make(map[string]*models.ManifestBinding, len(endpoints))
		for _, ep := range endpoints {
			entry.Bindings[ep.Name] = projectBinding(ep)
		}
	}

	if cs, ok := models.LastAnnotation[*models.ConnectionStringAnnotation](r); ok {
		entry.ConnectionString = cs.Expression.ManifestExpression()
	}
	return nil
}

func projectBinding(ep *models.EndpointAnnotation) *models.ManifestBinding {
	b := &models.ManifestBinding{
		Scheme:     ep.Scheme,
		Protocol:   "tcp",
		Transport:  transportFor(ep.Scheme),
		TargetPort: ep.TargetPort,
		Port:       ep.Port,
		External:   ep.External,
	}
	return b
}

func transportFor(scheme string) string {
	switch scheme {
	case "http", "https":
		return "http"
	default:
		return "tcp"
	}
}

func projectParameter(r *models.Resource) *models.ManifestResource {
	entry := &models.ManifestResource{
		Type:  "parameter.v0",
		Value: "{" + r.Name + ".inputs.value}",
	}
	input := &models.ManifestInput{Type: "string"}
	if pa, ok := models.LastAnnotation[*models.ParameterAnnotation](r); ok {
		input.Secret = pa.Secret
		if pa.HasDefault {
			input.Default = &models.ManifestInputDefault{Value: pa.Default}
		} else if pa.GenerateMinLength > 0 {
			input.Default = &models.ManifestInputDefault{
				Generate: &models.ManifestGenerate{MinLength: pa.GenerateMinLength},
			}
		}
	}
	entry.Inputs = map[string]*models.ManifestInput{"value": input}
	return entry
}

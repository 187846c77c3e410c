package appfile

import (
	"fmt"
	"strings"

	"evalgo.org/maestro/models"
)

// ResourceLookup resolves a resource name from the application graph.
type ResourceLookup func(name string) (*models.Resource, bool)

// ParseTemplate compiles a string with embedded {resource.path} references
// into a reference expression. Supported paths:
//
//	{name.value}                      parameter or connection-string value
//	{name.connectionString}           another resource's connection string
//	{name.bindings.<binding>.<prop>}  endpoint facet (url, host, port,
//	                                  scheme, targetPort)
//
// The second return value reports whether any reference was found; callers
// keep plain strings as-is when it is false. Text without a matching closing
// brace is treated as literal.
func ParseTemplate(input string, lookup ResourceLookup) (*models.ReferenceExpression, bool, error) {
	var parts []models.ExpressionPart
	hasRefs := false
	remaining := input

	for len(remaining) > 0 {
		openIdx := strings.Index(remaining, "{")
		if openIdx == -1 {
			parts = append(parts, models.Literal(remaining))
			break
		}
		if openIdx > 0 {
			parts = append(parts, models.Literal(remaining[:openIdx]))
		}

		closeIdx := strings.Index(remaining[openIdx:], "}")
		if closeIdx == -1 {
			parts = append(parts, models.Literal(remaining[openIdx:]))
			break
		}
		closeIdx += openIdx

		content := remaining[openIdx+1 : closeIdx]
		part, err := compileReference(content, lookup)
		if err != nil {
			return nil, false, err
		}
		parts = append(parts, part)
		hasRefs = true

		remaining = remaining[closeIdx+1:]
	}

	return models.Expr(parts...), hasRefs, nil
}

// compileReference turns the content of one {...} reference into an
// expression part.
func compileReference(content string, lookup ResourceLookup) (models.ExpressionPart, error) {
	segments := strings.Split(content, ".")
	if len(segments) < 2 {
		return models.ExpressionPart{}, fmt.Errorf("reference {%s} is invalid: expected {resource.path}", content)
	}

	name := segments[0]
	target, ok := lookup(name)
	if !ok {
		return models.ExpressionPart{}, &models.UnknownResourceError{Target: name}
	}

	path := segments[1:]
	switch {
	case len(path) == 1 && path[0] == "value":
		switch target.Kind {
		case models.KindParameter:
			return models.Value(models.Param(target)), nil
		case models.KindConnectionString:
			return models.Value(models.ConnectionStringRef(target)), nil
		}
		return models.ExpressionPart{}, fmt.Errorf("reference {%s} is invalid: %q is not a parameter or connection string", content, name)

	case len(path) == 1 && path[0] == "connectionString":
		return models.Value(models.ConnectionStringRef(target)), nil

	case len(path) == 3 && path[0] == "bindings":
		ref, err := models.EndpointRef(target, path[1])
		if err != nil {
			return models.ExpressionPart{}, fmt.Errorf("reference {%s} is invalid: %w", content, err)
		}
		prop, ok := models.ParseEndpointProperty(path[2])
		if !ok {
			return models.ExpressionPart{}, fmt.Errorf("reference {%s} is invalid: unknown endpoint property %q", content, path[2])
		}
		return models.Value(ref.Property(prop)), nil
	}

	return models.ExpressionPart{}, fmt.Errorf("reference {%s} is not supported", content)
}

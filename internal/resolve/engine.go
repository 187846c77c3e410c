// Package resolve implements the environment and argument resolution engine:
// it walks a resource's callback annotations in declaration order, executes
// them against a mutable context, and resolves every deferred value into a
// final string (Run mode) or a symbolic placeholder (Publish mode).
//
// It also implements the reference injection policy that turns a declared
// resource-to-resource reference into the concrete set of environment
// variable keys: connection strings, service-discovery URLs, endpoint
// shorthands, and connection properties.
package resolve

import (
	"context"
	"fmt"

	"evalgo.org/maestro/models"
)

// EnvVar is one resolved environment variable. Order matters: the engine
// returns variables in first-write order.
type EnvVar struct {
	Name  string
	Value string
}

// EnvironmentVariables runs all environment callbacks of r in declaration
// order and resolves every value under ec. A resource with no callbacks
// yields an empty, non-nil slice.
//
// Callbacks never run concurrently: later callbacks may depend on keys
// written by earlier ones. A failure in any callback or in resolving any
// single value aborts the whole call; no partial result is returned.
func EnvironmentVariables(ctx context.Context, r *models.Resource, ec *models.ExecutionContext) ([]EnvVar, error) {
	env := models.NewEnvironmentContext(r, ec)

	callbacks, _ := models.AnnotationsOfType[*models.EnvironmentCallbackAnnotation](r)
	for _, cb := range callbacks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := cb.Callback(ctx, env); err != nil {
			return nil, fmt.Errorf("resource %q: environment callback failed: %w", r.Name, err)
		}
	}

	out := make([]EnvVar, 0, env.Len())
	for _, key := range env.Keys() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, _ := env.Get(key)
		value, err := resolveValue(ctx, raw, ec)
		if err != nil {
			return nil, fmt.Errorf("resource %q: resolving %q: %w", r.Name, key, err)
		}
		out = append(out, EnvVar{Name: key, Value: value})
	}
	return out, nil
}

// EnvironmentMap resolves like EnvironmentVariables but returns a plain map
// for callers that do not need ordering.
func EnvironmentMap(ctx context.Context, r *models.Resource, ec *models.ExecutionContext) (map[string]string, error) {
	vars, err := EnvironmentVariables(ctx, r, ec)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(vars))
	for _, v := range vars {
		out[v.Name] = v.Value
	}
	return out, nil
}

// Arguments runs all argument callbacks of r in declaration order and
// resolves every entry under ec. A resource with no callbacks yields an
// empty, non-nil slice.
func Arguments(ctx context.Context, r *models.Resource, ec *models.ExecutionContext) ([]string, error) {
	argCtx := models.NewArgumentContext(r, ec)

	callbacks, _ := models.AnnotationsOfType[*models.ArgumentsCallbackAnnotation](r)
	for _, cb := range callbacks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := cb.Callback(ctx, argCtx); err != nil {
			return nil, fmt.Errorf("resource %q: arguments callback failed: %w", r.Name, err)
		}
	}

	raw := argCtx.Args()
	out := make([]string, 0, len(raw))
	for i, a := range raw {
		value, err := resolveValue(ctx, a, ec)
		if err != nil {
			return nil, fmt.Errorf("resource %q: resolving argument %d: %w", r.Name, i, err)
		}
		out = append(out, value)
	}
	return out, nil
}

// resolveValue turns one context value into its final string. Strings pass
// through; value providers resolve concretely in Run mode and symbolically in
// Publish mode; anything else stringifies via fmt.
func resolveValue(ctx context.Context, v any, ec *models.ExecutionContext) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case *models.ReferenceExpression:
		return val.Resolve(ctx, ec)
	case models.ValueProvider:
		if ec.Operation == models.OperationPublish {
			return val.ManifestExpression(), nil
		}
		return val.ProviderValue(ctx, ec)
	case nil:
		return "", nil
	default:
		return fmt.Sprint(val), nil
	}
}

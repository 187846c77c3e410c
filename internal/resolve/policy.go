package resolve

import (
	"context"

	"evalgo.org/maestro/models"
)

// ReferenceOptions tunes how a reference from one resource to another is
// injected into the source's environment.
type ReferenceOptions struct {
	// Name overrides the target resource's name in every emitted key.
	Name string

	// Optional suppresses the missing-connection-string error when the
	// target has nothing to inject.
	Optional bool
}

// ReferenceEnvironment builds the environment callback that injects target's
// configuration into the resource being resolved. The callback consults the
// source's injection flags and the target's capabilities at resolution time,
// emitting up to four independent key categories:
//
//   - ConnectionStrings__<name>          (connection-string capability)
//   - <NAME>_<PROPERTY>                  (connection-properties capability)
//   - services__<name>__<binding>__<n>   (endpoint capability)
//   - <NAME>_<BINDING>                   (endpoint capability)
//
// A non-optional reference to a target with no capability at all fails with
// MissingConnectionStringError; an optional one emits nothing.
func ReferenceEnvironment(target *models.Resource, opts ReferenceOptions) models.EnvironmentCallback {
	return func(ctx context.Context, env *models.EnvironmentContext) error {
		name := opts.Name
		if name == "" {
			name = target.Name
		}

		flags := models.InjectAll
		if fa, ok := models.LastAnnotation[*models.InjectionFlagsAnnotation](env.Resource); ok {
			flags = fa.Flags
		}

		hasConnectionString := target.Kind == models.KindConnectionString ||
			models.HasAnnotation[*models.ConnectionStringAnnotation](target)
		endpoints := target.Endpoints()
		properties := EffectiveProperties(target)

		if flags.Has(models.InjectConnectionString) {
			switch {
			case hasConnectionString:
				env.Set(ConnectionStringKey(name), models.ConnectionStringRef(target))
			case len(endpoints) == 0 && len(properties) == 0:
				if !opts.Optional {
					return &models.MissingConnectionStringError{Resource: target.Name}
				}
			}
		}

		if flags.Has(models.InjectConnectionProperties) {
			for _, p := range properties {
				env.Set(PropertyKey(name, p.Name), p.Value)
			}
		}

		if flags.Has(models.InjectServiceDiscovery) {
			ordinals := schemeOrdinals(endpoints)
			for _, ep := range endpoints {
				ref, err := models.EndpointRef(target, ep.Name)
				if err != nil {
					return err
				}
				env.Set(ServiceDiscoveryKey(name, ep.Name, ordinals[ep]), ref)
			}
		}

		if flags.Has(models.InjectEndpoints) {
			for _, ep := range endpoints {
				ref, err := models.EndpointRef(target, ep.Name)
				if err != nil {
					return err
				}
				env.Set(EndpointShorthandKey(name, ep.Name), ref)
			}
		}

		return nil
	}
}

package resolve

import (
	"strings"

	"evalgo.org/maestro/models"
)

// CombineProperties merges an additional property set into a base set.
// Key comparison is case-insensitive. Keys retained from the base set keep
// their ordinal position (with the additional set's value when overridden);
// wholly new keys append in the additional set's order. Neither input is
// mutated.
func CombineProperties(base, additional []models.ConnectionProperty) []models.ConnectionProperty {
	out := make([]models.ConnectionProperty, len(base))
	copy(out, base)

	index := make(map[string]int, len(base))
	for i, p := range base {
		index[strings.ToLower(p.Name)] = i
	}

	for _, p := range additional {
		if i, ok := index[strings.ToLower(p.Name)]; ok {
			out[i].Value = p.Value
			continue
		}
		index[strings.ToLower(p.Name)] = len(out)
		out = append(out, p)
	}
	return out
}

// EffectiveProperties combines all connection-property annotations of r in
// declaration order into one property set.
func EffectiveProperties(r *models.Resource) []models.ConnectionProperty {
	annotations, ok := models.AnnotationsOfType[*models.ConnectionPropertiesAnnotation](r)
	if !ok {
		return nil
	}
	combined := annotations[0].Properties
	for _, a := range annotations[1:] {
		combined = CombineProperties(combined, a.Properties)
	}
	return combined
}

package resolve

import (
	"fmt"
	"strings"

	"evalgo.org/maestro/models"
)

// EnvStyle normalizes a name for shorthand and property keys: upper-case with
// dashes replaced by underscores. Structured services__ and
// ConnectionStrings__ keys keep names verbatim, dashes included.
func EnvStyle(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// ServiceDiscoveryKey builds the structured service-discovery key
// services__<name>__<binding>__<n>. The name and binding stay lower-case with
// dashes preserved.
func ServiceDiscoveryKey(name, binding string, index int) string {
	return fmt.Sprintf("services__%s__%s__%d", strings.ToLower(name), strings.ToLower(binding), index)
}

// ConnectionStringKey builds ConnectionStrings__<name>, dashes preserved.
func ConnectionStringKey(name string) string {
	return "ConnectionStrings__" + name
}

// EndpointShorthandKey builds <NAME>_<BINDING>.
func EndpointShorthandKey(name, binding string) string {
	return EnvStyle(name) + "_" + EnvStyle(binding)
}

// PropertyKey builds <NAME>_<PROPERTY>.
func PropertyKey(name, property string) string {
	return EnvStyle(name) + "_" + EnvStyle(property)
}

// schemeOrdinals assigns each endpoint its index among the resource's
// endpoints sharing the same scheme, counted over ALL endpoints of the
// resource in declaration order. Conflict detection is resource-global: the
// index of an endpoint never depends on which subset of endpoints a
// particular reference pulled in.
func schemeOrdinals(endpoints []*models.EndpointAnnotation) map[*models.EndpointAnnotation]int {
	counts := make(map[string]int)
	out := make(map[*models.EndpointAnnotation]int, len(endpoints))
	for _, ep := range endpoints {
		out[ep] = counts[ep.Scheme]
		counts[ep.Scheme]++
	}
	return out
}

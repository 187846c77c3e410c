package config

// ParameterValues adapts the configured parameters and connection_strings
// sections into the execution context's parameter source. Reads are
// concurrency-safe because the underlying config is never mutated after Load.
type ParameterValues struct {
	cfg *Config
}

// Parameters returns the Run-mode parameter source backed by this config.
func (c *Config) ParameterValues() *ParameterValues {
	return &ParameterValues{cfg: c}
}

// Parameter returns the configured value for a parameter resource.
func (p *ParameterValues) Parameter(name string) (string, bool) {
	v, ok := p.cfg.Parameters[name]
	return v, ok
}

// ConnectionString returns the configured value for a connection-string
// resource.
func (p *ParameterValues) ConnectionString(name string) (string, bool) {
	v, ok := p.cfg.ConnectionStrings[name]
	return v, ok
}

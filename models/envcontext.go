package models

// EnvironmentContext is the mutable key→value map environment callbacks write
// into during one resolution pass. Keys keep the position of their first
// write; a later overwrite updates the value in place. Values may be raw
// strings or lazily resolved ValueProviders (including whole reference
// expressions).
//
// The context lives for a single resolution call of a single resource and is
// discarded afterwards.
type EnvironmentContext struct {
	// Execution is the shared, read-only execution context of the build.
	Execution *ExecutionContext

	// Resource is the resource being resolved.
	Resource *Resource

	keys   []string
	values map[string]any
}

// NewEnvironmentContext creates an empty environment context for one
// resolution pass.
func NewEnvironmentContext(r *Resource, ec *ExecutionContext) *EnvironmentContext {
	return &EnvironmentContext{
		Execution: ec,
		Resource:  r,
		values:    make(map[string]any),
	}
}

// Set writes a key. The first write fixes the key's position; later writes
// keep the position and replace the value.
func (c *EnvironmentContext) Set(key string, value any) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Get returns the current value for key.
func (c *EnvironmentContext) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Delete removes a key and its position.
func (c *EnvironmentContext) Delete(key string) {
	if _, ok := c.values[key]; !ok {
		return
	}
	delete(c.values, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in first-write order.
func (c *EnvironmentContext) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of keys.
func (c *EnvironmentContext) Len() int { return len(c.keys) }

// ArgumentContext is the ordered argument list arguments callbacks append to
// during one resolution pass. Entries may be raw strings or ValueProviders.
type ArgumentContext struct {
	// Execution is the shared, read-only execution context of the build.
	Execution *ExecutionContext

	// Resource is the resource being resolved.
	Resource *Resource

	args []any
}

// NewArgumentContext creates an empty argument context for one resolution
// pass.
func NewArgumentContext(r *Resource, ec *ExecutionContext) *ArgumentContext {
	return &ArgumentContext{Execution: ec, Resource: r}
}

// Append adds arguments in order.
func (c *ArgumentContext) Append(values ...any) {
	c.args = append(c.args, values...)
}

// Args returns the argument list in insertion order.
func (c *ArgumentContext) Args() []any {
	out := make([]any, len(c.args))
	copy(out, c.args)
	return out
}

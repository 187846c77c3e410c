package launcher

import (
	"fmt"

	"evalgo.org/maestro/models"
)

// Allocator assigns host addresses and ports to endpoints before launch.
// Ports are handed out sequentially starting at BasePort; endpoints that pin
// an explicit host port keep it. Endpoints backed by an external URL are
// never allocated.
type Allocator struct {
	// Host is the address endpoints resolve to.
	Host string

	// BasePort is the first port considered for automatic allocation.
	BasePort int

	used map[int]bool
	next int
}

// NewAllocator creates an allocator for the given host and port range.
func NewAllocator(host string, basePort int) *Allocator {
	return &Allocator{
		Host:     host,
		BasePort: basePort,
		used:     make(map[int]bool),
		next:     basePort,
	}
}

// AllocateAll allocates every unallocated endpoint of every resource. Pinned
// ports are claimed first so automatic allocation cannot collide with them.
func (a *Allocator) AllocateAll(resources []*models.Resource) error {
	var pending []*models.EndpointAnnotation

	for _, r := range resources {
		for _, ep := range r.Endpoints() {
			if _, ok := ep.Allocated(); ok || ep.ExternalURL != "" {
				continue
			}
			if ep.Port > 0 {
				if a.used[ep.Port] {
					return fmt.Errorf("endpoint %s/%s: port %d already allocated", r.Name, ep.Name, ep.Port)
				}
				a.used[ep.Port] = true
				if err := ep.Allocate(a.Host, ep.Port); err != nil {
					return fmt.Errorf("endpoint %s/%s: %w", r.Name, ep.Name, err)
				}
				continue
			}
			pending = append(pending, ep)
		}
	}

	for _, ep := range pending {
		port, err := a.nextPort()
		if err != nil {
			return err
		}
		if err := ep.Allocate(a.Host, port); err != nil {
			return err
		}
	}
	return nil
}

func (a *Allocator) nextPort() (int, error) {
	for a.next <= 65535 {
		port := a.next
		a.next++
		if !a.used[port] {
			a.used[port] = true
			return port, nil
		}
	}
	return 0, fmt.Errorf("port range exhausted above %d", a.BasePort)
}

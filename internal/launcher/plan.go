package launcher

import (
	"fmt"

	"evalgo.org/maestro/models"
)

// launchable reports whether the launcher starts a process or container for
// the resource. Parameters, connection strings, and external services only
// feed values into other resources.
func launchable(r *models.Resource) bool {
	switch r.Kind {
	case models.KindContainer, models.KindDockerfile, models.KindProject, models.KindExecutable:
		return true
	}
	return false
}

// Waves orders launchable resources into dependency waves: every resource in
// wave n only depends on resources in earlier waves. Both Reference and
// WaitFor relationships order startup; relationships to non-launchable
// resources do not.
func Waves(resources []*models.Resource) ([][]*models.Resource, error) {
	byName := make(map[string]*models.Resource, len(resources))
	var targets []*models.Resource
	for _, r := range resources {
		if launchable(r) {
			byName[r.Name] = r
			targets = append(targets, r)
		}
	}

	// dep -> dependents adjacency and in-degree per resource.
	dependents := make(map[string][]string, len(targets))
	inDegree := make(map[string]int, len(targets))
	for _, r := range targets {
		inDegree[r.Name] = 0
	}
	for _, r := range targets {
		seen := make(map[string]bool)
		for _, rel := range r.Relationships() {
			dep := rel.Target.Name
			if _, ok := byName[dep]; !ok || dep == r.Name || seen[dep] {
				continue
			}
			seen[dep] = true
			dependents[dep] = append(dependents[dep], r.Name)
			inDegree[r.Name]++
		}
	}

	// Kahn's algorithm, collecting each zero-degree generation as a wave.
	var queue []string
	for _, r := range targets {
		if inDegree[r.Name] == 0 {
			queue = append(queue, r.Name)
		}
	}

	var waves [][]*models.Resource
	processed := 0
	for len(queue) > 0 {
		wave := make([]*models.Resource, 0, len(queue))
		for _, name := range queue {
			wave = append(wave, byName[name])
		}
		waves = append(waves, wave)
		processed += len(wave)

		var next []string
		for _, name := range queue {
			for _, dependent := range dependents[name] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		queue = next
	}

	if processed != len(targets) {
		return nil, fmt.Errorf("circular dependency detected among resources")
	}
	return waves, nil
}

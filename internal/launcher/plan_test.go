package launcher

import (
	"testing"

	"evalgo.org/maestro/models"
)

func testContainer(name string) *models.Resource {
	return testContainerImage(name, name+":latest")
}

func waveNames(waves [][]*models.Resource) [][]string {
	out := make([][]string, len(waves))
	for i, wave := range waves {
		for _, r := range wave {
			out[i] = append(out[i], r.Name)
		}
	}
	return out
}

// TestWaves_Chain tests that a linear dependency chain yields one wave per resource.
func TestWaves_Chain(t *testing.T) {
	db := testContainer("db")
	api := testContainer("api")
	web := testContainer("web")
	api.EnsureRelationship(db, models.RelationshipReference)
	web.EnsureRelationship(api, models.RelationshipWaitFor)

	waves, err := Waves([]*models.Resource{web, api, db})
	if err != nil {
		t.Fatalf("Waves failed: %v", err)
	}

	names := waveNames(waves)
	if len(names) != 3 {
		t.Fatalf("Expected 3 waves, got %v", names)
	}
	if names[0][0] != "db" || names[1][0] != "api" || names[2][0] != "web" {
		t.Errorf("Unexpected wave order: %v", names)
	}
}

// TestWaves_Diamond tests that independent dependents share a wave.
func TestWaves_Diamond(t *testing.T) {
	db := testContainer("db")
	api := testContainer("api")
	worker := testContainer("worker")
	web := testContainer("web")
	api.EnsureRelationship(db, models.RelationshipReference)
	worker.EnsureRelationship(db, models.RelationshipReference)
	web.EnsureRelationship(api, models.RelationshipReference)
	web.EnsureRelationship(worker, models.RelationshipWaitFor)

	waves, err := Waves([]*models.Resource{db, api, worker, web})
	if err != nil {
		t.Fatalf("Waves failed: %v", err)
	}

	names := waveNames(waves)
	if len(names) != 3 {
		t.Fatalf("Expected 3 waves, got %v", names)
	}
	if len(names[1]) != 2 {
		t.Errorf("Expected api and worker in the second wave, got %v", names[1])
	}
}

// TestWaves_CircularDependency tests that a cycle is reported as an error.
func TestWaves_CircularDependency(t *testing.T) {
	a := testContainer("a")
	b := testContainer("b")
	a.EnsureRelationship(b, models.RelationshipReference)
	b.EnsureRelationship(a, models.RelationshipReference)

	_, err := Waves([]*models.Resource{a, b})
	if err == nil {
		t.Fatal("Expected circular dependency error")
	}
}

// TestWaves_NonLaunchableDependenciesIgnored tests that references to
// parameters and external services do not create waves.
func TestWaves_NonLaunchableDependenciesIgnored(t *testing.T) {
	pw := models.NewResource("pg-password", models.KindParameter)
	nuget := models.NewResource("nuget", models.KindExternalService)
	db := testContainer("db")
	db.EnsureRelationship(pw, models.RelationshipReference)
	db.EnsureRelationship(nuget, models.RelationshipReference)

	waves, err := Waves([]*models.Resource{pw, nuget, db})
	if err != nil {
		t.Fatalf("Waves failed: %v", err)
	}
	if len(waves) != 1 || len(waves[0]) != 1 || waves[0][0].Name != "db" {
		t.Errorf("Expected a single wave with db only, got %v", waveNames(waves))
	}
}

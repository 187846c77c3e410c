package resolve

import (
	"context"
	"errors"
	"testing"

	"evalgo.org/maestro/models"
)

// reference wires target into source the way the builder does: a relationship
// plus the injection environment callback.
func reference(source, target *models.Resource, opts ReferenceOptions) {
	source.EnsureRelationship(target, models.RelationshipReference)
	source.AddAnnotation(&models.EnvironmentCallbackAnnotation{
		Callback: ReferenceEnvironment(target, opts),
	})
}

func runEnv(t *testing.T, r *models.Resource) map[string]string {
	t.Helper()
	got, err := EnvironmentMap(context.Background(), r, models.NewRunContext(models.EmptyParameters{}))
	if err != nil {
		t.Fatalf("EnvironmentMap failed: %v", err)
	}
	return got
}

func TestReference_EndpointInjection(t *testing.T) {
	b := models.NewResource("b", models.KindContainer)
	ep := &models.EndpointAnnotation{Name: "mybinding", Scheme: "http", TargetPort: 8080}
	b.AddAnnotation(ep)
	if err := ep.Allocate("localhost", 15000); err != nil {
		t.Fatal(err)
	}

	a := models.NewResource("a", models.KindProject)
	reference(a, b, ReferenceOptions{})

	got := runEnv(t, a)

	if got["services__b__mybinding__0"] != "http://localhost:15000" {
		t.Errorf("services__b__mybinding__0 = %q", got["services__b__mybinding__0"])
	}
	if got["B_MYBINDING"] != "http://localhost:15000" {
		t.Errorf("B_MYBINDING = %q", got["B_MYBINDING"])
	}
	if _, ok := got["ConnectionStrings__b"]; ok {
		t.Error("No connection string key for an endpoint-only target")
	}
}

func TestReference_DashHandling(t *testing.T) {
	b := models.NewResource("project-a", models.KindContainer)
	ep := &models.EndpointAnnotation{Name: "my-binding", Scheme: "http"}
	b.AddAnnotation(ep)
	if err := ep.Allocate("localhost", 15001); err != nil {
		t.Fatal(err)
	}

	a := models.NewResource("consumer", models.KindProject)
	reference(a, b, ReferenceOptions{})

	got := runEnv(t, a)

	// structured keys keep dashes, shorthand keys translate them
	if _, ok := got["services__project-a__my-binding__0"]; !ok {
		t.Errorf("Expected services__project-a__my-binding__0, got keys %v", keysOf(got))
	}
	if _, ok := got["PROJECT_A_MY_BINDING"]; !ok {
		t.Errorf("Expected PROJECT_A_MY_BINDING, got keys %v", keysOf(got))
	}
}

func TestReference_SchemeOrdinals(t *testing.T) {
	b := models.NewResource("web", models.KindContainer)
	eps := []*models.EndpointAnnotation{
		{Name: "http", Scheme: "http"},
		{Name: "https", Scheme: "https"},
		{Name: "admin", Scheme: "http"},
	}
	for i, ep := range eps {
		b.AddAnnotation(ep)
		if err := ep.Allocate("localhost", 16000+i); err != nil {
			t.Fatal(err)
		}
	}

	a := models.NewResource("a", models.KindProject)
	reference(a, b, ReferenceOptions{})

	got := runEnv(t, a)

	for _, key := range []string{
		"services__web__http__0",  // first http endpoint
		"services__web__https__0", // first https endpoint
		"services__web__admin__1", // second http endpoint
	} {
		if _, ok := got[key]; !ok {
			t.Errorf("Expected key %s, got keys %v", key, keysOf(got))
		}
	}
}

func TestReference_ConnectionString(t *testing.T) {
	db := models.NewResource("db", models.KindContainer)
	db.AddAnnotation(&models.ConnectionStringAnnotation{
		Expression: models.LiteralExpr("Host=db;Port=5432"),
	})

	a := models.NewResource("api", models.KindProject)
	reference(a, db, ReferenceOptions{})

	got := runEnv(t, a)
	if got["ConnectionStrings__db"] != "Host=db;Port=5432" {
		t.Errorf("ConnectionStrings__db = %q", got["ConnectionStrings__db"])
	}
}

func TestReference_ConnectionNameOverride(t *testing.T) {
	db := models.NewResource("db", models.KindContainer)
	db.AddAnnotation(&models.ConnectionStringAnnotation{
		Expression: models.LiteralExpr("Host=db"),
	})

	a := models.NewResource("api", models.KindProject)
	reference(a, db, ReferenceOptions{Name: "primary-db"})

	got := runEnv(t, a)
	if _, ok := got["ConnectionStrings__primary-db"]; !ok {
		t.Errorf("Expected override name in key, got keys %v", keysOf(got))
	}
	if _, ok := got["ConnectionStrings__db"]; ok {
		t.Error("Original name must not appear when overridden")
	}
}

func TestReference_MissingConnectionString(t *testing.T) {
	bare := models.NewResource("bare", models.KindContainer)

	a := models.NewResource("api", models.KindProject)
	reference(a, bare, ReferenceOptions{})

	_, err := EnvironmentVariables(context.Background(), a, models.NewRunContext(models.EmptyParameters{}))
	var missing *models.MissingConnectionStringError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingConnectionStringError, got %v", err)
	}
	if missing.Resource != "bare" {
		t.Errorf("Expected resource 'bare', got %q", missing.Resource)
	}
}

func TestReference_OptionalSuppressesError(t *testing.T) {
	bare := models.NewResource("bare", models.KindContainer)

	a := models.NewResource("api", models.KindProject)
	reference(a, bare, ReferenceOptions{Optional: true})

	got := runEnv(t, a)
	if len(got) != 0 {
		t.Errorf("Optional reference to an empty target must emit nothing, got %v", got)
	}
}

func TestReference_InjectionFlagsNarrow(t *testing.T) {
	db := models.NewResource("db", models.KindContainer)
	db.AddAnnotation(&models.ConnectionStringAnnotation{
		Expression: models.LiteralExpr("Host=db"),
	})
	ep := &models.EndpointAnnotation{Name: "tcp", Scheme: "tcp"}
	db.AddAnnotation(ep)
	if err := ep.Allocate("localhost", 17000); err != nil {
		t.Fatal(err)
	}

	a := models.NewResource("api", models.KindProject)
	a.AddAnnotation(&models.InjectionFlagsAnnotation{Flags: models.InjectConnectionString})
	reference(a, db, ReferenceOptions{})

	got := runEnv(t, a)
	if _, ok := got["ConnectionStrings__db"]; !ok {
		t.Error("Connection string must be injected")
	}
	if _, ok := got["services__db__tcp__0"]; ok {
		t.Error("Service discovery must be suppressed by flags")
	}
	if _, ok := got["DB_TCP"]; ok {
		t.Error("Endpoint shorthand must be suppressed by flags")
	}
}

func TestReference_ConnectionProperties(t *testing.T) {
	db := models.NewResource("db", models.KindContainer)
	db.AddAnnotation(&models.ConnectionPropertiesAnnotation{Properties: []models.ConnectionProperty{
		{Name: "Host", Value: models.LiteralExpr("db.internal")},
		{Name: "Port", Value: models.LiteralExpr("5432")},
	}})

	a := models.NewResource("api", models.KindProject)
	reference(a, db, ReferenceOptions{})

	got := runEnv(t, a)
	if got["DB_HOST"] != "db.internal" {
		t.Errorf("DB_HOST = %q", got["DB_HOST"])
	}
	if got["DB_PORT"] != "5432" {
		t.Errorf("DB_PORT = %q", got["DB_PORT"])
	}
	// properties alone satisfy a non-optional reference
	if _, ok := got["ConnectionStrings__db"]; ok {
		t.Error("No connection string key without the capability")
	}
}

func TestReference_ExternalService(t *testing.T) {
	nuget := models.NewResource("nuget", models.KindExternalService)
	nuget.AddAnnotation(&models.EndpointAnnotation{
		Name:        "https",
		Scheme:      "https",
		ExternalURL: "https://nuget.org/",
	})

	a := models.NewResource("api", models.KindProject)
	reference(a, nuget, ReferenceOptions{})

	got := runEnv(t, a)
	if got["services__nuget__https__0"] != "https://nuget.org/" {
		t.Errorf("services__nuget__https__0 = %q", got["services__nuget__https__0"])
	}
}

func TestReference_PublishPlaceholders(t *testing.T) {
	db := models.NewResource("db", models.KindContainer)
	db.AddAnnotation(&models.ConnectionStringAnnotation{
		Expression: models.LiteralExpr("Host=db"),
	})
	db.AddAnnotation(&models.EndpointAnnotation{Name: "tcp", Scheme: "tcp", TargetPort: 5432})

	a := models.NewResource("api", models.KindProject)
	reference(a, db, ReferenceOptions{})

	got, err := EnvironmentMap(context.Background(), a, models.NewPublishContext())
	if err != nil {
		t.Fatalf("EnvironmentMap failed: %v", err)
	}
	if got["ConnectionStrings__db"] != "{db.connectionString}" {
		t.Errorf("ConnectionStrings__db = %q", got["ConnectionStrings__db"])
	}
	if got["services__db__tcp__0"] != "{db.bindings.tcp.url}" {
		t.Errorf("services__db__tcp__0 = %q", got["services__db__tcp__0"])
	}
}

func keysOf(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

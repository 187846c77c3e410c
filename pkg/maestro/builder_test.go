package maestro

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/maestro/internal/resolve"
	"evalgo.org/maestro/models"
)

func TestBuilder_DeclarationOrderAndLookup(t *testing.T) {
	b := New("shop")

	_, err := b.AddContainer("db", "postgres:16")
	require.NoError(t, err)
	_, err = b.AddProject("api", "services/api")
	require.NoError(t, err)

	resources := b.Resources()
	require.Len(t, resources, 2)
	assert.Equal(t, "db", resources[0].Name)
	assert.Equal(t, models.KindContainer, resources[0].Kind)
	assert.Equal(t, "api", resources[1].Name)

	r, ok := b.Resource("db")
	require.True(t, ok)
	assert.Equal(t, resources[0], r)
}

func TestBuilder_RejectsInvalidAndDuplicateNames(t *testing.T) {
	b := New("shop")

	_, err := b.AddContainer("Bad_Name", "img")
	assert.Error(t, err)

	_, err = b.AddContainer("db", "postgres:16")
	require.NoError(t, err)
	_, err = b.AddParameter("db")
	assert.ErrorContains(t, err, "already declared")
}

func TestBuilder_EndpointsAndEnvironment(t *testing.T) {
	b := New("shop")

	web, err := b.AddContainer("web", "nginx:1.25")
	require.NoError(t, err)
	web.WithHTTPEndpoint(8080, ExternalEndpoint()).
		WithEndpoint("metrics", "http", 9090).
		WithEnvironment("MODE", "production")

	eps := web.Resource().Endpoints()
	require.Len(t, eps, 2)
	assert.Equal(t, "http", eps[0].Name)
	assert.True(t, eps[0].External)
	assert.Equal(t, "metrics", eps[1].Name)

	env, err := resolve.EnvironmentMap(context.Background(), web.Resource(), models.NewRunContext(models.EmptyParameters{}))
	require.NoError(t, err)
	assert.Equal(t, "production", env["MODE"])
}

func TestBuilder_ReferenceRecordsRelationship(t *testing.T) {
	b := New("shop")

	db, err := b.AddContainer("db", "postgres:16")
	require.NoError(t, err)
	db.WithEndpoint("tcp", "tcp", 5432)

	api, err := b.AddProject("api", "services/api")
	require.NoError(t, err)
	api.WithReference(db)

	rels := api.Resource().Relationships()
	require.Len(t, rels, 1)
	assert.Equal(t, db.Resource(), rels[0].Target)
	assert.Equal(t, models.RelationshipReference, rels[0].Type)
}

func TestBuilder_EnvironmentValueRecordsRelationship(t *testing.T) {
	b := New("shop")

	pw, err := b.AddParameter("pg-password", Secret())
	require.NoError(t, err)

	db, err := b.AddContainer("db", "postgres:16")
	require.NoError(t, err)
	db.WithEnvironment("POSTGRES_PASSWORD", models.Param(pw.Resource()))
	db.WithEnvironment("POSTGRES_PASSWORD_AGAIN", models.Param(pw.Resource()))

	// one relationship per unique target, not per use
	rels := db.Resource().Relationships()
	require.Len(t, rels, 1)
	assert.Equal(t, pw.Resource(), rels[0].Target)
}

func TestBuilder_WaitForNeverTouchesEnvironment(t *testing.T) {
	b := New("shop")

	db, err := b.AddContainer("db", "postgres:16")
	require.NoError(t, err)

	api, err := b.AddProject("api", "services/api")
	require.NoError(t, err)
	api.WaitFor(db)

	rels := api.Resource().Relationships()
	require.Len(t, rels, 1)
	assert.Equal(t, models.RelationshipWaitFor, rels[0].Type)

	env, err := resolve.EnvironmentMap(context.Background(), api.Resource(), models.NewRunContext(models.EmptyParameters{}))
	require.NoError(t, err)
	assert.Empty(t, env)
}

func TestBuilder_ExternalService(t *testing.T) {
	b := New("shop")

	nuget, err := b.AddExternalService("nuget", "https://nuget.org/")
	require.NoError(t, err)

	api, err := b.AddProject("api", "services/api")
	require.NoError(t, err)
	api.WithReference(nuget)

	env, err := resolve.EnvironmentMap(context.Background(), api.Resource(), models.NewRunContext(models.EmptyParameters{}))
	require.NoError(t, err)

	// the exact configured URL, trailing slash and all, no allocation
	assert.Equal(t, "https://nuget.org/", env["services__nuget__https__0"])
}

func TestBuilder_ExternalServiceRejectsBadURL(t *testing.T) {
	b := New("shop")

	_, err := b.AddExternalService("feed", "https://nuget.org/v3/index.json")
	assert.ErrorContains(t, err, `absolute path must be "/"`)
}

func TestBuilder_ConnectionStringGraph(t *testing.T) {
	b := New("shop")

	pw, err := b.AddParameter("pg-password", Secret(), WithGeneratedDefault(16))
	require.NoError(t, err)

	db, err := b.AddContainer("db", "postgres:16")
	require.NoError(t, err)
	db.WithEndpoint("tcp", "tcp", 5432)

	dbEp, err := models.EndpointRef(db.Resource(), "tcp")
	require.NoError(t, err)

	db.WithConnectionString(models.Expr(
		models.Literal("Host="),
		models.Value(dbEp.Property(models.EndpointPropertyHost)),
		models.Literal(";Port="),
		models.Value(dbEp.Property(models.EndpointPropertyPort)),
		models.Literal(";Password="),
		models.Value(models.Param(pw.Resource())),
	))

	api, err := b.AddProject("api", "services/api")
	require.NoError(t, err)
	api.WithReference(db, WithConnectionName("primary"))

	// run mode: allocate, then resolve concretely
	ep, _ := db.Resource().Endpoint("tcp")
	require.NoError(t, ep.Allocate("localhost", 15432))

	params := &models.MapParameters{Values: map[string]string{"pg-password": "s3cret"}}
	env, err := resolve.EnvironmentMap(context.Background(), api.Resource(), models.NewRunContext(params))
	require.NoError(t, err)
	assert.Equal(t, "Host=localhost;Port=15432;Password=s3cret", env["ConnectionStrings__primary"])

	// publish mode: placeholders, no values needed
	published, err := resolve.EnvironmentMap(context.Background(), api.Resource(), models.NewPublishContext())
	require.NoError(t, err)
	assert.Equal(t, "{db.connectionString}", published["ConnectionStrings__primary"])
}

func TestBuilder_InjectionFlags(t *testing.T) {
	b := New("shop")

	db, err := b.AddContainer("db", "postgres:16")
	require.NoError(t, err)
	db.WithEndpoint("tcp", "tcp", 5432).
		WithConnectionString(models.LiteralExpr("Host=db"))

	api, err := b.AddProject("api", "services/api")
	require.NoError(t, err)
	api.WithInjectionFlags(models.InjectServiceDiscovery).
		WithReference(db)

	ep, _ := db.Resource().Endpoint("tcp")
	require.NoError(t, ep.Allocate("localhost", 15432))

	env, err := resolve.EnvironmentMap(context.Background(), api.Resource(), models.NewRunContext(models.EmptyParameters{}))
	require.NoError(t, err)
	assert.Contains(t, env, "services__db__tcp__0")
	assert.NotContains(t, env, "ConnectionStrings__db")
	assert.NotContains(t, env, "DB_TCP")
}

package appfile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/maestro/internal/resolve"
	"evalgo.org/maestro/models"
)

const sampleApp = `
name: shop
resources:
  - name: pg-password
    kind: parameter
    secret: true
    generateMinLength: 16

  - name: db
    kind: container
    image: postgres:16
    endpoints:
      - name: tcp
        scheme: tcp
        targetPort: 5432
    env:
      - name: POSTGRES_PASSWORD
        value: "{pg-password.value}"
    connectionString: "Host={db.bindings.tcp.host};Port={db.bindings.tcp.port};Password={pg-password.value}"

  - name: api
    kind: project
    path: services/api
    endpoints:
      - name: http
        scheme: http
        targetPort: 8080
        external: true
    references:
      - target: db
    waitFor:
      - db
    args:
      - "--log-level"
      - "info"
`

func TestBuild_FullDocument(t *testing.T) {
	b, err := Load([]byte(sampleApp))
	require.NoError(t, err)
	assert.Equal(t, "shop", b.Name())

	resources := b.Resources()
	require.Len(t, resources, 3)

	db, ok := b.Resource("db")
	require.True(t, ok)
	assert.Equal(t, models.KindContainer, db.Kind)

	api, ok := b.Resource("api")
	require.True(t, ok)
	rels := api.Relationships()
	require.Len(t, rels, 2)
	assert.Equal(t, models.RelationshipReference, rels[0].Type)
	assert.Equal(t, models.RelationshipWaitFor, rels[1].Type)
}

func TestBuild_TemplatesResolveInPublishMode(t *testing.T) {
	b, err := Load([]byte(sampleApp))
	require.NoError(t, err)

	db, _ := b.Resource("db")
	env, err := resolve.EnvironmentMap(context.Background(), db, models.NewPublishContext())
	require.NoError(t, err)
	assert.Equal(t, "{pg-password.value}", env["POSTGRES_PASSWORD"])

	cs, ok := models.LastAnnotation[*models.ConnectionStringAnnotation](db)
	require.True(t, ok)
	assert.Equal(t,
		"Host={db.bindings.tcp.host};Port={db.bindings.tcp.port};Password={pg-password.value}",
		cs.Expression.ManifestExpression())

	api, _ := b.Resource("api")
	apiEnv, err := resolve.EnvironmentMap(context.Background(), api, models.NewPublishContext())
	require.NoError(t, err)
	assert.Equal(t, "{db.connectionString}", apiEnv["ConnectionStrings__db"])
	assert.Equal(t, "{db.bindings.tcp.url}", apiEnv["services__db__tcp__0"])

	args, err := resolve.Arguments(context.Background(), api, models.NewPublishContext())
	require.NoError(t, err)
	assert.Equal(t, []string{"--log-level", "info"}, args)
}

func TestBuild_ForwardReferences(t *testing.T) {
	doc := `
name: app
resources:
  - name: api
    kind: project
    path: services/api
    env:
      - name: DB_URL
        value: "{db.bindings.tcp.url}"
  - name: db
    kind: container
    image: postgres:16
    endpoints:
      - name: tcp
        scheme: tcp
`
	b, err := Load([]byte(doc))
	require.NoError(t, err)

	api, _ := b.Resource("api")
	env, err := resolve.EnvironmentMap(context.Background(), api, models.NewPublishContext())
	require.NoError(t, err)
	assert.Equal(t, "{db.bindings.tcp.url}", env["DB_URL"])
}

func TestParse_RejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"empty resources": `
name: app
resources: []
`,
		"bad resource name": `
name: app
resources:
  - name: Bad_Name
    kind: container
    image: x
`,
		"unknown kind": `
name: app
resources:
  - name: db
    kind: database
`,
		"bad port": `
name: app
resources:
  - name: db
    kind: container
    image: x
    endpoints:
      - name: tcp
        scheme: tcp
        targetPort: 99999
`,
	}
	for name, doc := range cases {
		_, err := Load([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestBuild_UnknownReferenceTarget(t *testing.T) {
	doc := `
name: app
resources:
  - name: api
    kind: project
    path: services/api
    references:
      - target: ghost
`
	_, err := Load([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestBuild_UnknownTemplateResource(t *testing.T) {
	doc := `
name: app
resources:
  - name: api
    kind: project
    path: services/api
    env:
      - name: URL
        value: "{ghost.bindings.http.url}"
`
	_, err := Load([]byte(doc))
	require.Error(t, err)
	var unknown *models.UnknownResourceError
	assert.ErrorAs(t, err, &unknown)
}

func TestParseTemplate_PlainStringsPassThrough(t *testing.T) {
	lookup := func(string) (*models.Resource, bool) { return nil, false }

	expr, hasRefs, err := ParseTemplate("no references here", lookup)
	require.NoError(t, err)
	assert.False(t, hasRefs)
	assert.Equal(t, "no references here", expr.ManifestExpression())

	// unmatched braces are literal text, not references
	expr, hasRefs, err = ParseTemplate("{unclosed", lookup)
	require.NoError(t, err)
	assert.False(t, hasRefs)
	assert.Equal(t, "{unclosed", expr.ManifestExpression())
}

func TestParseTemplate_MixedSegments(t *testing.T) {
	pg := models.NewResource("pg", models.KindParameter)
	lookup := func(name string) (*models.Resource, bool) {
		if name == "pg" {
			return pg, true
		}
		return nil, false
	}

	expr, hasRefs, err := ParseTemplate("pass={pg.value};db=main", lookup)
	require.NoError(t, err)
	assert.True(t, hasRefs)
	assert.Equal(t, "pass={pg.value};db=main", expr.ManifestExpression())

	params := &models.MapParameters{Values: map[string]string{"pg": "x"}}
	got, err := expr.Resolve(context.Background(), models.NewRunContext(params))
	require.NoError(t, err)
	assert.Equal(t, "pass=x;db=main", got)
}

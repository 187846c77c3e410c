package models

import (
	"context"
	"errors"
	"net/url"
	"testing"
)

func TestExpr_LiteralOnly(t *testing.T) {
	expr := LiteralExpr("postgres://localhost:5432")

	got, err := expr.Resolve(context.Background(), NewRunContext(EmptyParameters{}))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "postgres://localhost:5432" {
		t.Errorf("Expected literal passthrough, got %q", got)
	}
}

func TestExpr_ParameterRunMode(t *testing.T) {
	pg := NewResource("pg-password", KindParameter)
	pg.AddAnnotation(&ParameterAnnotation{Secret: true})

	expr := Expr(
		Literal("Password="),
		Value(Param(pg)),
	)

	params := &MapParameters{Values: map[string]string{"pg-password": "s3cret"}}
	got, err := expr.Resolve(context.Background(), NewRunContext(params))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "Password=s3cret" {
		t.Errorf("Expected resolved parameter, got %q", got)
	}
}

func TestExpr_ParameterDefault(t *testing.T) {
	p := NewResource("region", KindParameter)
	p.AddAnnotation(&ParameterAnnotation{Default: "eu-west-1", HasDefault: true})

	got, err := Expr(Value(Param(p))).Resolve(context.Background(), NewRunContext(EmptyParameters{}))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "eu-west-1" {
		t.Errorf("Expected declared default, got %q", got)
	}
}

func TestExpr_MissingParameterValue(t *testing.T) {
	p := NewResource("api-key", KindParameter)

	_, err := Expr(Value(Param(p))).Resolve(context.Background(), NewRunContext(EmptyParameters{}))
	if err == nil {
		t.Fatal("Expected error for unconfigured parameter")
	}

	var missing *MissingParameterValueError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingParameterValueError, got %T", err)
	}
	if missing.Parameter != "api-key" {
		t.Errorf("Expected parameter name 'api-key', got %q", missing.Parameter)
	}
}

func TestExpr_PublishModePlaceholders(t *testing.T) {
	pg := NewResource("pg-password", KindParameter)
	db := NewResource("db", KindContainer)
	db.AddAnnotation(&EndpointAnnotation{Name: "tcp", Scheme: "tcp", TargetPort: 5432})

	ep, err := EndpointRef(db, "tcp")
	if err != nil {
		t.Fatalf("EndpointRef failed: %v", err)
	}

	expr := Expr(
		Literal("postgres://admin:"),
		Value(Param(pg)),
		Literal("@"),
		Value(ep.Property(EndpointPropertyHost)),
		Literal(":"),
		Value(ep.Property(EndpointPropertyPort)),
	)

	got, err := expr.Resolve(context.Background(), NewPublishContext())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := "postgres://admin:{pg-password.value}@{db.bindings.tcp.host}:{db.bindings.tcp.port}"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	// Publish mode never needs allocation or parameter values
	if got != expr.ManifestExpression() {
		t.Error("Publish-mode Resolve should equal ManifestExpression")
	}
}

func TestExpr_ResolveIsIdempotent(t *testing.T) {
	p := NewResource("user", KindParameter)
	params := &MapParameters{Values: map[string]string{"user": "admin"}}
	ec := NewRunContext(params)

	expr := Expr(Literal("u="), Value(Param(p)))
	first, err := expr.Resolve(context.Background(), ec)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	second, err := expr.Resolve(context.Background(), ec)
	if err != nil {
		t.Fatalf("Second resolve failed: %v", err)
	}
	if first != second {
		t.Errorf("Resolve not idempotent: %q then %q", first, second)
	}
}

func TestExpr_FlattensNestedExpressions(t *testing.T) {
	p := NewResource("pw", KindParameter)
	inner := Expr(Literal("pass="), Value(Param(p)))

	outer := Expr(Literal("host=db;"), Value(inner))
	if len(outer.segments) != 3 {
		t.Errorf("Expected 3 flattened segments, got %d", len(outer.segments))
	}

	params := &MapParameters{Values: map[string]string{"pw": "x"}}
	got, err := outer.Resolve(context.Background(), NewRunContext(params))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "host=db;pass=x" {
		t.Errorf("Expected flattened resolution, got %q", got)
	}
}

func TestExpr_URIFormatEncodesRunModeOnly(t *testing.T) {
	p := NewResource("pw", KindParameter)
	expr := Expr(
		Literal("amqp://guest:"),
		FormattedValue(Param(p), FormatURI),
		Literal("@mq:5672"),
	)

	params := &MapParameters{Values: map[string]string{"pw": "p@ss w/rd"}}
	got, err := expr.Resolve(context.Background(), NewRunContext(params))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "amqp://guest:p%40ss%20w%2Frd@mq:5672" {
		t.Errorf("Expected percent-encoded value, got %q", got)
	}

	published, err := expr.Resolve(context.Background(), NewPublishContext())
	if err != nil {
		t.Fatalf("Publish resolve failed: %v", err)
	}
	if published != "amqp://guest:{pw.value}@mq:5672" {
		t.Errorf("Placeholders must not be encoded, got %q", published)
	}
}

func TestExpr_URIFormatRoundTripsSpaces(t *testing.T) {
	p := NewResource("pw", KindParameter)
	expr := Expr(FormattedValue(Param(p), FormatURI))

	params := &MapParameters{Values: map[string]string{"pw": "a b"}}
	got, err := expr.Resolve(context.Background(), NewRunContext(params))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "a%20b" {
		t.Errorf(`Expected "a%%20b", got %q`, got)
	}

	decoded, err := url.PathUnescape(got)
	if err != nil {
		t.Fatalf("PathUnescape failed: %v", err)
	}
	if decoded != "a b" {
		t.Errorf("Encoded value must decode back to the original, got %q", decoded)
	}
}

func TestExpr_ProviderValueForcesConcrete(t *testing.T) {
	p := NewResource("pw", KindParameter)
	expr := Expr(Value(Param(p)))

	params := &MapParameters{Values: map[string]string{"pw": "x"}}
	ec := &ExecutionContext{Operation: OperationPublish, Parameters: params}
	got, err := expr.ProviderValue(context.Background(), ec)
	if err != nil {
		t.Fatalf("ProviderValue failed: %v", err)
	}
	if got != "x" {
		t.Errorf("ProviderValue must resolve concretely even under publish, got %q", got)
	}
}

func TestExpr_ReferencedResources(t *testing.T) {
	pg := NewResource("pg", KindParameter)
	db := NewResource("db", KindContainer)
	db.AddAnnotation(&EndpointAnnotation{Name: "tcp", Scheme: "tcp"})
	ep, _ := EndpointRef(db, "tcp")

	inner := Expr(Value(Param(pg)))
	expr := Expr(
		Value(ep),
		FormattedValue(inner, FormatURI), // formatted expressions stay nested
		Value(Param(pg)),                 // duplicate, must not repeat
	)

	refs := expr.ReferencedResources()
	if len(refs) != 2 {
		t.Fatalf("Expected 2 unique referenced resources, got %d", len(refs))
	}
	if refs[0] != db || refs[1] != pg {
		t.Errorf("Expected first-appearance order [db pg], got [%s %s]", refs[0].Name, refs[1].Name)
	}
}

func TestEndpointReference_Facets(t *testing.T) {
	db := NewResource("db", KindContainer)
	ep := &EndpointAnnotation{Name: "tcp", Scheme: "tcp", TargetPort: 5432}
	db.AddAnnotation(ep)

	ref, err := EndpointRef(db, "tcp")
	if err != nil {
		t.Fatalf("EndpointRef failed: %v", err)
	}

	ec := NewRunContext(EmptyParameters{})
	ctx := context.Background()

	// Scheme and targetPort resolve without allocation
	if v, _ := ref.Property(EndpointPropertyScheme).ProviderValue(ctx, ec); v != "tcp" {
		t.Errorf("scheme = %q", v)
	}
	if v, _ := ref.Property(EndpointPropertyTargetPort).ProviderValue(ctx, ec); v != "5432" {
		t.Errorf("targetPort = %q", v)
	}

	// URL requires allocation
	if _, err := ref.ProviderValue(ctx, ec); err == nil {
		t.Error("Expected EndpointNotAllocatedError before allocation")
	}

	if err := ep.Allocate("localhost", 15001); err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if v, _ := ref.ProviderValue(ctx, ec); v != "tcp://localhost:15001" {
		t.Errorf("url = %q", v)
	}
	if v, _ := ref.Property(EndpointPropertyHost).ProviderValue(ctx, ec); v != "localhost" {
		t.Errorf("host = %q", v)
	}
	if v, _ := ref.Property(EndpointPropertyPort).ProviderValue(ctx, ec); v != "15001" {
		t.Errorf("port = %q", v)
	}

	// Second allocation is a usage error
	if err := ep.Allocate("localhost", 15002); err == nil {
		t.Error("Expected error on double allocation")
	}
}

func TestConnectionStringReference(t *testing.T) {
	ctx := context.Background()

	// connection-string resources read from the execution context
	legacy := NewResource("legacy-db", KindConnectionString)
	ref := ConnectionStringRef(legacy)

	params := &MapParameters{ConnectionStrings: map[string]string{"legacy-db": "Host=old;Port=1"}}
	if v, err := ref.ProviderValue(ctx, NewRunContext(params)); err != nil || v != "Host=old;Port=1" {
		t.Errorf("ProviderValue = %q, %v", v, err)
	}
	if ref.ManifestExpression() != "{legacy-db.value}" {
		t.Errorf("ManifestExpression = %q", ref.ManifestExpression())
	}

	if _, err := ref.ProviderValue(ctx, NewRunContext(EmptyParameters{})); err == nil {
		t.Error("Expected error when no connection string value is configured")
	}

	// other kinds resolve their connection string expression transitively
	db := NewResource("db", KindContainer)
	db.AddAnnotation(&ConnectionStringAnnotation{Expression: LiteralExpr("Host=db;Port=5432")})
	dbRef := ConnectionStringRef(db)

	if v, err := dbRef.ProviderValue(ctx, NewRunContext(EmptyParameters{})); err != nil || v != "Host=db;Port=5432" {
		t.Errorf("ProviderValue = %q, %v", v, err)
	}
	if dbRef.ManifestExpression() != "{db.connectionString}" {
		t.Errorf("ManifestExpression = %q", dbRef.ManifestExpression())
	}

	// no annotation at all
	bare := NewResource("bare", KindContainer)
	_, err := ConnectionStringRef(bare).ProviderValue(ctx, NewRunContext(EmptyParameters{}))
	var missing *MissingConnectionStringError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingConnectionStringError, got %v", err)
	}
}

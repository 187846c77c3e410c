package models

import (
	"context"
	"net/url"
	"strings"
)

// ValueProvider is a lazily evaluated value source: a parameter, an endpoint
// facet, another resource's connection string, or a whole reference
// expression. Providers resolve to a concrete string in Run mode and to a
// symbolic {resource.path} placeholder in Publish mode.
type ValueProvider interface {
	// ProviderValue resolves the concrete Run-mode value. Resolution is
	// idempotent and side-effect-free.
	ProviderValue(ctx context.Context, ec *ExecutionContext) (string, error)

	// ManifestExpression renders the Publish-mode placeholder.
	ManifestExpression() string
}

// ResourceReferencer is implemented by value providers that point at a
// resource. It lets an owning resource record one relationship per unique
// referenced resource.
type ResourceReferencer interface {
	ReferencedResource() *Resource
}

// FormatURI percent-encodes the resolved value, for values embedded in URIs
// (passwords in connection URLs and the like). Publish-mode placeholders are
// never encoded.
const FormatURI = "uri"

type exprSegment struct {
	literal  string
	provider ValueProvider
	format   string
}

// ExpressionPart is one segment of a reference expression: literal text or a
// value source, built with Literal, Value, or FormattedValue.
type ExpressionPart struct {
	seg exprSegment
}

// Literal wraps fixed text.
func Literal(s string) ExpressionPart {
	return ExpressionPart{seg: exprSegment{literal: s}}
}

// Value wraps a lazily resolved value source.
func Value(p ValueProvider) ExpressionPart {
	return ExpressionPart{seg: exprSegment{provider: p}}
}

// FormattedValue wraps a value source with a named formatter applied after
// Run-mode resolution.
func FormattedValue(p ValueProvider, format string) ExpressionPart {
	return ExpressionPart{seg: exprSegment{provider: p, format: format}}
}

// ReferenceExpression is an immutable, ordered sequence of literal and value
// segments. It resolves to a single string lazily: concrete in Run mode,
// symbolic in Publish mode. A ReferenceExpression is itself a ValueProvider,
// so expressions compose; composing flattens the segments rather than
// nesting.
type ReferenceExpression struct {
	segments []exprSegment
}

// Expr builds a reference expression from parts. Unformatted embedded
// expressions are spliced segment-by-segment into the result.
func Expr(parts ...ExpressionPart) *ReferenceExpression {
	e := &ReferenceExpression{}
	for _, p := range parts {
		if inner, ok := p.seg.provider.(*ReferenceExpression); ok && p.seg.format == "" {
			e.segments = append(e.segments, inner.segments...)
			continue
		}
		e.segments = append(e.segments, p.seg)
	}
	return e
}

// LiteralExpr builds an expression holding only fixed text.
func LiteralExpr(s string) *ReferenceExpression {
	return Expr(Literal(s))
}

// Resolve evaluates the expression under the execution context: segment
// values are concrete in Run mode and symbolic placeholders in Publish mode.
// Evaluating twice with the same context yields identical strings.
func (e *ReferenceExpression) Resolve(ctx context.Context, ec *ExecutionContext) (string, error) {
	var sb strings.Builder
	for _, seg := range e.segments {
		if seg.provider == nil {
			sb.WriteString(seg.literal)
			continue
		}
		if ec.Operation == OperationPublish {
			sb.WriteString(seg.provider.ManifestExpression())
			continue
		}
		v, err := seg.provider.ProviderValue(ctx, ec)
		if err != nil {
			return "", err
		}
		if seg.format == FormatURI {
			v = uriEscape(v)
		}
		sb.WriteString(v)
	}
	return sb.String(), nil
}

// uriEscape percent-encodes a value per RFC 3986 so it survives embedding in
// a URI. url.QueryEscape alone is form encoding: it turns a space into "+",
// which decodes back to "+" under percent rules.
func uriEscape(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

// ProviderValue makes an expression usable anywhere a single value source is
// expected. It resolves concretely regardless of mode; mode dispatch happens
// in Resolve.
func (e *ReferenceExpression) ProviderValue(ctx context.Context, ec *ExecutionContext) (string, error) {
	run := *ec
	run.Operation = OperationRun
	return e.Resolve(ctx, &run)
}

// ManifestExpression renders the whole expression symbolically: literals
// verbatim, value segments as {resource.path} placeholders.
func (e *ReferenceExpression) ManifestExpression() string {
	var sb strings.Builder
	for _, seg := range e.segments {
		if seg.provider == nil {
			sb.WriteString(seg.literal)
			continue
		}
		sb.WriteString(seg.provider.ManifestExpression())
	}
	return sb.String()
}

// ReferencedResources returns the unique resources referenced by value
// segments, in first-appearance order.
func (e *ReferenceExpression) ReferencedResources() []*Resource {
	var out []*Resource
	seen := make(map[*Resource]bool)
	var walk func(e *ReferenceExpression)
	walk = func(e *ReferenceExpression) {
		for _, seg := range e.segments {
			if inner, ok := seg.provider.(*ReferenceExpression); ok {
				walk(inner)
				continue
			}
			ref, ok := seg.provider.(ResourceReferencer)
			if !ok {
				continue
			}
			r := ref.ReferencedResource()
			if r == nil || seen[r] {
				continue
			}
			seen[r] = true
			out = append(out, r)
		}
	}
	walk(e)
	return out
}

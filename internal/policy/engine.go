// Package policy evaluates source admission rules through OPA. Requests for
// disallowed hosts or patterns are rejected before any fetch happens.
package policy

import (
	"context"
	"fmt"
	"net/url"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a policy engine with the given rego module content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.source_policy.decision"),
		rego.Module("source_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks a source URL against the admission policy.
// Returns the decision string: allow or block.
func (e *Engine) Evaluate(ctx context.Context, sourceURL string) (string, error) {
	input := map[string]interface{}{
		"source_url": sourceURL,
	}
	if u, err := url.Parse(sourceURL); err == nil {
		input["host"] = u.Hostname()
		input["scheme"] = u.Scheme
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The policy is expected to define a default.
		return "block", nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return "block", nil
}

// DefaultPolicy admits the known lecture hosts over https/http and blocks
// everything else.
const DefaultPolicy = `
package source_policy

default decision = "block"

allowed_hosts = {
	"www.youtube.com",
	"youtube.com",
	"m.youtube.com",
	"youtu.be",
}

decision = "allow" {
	input.scheme == "https"
	allowed_hosts[input.host]
}

decision = "allow" {
	input.scheme == "http"
	allowed_hosts[input.host]
}
`

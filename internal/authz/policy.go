package authz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/spec-kit/identity-service/internal/domain"
)

var (
	// ErrPolicyNotRegistered means a requirement names a policy nobody registered.
	ErrPolicyNotRegistered = errors.New("policy not registered")
	// ErrDuplicatePolicy is returned when a policy name is registered twice.
	ErrDuplicatePolicy = errors.New("duplicate policy name")
)

// claimsVariable is the name policies use to reach the token's claim set.
const claimsVariable = "claims"

// Policy is a named predicate over a token's claim set.
type Policy interface {
	Allows(claims domain.ClaimSet) bool
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(claims domain.ClaimSet) bool

// Allows calls f.
func (f PolicyFunc) Allows(claims domain.ClaimSet) bool {
	return f(claims)
}

// PolicyRegistry holds the named policies. It is populated at startup and only read
// afterwards.
type PolicyRegistry struct {
	env      *cel.Env
	policies map[string]Policy
}

// NewPolicyRegistry creates an empty registry able to compile CEL policies.
func NewPolicyRegistry() (*PolicyRegistry, error) {
	env, err := cel.NewEnv(
		cel.Variable(claimsVariable, cel.MapType(cel.StringType, cel.ListType(cel.StringType))),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel environment: %w", err)
	}
	return &PolicyRegistry{env: env, policies: make(map[string]Policy)}, nil
}

// Register adds a policy under name.
func (r *PolicyRegistry) Register(name string, policy Policy) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("policy name is required")
	}
	if policy == nil {
		return fmt.Errorf("policy %s: nil predicate", name)
	}
	if _, exists := r.policies[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePolicy, name)
	}
	r.policies[name] = policy
	return nil
}

// RegisterExpression compiles a CEL expression over `claims` (map of claim type to
// list of values) and registers it under name. The expression must yield a bool.
func (r *PolicyRegistry) RegisterExpression(name, expression string) error {
	ast, issues := r.env.Compile(expression)
	if issues.Err() != nil {
		return fmt.Errorf("policy %s: compile: %w", name, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return fmt.Errorf("policy %s: expression must evaluate to bool, got %s", name, ast.OutputType())
	}
	program, err := r.env.Program(ast)
	if err != nil {
		return fmt.Errorf("policy %s: build program: %w", name, err)
	}
	return r.Register(name, &expressionPolicy{program: program})
}

// Lookup returns the policy registered under name.
func (r *PolicyRegistry) Lookup(name string) (Policy, bool) {
	policy, ok := r.policies[name]
	return policy, ok
}

type expressionPolicy struct {
	program cel.Program
}

// Allows evaluates the expression. Evaluation errors, such as reading a missing claim
// or converting a non-numeric value, deny.
func (p *expressionPolicy) Allows(claims domain.ClaimSet) bool {
	input := make(map[string]any, len(claims))
	for typ, values := range claims {
		input[typ] = values
	}

	out, _, err := p.program.Eval(map[string]any{claimsVariable: input})
	if err != nil {
		return false
	}
	allowed, ok := out.Value().(bool)
	return ok && allowed
}

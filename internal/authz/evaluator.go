package authz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/identity-service/internal/domain"
)

// Decision is the outcome of evaluating requirements.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// RequirementKind tags a Requirement.
type RequirementKind int

const (
	RequirementRole RequirementKind = iota + 1
	RequirementPolicy
)

// Requirement is declared per protected operation: either a set of accepted roles or
// the name of a registered policy.
type Requirement struct {
	Kind   RequirementKind
	Roles  []string
	Policy string
}

// RequireRole passes when the token carries a role claim equal to any of roles.
func RequireRole(roles ...string) Requirement {
	return Requirement{Kind: RequirementRole, Roles: roles}
}

// RequirePolicy passes when the named policy allows the token's claims.
func RequirePolicy(name string) Requirement {
	return Requirement{Kind: RequirementPolicy, Policy: name}
}

func (r Requirement) String() string {
	switch r.Kind {
	case RequirementRole:
		return "role(" + strings.Join(r.Roles, ",") + ")"
	case RequirementPolicy:
		return "policy(" + r.Policy + ")"
	default:
		return "unknown"
	}
}

// Evaluator decides whether a claim set satisfies an operation's requirements.
type Evaluator struct {
	policies  *PolicyRegistry
	roleClaim string
}

// NewEvaluator creates an evaluator backed by the policy registry.
func NewEvaluator(policies *PolicyRegistry) *Evaluator {
	return &Evaluator{policies: policies, roleClaim: domain.ClaimRole}
}

// Validate checks requirements at registration time. Unknown policies yield
// ErrPolicyNotRegistered.
func (e *Evaluator) Validate(reqs ...Requirement) error {
	var errs []error
	for _, req := range reqs {
		switch req.Kind {
		case RequirementRole:
			if len(req.Roles) == 0 {
				errs = append(errs, errors.New("role requirement without roles"))
			}
		case RequirementPolicy:
			if _, ok := e.policies.Lookup(req.Policy); !ok {
				errs = append(errs, fmt.Errorf("%w: %s", ErrPolicyNotRegistered, req.Policy))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown requirement kind %d", req.Kind))
		}
	}
	return errors.Join(errs...)
}

// Evaluate returns Allow only when every requirement passes. Missing claims and
// unregistered policies deny.
func (e *Evaluator) Evaluate(claims domain.ClaimSet, reqs []Requirement) Decision {
	for _, req := range reqs {
		if !e.satisfies(claims, req) {
			return Deny
		}
	}
	return Allow
}

func (e *Evaluator) satisfies(claims domain.ClaimSet, req Requirement) bool {
	switch req.Kind {
	case RequirementRole:
		for _, role := range req.Roles {
			if claims.Has(e.roleClaim, role) {
				return true
			}
		}
		return false
	case RequirementPolicy:
		policy, ok := e.policies.Lookup(req.Policy)
		if !ok {
			return false
		}
		return policy.Allows(claims)
	default:
		return false
	}
}

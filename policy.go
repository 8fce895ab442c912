package provision

import (
	"github.com/gobwas/glob"
	goerrors "github.com/goliatone/go-errors"
)

// AccessRule maps an ant-style path pattern to the roles allowed through.
// Empty Roles means the resource is open regardless of authentication state.
type AccessRule struct {
	Pattern string
	Roles   []Role
}

// AccessPolicy is a static ordered rule list evaluated first-match-wins over
// request paths. More specific patterns must precede the catch-all.
type AccessPolicy struct {
	rules []compiledRule
}

type compiledRule struct {
	matcher glob.Glob
	roles   []Role
}

// NewAccessPolicy compiles the rule list. Patterns use '/' as separator so
// "/admin/*" matches one segment and "/admin/**" any depth, the ant-matcher
// convention transplanted to glob syntax.
func NewAccessPolicy(rules []AccessRule) (*AccessPolicy, error) {
	compiled := make([]compiledRule, 0, len(rules))

	for _, rule := range rules {
		matcher, err := glob.Compile(rule.Pattern, '/')
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid access rule pattern").
				WithMetadata(map[string]any{"pattern": rule.Pattern})
		}
		compiled = append(compiled, compiledRule{matcher: matcher, roles: rule.Roles})
	}

	return &AccessPolicy{rules: compiled}, nil
}

// DefaultAccessPolicy mirrors the stock deployment layout: administrative
// resources behind the admin role, user and service listings behind any
// authenticated role, everything else open.
func DefaultAccessPolicy() *AccessPolicy {
	policy, err := NewAccessPolicy([]AccessRule{
		{Pattern: "/admin", Roles: []Role{RoleAdmin}},
		{Pattern: "/admin/**", Roles: []Role{RoleAdmin}},
		{Pattern: "/user", Roles: []Role{RoleAdmin, RoleUser}},
		{Pattern: "/services", Roles: []Role{RoleAdmin, RoleUser}},
		{Pattern: "/**", Roles: nil},
	})
	if err != nil {
		// Static patterns above; a compile failure is a programming error.
		panic(err)
	}
	return policy
}

// Evaluate returns nil when the request may proceed. An unauthenticated
// caller hitting a guarded rule gets ErrAuthenticationFailed; an
// authenticated caller whose role does not satisfy the rule gets
// ErrAccessDenied. identity may be nil for unauthenticated requests.
func (p *AccessPolicy) Evaluate(path string, identity Identity) error {
	for _, rule := range p.rules {
		if !rule.matcher.Match(path) {
			continue
		}

		if len(rule.roles) == 0 {
			return nil
		}

		if identity == nil {
			return ErrAuthenticationFailed
		}

		for _, role := range rule.roles {
			if identity.Role() == role {
				return nil
			}
		}

		return ErrAccessDenied
	}

	// No rule matched: treat as guarded rather than open, a policy without a
	// catch-all should fail closed.
	if identity == nil {
		return ErrAuthenticationFailed
	}
	return ErrAccessDenied
}

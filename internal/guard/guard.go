// Package guard decides whether a caller may enter a role-restricted area.
package guard

import (
	"strings"

	"github.com/sickboy81/saphira/internal/domain/enums"
)

type Decision int

const (
	Loading Decision = iota
	Authorized
	Unauthorized
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

const (
	LoginPath = "/login"
	HomePath  = "/"
)

type Input struct {
	Loading    bool
	HasSession bool
	Role       *enums.Role
}

type Verdict struct {
	Decision Decision
	Redirect string
}

// Classify is re-evaluated whenever the session snapshot changes.
// A session whose role has not been resolved yet stays in Loading.
func Classify(in Input, allow []enums.Role) Verdict {
	if in.Loading {
		return Verdict{Decision: Loading}
	}
	if !in.HasSession {
		return Verdict{Decision: Unauthorized, Redirect: LoginPath}
	}
	if in.Role == nil {
		return Verdict{Decision: Loading}
	}
	for _, role := range allow {
		if role == *in.Role {
			return Verdict{Decision: Authorized}
		}
	}
	return Verdict{Decision: Unauthorized, Redirect: HomePath}
}

type Rule struct {
	Prefix string
	Allow  []enums.Role
}

// Table is the guarded route table.
var Table = []Rule{
	{Prefix: "/dashboard", Allow: []enums.Role{enums.RoleAdvertiser, enums.RoleSuperAdmin}},
	{Prefix: "/admin", Allow: []enums.Role{enums.RoleSuperAdmin}},
}

// Lookup returns the most specific rule covering path.
func Lookup(path string) (Rule, bool) {
	var (
		best  Rule
		found bool
	)
	for _, rule := range Table {
		if !covers(rule.Prefix, path) {
			continue
		}
		if !found || len(rule.Prefix) > len(best.Prefix) {
			best = rule
			found = true
		}
	}
	return best, found
}

func covers(prefix, path string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/")
}

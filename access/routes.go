package access

import (
	"strings"

	"github.com/MrEthical07/skillsync/identity"
	"github.com/MrEthical07/skillsync/session"
)

// Route is one screen of the app. Public routes are open to everyone,
// resolved or not.
type Route struct {
	Pattern string
	Title   string
	Public  bool
	Require Requirement
}

// Params holds the values of ":name" segments matched by a Route.
type Params map[string]string

// Table is an ordered route list. Static routes win over routes with
// parameters regardless of order.
type Table []Route

// DefaultRoutes are the SkillSync screens.
var DefaultRoutes = Table{
	{Pattern: HomePath, Title: "Home", Public: true},
	{Pattern: LoginPath, Title: "Login", Public: true},
	{Pattern: RegisterPath, Title: "Register", Public: true},
	{Pattern: "/dashboard", Title: "Dashboard"},
	{Pattern: "/projects", Title: "Projects"},
	{Pattern: "/projects/new", Title: "New project", Require: Requirement{Role: identity.RoleClient}},
	{Pattern: "/projects/:id", Title: "Project"},
	{Pattern: "/applications", Title: "Applications"},
	{Pattern: "/profile", Title: "Profile"},
	{Pattern: "/resume", Title: "Resume", Require: Requirement{Role: identity.RoleFreelancer}},
}

// Match finds the route for path. Trailing slashes and query strings are
// ignored.
func (t Table) Match(path string) (Route, Params, bool) {
	segs := splitPath(path)

	var (
		best       Route
		bestParams Params
		bestStatic = -1
	)
	for _, r := range t {
		params, static, ok := matchPattern(splitPath(r.Pattern), segs)
		if ok && static > bestStatic {
			best, bestParams, bestStatic = r, params, static
		}
	}
	return best, bestParams, bestStatic >= 0
}

// Evaluate decides whether snap may open path. ok is false when no route
// matches.
func (t Table) Evaluate(snap session.Snapshot, path string) (d Decision, ok bool) {
	r, _, ok := t.Match(path)
	if !ok {
		return RedirectToHome, false
	}
	if r.Public {
		return Allow, true
	}
	return CanEnter(snap, r.Require), true
}

// Evaluate uses DefaultRoutes.
func Evaluate(snap session.Snapshot, path string) (Decision, bool) {
	return DefaultRoutes.Evaluate(snap, path)
}

func splitPath(p string) []string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// matchPattern reports the number of static segments matched, used to rank
// overlapping patterns.
func matchPattern(pattern, segs []string) (Params, int, bool) {
	if len(pattern) != len(segs) {
		return nil, 0, false
	}
	var params Params
	static := 0
	for i, p := range pattern {
		if name, ok := strings.CutPrefix(p, ":"); ok {
			if segs[i] == "" {
				return nil, 0, false
			}
			if params == nil {
				params = make(Params)
			}
			params[name] = segs[i]
			continue
		}
		if p != segs[i] {
			return nil, 0, false
		}
		static++
	}
	return params, static, true
}

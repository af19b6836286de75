package access

import (
	"reflect"
	"testing"

	"github.com/MrEthical07/skillsync/identity"
	"github.com/MrEthical07/skillsync/session"
)

func unresolved() session.Snapshot { return session.Snapshot{State: session.Unresolved} }
func anonymous() session.Snapshot  { return session.Snapshot{State: session.Anonymous, Generation: 1} }

func member(role identity.Role) session.Snapshot {
	var profile identity.Profile = &identity.ClientProfile{Name: "Ada"}
	if role == identity.RoleFreelancer {
		profile = &identity.FreelancerProfile{Name: "Fran"}
	}
	return session.Snapshot{
		State:   session.Authenticated,
		User:    &identity.User{ID: 1, Username: "u", Role: role},
		Profile: profile,
	}
}

func TestCanEnterTable(t *testing.T) {
	reqs := map[string]Requirement{
		"any":        {},
		"client":     {Role: identity.RoleClient},
		"freelancer": {Role: identity.RoleFreelancer},
	}
	tests := []struct {
		name string
		snap session.Snapshot
		want map[string]Decision
	}{
		{"unresolved", unresolved(), map[string]Decision{"any": Pending, "client": Pending, "freelancer": Pending}},
		{"anonymous", anonymous(), map[string]Decision{"any": RedirectToLogin, "client": RedirectToLogin, "freelancer": RedirectToLogin}},
		{"client", member(identity.RoleClient), map[string]Decision{"any": Allow, "client": Allow, "freelancer": RedirectToHome}},
		{"freelancer", member(identity.RoleFreelancer), map[string]Decision{"any": Allow, "client": RedirectToHome, "freelancer": Allow}},
	}

	for _, tt := range tests {
		for reqName, req := range reqs {
			if got := CanEnter(tt.snap, req); got != tt.want[reqName] {
				t.Fatalf("%s/%s: expected %s, got %s", tt.name, reqName, tt.want[reqName], got)
			}
		}
	}
}

func TestDecisionRedirect(t *testing.T) {
	if RedirectToLogin.Redirect() != "/login" || RedirectToHome.Redirect() != "/" {
		t.Fatalf("unexpected redirect targets")
	}
	if Pending.Redirect() != "" || Allow.Redirect() != "" {
		t.Fatalf("non-redirect decisions must have no target")
	}
}

func TestRoutesMatch(t *testing.T) {
	tests := []struct {
		path    string
		pattern string
		params  Params
		ok      bool
	}{
		{"/", "/", nil, true},
		{"/projects", "/projects", nil, true},
		{"/projects/", "/projects", nil, true},
		{"/projects/new", "/projects/new", nil, true},
		{"/projects/42", "/projects/:id", Params{"id": "42"}, true},
		{"/projects/42?tab=apps", "/projects/:id", Params{"id": "42"}, true},
		{"/projects/42/edit", "", nil, false},
		{"/nowhere", "", nil, false},
	}
	for _, tt := range tests {
		r, params, ok := DefaultRoutes.Match(tt.path)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v", tt.path, tt.ok)
		}
		if !ok {
			continue
		}
		if r.Pattern != tt.pattern || !reflect.DeepEqual(params, tt.params) {
			t.Fatalf("%s: got %s %v", tt.path, r.Pattern, params)
		}
	}
}

func TestEvaluateEveryRoute(t *testing.T) {
	paths := []string{"/", "/login", "/register", "/dashboard", "/projects", "/projects/new", "/projects/7", "/applications", "/profile", "/resume"}
	want := map[string][]Decision{
		"unresolved": {Allow, Allow, Allow, Pending, Pending, Pending, Pending, Pending, Pending, Pending},
		"anonymous":  {Allow, Allow, Allow, RedirectToLogin, RedirectToLogin, RedirectToLogin, RedirectToLogin, RedirectToLogin, RedirectToLogin, RedirectToLogin},
		"client":     {Allow, Allow, Allow, Allow, Allow, Allow, Allow, Allow, Allow, RedirectToHome},
		"freelancer": {Allow, Allow, Allow, Allow, Allow, RedirectToHome, Allow, Allow, Allow, Allow},
	}
	snaps := map[string]session.Snapshot{
		"unresolved": unresolved(),
		"anonymous":  anonymous(),
		"client":     member(identity.RoleClient),
		"freelancer": member(identity.RoleFreelancer),
	}

	for name, snap := range snaps {
		for i, path := range paths {
			got, ok := Evaluate(snap, path)
			if !ok {
				t.Fatalf("%s %s: no route", name, path)
			}
			if got != want[name][i] {
				t.Fatalf("%s %s: expected %s, got %s", name, path, want[name][i], got)
			}
		}
	}

	if d, ok := Evaluate(member(identity.RoleClient), "/missing"); ok || d != RedirectToHome {
		t.Fatalf("unknown path: got %s ok=%v", d, ok)
	}
}

func TestNavigation(t *testing.T) {
	if links := Navigation(unresolved()); links != nil {
		t.Fatalf("unresolved session must have no links, got %v", links)
	}

	labels := func(links []Link) []string {
		out := make([]string, 0, len(links))
		for _, l := range links {
			out = append(out, l.Label)
		}
		return out
	}

	if got := labels(Navigation(anonymous())); !reflect.DeepEqual(got, []string{"Home", "Login", "Register"}) {
		t.Fatalf("anonymous links %v", got)
	}
	if got := labels(Navigation(member(identity.RoleClient))); !reflect.DeepEqual(got, []string{"Dashboard", "Projects", "Applications", "Profile"}) {
		t.Fatalf("client links %v", got)
	}
	if got := labels(Navigation(member(identity.RoleFreelancer))); !reflect.DeepEqual(got, []string{"Dashboard", "Projects", "Applications", "Resume", "Profile"}) {
		t.Fatalf("freelancer links %v", got)
	}
}

func TestCapabilities(t *testing.T) {
	caps := DefaultCapabilities()
	if !caps.Allows(member(identity.RoleClient), CapProjectsCreate) {
		t.Fatalf("client must create projects")
	}
	if caps.Allows(member(identity.RoleFreelancer), CapProjectsCreate) {
		t.Fatalf("freelancer must not create projects")
	}
	if caps.Allows(anonymous(), CapNavDashboard) || caps.Allows(unresolved(), CapNavDashboard) {
		t.Fatalf("signed-out sessions hold no capabilities")
	}
	if got := caps.Of(identity.RoleFreelancer); len(got) != 6 {
		t.Fatalf("unexpected freelancer capabilities %v", got)
	}

	if _, err := NewCapabilities(map[identity.Role][]string{"admin": {CapNavDashboard}}); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

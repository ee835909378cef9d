package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/carshare-web/internal/model"
)

func user(r model.Role) *model.User { return &model.User{ID: 1, Role: r} }

func TestDecide(t *testing.T) {
	ownerOnly := []model.Role{model.RoleOwner}
	staff := []model.Role{model.RoleSupport, model.RoleAdmin}
	tests := []struct {
		name     string
		user     *model.User
		allowed  []model.Role
		path     string
		expected Decision
	}{
		{name: "signed out", user: nil, allowed: ownerOnly, path: "/owner/cars", expected: Decision{Redirect: "/login?next=%2Fowner%2Fcars"}},
		{name: "signed out any-user route", user: nil, allowed: nil, path: "/tickets", expected: Decision{Redirect: "/login?next=%2Ftickets"}},
		{name: "matching role", user: user(model.RoleOwner), allowed: ownerOnly, path: "/owner/cars", expected: Decision{Allow: true}},
		{name: "any signed-in user", user: user(model.RoleRegular), allowed: nil, path: "/tickets", expected: Decision{Allow: true}},
		{name: "regular on owner route", user: user(model.RoleRegular), allowed: ownerOnly, path: "/owner", expected: Decision{Redirect: "/"}},
		{name: "admin on owner route", user: user(model.RoleAdmin), allowed: ownerOnly, path: "/owner", expected: Decision{Redirect: "/admin"}},
		{name: "support on owner route", user: user(model.RoleSupport), allowed: ownerOnly, path: "/owner", expected: Decision{Redirect: "/support"}},
		{name: "owner on admin route", user: user(model.RoleOwner), allowed: []model.Role{model.RoleAdmin}, path: "/admin", expected: Decision{Redirect: "/owner/dashboard"}},
		{name: "admin on support route", user: user(model.RoleAdmin), allowed: staff, path: "/support", expected: Decision{Allow: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Decide(tt.user, tt.allowed, tt.path))
		})
	}
}

func TestLoginRedirect(t *testing.T) {
	assert.Equal(t, "/login", LoginRedirect(""))
	assert.Equal(t, "/login", LoginRedirect("/login"))
	assert.Equal(t, "/login?next=%2Fowner%3Fstatus%3Dpending", LoginRedirect("/owner?status=pending"))
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		ok   bool
	}{
		{"/owner/cars", true},
		{"/cars/3?tab=reviews", true},
		{"", false},
		{"owner", false},
		{"//evil.example.com", false},
		{"/\\evil.example.com", false},
		{"https://evil.example.com/x", false},
	}
	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			got, ok := SafeNext(tt.next)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.next, got)
			}
		})
	}
}

func TestRules_Match(t *testing.T) {
	rules := Rules{
		{Prefix: "/tickets"},
		{Prefix: "/owner", Roles: []model.Role{model.RoleOwner}},
		{Prefix: "/admin", Roles: []model.Role{model.RoleAdmin}},
		{Prefix: "/admin/users", Roles: []model.Role{model.RoleAdmin, model.RoleSupport}},
	}

	r, ok := rules.Match("/owner/cars/3")
	assert.True(t, ok)
	assert.Equal(t, "/owner", r.Prefix)

	r, ok = rules.Match("/admin/users/4")
	assert.True(t, ok)
	assert.Equal(t, "/admin/users", r.Prefix)

	_, ok = rules.Match("/ownership")
	assert.False(t, ok)

	_, ok = rules.Match("/cars")
	assert.False(t, ok)

	assert.Equal(t, []model.Role{model.RoleOwner}, rules.RolesFor("/owner/bookings?status=pending"))
	assert.Nil(t, rules.RolesFor("/cars/1"))
}

func TestAfterLogin(t *testing.T) {
	rules := Rules{
		{Prefix: "/owner", Roles: []model.Role{model.RoleOwner}},
		{Prefix: "/admin", Roles: []model.Role{model.RoleAdmin}},
	}
	tests := []struct {
		name     string
		role     model.Role
		next     string
		expected string
	}{
		{name: "remembered path allowed", role: model.RoleOwner, next: "/owner/cars", expected: "/owner/cars"},
		{name: "remembered path forbidden", role: model.RoleRegular, next: "/admin", expected: "/"},
		{name: "no remembered path", role: model.RoleAdmin, next: "", expected: "/admin"},
		{name: "unsafe remembered path", role: model.RoleSupport, next: "//evil.example.com", expected: "/support"},
		{name: "public path", role: model.RoleRegular, next: "/cars/5", expected: "/cars/5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AfterLogin(model.User{ID: 1, Role: tt.role}, tt.next, rules.RolesFor))
		})
	}
}

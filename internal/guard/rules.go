package guard

import (
	"strings"

	"github.com/iliyamo/carshare-web/internal/model"
)

// Rule protects every path under Prefix. Roles nil means any signed-in user.
type Rule struct {
	Prefix string
	Roles  []model.Role
}

// Rules is an ordered rule list; the longest matching prefix wins.
type Rules []Rule

// Match returns the rule for path, if any.
func (rs Rules) Match(path string) (Rule, bool) {
	best, found := Rule{}, false
	for _, r := range rs {
		if path == r.Prefix || strings.HasPrefix(path, strings.TrimRight(r.Prefix, "/")+"/") {
			if !found || len(r.Prefix) > len(best.Prefix) {
				best, found = r, true
			}
		}
	}
	return best, found
}

// RolesFor adapts Match for AfterLogin.
func (rs Rules) RolesFor(path string) []model.Role {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	r, _ := rs.Match(path)
	return r.Roles
}

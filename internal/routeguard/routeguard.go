// Package routeguard decides what a logical route shows for a given auth
// state.
package routeguard

import (
	"strings"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/authsession"
)

// AuthRoute is where anonymous visitors of a protected route are sent.
const AuthRoute = "/auth"

type Outcome int

const (
	Render Outcome = iota
	Loading
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision is the result of guarding one route. Target is set for Redirect.
type Decision struct {
	Outcome Outcome
	Target  string
}

// Route is an entry of the logical route table.
type Route struct {
	Pattern   string
	Protected bool
}

// Routes lists every logical route of the app.
var Routes = []Route{
	{Pattern: "/"},
	{Pattern: "/auth"},
	{Pattern: "/buy"},
	{Pattern: "/rent"},
	{Pattern: "/rent/list", Protected: true},
	{Pattern: "/sell", Protected: true},
	{Pattern: "/property/{id}/{kind}"},
	{Pattern: "/account", Protected: true},
	{Pattern: "/my-properties", Protected: true},
	{Pattern: "/developer"},
}

// Decide guards a protected route. While the session is still resolving the
// outcome is Loading whatever user the snapshot carries.
func Decide(snap authsession.Snapshot) Decision {
	switch {
	case snap.IsLoading():
		return Decision{Outcome: Loading}
	case snap.State == authsession.Authenticated && snap.User != nil:
		return Decision{Outcome: Render}
	default:
		return Decision{Outcome: Redirect, Target: AuthRoute}
	}
}

// Match returns the table entry for path, ignoring a trailing slash and any
// query string.
func Match(path string) (Route, bool) {
	segs := split(path)
	for _, r := range Routes {
		if matches(split(r.Pattern), segs) {
			return r, true
		}
	}
	return Route{}, false
}

// Protected reports whether path requires an authenticated session. Unknown
// paths are public.
func Protected(path string) bool {
	r, ok := Match(path)
	return ok && r.Protected
}

// Resolve guards path. Public routes always render.
func Resolve(path string, snap authsession.Snapshot) Decision {
	if !Protected(path) {
		return Decision{Outcome: Render}
	}
	return Decide(snap)
}

func split(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func matches(pattern, segs []string) bool {
	if len(pattern) != len(segs) {
		return false
	}
	for i, p := range pattern {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			if segs[i] == "" {
				return false
			}
			continue
		}
		if p != segs[i] {
			return false
		}
	}
	return true
}

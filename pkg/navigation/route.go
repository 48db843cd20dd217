package navigation

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrRouteNotFound is returned when no route matches a path
	ErrRouteNotFound = errors.New("route not found")
	// ErrRedirectLoop is returned when redirects do not settle on a concrete route
	ErrRedirectLoop = errors.New("too many route redirects")
	// ErrInvalidTable is returned when a route table fails validation
	ErrInvalidTable = errors.New("invalid route table")
)

// maxRedirects bounds redirect chains during resolution.
const maxRedirects = 8

// RouteMeta is static metadata attached to a route.
type RouteMeta struct {
	RequiresAuth bool `json:"requiresAuth"`
}

// Route is one entry of the route table. Child paths that do not start with
// "/" are relative to their parent.
type Route struct {
	Path      string
	Name      string
	Component string
	Redirect  string
	Meta      RouteMeta
	Children  []Route
}

// Location is a resolved route.
type Location struct {
	Path      string            `json:"path"`
	Pattern   string            `json:"pattern"`
	Name      string            `json:"name"`
	Component string            `json:"component"`
	Params    map[string]string `json:"params,omitempty"`
	Meta      RouteMeta         `json:"meta"`
}

type entry struct {
	pattern   string
	segments  []string
	name      string
	component string
	redirect  string
	meta      RouteMeta
}

// Table is an ordered, immutable route table.
type Table struct {
	loginPath string
	entries   []entry
}

// NewTable builds and validates a route table. loginPath must name a route
// that does not itself require authentication.
func NewTable(loginPath string, routes ...Route) (*Table, error) {
	t := &Table{loginPath: CleanPath(loginPath)}

	seen := make(map[string]bool)
	var flatten func(parent string, parentMeta RouteMeta, rs []Route) error
	flatten = func(parent string, parentMeta RouteMeta, rs []Route) error {
		for _, r := range rs {
			if r.Path == "" {
				return fmt.Errorf("%w: route %q has an empty path", ErrInvalidTable, r.Name)
			}
			full := r.Path
			if !strings.HasPrefix(full, "/") {
				full = path.Join(parent, full)
			}
			full = CleanPath(full)
			if seen[full] {
				return fmt.Errorf("%w: duplicate path %s", ErrInvalidTable, full)
			}
			seen[full] = true

			meta := RouteMeta{RequiresAuth: parentMeta.RequiresAuth || r.Meta.RequiresAuth}
			t.entries = append(t.entries, entry{
				pattern:   full,
				segments:  splitPath(full),
				name:      r.Name,
				component: r.Component,
				redirect:  r.Redirect,
				meta:      meta,
			})
			if err := flatten(full, meta, r.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := flatten("/", RouteMeta{}, routes); err != nil {
		return nil, err
	}

	login, err := t.Resolve(t.loginPath)
	if err != nil {
		return nil, fmt.Errorf("%w: login path %s: %v", ErrInvalidTable, t.loginPath, err)
	}
	if login.Meta.RequiresAuth {
		return nil, fmt.Errorf("%w: login path %s requires authentication", ErrInvalidTable, t.loginPath)
	}
	for _, e := range t.entries {
		if e.redirect == "" {
			continue
		}
		if _, err := t.Resolve(e.pattern); err != nil {
			return nil, fmt.Errorf("%w: redirect from %s: %v", ErrInvalidTable, e.pattern, err)
		}
	}

	return t, nil
}

// LoginPath returns the designated login path.
func (t *Table) LoginPath() string {
	return t.loginPath
}

// Resolve matches p against the table, following redirects.
func (t *Table) Resolve(p string) (Location, error) {
	current := CleanPath(p)
	for i := 0; i <= maxRedirects; i++ {
		e, params, ok := t.match(current)
		if !ok {
			return Location{}, fmt.Errorf("%w: %s", ErrRouteNotFound, current)
		}
		if e.redirect != "" {
			current = CleanPath(e.redirect)
			continue
		}
		return Location{
			Path:      current,
			Pattern:   e.pattern,
			Name:      e.name,
			Component: e.component,
			Params:    params,
			Meta:      e.meta,
		}, nil
	}
	return Location{}, fmt.Errorf("%w: %s", ErrRedirectLoop, p)
}

// Patterns returns every route pattern in table order, redirect-only routes included.
func (t *Table) Patterns() []string {
	out := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.pattern)
	}
	return out
}

// Describe returns one unresolved Location per table entry, in table order.
// Redirect routes carry their redirect target in Component.
func (t *Table) Describe() []Location {
	out := make([]Location, 0, len(t.entries))
	for _, e := range t.entries {
		loc := Location{Path: e.pattern, Pattern: e.pattern, Name: e.name, Component: e.component, Meta: e.meta}
		if e.redirect != "" {
			loc.Component = "-> " + e.redirect
		}
		out = append(out, loc)
	}
	return out
}

func (t *Table) match(p string) (entry, map[string]string, bool) {
	segs := splitPath(p)
	for _, e := range t.entries {
		if len(e.segments) != len(segs) {
			continue
		}
		var params map[string]string
		matched := true
		for i, s := range e.segments {
			if strings.HasPrefix(s, ":") {
				if params == nil {
					params = make(map[string]string)
				}
				params[s[1:]] = segs[i]
				continue
			}
			if s != segs[i] {
				matched = false
				break
			}
		}
		if matched {
			return e, params, true
		}
	}
	return entry{}, nil, false
}

// CleanPath normalizes p the way the table matches paths: query and fragment
// are dropped, a leading slash is ensured and the result is path.Clean-ed.
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// DefaultRoutes returns the console's route table: the login page and the
// guarded management pages under the main layout.
func DefaultRoutes() []Route {
	return []Route{
		{
			Path:      "/login",
			Name:      "Login",
			Component: "pages/Login",
		},
		{
			Path:      "/",
			Component: "layouts/MainLayout",
			Redirect:  "/component-manage",
			Children: []Route{
				{
					Path:      "/component-manage",
					Name:      "Component Management",
					Component: "pages/ComponentManager",
					Meta:      RouteMeta{RequiresAuth: true},
				},
				{
					Path:      "/template-edit/:componentId",
					Name:      "Template Editor",
					Component: "pages/ComponentTemplateImageManager",
					Meta:      RouteMeta{RequiresAuth: true},
				},
				{
					Path:      "/railway-train-manage",
					Name:      "Railway Train Management",
					Component: "pages/RailwayVehicleManager",
					Meta:      RouteMeta{RequiresAuth: true},
				},
			},
		},
	}
}

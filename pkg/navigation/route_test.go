package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultTable(t *testing.T) *Table {
	t.Helper()

	table, err := NewTable("/login", DefaultRoutes()...)
	require.NoError(t, err)
	return table
}

func TestTable_Resolve(t *testing.T) {
	table := newDefaultTable(t)

	tests := []struct {
		name         string
		path         string
		wantPath     string
		wantName     string
		requiresAuth bool
		params       map[string]string
	}{
		{
			name:     "login",
			path:     "/login",
			wantPath: "/login",
			wantName: "Login",
		},
		{
			name:         "root redirects to default page",
			path:         "/",
			wantPath:     "/component-manage",
			wantName:     "Component Management",
			requiresAuth: true,
		},
		{
			name:         "empty path is root",
			path:         "",
			wantPath:     "/component-manage",
			wantName:     "Component Management",
			requiresAuth: true,
		},
		{
			name:         "param route",
			path:         "/template-edit/42",
			wantPath:     "/template-edit/42",
			wantName:     "Template Editor",
			requiresAuth: true,
			params:       map[string]string{"componentId": "42"},
		},
		{
			name:         "trailing slash and query",
			path:         "/railway-train-manage/?page=2",
			wantPath:     "/railway-train-manage",
			wantName:     "Railway Train Management",
			requiresAuth: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := table.Resolve(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, loc.Path)
			assert.Equal(t, tt.wantName, loc.Name)
			assert.Equal(t, tt.requiresAuth, loc.Meta.RequiresAuth)
			assert.Equal(t, tt.params, loc.Params)
		})
	}
}

func TestTable_ResolveNotFound(t *testing.T) {
	table := newDefaultTable(t)

	_, err := table.Resolve("/template-edit")
	assert.ErrorIs(t, err, ErrRouteNotFound)

	_, err = table.Resolve("/does-not-exist")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestTable_ChildInheritsParentMeta(t *testing.T) {
	table, err := NewTable("/login",
		Route{Path: "/login", Name: "Login"},
		Route{
			Path: "/admin",
			Name: "Admin",
			Meta: RouteMeta{RequiresAuth: true},
			Children: []Route{
				{Path: "users", Name: "Users"},
			},
		},
	)
	require.NoError(t, err)

	loc, err := table.Resolve("/admin/users")
	require.NoError(t, err)
	assert.Equal(t, "Users", loc.Name)
	assert.Equal(t, "/admin/users", loc.Pattern)
	assert.True(t, loc.Meta.RequiresAuth)
}

func TestNewTable_Validation(t *testing.T) {
	t.Run("missing_login_route", func(t *testing.T) {
		_, err := NewTable("/login", Route{Path: "/home", Name: "Home"})
		assert.ErrorIs(t, err, ErrInvalidTable)
	})

	t.Run("guarded_login_route", func(t *testing.T) {
		_, err := NewTable("/login", Route{Path: "/login", Meta: RouteMeta{RequiresAuth: true}})
		assert.ErrorIs(t, err, ErrInvalidTable)
	})

	t.Run("duplicate_path", func(t *testing.T) {
		_, err := NewTable("/login",
			Route{Path: "/login"},
			Route{Path: "/login/"},
		)
		assert.ErrorIs(t, err, ErrInvalidTable)
	})

	t.Run("empty_path", func(t *testing.T) {
		_, err := NewTable("/login", Route{Path: "/login"}, Route{Name: "nameless"})
		assert.ErrorIs(t, err, ErrInvalidTable)
	})

	t.Run("dangling_redirect", func(t *testing.T) {
		_, err := NewTable("/login",
			Route{Path: "/login"},
			Route{Path: "/", Redirect: "/nowhere"},
		)
		assert.ErrorIs(t, err, ErrInvalidTable)
	})

	t.Run("redirect_loop", func(t *testing.T) {
		_, err := NewTable("/login",
			Route{Path: "/login"},
			Route{Path: "/a", Redirect: "/b"},
			Route{Path: "/b", Redirect: "/a"},
		)
		require.ErrorIs(t, err, ErrInvalidTable)
		assert.Contains(t, err.Error(), "too many route redirects")
	})
}

func TestTable_Describe(t *testing.T) {
	table := newDefaultTable(t)

	assert.Equal(t, "/login", table.LoginPath())
	assert.Equal(t, []string{
		"/login",
		"/",
		"/component-manage",
		"/template-edit/:componentId",
		"/railway-train-manage",
	}, table.Patterns())

	described := table.Describe()
	require.Len(t, described, 5)
	assert.Equal(t, "-> /component-manage", described[1].Component)
	assert.True(t, described[3].Meta.RequiresAuth)
}

func TestDecision(t *testing.T) {
	d := Decision{Outcome: OutcomeRedirect}
	assert.True(t, d.Redirected())
	assert.Equal(t, "deciding", StateDeciding.String())
	assert.Equal(t, "unknown", State(42).String())
}

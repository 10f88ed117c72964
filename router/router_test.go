package router_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinywasm/record/errs"
	"github.com/tinywasm/record/pkg/metrics"
	"github.com/tinywasm/record/router"
)

func newTable(t *testing.T, handlers ...router.Handler) *router.Table {
	t.Helper()
	table, err := router.NewTable(handlers...)
	require.NoError(t, err)
	return table
}

func defaultTable(t *testing.T) *router.Table {
	return newTable(t,
		router.Handler{Path: "index", Actions: []string{"index", "about"}},
		router.Handler{Path: "projects", Actions: []string{"index", "show", "edit"}},
		router.Handler{Path: "admin", Actions: []string{"index"}},
		router.Handler{Path: "admin/users", Actions: []string{"index", "show"}},
		router.Handler{Path: "admin/index", Actions: []string{"index", "stats"}},
	)
}

func TestRoute(t *testing.T) {
	cases := []struct {
		name string
		path string
		want router.Route
	}{
		{
			name: "handler action and params",
			path: "projects/show/project/5",
			want: router.Route{Handler: "projects", Controller: "projects", Action: "show", Params: router.Params{"project": "5"}},
		},
		{
			name: "empty path uses the root index",
			path: "",
			want: router.Route{Handler: "index", Controller: "index", Action: "index", Params: router.Params{}},
		},
		{
			name: "slashes only",
			path: "///",
			want: router.Route{Handler: "index", Controller: "index", Action: "index", Params: router.Params{}},
		},
		{
			name: "unknown action becomes a parameter key",
			path: "/projects/page/2/",
			want: router.Route{Handler: "projects", Controller: "projects", Action: "index", Params: router.Params{"page": "2"}},
		},
		{
			name: "case insensitive segments",
			path: "Projects/SHOW",
			want: router.Route{Handler: "projects", Controller: "Projects", Action: "show", Params: router.Params{}},
		},
		{
			name: "nested handler",
			path: "admin/users/show/id/3",
			want: router.Route{Handler: "admin/users", Controller: "admin/users", Action: "show", Params: router.Params{"id": "3"}},
		},
		{
			name: "index fallback inside a prefix",
			path: "admin/stats/range/week",
			want: router.Route{Handler: "admin/index", Controller: "admin/index", Action: "stats", Params: router.Params{"range": "week"}},
		},
		{
			name: "repeated keys accumulate",
			path: "projects/tag/a/tag/b/tag/c",
			want: router.Route{Handler: "projects", Controller: "projects", Action: "index", Params: router.Params{"tag": []any{"a", "b", "c"}}},
		},
		{
			name: "dangling key",
			path: "projects/show/project/5/draft",
			want: router.Route{Handler: "projects", Controller: "projects", Action: "show", Params: router.Params{"project": "5", "draft": nil}},
		},
		{
			name: "url decoding",
			path: "projects/q/hello+world%21/a%2Fb/c",
			want: router.Route{Handler: "projects", Controller: "projects", Action: "index", Params: router.Params{"q": "hello world!", "a/b": "c"}},
		},
	}

	table := defaultTable(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := router.New(table).Route(tc.path)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Route(%q) mismatch (-want +got):\n%s", tc.path, diff)
			}
		})
	}
}

func TestRouteFailures(t *testing.T) {
	t.Run("no handler and no index fallback", func(t *testing.T) {
		table := newTable(t, router.Handler{Path: "projects"})
		_, err := router.New(table).Route("unknownthing")
		assert.ErrorIs(t, err, errs.ErrNotFound)
		assert.Equal(t, errs.Code(errs.ComponentRouter, errs.KindNotFound), errs.CodeOf(err))
	})

	t.Run("root index is not used for unknown first segments", func(t *testing.T) {
		_, err := router.New(defaultTable(t)).Route("unknownthing")
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("empty path without index", func(t *testing.T) {
		table := newTable(t, router.Handler{Path: "projects"})
		_, err := router.New(table).Route("")
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("bad escape", func(t *testing.T) {
		_, err := router.New(defaultTable(t)).Route("projects/q/%zz")
		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("failed routes are not recorded", func(t *testing.T) {
		r := router.New(defaultTable(t))
		_, _ = r.Route("unknownthing")
		assert.Empty(t, r.History())
		_, err := r.HistoryAt(0)
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})
}

func TestHistory(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	r := router.New(defaultTable(t), router.WithMetrics(m))

	for _, p := range []string{"", "projects", "projects/show/project/1"} {
		_, err := r.Route(p)
		require.NoError(t, err)
	}
	_, _ = r.Route("nope")

	latest, err := r.HistoryAt(0)
	require.NoError(t, err)
	assert.Equal(t, "show", latest.Action)

	prev, err := r.HistoryAt(1)
	require.NoError(t, err)
	assert.Equal(t, "projects", prev.Handler)
	assert.Equal(t, "index", prev.Action)

	oldest, err := r.HistoryAt(10)
	require.NoError(t, err)
	assert.Equal(t, "index", oldest.Handler)

	assert.Len(t, r.History(), 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Routes.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Routes.WithLabelValues("miss")))
}

func TestURL(t *testing.T) {
	r := router.New(defaultTable(t))
	_, err := r.Route("projects/show/project/5/tab/files")
	require.NoError(t, err)

	t.Run("merged with the latest route", func(t *testing.T) {
		assert.Equal(t, "/projects/show/project/6/tab/files", r.URL(router.Params{"project": 6}, router.LinkOptions{}))
	})

	t.Run("nil drops a parameter and index is omitted", func(t *testing.T) {
		got := r.URL(router.Params{"action": "index", "tab": nil}, router.LinkOptions{BasePath: "/app/"})
		assert.Equal(t, "/app/projects/project/5", got)
	})

	t.Run("reset", func(t *testing.T) {
		got := r.URL(router.Params{"controller": "admin/users", "q": "a b", "tag": []any{"x", "y"}}, router.LinkOptions{Reset: true})
		assert.Equal(t, "/admin/users/q/a+b/tag/x/tag/y", got)
		assert.Equal(t, "/", r.URL(nil, router.LinkOptions{Reset: true}))
	})

	t.Run("round trip", func(t *testing.T) {
		link := r.URL(router.Params{"tag": []any{"x", "y"}}, router.LinkOptions{})
		got, err := r.Route(link)
		require.NoError(t, err)
		want := router.Params{"project": "5", "tab": "files", "tag": []any{"x", "y"}}
		if diff := cmp.Diff(want, got.Params); diff != "" {
			t.Errorf("params mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("back", func(t *testing.T) {
		got := r.URL(nil, router.LinkOptions{Back: 1})
		assert.True(t, strings.HasPrefix(got, "/projects/show/project/5"), got)
	})
}

func TestLoadTable(t *testing.T) {
	table, err := router.LoadTable(strings.NewReader(`
handlers:
  - {path: index, actions: [index]}
  - {path: /Projects/, actions: [Show]}
`))
	require.NoError(t, err)
	assert.True(t, table.TypeExists("projects"))
	assert.True(t, table.ActionExists("PROJECTS", "show"))
	assert.False(t, table.ActionExists("projects", "edit"))
	assert.Equal(t, []router.Handler{
		{Path: "index", Actions: []string{"index"}},
		{Path: "projects", Actions: []string{"Show"}},
	}, table.Handlers())

	_, err = router.NewTable(router.Handler{Path: "a"}, router.Handler{Path: "A"})
	assert.ErrorIs(t, err, errs.ErrConfiguration)

	_, err = router.LoadTable(strings.NewReader("routes: []\n"))
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

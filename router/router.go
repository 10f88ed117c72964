// Package router resolves request paths to a handler type, an action and
// parameters, and remembers every resolved Route of a dispatch cycle.
//
// Resolution walks the path segments: each segment that extends the matched
// prefix to another registered handler type is consumed. At the first segment
// that does not, an "index" handler under the matched prefix is used instead
// when the path was empty or something was matched already. The next segment
// is the action if the handler serves it ("index" otherwise) and the rest are
// key/value pairs.
package router

import (
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/tinywasm/record/errs"
	"github.com/tinywasm/record/pkg/metrics"
)

// Index is the handler and action name used when none is given.
const Index = "index"

// Params are decoded path parameters. A value is a string, nil for a dangling
// key, or a []any of those when the key repeats.
type Params map[string]any

// Route is a resolved path.
type Route struct {
	// Handler is the qualified handler type, e.g. "admin/users".
	Handler string
	// Controller is the consumed path prefix as written in the request.
	Controller string
	Action     string
	Params     Params
}

// Router resolves paths against a Registry. It is meant for a single dispatch
// cycle and is not safe for concurrent use.
type Router struct {
	registry Registry
	history  []Route

	log     *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*Router)

func WithLogger(l *zap.Logger) Option {
	return func(r *Router) { r.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

func New(reg Registry, opts ...Option) *Router {
	r := &Router{registry: reg, log: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Route resolves path and appends the result to the History.
func (r *Router) Route(path string) (Route, error) {
	route, err := r.resolve(path)
	if err != nil {
		r.metrics.Route("miss")
		r.log.Debug("no route", zap.String("path", path), zap.Error(err))
		return Route{}, err
	}
	r.history = append(r.history, route)
	r.metrics.Route("hit")
	r.log.Debug("routed",
		zap.String("path", path),
		zap.String("handler", route.Handler),
		zap.String("action", route.Action))
	return route, nil
}

func (r *Router) resolve(path string) (Route, error) {
	trimmed := strings.Trim(path, "/")
	var segs []string
	if trimmed != "" {
		segs = strings.Split(trimmed, "/")
	}

	var handler, controller []string
	next := 0
	gap := false
	for next < len(segs) {
		seg := segs[next]
		if seg == "" {
			gap = true
			break
		}
		candidate := join(handler, strings.ToLower(seg))
		if !r.registry.TypeExists(candidate) {
			break
		}
		handler = append(handler, strings.ToLower(seg))
		controller = append(controller, seg)
		next++
	}

	stopped := next < len(segs) || len(segs) == 0
	if stopped && !gap && (len(segs) == 0 || len(handler) > 0) && r.registry.TypeExists(join(handler, Index)) {
		handler = append(handler, Index)
		controller = append(controller, Index)
	}
	if len(handler) == 0 {
		return Route{}, errs.New(errs.ComponentRouter, errs.KindNotFound, "no handler for path %q", path)
	}

	route := Route{
		Handler:    strings.Join(handler, "/"),
		Controller: strings.Join(controller, "/"),
		Action:     Index,
		Params:     Params{},
	}
	if next < len(segs) && segs[next] != "" && r.registry.ActionExists(route.Handler, segs[next]) {
		route.Action = strings.ToLower(segs[next])
		next++
	}

	for i := next; i < len(segs); i += 2 {
		key, err := url.QueryUnescape(segs[i])
		if err != nil {
			return Route{}, errs.Wrap(errs.ComponentRouter, errs.KindValidation, err, "parameter key %q", segs[i])
		}
		if key == "" {
			continue
		}
		var val any
		if i+1 < len(segs) {
			s, err := url.QueryUnescape(segs[i+1])
			if err != nil {
				return Route{}, errs.Wrap(errs.ComponentRouter, errs.KindValidation, err, "parameter %q", key)
			}
			val = s
		}
		route.Params.add(key, val)
	}
	return route, nil
}

func (p Params) add(key string, val any) {
	prev, ok := p[key]
	if !ok {
		p[key] = val
		return
	}
	if list, ok := prev.([]any); ok {
		p[key] = append(list, val)
		return
	}
	p[key] = []any{prev, val}
}

func join(prefix []string, seg string) string {
	if len(prefix) == 0 {
		return seg
	}
	return strings.Join(prefix, "/") + "/" + seg
}

// History returns the resolved Routes, oldest first.
func (r *Router) History() []Route {
	return append([]Route(nil), r.history...)
}

// HistoryAt returns the Route n entries back from the latest one (0 = latest),
// clamped to the oldest.
func (r *Router) HistoryAt(n int) (Route, error) {
	if len(r.history) == 0 {
		return Route{}, errs.New(errs.ComponentRouter, errs.KindNotFound, "no route resolved yet")
	}
	i := len(r.history) - 1 - n
	if i < 0 {
		i = 0
	}
	if i >= len(r.history) {
		i = len(r.history) - 1
	}
	return r.history[i], nil
}

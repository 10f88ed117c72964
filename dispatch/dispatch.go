// Package dispatch runs the request cycle on top of the router: resolve the
// path, run the registered action and repeat while the action forwards.
package dispatch

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tinywasm/record/errs"
	"github.com/tinywasm/record/pkg/metrics"
	"github.com/tinywasm/record/router"
)

// RequestIDHeader carries the id of a dispatch cycle.
const RequestIDHeader = "X-Request-ID"

// MaxForwards bounds the number of forwards within one request.
const MaxForwards = 16

// ErrTooManyForwards is returned when actions keep forwarding.
var ErrTooManyForwards = errors.New("too many forwards")

// Action handles one (handler, action) pair.
type Action func(c *Context) error

// Context is what an Action sees of the current cycle.
type Context struct {
	*gin.Context

	Route     router.Route
	Router    *router.Router
	RequestID string

	forward string
}

// Forward makes the dispatcher route path and run its action once the current
// action returns.
func (c *Context) Forward(path string) {
	c.forward = path
}

// Param returns a route parameter as a string, or "" when absent or repeated.
func (c *Context) Param(key string) string {
	s, _ := c.Route.Params[key].(string)
	return s
}

// Dispatcher maps resolved routes to Actions.
type Dispatcher struct {
	table    *router.Table
	actions  map[string]Action
	basePath string

	log     *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*Dispatcher)

func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithBasePath strips prefix from request paths before routing.
func WithBasePath(prefix string) Option {
	return func(d *Dispatcher) { d.basePath = strings.TrimRight(prefix, "/") }
}

func New(table *router.Table, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		table:   table,
		actions: make(map[string]Action),
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func key(handler, action string) string {
	return strings.ToLower(handler) + "#" + strings.ToLower(action)
}

// Handle registers fn for action of the handler at path. The pair must be
// declared in the table.
func (d *Dispatcher) Handle(path, action string, fn Action) error {
	path = strings.ToLower(strings.Trim(path, "/"))
	if !d.table.TypeExists(path) {
		return errs.New(errs.ComponentDispatch, errs.KindConfiguration, "handler %q is not in the route table", path)
	}
	if !d.table.ActionExists(path, action) {
		return errs.New(errs.ComponentDispatch, errs.KindConfiguration, "action %q is not declared for %q", action, path)
	}
	d.actions[key(path, action)] = fn
	return nil
}

// Register sends every request the engine has no explicit route for through
// the dispatcher.
func (d *Dispatcher) Register(e *gin.Engine) {
	e.NoRoute(d.HandlerFunc())
}

// HandlerFunc returns the gin handler running the dispatch cycle.
func (d *Dispatcher) HandlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(RequestIDHeader, reqID)
		log := d.log.With(zap.String("request_id", reqID))

		rt := router.New(d.table, router.WithLogger(log), router.WithMetrics(d.metrics))
		// The router decodes segments itself.
		path := strings.TrimPrefix(c.Request.URL.EscapedPath(), d.basePath)

		if err := d.run(c, rt, reqID, path, log); err != nil {
			d.fail(c, log, err)
		}
		d.metrics.Dispatch(strconv.Itoa(c.Writer.Status()))
	}
}

func (d *Dispatcher) run(c *gin.Context, rt *router.Router, reqID, path string, log *zap.Logger) error {
	for hop := 0; ; hop++ {
		if hop > MaxForwards {
			return errs.Wrap(errs.ComponentDispatch, errs.KindConfiguration, ErrTooManyForwards, "after %d hops", MaxForwards)
		}
		route, err := rt.Route(path)
		if err != nil {
			return err
		}
		fn, ok := d.actions[key(route.Handler, route.Action)]
		if !ok {
			return errs.New(errs.ComponentDispatch, errs.KindNotFound, "no action %q on %q", route.Action, route.Handler)
		}

		ctx := &Context{Context: c, Route: route, Router: rt, RequestID: reqID}
		log.Debug("dispatch",
			zap.String("handler", route.Handler),
			zap.String("action", route.Action),
			zap.Int("hop", hop))
		if err := fn(ctx); err != nil {
			return err
		}
		if ctx.forward == "" {
			return nil
		}
		path = ctx.forward
	}
}

// Status maps an error kind to an HTTP status.
func Status(err error) int {
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (d *Dispatcher) fail(c *gin.Context, log *zap.Logger, err error) {
	status := Status(err)
	if status >= http.StatusInternalServerError {
		log.Error("dispatch failed", zap.Error(err))
	} else {
		log.Info("dispatch rejected", zap.Int("status", status), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{
		"code":  errs.CodeOf(err),
		"kind":  errs.KindOf(err).String(),
		"error": err.Error(),
	})
}

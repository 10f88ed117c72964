package router

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// LinkOptions tune URL.
type LinkOptions struct {
	// Back selects the History entry whose controller, action and parameters
	// are merged under the overrides (0 = latest).
	Back int
	// Reset ignores the History entirely.
	Reset bool
	// BasePath is prepended to the generated path.
	BasePath string
}

// URL builds a path from the selected History route merged with overrides.
// The "controller" and "action" keys override the route's; they are left out
// of the path when empty or "index". nil parameters are skipped and list
// parameters are written as repeated pairs.
func (r *Router) URL(overrides Params, opts LinkOptions) string {
	params := Params{}
	if !opts.Reset {
		if route, err := r.HistoryAt(opts.Back); err == nil {
			for k, v := range route.Params {
				params[k] = v
			}
			params["controller"] = route.Controller
			params["action"] = route.Action
		}
	}
	for k, v := range overrides {
		params[k] = v
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(opts.BasePath, "/"))
	for _, key := range []string{"controller", "action"} {
		v, ok := params[key]
		if !ok {
			continue
		}
		delete(params, key)
		s, _ := v.(string)
		if s != "" && s != Index {
			b.WriteString("/")
			b.WriteString(s)
		}
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := params[k].(type) {
		case nil:
		case []any:
			for _, el := range v {
				if el != nil {
					writePair(&b, k, el)
				}
			}
		default:
			writePair(&b, k, v)
		}
	}

	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

func writePair(b *strings.Builder, key string, val any) {
	b.WriteString("/")
	b.WriteString(url.QueryEscape(key))
	b.WriteString("/")
	b.WriteString(url.QueryEscape(fmt.Sprint(val)))
}

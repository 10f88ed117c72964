package router

import (
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tinywasm/record/errs"
)

// Registry answers whether handler types and their actions exist. Qualified
// handler names are slash separated paths such as "admin/users".
type Registry interface {
	TypeExists(qualified string) bool
	ActionExists(qualified, action string) bool
}

// Handler declares a handler type reachable at Path and the actions it serves.
type Handler struct {
	Path    string   `yaml:"path"`
	Actions []string `yaml:"actions"`
}

type node struct {
	children map[string]*node
	handler  *Handler
	actions  map[string]bool
}

// Table is a case-insensitive prefix trie of handler paths. It is built once
// and read-only afterwards.
type Table struct {
	root *node
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

// NewTable builds a Table from handler declarations.
func NewTable(handlers ...Handler) (*Table, error) {
	t := &Table{root: newNode()}
	for _, h := range handlers {
		if err := t.add(h); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) add(h Handler) error {
	path := canonical(h.Path)
	if path == "" {
		return errs.New(errs.ComponentRouter, errs.KindConfiguration, "handler without a path")
	}
	n := t.root
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			return errs.New(errs.ComponentRouter, errs.KindConfiguration, "handler path %q has an empty segment", h.Path)
		}
		child, ok := n.children[seg]
		if !ok {
			child = newNode()
			n.children[seg] = child
		}
		n = child
	}
	if n.handler != nil {
		return errs.New(errs.ComponentRouter, errs.KindConfiguration, "handler %q declared twice", path)
	}
	n.handler = &Handler{Path: path, Actions: h.Actions}
	n.actions = make(map[string]bool, len(h.Actions))
	for _, a := range h.Actions {
		n.actions[strings.ToLower(a)] = true
	}
	return nil
}

func (t *Table) lookup(qualified string) *node {
	n := t.root
	for _, seg := range strings.Split(canonical(qualified), "/") {
		child, ok := n.children[seg]
		if !ok {
			return nil
		}
		n = child
	}
	if n.handler == nil {
		return nil
	}
	return n
}

// TypeExists implements Registry.
func (t *Table) TypeExists(qualified string) bool {
	return t.lookup(qualified) != nil
}

// ActionExists implements Registry.
func (t *Table) ActionExists(qualified, action string) bool {
	n := t.lookup(qualified)
	return n != nil && n.actions[strings.ToLower(action)]
}

// Handlers returns the declared handlers sorted by path.
func (t *Table) Handlers() []Handler {
	var out []Handler
	var walk func(n *node)
	walk = func(n *node) {
		if n.handler != nil {
			out = append(out, *n.handler)
		}
		for _, child := range n.children {
			walk(child)
		}
	}
	walk(t.root)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// tableFile is the YAML form read by LoadTable:
//
//	handlers:
//	  - {path: index, actions: [index]}
//	  - {path: projects, actions: [index, show]}
type tableFile struct {
	Handlers []Handler `yaml:"handlers"`
}

// LoadTable reads handler declarations from YAML.
func LoadTable(r io.Reader) (*Table, error) {
	var f tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, errs.Wrap(errs.ComponentRouter, errs.KindConfiguration, err, "decode route table")
	}
	return NewTable(f.Handlers...)
}

func canonical(path string) string {
	return strings.ToLower(strings.Trim(path, "/"))
}

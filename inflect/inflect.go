// Package inflect derives table, type, property and foreign key names from
// each other. The pluralization rules form a small override table seeded with
// the "y" <-> "ies" pair; irregular and uncountable nouns are registered by the
// application.
package inflect

import (
	"regexp"
	"strings"

	tfmt "github.com/tinywasm/fmt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type rule struct {
	pattern *regexp.Regexp
	repl    string
}

// Inflector holds the pluralization tables. The zero value is not usable; call New.
type Inflector struct {
	irregular map[string]string // singular -> plural
	reverse   map[string]string // plural -> singular
	plural    []rule
	singular  []rule
}

// New returns an Inflector seeded with the default rules.
func New() *Inflector {
	in := &Inflector{
		irregular: make(map[string]string),
		reverse:   make(map[string]string),
	}
	in.plural = append(in.plural, rule{regexp.MustCompile(`y$`), "ies"})
	in.singular = append(in.singular, rule{regexp.MustCompile(`ies$`), "y"})
	return in
}

// Irregular registers the plural of an irregular noun.
func (in *Inflector) Irregular(singular, plural string) {
	in.irregular[singular] = plural
	in.reverse[plural] = singular
}

// Uncountable marks a noun whose singular and plural are the same.
func (in *Inflector) Uncountable(word string) {
	in.Irregular(word, word)
}

// Plural adds a singular -> plural rule. Later rules take precedence.
func (in *Inflector) Plural(pattern, repl string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	in.plural = append(in.plural, rule{re, repl})
	return nil
}

// Singular adds a plural -> singular rule. Later rules take precedence.
func (in *Inflector) Singular(pattern, repl string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	in.singular = append(in.singular, rule{re, repl})
	return nil
}

// Pluralize returns the plural of a singular noun.
func (in *Inflector) Pluralize(singular string) string {
	if p, ok := in.irregular[singular]; ok {
		return p
	}
	for i := len(in.plural) - 1; i >= 0; i-- {
		r := in.plural[i]
		if r.pattern.MatchString(singular) {
			return r.pattern.ReplaceAllString(singular, r.repl)
		}
	}
	return singular + "s"
}

// Singularize returns the singular of a plural noun.
func (in *Inflector) Singularize(plural string) string {
	if s, ok := in.reverse[plural]; ok {
		return s
	}
	for i := len(in.singular) - 1; i >= 0; i-- {
		r := in.singular[i]
		if r.pattern.MatchString(plural) {
			return r.pattern.ReplaceAllString(plural, r.repl)
		}
	}
	return strings.TrimSuffix(plural, "s")
}

// Underscore turns "ProjectIssue" into "project_issue".
func Underscore(s string) string {
	if s == "" {
		return ""
	}
	return tfmt.Convert(s).SnakeLow().String()
}

// Camelize turns "project_issue" into "ProjectIssue".
func Camelize(s string) string {
	title := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == ' ' }) {
		b.WriteString(title.String(part))
	}
	return b.String()
}

// LowerCamelize turns "project_issue" into "projectIssue".
func LowerCamelize(s string) string {
	c := Camelize(s)
	if c == "" {
		return c
	}
	return strings.ToLower(c[:1]) + c[1:]
}

// Tableize returns the (not yet pluralized) table stem of an entity type name.
func Tableize(typeName string) string {
	return Underscore(typeName)
}

// Classify returns the entity type name for a property or table stem.
func Classify(s string) string {
	return Camelize(s)
}

// ForeignKey returns the column another table uses to reference typeName.
func ForeignKey(typeName, pk string) string {
	return Tableize(typeName) + "_" + pk
}

// Propertyfy returns the property name used to refer to typeName, e.g. "project".
func Propertyfy(typeName string) string {
	return LowerCamelize(Tableize(typeName))
}

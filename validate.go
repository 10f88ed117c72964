package record

import (
	"github.com/tinywasm/record/errs"
	"github.com/tinywasm/record/inflect"
)

// complete fills the derived parts of s and checks it can be registered.
func (db *DB) complete(s *Schema) error {
	if s.Name == "" {
		return misconfigured(errs.ComponentSchema, "entity schema without a name")
	}
	if s.Table == "" {
		s.Table = db.inflector.Pluralize(inflect.Tableize(s.Name))
	}
	if s.Table == "" {
		return errs.Wrap(errs.ComponentSchema, errs.KindConfiguration, ErrEmptyTable, "entity %s", s.Name)
	}
	if s.PrimaryKey == "" {
		s.PrimaryKey = "id"
	}
	for name := range s.Targets {
		if !declared(s, name) {
			return misconfigured(errs.ComponentSchema, "%s.%s has a target but no relation", s.Name, name)
		}
	}
	return nil
}

func declared(s *Schema, name string) bool {
	for _, list := range [][]string{s.BelongsTo, s.HasOne, s.HasMany} {
		for _, n := range list {
			if n == name {
				return true
			}
		}
	}
	return false
}

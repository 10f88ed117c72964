package record

import (
	"github.com/tinywasm/record/errs"
	"github.com/tinywasm/record/inflect"
)

// keySuffix names foreign key columns: Project -> project_id.
const keySuffix = "id"

// Values is a column or property name -> value record.
type Values map[string]any

// Getter computes a virtual property of a Row.
type Getter func(r *Row) (any, error)

// Setter intercepts assignment of a property on a Row.
type Setter func(r *Row, value any) error

// Schema declares an entity type.
type Schema struct {
	// Name is the CamelCase entity type name, e.g. "Project".
	Name string `yaml:"name"`
	// Table defaults to the pluralized, underscored Name.
	Table string `yaml:"table"`
	// PrimaryKey defaults to "id".
	PrimaryKey string `yaml:"primary_key"`

	BelongsTo []string `yaml:"belongs_to"`
	HasOne    []string `yaml:"has_one"`
	HasMany   []string `yaml:"has_many"`

	// Targets overrides the entity type derived from a relation name.
	Targets map[string]string `yaml:"targets"`

	// Columns is only needed to generate DDL.
	Columns []Column `yaml:"columns"`

	Getters map[string]Getter `yaml:"-"`
	Setters map[string]Setter `yaml:"-"`
}

// RelationKind is the kind of a declared association.
type RelationKind int

const (
	BelongsTo RelationKind = iota + 1
	HasOne
	HasMany
)

func (k RelationKind) String() string {
	switch k {
	case BelongsTo:
		return "belongs_to"
	case HasOne:
		return "has_one"
	case HasMany:
		return "has_many"
	}
	return "none"
}

// Relation describes a declared association of an entity type.
type Relation struct {
	Kind   RelationKind
	Name   string
	Target string
	// ForeignKey is stored on the owner for BelongsTo and on the target otherwise.
	ForeignKey string
}

// entityType is a registered Schema with its derived relations.
type entityType struct {
	Schema
	relations map[string]*Relation
	props     *propertyCache
}

func (t *entityType) relation(name string) *Relation {
	return t.relations[name]
}

// backReference returns the belongsTo relation of t pointing at owner through fk.
func (t *entityType) backReference(owner, fk string) *Relation {
	for _, name := range t.BelongsTo {
		rel := t.relations[name]
		if rel.Target == owner && rel.ForeignKey == fk {
			return rel
		}
	}
	return nil
}

func buildRelations(s *Schema, in *inflect.Inflector) (map[string]*Relation, error) {
	rels := make(map[string]*Relation)
	add := func(kind RelationKind, names []string) error {
		for _, name := range names {
			if prev, ok := rels[name]; ok {
				return misconfigured(errs.ComponentSchema,
					"%s.%s is declared as both %s and %s", s.Name, name, prev.Kind, kind)
			}
			target := s.Targets[name]
			if target == "" {
				if kind == HasMany {
					target = inflect.Classify(in.Singularize(name))
				} else {
					target = inflect.Classify(name)
				}
			}
			fk := inflect.ForeignKey(s.Name, keySuffix)
			if kind == BelongsTo {
				fk = inflect.ForeignKey(target, keySuffix)
			}
			rels[name] = &Relation{Kind: kind, Name: name, Target: target, ForeignKey: fk}
		}
		return nil
	}
	if err := add(BelongsTo, s.BelongsTo); err != nil {
		return nil, err
	}
	if err := add(HasOne, s.HasOne); err != nil {
		return nil, err
	}
	if err := add(HasMany, s.HasMany); err != nil {
		return nil, err
	}
	return rels, nil
}

package record

import (
	"github.com/tinywasm/record/errs"
)

// BelongsTo returns the target of a belongsTo relation, or nil while the
// foreign key is empty.
func (r *Row) BelongsTo(name string) (*Row, error) {
	e, err := r.relationEntry(name, BelongsTo)
	if err != nil || e == nil {
		return nil, err
	}
	return e.row, nil
}

// HasOne returns the target of a hasOne relation, or nil.
func (r *Row) HasOne(name string) (*Row, error) {
	e, err := r.relationEntry(name, HasOne)
	if err != nil || e == nil {
		return nil, err
	}
	return e.row, nil
}

// HasMany returns the Collection of a hasMany relation.
func (r *Row) HasMany(name string) (*Collection, error) {
	e, err := r.relationEntry(name, HasMany)
	if err != nil || e == nil {
		return nil, err
	}
	return e.coll, nil
}

func (r *Row) relationEntry(name string, kind RelationKind) (*relatedEntry, error) {
	rel := r.typ.relation(name)
	if rel == nil {
		return nil, errs.New(errs.ComponentRelation, errs.KindNotFound, "%s has no relation %q", r.typ.Name, name)
	}
	if rel.Kind != kind {
		return nil, errs.New(errs.ComponentRelation, errs.KindConfiguration,
			"%s.%s is %s, not %s", r.typ.Name, name, rel.Kind, kind)
	}
	return r.resolve(rel)
}

// resolve returns the cached association, querying it on first use. It
// returns nil without caching while there is nothing to look up.
func (r *Row) resolve(rel *Relation) (*relatedEntry, error) {
	if e, ok := r.related[rel.Name]; ok {
		return e, nil
	}
	target, err := r.db.entity(rel.Target)
	if err != nil {
		return nil, errs.Wrap(errs.ComponentRelation, errs.KindConfiguration, err, "%s.%s", r.typ.Name, rel.Name)
	}

	var e *relatedEntry
	switch rel.Kind {
	case BelongsTo:
		fk := r.data[rel.ForeignKey]
		if fk == nil {
			return nil, nil
		}
		c := newCollection(r.db, target).Where(Eq(target.PrimaryKey, fk))
		row, err := c.First()
		if err != nil {
			return nil, err
		}
		e = &relatedEntry{row: row}
	case HasOne:
		if r.IsNew() {
			return nil, nil
		}
		c := r.dependents(rel, target)
		row, err := c.First()
		if err != nil {
			return nil, err
		}
		e = &relatedEntry{row: row, coll: c}
	case HasMany:
		if r.IsNew() {
			e = &relatedEntry{coll: newAssociation(r.db, target)}
		} else {
			e = &relatedEntry{coll: r.dependents(rel, target)}
		}
	}
	r.related[rel.Name] = e
	return e, nil
}

// dependents returns the unlimited Collection of target rows referencing r.
func (r *Row) dependents(rel *Relation, target *entityType) *Collection {
	c := newCollection(r.db, target).Where(Eq(rel.ForeignKey, r.ID()))
	c.query.NoLimit()
	return c
}

// assign replaces the association rel with value and keeps the other side
// consistent.
func (r *Row) assign(rel *Relation, value any) error {
	target, err := r.db.entity(rel.Target)
	if err != nil {
		return errs.Wrap(errs.ComponentRelation, errs.KindConfiguration, err, "%s.%s", r.typ.Name, rel.Name)
	}
	if rel.Kind == BelongsTo {
		return r.assignParent(rel, target, value)
	}

	items, err := r.relationItems(rel, target, value)
	if err != nil {
		return err
	}

	var coll *Collection
	if r.IsNew() {
		coll = newAssociation(r.db, target)
		if e, ok := r.related[rel.Name]; ok && e.coll != nil {
			coll = e.coll
		}
	} else {
		e, err := r.resolve(rel)
		if err != nil {
			return err
		}
		coll = newAssociation(r.db, target)
		if e != nil && e.coll != nil {
			coll = e.coll
		}
	}
	n, err := coll.Count()
	if err != nil {
		return err
	}
	for ; n > 0; n-- {
		if err := coll.Remove(0); err != nil {
			return err
		}
	}
	if err := coll.Append(items...); err != nil {
		return err
	}

	for _, item := range items {
		if err := r.link(rel, target, item); err != nil {
			return err
		}
	}

	e := &relatedEntry{coll: coll}
	if rel.Kind == HasOne && len(items) > 0 {
		e.row = items[0]
	}
	r.related[rel.Name] = e
	return nil
}

func (r *Row) assignParent(rel *Relation, target *entityType, value any) error {
	var parent *Row
	switch v := value.(type) {
	case nil:
		delete(r.related, rel.Name)
		r.put(rel.ForeignKey, nil)
		return nil
	case *Row:
		parent = v
	case Values:
		p, err := r.db.NewRow(target.Name, v)
		if err != nil {
			return err
		}
		parent = p
	case map[string]any:
		p, err := r.db.NewRow(target.Name, Values(v))
		if err != nil {
			return err
		}
		parent = p
	default:
		return errs.New(errs.ComponentRelation, errs.KindValidation,
			"invalid value %T for %s.%s", value, r.typ.Name, rel.Name)
	}
	if parent == nil || parent.typ != target {
		return errs.New(errs.ComponentRelation, errs.KindValidation,
			"%s.%s expects a %s", r.typ.Name, rel.Name, target.Name)
	}
	r.related[rel.Name] = &relatedEntry{row: parent}
	r.put(rel.ForeignKey, parent.ID())
	return nil
}

// link points item back at its owner r: through item's belongsTo relation to
// r's type when it declares one, else by writing the foreign key column.
func (r *Row) link(rel *Relation, target *entityType, item *Row) error {
	if back := target.backReference(r.typ.Name, rel.ForeignKey); back != nil {
		return item.Set(back.Name, r)
	}
	if r.IsNew() {
		return nil
	}
	return item.SetColumn(rel.ForeignKey, r.ID())
}

// relationItems converts an assigned value into target Rows.
func (r *Row) relationItems(rel *Relation, target *entityType, value any) ([]*Row, error) {
	invalid := func() error {
		return errs.New(errs.ComponentRelation, errs.KindValidation,
			"invalid value %T for %s %s.%s", value, rel.Kind, r.typ.Name, rel.Name)
	}

	var list []any
	switch v := value.(type) {
	case nil:
	case *Row:
		list = []any{v}
	case Values, map[string]any:
		if rel.Kind == HasMany {
			return nil, invalid()
		}
		list = []any{v}
	case *Collection:
		rows, err := v.Rows()
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			list = append(list, row)
		}
	case []*Row:
		for _, row := range v {
			list = append(list, row)
		}
	case []Values:
		for _, m := range v {
			list = append(list, m)
		}
	case []map[string]any:
		for _, m := range v {
			list = append(list, m)
		}
	case []any:
		list = v
	default:
		return nil, invalid()
	}
	if rel.Kind == HasOne && len(list) > 1 {
		return nil, errs.New(errs.ComponentRelation, errs.KindValidation,
			"%s.%s holds a single %s, got %d", r.typ.Name, rel.Name, target.Name, len(list))
	}

	items := make([]*Row, 0, len(list))
	for i, el := range list {
		var item *Row
		switch x := el.(type) {
		case *Row:
			item = x
		case Values:
			row, err := r.db.NewRow(target.Name, x)
			if err != nil {
				return nil, err
			}
			item = row
		case map[string]any:
			row, err := r.db.NewRow(target.Name, Values(x))
			if err != nil {
				return nil, err
			}
			item = row
		default:
			return nil, errs.New(errs.ComponentRelation, errs.KindValidation,
				"element %d of %s.%s is %T", i, r.typ.Name, rel.Name, el)
		}
		if item == nil || item.typ != target {
			return nil, errs.New(errs.ComponentRelation, errs.KindValidation,
				"element %d of %s.%s is not a %s", i, r.typ.Name, rel.Name, target.Name)
		}
		items = append(items, item)
	}
	return items, nil
}

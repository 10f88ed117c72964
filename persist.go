package record

import (
	"sort"

	"go.uber.org/zap"
)

// Save persists the Row and its cached associations: belongsTo targets that
// are still new are saved first so their keys can be stored, then the Row's
// own changed columns are written in a transaction, then every cached hasOne
// and hasMany association receives the Row's key and is saved.
//
// Saving a Row that is already being saved further up the cascade is a no-op.
func (r *Row) Save() error {
	if r.saving {
		return nil
	}
	r.saving = true
	defer func() { r.saving = false }()

	names := r.relatedNames()

	for _, name := range names {
		rel := r.typ.relation(name)
		e := r.related[name]
		if rel.Kind != BelongsTo || e.row == nil {
			continue
		}
		if e.row.IsNew() {
			if err := e.row.Save(); err != nil {
				return err
			}
		}
		if id := e.row.ID(); !sameValue(r.data[rel.ForeignKey], id) {
			r.touch()
			r.put(rel.ForeignKey, id)
		}
	}

	if err := r.write(); err != nil {
		return err
	}

	id := r.ID()
	for _, name := range names {
		rel := r.typ.relation(name)
		e, ok := r.related[name]
		if !ok || rel.Kind == BelongsTo || e.coll == nil {
			continue
		}
		if id != nil && e.coll.fetched {
			for i := range e.coll.entries {
				if e.coll.entries[i].row == nil {
					continue
				}
				if err := e.coll.rowAt(i).SetColumn(rel.ForeignKey, id); err != nil {
					return err
				}
			}
		}
		if err := e.coll.Save(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Row) relatedNames() []string {
	names := make([]string, 0, len(r.related))
	for name := range r.related {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// write issues the INSERT or UPDATE of the changed columns, if any, and
// clears the snapshot.
func (r *Row) write() error {
	if r.orig == nil {
		return nil
	}
	cols, vals := r.changes()
	if len(cols) == 0 {
		r.orig = nil
		return nil
	}

	insert := r.IsNew()
	var p Plan
	if insert {
		p = insertPlan(r.typ.Table, cols, vals)
	} else {
		p = updatePlan(r.typ.Table, r.typ.PrimaryKey, r.ID(), cols, vals)
	}

	err := r.db.Tx(func(ex Executor) error {
		id, _, err := r.db.run(ex, p)
		if err != nil {
			return err
		}
		if insert {
			// The generated key must be read before commit.
			r.put(r.typ.PrimaryKey, id)
		}
		return nil
	})
	if err != nil {
		if insert {
			r.drop(r.typ.PrimaryKey)
		}
		return err
	}
	r.orig = nil
	if insert {
		r.db.log.Debug("inserted", zap.String("type", r.typ.Name), zap.Any("id", r.ID()))
	}
	return nil
}

// Remove deletes a persisted Row, clears its primary key and detaches it from
// its Collection.
func (r *Row) Remove() error {
	if !r.IsNew() {
		q := newQuery(r.typ.Table, r.typ.PrimaryKey, r.db.defaultLimit).Where(Eq(r.typ.PrimaryKey, r.ID()))
		if _, err := r.db.deleteWhere(q); err != nil {
			return err
		}
		r.clearID()
	}
	if r.coll != nil {
		r.coll.detach(r)
	}
	return nil
}

// Save saves every Row of the Collection, then deletes in one statement the
// rows removed from it and not appended again.
func (c *Collection) Save() error {
	if !c.fetched && len(c.removed) == 0 {
		return nil
	}

	keep := make(map[string]bool)
	var rows []*Row
	for i, e := range c.entries {
		if e.row == nil {
			if id, ok := e.data[c.typ.PrimaryKey]; ok && id != nil {
				keep[Quote(id)] = true
			}
			continue
		}
		row := c.rowAt(i)
		if !row.IsNew() {
			keep[Quote(row.ID())] = true
		}
		rows = append(rows, row)
	}
	for _, row := range rows {
		if err := row.Save(); err != nil {
			return err
		}
	}

	seen := make(map[string]bool)
	var ids []any
	for _, id := range c.removed {
		k := Quote(id)
		if keep[k] || seen[k] {
			continue
		}
		seen[k] = true
		ids = append(ids, id)
	}
	if len(ids) > 0 {
		q := newQuery(c.typ.Table, c.typ.PrimaryKey, c.db.defaultLimit).Where(In(c.typ.PrimaryKey, ids...))
		if _, err := c.db.deleteWhere(q); err != nil {
			return err
		}
	}
	c.removed = nil
	return nil
}

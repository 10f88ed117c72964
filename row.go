package record

import (
	"sort"

	"github.com/tinywasm/record/errs"
)

// Row is a single record of an entity type, persisted (it has a primary key)
// or new. It keeps a non-owning reference to the Collection it belongs to.
type Row struct {
	db   *DB
	typ  *entityType
	coll *Collection

	data Values
	cols []string
	// orig is the dirty snapshot: nil until the first write after load or save.
	orig Values

	related map[string]*relatedEntry
	saving  bool
}

// relatedEntry is a resolved association. belongsTo and hasOne keep the row,
// hasOne and hasMany keep the Collection the association is saved through.
type relatedEntry struct {
	row  *Row
	coll *Collection
}

func newRow(db *DB, t *entityType, data Values, cols []string) *Row {
	if data == nil {
		data = Values{}
	}
	if cols == nil {
		for k := range data {
			cols = append(cols, k)
		}
		sort.Strings(cols)
	}
	return &Row{db: db, typ: t, data: data, cols: cols, related: make(map[string]*relatedEntry)}
}

// Type returns the entity type name.
func (r *Row) Type() string { return r.typ.Name }

// ID returns the primary key, or nil for a new Row.
func (r *Row) ID() any {
	return r.data[r.typ.PrimaryKey]
}

// IsNew reports whether the Row has no primary key.
func (r *Row) IsNew() bool {
	return r.ID() == nil
}

// IsDirty reports whether the Row was written to since it was loaded or saved.
func (r *Row) IsDirty() bool {
	return r.orig != nil
}

// Get resolves name: the primary key, a custom getter, a declared relation,
// then the raw column under name or its underscored form.
func (r *Row) Get(name string) (any, error) {
	if name == r.typ.PrimaryKey {
		return r.ID(), nil
	}
	info := r.typ.property(name)
	if info.getter != nil {
		return info.getter(r)
	}
	if info.relation != nil {
		e, err := r.resolve(info.relation)
		if err != nil || e == nil {
			return nil, err
		}
		if info.relation.Kind == HasMany {
			return e.coll, nil
		}
		if e.row == nil {
			return nil, nil
		}
		return e.row, nil
	}
	if v, ok := r.Column(name); ok {
		return v, nil
	}
	if v, ok := r.data[info.column]; ok {
		return v, nil
	}
	return nil, errs.New(errs.ComponentEntity, errs.KindNotFound, "%s has no property %q", r.typ.Name, name)
}

// Has reports whether Get(name) would succeed without touching storage for
// columns.
func (r *Row) Has(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

// Set assigns name through a custom setter, a declared relation or the
// underscored raw column. The primary key can never be set, under any spelling
// that resolves to it. A rejected write leaves a clean Row clean.
func (r *Row) Set(name string, value any) error {
	info := r.typ.property(name)
	col := info.column
	if _, ok := r.data[name]; ok {
		col = name
	}
	if name == r.typ.PrimaryKey || (info.setter == nil && info.relation == nil && col == r.typ.PrimaryKey) {
		return errs.Wrap(errs.ComponentEntity, errs.KindValidation, ErrPrimaryKeyImmutable, "%s.%s", r.typ.Name, name)
	}

	fresh := r.orig == nil
	r.touch()
	var err error
	switch {
	case info.setter != nil:
		err = info.setter(r, value)
	case info.relation != nil:
		err = r.assign(info.relation, value)
	default:
		r.writeColumn(col, info.backs, value)
	}
	if err != nil && fresh {
		if cols, _ := r.changes(); len(cols) == 0 {
			r.orig = nil
		}
	}
	return err
}

// SetValues sets every key of values, in key order.
func (r *Row) SetValues(values Values) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := r.Set(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

// Column returns the raw stored value of column, bypassing getters.
func (r *Row) Column(column string) (any, bool) {
	v, ok := r.data[column]
	return v, ok
}

// SetColumn writes a raw column, bypassing setters and relations. Custom
// setters use it to store their result.
func (r *Row) SetColumn(column string, value any) error {
	if column == r.typ.PrimaryKey {
		return errs.Wrap(errs.ComponentEntity, errs.KindValidation, ErrPrimaryKeyImmutable, "%s.%s", r.typ.Name, column)
	}
	r.touch()
	r.writeColumn(column, r.typ.property(column).backs, value)
	return nil
}

// Unset drops column from the Row without recording a change. Unsetting the
// primary key marks the Row as new.
func (r *Row) Unset(column string) {
	if column == r.typ.PrimaryKey {
		r.clearID()
		return
	}
	r.drop(column)
}

// Columns returns the column names in insertion order.
func (r *Row) Columns() []string {
	return append([]string(nil), r.cols...)
}

// Map returns a copy of the column values.
func (r *Row) Map() Values {
	out := make(Values, len(r.data))
	for k, v := range r.data {
		out[k] = v
	}
	return out
}

// Collection returns the Collection the Row belongs to, or nil once detached.
func (r *Row) Collection() *Collection { return r.coll }

// First returns the first Row of the owning Collection.
func (r *Row) First() (*Row, error) {
	if r.coll == nil {
		return nil, nil
	}
	return r.coll.First()
}

// touch takes the dirty snapshot if there is none yet.
func (r *Row) touch() {
	if r.orig != nil {
		return
	}
	r.orig = make(Values, len(r.data))
	for k, v := range r.data {
		r.orig[k] = v
	}
}

// writeColumn stores value and invalidates the cached belongsTo target backed
// by column when it no longer matches.
func (r *Row) writeColumn(column string, backs *Relation, value any) {
	if backs != nil {
		if e, ok := r.related[backs.Name]; ok && (e.row == nil || !sameValue(e.row.ID(), value)) {
			delete(r.related, backs.Name)
		}
	}
	r.put(column, value)
}

func (r *Row) put(column string, value any) {
	if _, ok := r.data[column]; !ok {
		r.cols = append(r.cols, column)
	}
	r.data[column] = value
}

func (r *Row) drop(column string) {
	if _, ok := r.data[column]; !ok {
		return
	}
	delete(r.data, column)
	for i, c := range r.cols {
		if c == column {
			r.cols = append(r.cols[:i], r.cols[i+1:]...)
			break
		}
	}
}

// clearID removes the primary key and the associations that depended on it.
func (r *Row) clearID() {
	r.drop(r.typ.PrimaryKey)
	for name := range r.related {
		if rel := r.typ.relation(name); rel != nil && rel.Kind != BelongsTo {
			delete(r.related, name)
		}
	}
}

// changes returns the columns whose value differs from the snapshot, in
// column order, excluding the primary key.
func (r *Row) changes() ([]string, []any) {
	var cols []string
	var vals []any
	for _, c := range r.cols {
		if c == r.typ.PrimaryKey {
			continue
		}
		v := r.data[c]
		if old, ok := r.orig[c]; ok && sameValue(old, v) {
			continue
		}
		cols = append(cols, c)
		vals = append(vals, v)
	}
	return cols, vals
}

package record

import (
	"go.uber.org/zap"

	"github.com/tinywasm/record/errs"
)

// entry is a fetched record, materialized into a Row on first access.
type entry struct {
	row  *Row
	data Values
	cols []string
}

// Collection is the ordered set of Rows matching a Query, fetched at most
// once per query state.
type Collection struct {
	db  *DB
	typ *entityType

	query   *Query
	fetched bool
	entries []*entry

	// removed is the ledger of primary keys dropped from the set since the last save.
	removed []any
}

func newCollection(db *DB, t *entityType) *Collection {
	return &Collection{
		db:    db,
		typ:   t,
		query: newQuery(t.Table, t.PrimaryKey, db.defaultLimit),
	}
}

// newAssociation returns an empty Collection that never queries storage.
func newAssociation(db *DB, t *entityType) *Collection {
	c := newCollection(db, t)
	c.fetched = true
	return c
}

// Type returns the entity type name.
func (c *Collection) Type() string { return c.typ.Name }

// Where adds a predicate and drops fetched data. See Query.Where.
func (c *Collection) Where(pred any, args ...any) *Collection {
	c.query.Where(pred, args...)
	c.invalidate()
	return c
}

// Order adds an ORDER BY clause and drops fetched data.
func (c *Collection) Order(clause string) *Collection {
	c.query.Order(clause)
	c.invalidate()
	return c
}

// Limit sets the page and drops fetched data.
func (c *Collection) Limit(limit, offset int) *Collection {
	c.query.Limit(limit, offset)
	c.invalidate()
	return c
}

// Reset clears the query and drops fetched data.
func (c *Collection) Reset() *Collection {
	c.query.Reset()
	c.invalidate()
	return c
}

func (c *Collection) invalidate() {
	c.fetched = false
	c.entries = nil
}

// Query returns a copy of the current query.
func (c *Collection) Query() *Query { return c.query.Clone() }

// SQL returns the SELECT statement the Collection fetches with.
func (c *Collection) SQL() (string, error) {
	return c.query.Assemble(false)
}

// Removed returns the primary keys removed since the last save.
func (c *Collection) Removed() []any {
	return append([]any(nil), c.removed...)
}

func (c *Collection) fetch() error {
	if c.fetched {
		return nil
	}
	p, err := selectPlan(c.query)
	if err != nil {
		return err
	}
	c.db.log.Debug("query", zap.String("table", p.Table), zap.String("sql", p.SQL))
	c.db.metrics.Statement(p.Action.String(), p.Table)

	rows, err := c.db.exec.Query(p.SQL)
	if err != nil {
		return c.db.storageErr(p, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return c.db.storageErr(p, err)
	}
	var entries []*entry
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return c.db.storageErr(p, err)
		}
		data := make(Values, len(cols))
		for i, col := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			data[col] = v
		}
		entries = append(entries, &entry{data: data, cols: append([]string(nil), cols...)})
	}
	if err := rows.Err(); err != nil {
		return c.db.storageErr(p, err)
	}

	c.entries = entries
	c.fetched = true
	return nil
}

func (c *Collection) rowAt(i int) *Row {
	e := c.entries[i]
	if e.row == nil {
		e.row = newRow(c.db, c.typ, e.data, e.cols)
		e.row.coll = c
		e.data, e.cols = nil, nil
	}
	return e.row
}

// Count returns the number of Rows.
func (c *Collection) Count() (int, error) {
	if err := c.fetch(); err != nil {
		return 0, err
	}
	return len(c.entries), nil
}

// Contains reports whether i is a valid index.
func (c *Collection) Contains(i int) (bool, error) {
	if err := c.fetch(); err != nil {
		return false, err
	}
	return i >= 0 && i < len(c.entries), nil
}

// At returns the Row at index i.
func (c *Collection) At(i int) (*Row, error) {
	ok, err := c.Contains(i)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.New(errs.ComponentEntity, errs.KindNotFound, "no %s at index %d", c.typ.Name, i)
	}
	return c.rowAt(i), nil
}

// First returns the first Row, or nil when the Collection is empty.
func (c *Collection) First() (*Row, error) {
	if err := c.fetch(); err != nil {
		return nil, err
	}
	if len(c.entries) == 0 {
		return nil, nil
	}
	return c.rowAt(0), nil
}

// Rows returns every Row.
func (c *Collection) Rows() ([]*Row, error) {
	if err := c.fetch(); err != nil {
		return nil, err
	}
	out := make([]*Row, len(c.entries))
	for i := range c.entries {
		out[i] = c.rowAt(i)
	}
	return out, nil
}

// Each calls fn for every Row until fn fails.
func (c *Collection) Each(fn func(i int, r *Row) error) error {
	rows, err := c.Rows()
	if err != nil {
		return err
	}
	for i, r := range rows {
		if err := fn(i, r); err != nil {
			return err
		}
	}
	return nil
}

// Remove drops the Row at index i from the set. A persisted Row is recorded in
// the ledger and deleted on the next Save unless it is appended again.
func (c *Collection) Remove(i int) error {
	r, err := c.At(i)
	if err != nil {
		return err
	}
	if !r.IsNew() {
		c.removed = append(c.removed, r.ID())
	}
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	r.coll = nil
	return nil
}

// Append adds Rows of the Collection's entity type to the set.
func (c *Collection) Append(rows ...*Row) error {
	if err := c.fetch(); err != nil {
		return err
	}
	for _, r := range rows {
		if r == nil {
			return errs.New(errs.ComponentEntity, errs.KindValidation, "cannot append a nil %s", c.typ.Name)
		}
		if r.typ != c.typ {
			return errs.New(errs.ComponentEntity, errs.KindValidation,
				"cannot append %s to a collection of %s", r.typ.Name, c.typ.Name)
		}
	}
	for _, r := range rows {
		if r.coll != nil && r.coll != c {
			r.coll.detach(r)
		}
		c.appendRow(r)
	}
	return nil
}

func (c *Collection) appendRow(r *Row) {
	c.entries = append(c.entries, &entry{row: r})
	r.coll = c
}

// detach drops r from the set without recording it in the ledger.
func (c *Collection) detach(r *Row) {
	for i, e := range c.entries {
		if e.row == r {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			break
		}
	}
	if r.coll == c {
		r.coll = nil
	}
}

// Get returns the value of name for every Row, by position.
func (c *Collection) Get(name string) ([]any, error) {
	rows, err := c.Rows()
	if err != nil {
		return nil, err
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		if out[i], err = r.Get(name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Set assigns name on every Row.
func (c *Collection) Set(name string, value any) error {
	return c.Each(func(_ int, r *Row) error {
		return r.Set(name, value)
	})
}

// RemoveAll removes every Row, clears their primary keys and saves, deleting
// them in one statement.
func (c *Collection) RemoveAll() error {
	rows, err := c.Rows()
	if err != nil {
		return err
	}
	for _, r := range rows {
		if !r.IsNew() {
			c.removed = append(c.removed, r.ID())
			r.clearID()
		}
		r.coll = nil
	}
	c.entries = nil
	return c.Save()
}

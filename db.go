package record

import (
	"database/sql"
	"sort"

	"go.uber.org/zap"

	"github.com/tinywasm/record/errs"
	"github.com/tinywasm/record/inflect"
	"github.com/tinywasm/record/pkg/metrics"
)

// DB holds the storage handle and the entity type registry.
// Consumers instantiate it via New().
type DB struct {
	exec      Executor
	types     map[string]*entityType
	inflector *inflect.Inflector

	log          *zap.Logger
	metrics      *metrics.Metrics
	defaultLimit int
	cacheSize    int

	inTx bool
}

// Option configures a DB.
type Option func(*DB)

func WithLogger(l *zap.Logger) Option {
	return func(db *DB) { db.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(db *DB) { db.metrics = m }
}

// WithDefaultLimit sets the page size of new Collections.
func WithDefaultLimit(n int) Option {
	return func(db *DB) { db.defaultLimit = n }
}

// WithInflector replaces the default pluralization table.
func WithInflector(in *inflect.Inflector) Option {
	return func(db *DB) { db.inflector = in }
}

// WithPropertyCacheSize bounds the per-type property info cache.
func WithPropertyCacheSize(n int) Option {
	return func(db *DB) { db.cacheSize = n }
}

// New creates a new DB instance.
func New(exec Executor, opts ...Option) *DB {
	db := &DB{
		exec:         exec,
		types:        make(map[string]*entityType),
		inflector:    inflect.New(),
		log:          zap.NewNop(),
		defaultLimit: DefaultLimit,
		cacheSize:    128,
	}
	for _, o := range opts {
		o(db)
	}
	return db
}

// Register declares entity types. Table names and primary keys are derived when
// left empty.
func (db *DB) Register(schemas ...Schema) error {
	for i := range schemas {
		s := schemas[i]
		if err := db.complete(&s); err != nil {
			return err
		}
		rels, err := buildRelations(&s, db.inflector)
		if err != nil {
			return err
		}
		props, err := newPropertyCache(db.cacheSize)
		if err != nil {
			return errs.Wrap(errs.ComponentSchema, errs.KindConfiguration, err, "property cache for %s", s.Name)
		}
		db.types[s.Name] = &entityType{Schema: s, relations: rels, props: props}
		db.log.Debug("registered entity", zap.String("type", s.Name), zap.String("table", s.Table))
	}
	return nil
}

// Types returns the registered entity type names, sorted.
func (db *DB) Types() []string {
	names := make([]string, 0, len(db.types))
	for n := range db.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Schema returns the completed schema of a registered type.
func (db *DB) Schema(typeName string) (Schema, error) {
	t, err := db.entity(typeName)
	if err != nil {
		return Schema{}, err
	}
	return t.Schema, nil
}

// Relations returns the declared relations of a registered type, by name.
func (db *DB) Relations(typeName string) (map[string]Relation, error) {
	t, err := db.entity(typeName)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Relation, len(t.relations))
	for name, rel := range t.relations {
		out[name] = *rel
	}
	return out, nil
}

func (db *DB) entity(typeName string) (*entityType, error) {
	t, ok := db.types[typeName]
	if !ok {
		return nil, errs.Wrap(errs.ComponentSchema, errs.KindConfiguration, ErrUnknownType, "entity type %q", typeName)
	}
	return t, nil
}

// Select returns a lazily fetched Collection of typeName. where is passed to
// Collection.Where when given.
func (db *DB) Select(typeName string, where ...any) (*Collection, error) {
	t, err := db.entity(typeName)
	if err != nil {
		return nil, err
	}
	c := newCollection(db, t)
	if len(where) > 0 {
		c.Where(where[0], where[1:]...)
		if err := c.query.Err(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Find returns the Row of typeName with primary key id.
func (db *DB) Find(typeName string, id any) (*Row, error) {
	c, err := db.Select(typeName, id)
	if err != nil {
		return nil, err
	}
	r, err := c.First()
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errs.New(errs.ComponentEntity, errs.KindNotFound, "%s %v not found", typeName, id)
	}
	return r, nil
}

// NewRow builds an unsaved Row of typeName from literal values, wrapped in its
// own one-row Collection.
func (db *DB) NewRow(typeName string, values Values) (*Row, error) {
	t, err := db.entity(typeName)
	if err != nil {
		return nil, err
	}
	c := newCollection(db, t)
	c.fetched = true
	r := newRow(db, t, nil, nil)
	c.appendRow(r)
	r.touch()
	if err := r.SetValues(values); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes every row of typeName matching where, ignoring any limit, in
// one transaction. It returns the number of affected rows.
func (db *DB) Delete(typeName string, where any, args ...any) (int64, error) {
	t, err := db.entity(typeName)
	if err != nil {
		return 0, err
	}
	if where == nil {
		return 0, errs.New(errs.ComponentPersistence, errs.KindValidation, "bulk delete of %s needs a predicate", typeName)
	}
	q := NewQuery(t.Table, t.PrimaryKey).Where(where, args...)
	return db.deleteWhere(q)
}

func (db *DB) deleteWhere(q *Query) (int64, error) {
	p, err := deletePlan(q)
	if err != nil {
		return 0, err
	}
	var affected int64
	err = db.Tx(func(ex Executor) error {
		_, n, err := db.run(ex, p)
		affected = n
		return err
	})
	return affected, err
}

// Exec runs a raw statement outside the entity layer, e.g. DDL.
func (db *DB) Exec(query string) (sql.Result, error) {
	db.log.Debug("exec raw", zap.String("sql", query))
	res, err := db.exec.Exec(query)
	if err != nil {
		return nil, errs.Storage(errs.ComponentPersistence, err, "raw statement")
	}
	return res, nil
}

// Inflector returns the pluralization table in use.
func (db *DB) Inflector() *inflect.Inflector {
	return db.inflector
}

// RawExecutor returns the underlying executor instance.
func (db *DB) RawExecutor() Executor {
	return db.exec
}

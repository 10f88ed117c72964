package record

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/tinywasm/record/errs"
)

// DefaultLimit is the page size of a Query that was never limited explicitly.
const DefaultLimit = 50

// Query holds the filter, order and limit state of one entity query.
// Construction errors are deferred to Err and Assemble so calls can be chained.
type Query struct {
	table string
	pk    string

	where  []string
	order  []string
	offset int
	limit  int
	// pageSize is the limit restored by Reset.
	pageSize int
	// unlimited drops the LIMIT clause, as bulk deletes require.
	unlimited bool

	err error
}

// NewQuery returns a Query over table with the default limit.
func NewQuery(table, pk string) *Query {
	return newQuery(table, pk, DefaultLimit)
}

func newQuery(table, pk string, pageSize int) *Query {
	return &Query{table: table, pk: pk, limit: pageSize, pageSize: pageSize}
}

func (q *Query) Table() string { return q.table }

// Where adds a predicate, AND-ed with the previous ones.
//
// An integer or numeric string means "primary key equals"; a slice of them means
// "primary key in". A string predicate has its ? placeholders filled with args.
func (q *Query) Where(pred any, args ...any) *Query {
	p, err := q.predicate(pred, args)
	if err != nil {
		if q.err == nil {
			q.err = err
		}
		return q
	}
	q.where = append(q.where, p)
	return q
}

func (q *Query) predicate(pred any, args []any) (string, error) {
	switch p := pred.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Eq(q.pk, p), nil
	case string:
		if p == "" {
			return "", errs.New(errs.ComponentQuery, errs.KindValidation, "empty predicate")
		}
		if isNumeric(p) && len(args) == 0 {
			n, _ := strconv.ParseInt(p, 10, 64)
			return Eq(q.pk, n), nil
		}
		if len(args) == 0 {
			return p, nil
		}
		return QuoteInto(p, args...)
	case nil:
		return "", errs.New(errs.ComponentQuery, errs.KindValidation, "nil predicate")
	}

	rv := reflect.ValueOf(pred)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return "", errs.New(errs.ComponentQuery, errs.KindValidation, "unsupported predicate %T", pred)
	}
	ids := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		id, ok := asID(rv.Index(i).Interface())
		if !ok {
			return "", errs.New(errs.ComponentQuery, errs.KindValidation,
				"id list element %d (%v) is not numeric", i, rv.Index(i).Interface())
		}
		ids = append(ids, id)
	}
	return In(q.pk, ids...), nil
}

// Order appends an ORDER BY clause such as "name DESC".
func (q *Query) Order(clause string) *Query {
	if clause != "" {
		q.order = append(q.order, clause)
	}
	return q
}

// Limit sets the page size and offset.
func (q *Query) Limit(limit, offset int) *Query {
	q.limit = limit
	q.offset = offset
	q.unlimited = false
	return q
}

// NoLimit removes the LIMIT clause.
func (q *Query) NoLimit() *Query {
	q.unlimited = true
	return q
}

// Reset clears predicates, order and limit.
func (q *Query) Reset() *Query {
	q.where = nil
	q.order = nil
	q.offset = 0
	q.limit = q.pageSize
	q.unlimited = false
	q.err = nil
	return q
}

// Clone returns an independent copy.
func (q *Query) Clone() *Query {
	c := *q
	c.where = append([]string(nil), q.where...)
	c.order = append([]string(nil), q.order...)
	return &c
}

// Err returns the first construction error.
func (q *Query) Err() error { return q.err }

// Assemble renders the query. With omitSelect only the "`table` WHERE ..."
// fragment is produced, for use after DELETE FROM.
func (q *Query) Assemble(omitSelect bool) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	table := QuoteIdent(q.table)

	var b strings.Builder
	if !omitSelect {
		b.WriteString("SELECT ")
		b.WriteString(table)
		b.WriteString(".* FROM ")
	}
	b.WriteString(table)
	b.WriteString(" WHERE ")
	if len(q.where) == 0 {
		b.WriteString("1")
	} else {
		b.WriteString(strings.Join(q.where, " AND "))
	}
	if len(q.order) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(q.order, ", "))
	}
	if !q.unlimited {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.offset))
		b.WriteString(", ")
		b.WriteString(strconv.Itoa(q.limit))
	}
	return b.String(), nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// asID normalizes a primary key value given as an integer or numeric string.
func asID(v any) (any, bool) {
	switch x := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return x, true
	case string:
		if n, err := strconv.ParseInt(x, 10, 64); err == nil {
			return n, true
		}
	}
	return nil, false
}

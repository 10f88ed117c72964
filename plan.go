package record

import "strings"

// Action represents the type of database operation.
type Action int

const (
	ActionSelect Action = iota
	ActionInsert
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionSelect:
		return "select"
	case ActionInsert:
		return "insert"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	}
	return "unknown"
}

// Plan is a single statement ready for the Executor.
type Plan struct {
	Action Action
	Table  string
	SQL    string
}

// insertPlan renders INSERT INTO `t` (`a`,`b`) VALUES (1,'x').
func insertPlan(table string, cols []string, vals []any) Plan {
	names := make([]string, len(cols))
	lits := make([]string, len(vals))
	for i := range cols {
		names[i] = QuoteIdent(cols[i])
		lits[i] = Quote(vals[i])
	}
	return Plan{
		Action: ActionInsert,
		Table:  table,
		SQL: "INSERT INTO " + QuoteIdent(table) +
			" (" + strings.Join(names, ",") + ") VALUES (" + strings.Join(lits, ",") + ")",
	}
}

// updatePlan renders UPDATE `t` SET `a`=1, `b`='x' WHERE `pk`=id.
func updatePlan(table, pk string, id any, cols []string, vals []any) Plan {
	sets := make([]string, len(cols))
	for i := range cols {
		sets[i] = QuoteIdent(cols[i]) + "=" + Quote(vals[i])
	}
	return Plan{
		Action: ActionUpdate,
		Table:  table,
		SQL: "UPDATE " + QuoteIdent(table) + " SET " + strings.Join(sets, ", ") +
			" WHERE " + Eq(pk, id),
	}
}

// deletePlan renders DELETE FROM for q, ignoring its limit.
func deletePlan(q *Query) (Plan, error) {
	frag, err := q.Clone().NoLimit().Assemble(true)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Action: ActionDelete, Table: q.Table(), SQL: "DELETE FROM " + frag}, nil
}

func selectPlan(q *Query) (Plan, error) {
	s, err := q.Assemble(false)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Action: ActionSelect, Table: q.Table(), SQL: s}, nil
}

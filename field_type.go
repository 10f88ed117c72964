package record

import (
	"fmt"
	"strings"

	"github.com/tinywasm/record/errs"
)

// FieldType represents the abstract storage type of a column.
type FieldType string

const (
	TypeText    FieldType = "text"
	TypeInt64   FieldType = "integer"
	TypeFloat64 FieldType = "real"
	TypeBool    FieldType = "bool"
	TypeBlob    FieldType = "blob"
	TypeTime    FieldType = "datetime"
)

// Column describes a table column for DDL generation. The primary key and
// belongsTo foreign keys are implied by the Schema and need not be listed.
type Column struct {
	Name    string    `yaml:"name"`
	Type    FieldType `yaml:"type"`
	NotNull bool      `yaml:"not_null"`
	Unique  bool      `yaml:"unique"`
}

func (t FieldType) sqlType() (string, error) {
	switch t {
	case TypeText, "":
		return "TEXT", nil
	case TypeInt64, TypeBool:
		return "INTEGER", nil
	case TypeFloat64:
		return "REAL", nil
	case TypeBlob:
		return "BLOB", nil
	case TypeTime:
		return "DATETIME", nil
	}
	return "", fmt.Errorf("unsupported column type %q", string(t))
}

// CreateTable renders a CREATE TABLE statement for a registered entity type:
// an auto-increment primary key, every belongsTo foreign key and the declared
// columns.
func (db *DB) CreateTable(typeName string) (string, error) {
	t, err := db.entity(typeName)
	if err != nil {
		return "", err
	}

	defs := []string{QuoteIdent(t.PrimaryKey) + " INTEGER PRIMARY KEY AUTOINCREMENT"}
	seen := map[string]bool{t.PrimaryKey: true}
	for _, name := range t.BelongsTo {
		rel := t.relations[name]
		if seen[rel.ForeignKey] {
			continue
		}
		seen[rel.ForeignKey] = true
		def := QuoteIdent(rel.ForeignKey) + " INTEGER"
		if target, ok := db.types[rel.Target]; ok {
			def += " REFERENCES " + QuoteIdent(target.Table) + "(" + QuoteIdent(target.PrimaryKey) + ")"
		}
		defs = append(defs, def)
	}
	for _, c := range t.Columns {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		typ, err := c.Type.sqlType()
		if err != nil {
			return "", errs.Wrap(errs.ComponentSchema, errs.KindConfiguration, err, "%s.%s", t.Name, c.Name)
		}
		def := QuoteIdent(c.Name) + " " + typ
		if c.NotNull {
			def += " NOT NULL"
		}
		if c.Unique {
			def += " UNIQUE"
		}
		defs = append(defs, def)
	}
	return "CREATE TABLE IF NOT EXISTS " + QuoteIdent(t.Table) + " (" + strings.Join(defs, ", ") + ")", nil
}

package record

import (
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/tinywasm/record/inflect"
)

// propertyInfo is what a property name resolves to on an entity type.
type propertyInfo struct {
	getter   Getter
	setter   Setter
	relation *Relation
	// column is the underscore-normalized storage column.
	column string
	// backs is the belongsTo relation stored in column, when column is a foreign key.
	backs *Relation
}

type propertyCache struct {
	arc *lru.ARCCache
}

func newPropertyCache(size int) (*propertyCache, error) {
	arc, err := lru.NewARC(size)
	if err != nil {
		return nil, err
	}
	return &propertyCache{arc: arc}, nil
}

// property returns the cached resolution of name, computing it on a miss.
func (t *entityType) property(name string) *propertyInfo {
	if v, ok := t.props.arc.Get(name); ok {
		return v.(*propertyInfo)
	}
	info := t.resolveProperty(name)
	t.props.arc.Add(name, info)
	return info
}

func (t *entityType) resolveProperty(name string) *propertyInfo {
	column := inflect.Underscore(name)
	info := &propertyInfo{column: column}

	info.getter = t.Getters[name]
	if info.getter == nil {
		info.getter = t.Getters[column]
	}
	info.setter = t.Setters[name]
	if info.setter == nil {
		info.setter = t.Setters[column]
	}
	info.relation = t.relations[name]

	if strings.HasSuffix(column, "_"+keySuffix) {
		for _, relName := range t.BelongsTo {
			if rel := t.relations[relName]; rel.ForeignKey == column {
				info.backs = rel
				break
			}
		}
	}
	return info
}

package record

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/tinywasm/record/errs"
)

// ResolveRelations checks every declared relation of the registered types: its
// target must be registered. hasOne/hasMany relations whose target declares no
// belongsTo back to the owner are reported at info level, since their foreign
// key is then written directly. Unknown targets are logged and returned as a
// single ConfigurationError.
func (db *DB) ResolveRelations() error {
	var missing []string
	for _, ownerName := range db.Types() {
		owner := db.types[ownerName]

		relNames := make([]string, 0, len(owner.relations))
		for name := range owner.relations {
			relNames = append(relNames, name)
		}
		sort.Strings(relNames)

		for _, name := range relNames {
			rel := owner.relations[name]
			target, ok := db.types[rel.Target]
			if !ok {
				db.log.Warn("relation points to unknown entity type",
					zap.String("type", ownerName),
					zap.String("relation", name),
					zap.String("target", rel.Target))
				missing = append(missing, ownerName+"."+name+" -> "+rel.Target)
				continue
			}
			if rel.Kind == BelongsTo {
				continue
			}
			if target.backReference(ownerName, rel.ForeignKey) == nil {
				db.log.Info("no back reference; foreign key is written directly",
					zap.String("type", ownerName),
					zap.String("relation", name),
					zap.String("target", rel.Target),
					zap.String("foreign_key", rel.ForeignKey))
			}
		}
	}
	if len(missing) > 0 {
		return errs.New(errs.ComponentSchema, errs.KindConfiguration,
			"unknown relation targets: %s", strings.Join(missing, ", "))
	}
	return nil
}

package detector

import (
	"sort"

	"github.com/toolbridge-io/toolbridge/internal/domain/drift"
	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
)

// ReferenceChecker answers whether any tool references a field path within an
// action. The detector needs it to classify removals: losing a referenced
// field breaks callers, losing an unreferenced one only loses capability.
type ReferenceChecker interface {
	References(action, path string) bool
}

// SchemaDriftDetector compares a freshly fetched upstream schema against the
// stored snapshot and emits one drift record per structurally differing
// field. It is pure with respect to persistence: the caller assigns ids and
// stores the records.
type SchemaDriftDetector struct{}

// NewSchemaDriftDetector creates a new detector
func NewSchemaDriftDetector() *SchemaDriftDetector {
	return &SchemaDriftDetector{}
}

// Detect returns the ordered field-level differences between snapshot and
// current, each classified by severity. Each change is reported
// independently; grouping into proposals happens downstream.
func (d *SchemaDriftDetector) Detect(snapshot, current *integration.Schema, refs ReferenceChecker) []drift.Record {
	changes := diffSchemas(snapshot, current)

	records := make([]drift.Record, 0, len(changes))
	for _, c := range changes {
		records = append(records, drift.Record{
			Severity:   classify(c, refs),
			ChangeKind: c.Kind,
			Action:     c.Action,
			FieldPath:  c.Path,
			Change:     c,
			Detail:     c.String(),
		})
	}
	return records
}

// diffSchemas walks both schemas and collects field-level changes in a
// stable order (actions, then paths, lexicographically).
func diffSchemas(snapshot, current *integration.Schema) []integration.FieldChange {
	var changes []integration.FieldChange

	actions := make(map[string]bool)
	for name := range snapshot.Actions {
		actions[name] = true
	}
	for name := range current.Actions {
		actions[name] = true
	}

	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		old, hadOld := snapshot.Actions[name]
		cur, hasCur := current.Actions[name]
		switch {
		case hadOld && hasCur:
			changes = append(changes, diffFields(name, "", old.Fields, cur.Fields)...)
		case hadOld:
			// Whole action gone: report every field as removed
			changes = append(changes, collectFields(name, "", old.Fields, integration.ChangeRemoved)...)
		default:
			changes = append(changes, collectFields(name, "", cur.Fields, integration.ChangeAdded)...)
		}
	}

	return changes
}

func diffFields(action, prefix string, old, cur map[string]integration.Field) []integration.FieldChange {
	var changes []integration.FieldChange

	for _, name := range sortedKeys(old, cur) {
		path := joinPath(prefix, name)
		oldF, hadOld := old[name]
		curF, hasCur := cur[name]

		switch {
		case hadOld && !hasCur:
			changes = append(changes, integration.FieldChange{
				Action:      action,
				Path:        path,
				Kind:        integration.ChangeRemoved,
				OldType:     oldF.Type,
				OldRequired: oldF.Required,
			})
		case !hadOld && hasCur:
			changes = append(changes, integration.FieldChange{
				Action:      action,
				Path:        path,
				Kind:        integration.ChangeAdded,
				NewType:     curF.Type,
				NewRequired: curF.Required,
			})
		default:
			if oldF.Type != curF.Type {
				changes = append(changes, integration.FieldChange{
					Action:      action,
					Path:        path,
					Kind:        integration.ChangeTypeChanged,
					OldType:     oldF.Type,
					NewType:     curF.Type,
					OldRequired: oldF.Required,
					NewRequired: curF.Required,
				})
				// A type change supersedes the subtree; do not also report
				// its children.
				continue
			}
			if oldF.Required != curF.Required {
				changes = append(changes, integration.FieldChange{
					Action:      action,
					Path:        path,
					Kind:        integration.ChangeRequiredChanged,
					OldType:     oldF.Type,
					NewType:     curF.Type,
					OldRequired: oldF.Required,
					NewRequired: curF.Required,
				})
			}
			if oldF.Type == integration.TypeObject {
				changes = append(changes, diffFields(action, path, oldF.Fields, curF.Fields)...)
			}
		}
	}

	return changes
}

// collectFields flattens a field tree into changes, used when a whole action
// appears or disappears. A removed object is reported at its subtree root
// only, like diffFields; removing the root removes the children with it.
// Added children each get their own entry so the diff can rebuild the tree.
func collectFields(action, prefix string, fields map[string]integration.Field, kind integration.ChangeKind) []integration.FieldChange {
	var changes []integration.FieldChange

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f := fields[name]
		path := joinPath(prefix, name)
		c := integration.FieldChange{Action: action, Path: path, Kind: kind}
		if kind == integration.ChangeRemoved {
			c.OldType = f.Type
			c.OldRequired = f.Required
		} else {
			c.NewType = f.Type
			c.NewRequired = f.Required
		}
		changes = append(changes, c)
		if f.Type == integration.TypeObject && kind == integration.ChangeAdded {
			changes = append(changes, collectFields(action, path, f.Fields, kind)...)
		}
	}

	return changes
}

// classify applies the severity rule table; when several rules match the
// most severe wins.
func classify(c integration.FieldChange, refs ReferenceChecker) drift.Severity {
	switch c.Kind {
	case integration.ChangeRemoved:
		// A removal that existing tools reference breaks their callers; an
		// unreferenced removal is a lost capability.
		if refs != nil && refs.References(c.Action, c.Path) {
			return drift.SeverityBreaking
		}
		return drift.SeverityWarning

	case integration.ChangeTypeChanged:
		if typesCompatible(c.OldType, c.NewType) {
			return drift.SeverityWarning
		}
		return drift.SeverityBreaking

	case integration.ChangeRequiredChanged:
		if !c.OldRequired && c.NewRequired {
			return drift.SeverityWarning
		}
		return drift.SeverityInfo

	case integration.ChangeAdded:
		// A new required field rejects existing call payloads
		if c.NewRequired {
			return drift.SeverityWarning
		}
		return drift.SeverityInfo
	}

	return drift.SeverityInfo
}

// typesCompatible reports whether a value of the old type is still accepted
// as the new type. Only numeric widening qualifies.
func typesCompatible(oldType, newType string) bool {
	return oldType == integration.TypeInteger && newType == integration.TypeNumber
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func sortedKeys(maps ...map[string]integration.Field) []string {
	seen := make(map[string]bool)
	for _, m := range maps {
		for k := range m {
			seen[k] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package integration

import (
	"fmt"
	"strings"
	"time"
)

// Schema is the versioned structural description of an integration's actions
// and their fields. It is replaced wholesale when an approved maintenance
// proposal is applied.
type Schema struct {
	IntegrationID string                  `json:"integration_id"`
	Version       int                     `json:"version"`
	Actions       map[string]ActionSchema `json:"actions"`
	CapturedAt    time.Time               `json:"captured_at"`
}

// ActionSchema describes one callable action of an integration
type ActionSchema struct {
	Description string           `json:"description,omitempty"`
	Fields      map[string]Field `json:"fields"`
}

// Field describes a single schema field. Object fields nest children under
// Fields.
type Field struct {
	Type     string           `json:"type"`
	Required bool             `json:"required,omitempty"`
	Fields   map[string]Field `json:"fields,omitempty"`
}

// Field types
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
)

// ChangeKind classifies a field-level schema change
type ChangeKind string

const (
	ChangeAdded           ChangeKind = "added"
	ChangeRemoved         ChangeKind = "removed"
	ChangeTypeChanged     ChangeKind = "type_changed"
	ChangeRequiredChanged ChangeKind = "required_changed"
)

// FieldChange is one field-level difference between two schema versions
type FieldChange struct {
	Action      string     `json:"action"`
	Path        string     `json:"path"` // dot path within the action, e.g. "amount.currency"
	Kind        ChangeKind `json:"kind"`
	OldType     string     `json:"old_type,omitempty"`
	NewType     string     `json:"new_type,omitempty"`
	OldRequired bool       `json:"old_required,omitempty"`
	NewRequired bool       `json:"new_required,omitempty"`
}

// Diff is a set of field-level changes applied as a unit
type Diff struct {
	Changes []FieldChange `json:"changes"`
}

// Key identifies a change for de-duplication across drift records
func (c FieldChange) Key() string {
	return c.Action + "/" + c.Path + "/" + string(c.Kind)
}

// String renders a change for logs and suggestion prompts
func (c FieldChange) String() string {
	switch c.Kind {
	case ChangeAdded:
		return fmt.Sprintf("%s.%s added (%s)", c.Action, c.Path, c.NewType)
	case ChangeRemoved:
		return fmt.Sprintf("%s.%s removed", c.Action, c.Path)
	case ChangeTypeChanged:
		return fmt.Sprintf("%s.%s type changed %s -> %s", c.Action, c.Path, c.OldType, c.NewType)
	case ChangeRequiredChanged:
		return fmt.Sprintf("%s.%s required changed %t -> %t", c.Action, c.Path, c.OldRequired, c.NewRequired)
	}
	return fmt.Sprintf("%s.%s %s", c.Action, c.Path, c.Kind)
}

// PathsOverlap reports whether two dot paths touch the same part of the
// field tree: one equals the other or is an ancestor of it. Matching is per
// segment, never substring ("amount" does not overlap "amounts").
func PathsOverlap(a, b string) bool {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := len(as)
	if len(bs) < n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// Clone deep-copies a schema
func (s *Schema) Clone() *Schema {
	out := &Schema{
		IntegrationID: s.IntegrationID,
		Version:       s.Version,
		Actions:       make(map[string]ActionSchema, len(s.Actions)),
		CapturedAt:    s.CapturedAt,
	}
	for name, a := range s.Actions {
		out.Actions[name] = ActionSchema{
			Description: a.Description,
			Fields:      cloneFields(a.Fields),
		}
	}
	return out
}

func cloneFields(in map[string]Field) map[string]Field {
	if in == nil {
		return nil
	}
	out := make(map[string]Field, len(in))
	for k, f := range in {
		f.Fields = cloneFields(f.Fields)
		out[k] = f
	}
	return out
}

// ApplyDiff produces the next schema version with every change in the diff
// applied. A change whose target no longer exists makes the whole apply fail;
// the caller decides whether anything was committed.
func ApplyDiff(s *Schema, diff Diff) (*Schema, error) {
	next := s.Clone()
	next.Version = s.Version + 1
	next.CapturedAt = time.Now()

	for _, c := range diff.Changes {
		action, ok := next.Actions[c.Action]
		if !ok {
			if c.Kind == ChangeAdded {
				action = ActionSchema{Fields: make(map[string]Field)}
				next.Actions[c.Action] = action
			} else {
				return nil, fmt.Errorf("apply %s: action %q not in schema", c.Kind, c.Action)
			}
		}
		if action.Fields == nil {
			action.Fields = make(map[string]Field)
			next.Actions[c.Action] = action
		}
		if err := applyChange(action.Fields, strings.Split(c.Path, "."), c); err != nil {
			return nil, fmt.Errorf("apply %s %s.%s: %w", c.Kind, c.Action, c.Path, err)
		}
	}

	return next, nil
}

func applyChange(fields map[string]Field, path []string, c FieldChange) error {
	name := path[0]
	if len(path) > 1 {
		parent, ok := fields[name]
		if !ok {
			if c.Kind != ChangeAdded {
				return fmt.Errorf("field %q not in schema", name)
			}
			parent = Field{Type: TypeObject, Fields: make(map[string]Field)}
		}
		if parent.Fields == nil {
			parent.Fields = make(map[string]Field)
		}
		if err := applyChange(parent.Fields, path[1:], c); err != nil {
			return err
		}
		fields[name] = parent
		return nil
	}

	switch c.Kind {
	case ChangeAdded:
		fields[name] = Field{Type: c.NewType, Required: c.NewRequired}
	case ChangeRemoved:
		if _, ok := fields[name]; !ok {
			return fmt.Errorf("field %q not in schema", name)
		}
		delete(fields, name)
	case ChangeTypeChanged:
		f, ok := fields[name]
		if !ok {
			return fmt.Errorf("field %q not in schema", name)
		}
		f.Type = c.NewType
		if c.NewType != TypeObject {
			f.Fields = nil
		}
		fields[name] = f
	case ChangeRequiredChanged:
		f, ok := fields[name]
		if !ok {
			return fmt.Errorf("field %q not in schema", name)
		}
		f.Required = c.NewRequired
		fields[name] = f
	default:
		return fmt.Errorf("unknown change kind %q", c.Kind)
	}
	return nil
}

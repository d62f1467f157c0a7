package tool

import "github.com/toolbridge-io/toolbridge/internal/domain/integration"

// RefIndex answers field reachability queries over a set of tools. A tool
// reaches a changed path when one of its field refs and the path touch the
// same part of the action's field tree (either may be the ancestor).
type RefIndex struct {
	refs map[string][]string // action -> referenced paths
}

// NewRefIndex builds an index from tool definitions
func NewRefIndex(tools []*Tool) *RefIndex {
	idx := &RefIndex{refs: make(map[string][]string)}
	for _, t := range tools {
		idx.refs[t.Action] = append(idx.refs[t.Action], t.FieldRefs...)
	}
	return idx
}

// References reports whether any tool reaches the given action field path
func (idx *RefIndex) References(action, path string) bool {
	for _, ref := range idx.refs[action] {
		if integration.PathsOverlap(ref, path) {
			return true
		}
	}
	return false
}

// Reaches reports whether a single tool is affected by a change at the given
// action field path
func (t *Tool) Reaches(action, path string) bool {
	if t.Action != action {
		return false
	}
	for _, ref := range t.FieldRefs {
		if integration.PathsOverlap(ref, path) {
			return true
		}
	}
	return false
}

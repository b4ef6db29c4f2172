package conflict

import (
	"reflect"
	"sort"

	"github.com/compass-engine/compass/internal/task"
)

// Comparator reports whether two values of a watched payload field
// contradict each other.
type Comparator func(a, b any) bool

// Inequality is the default comparator: two present values conflict when
// they are not deeply equal.
func Inequality(a, b any) bool {
	return !reflect.DeepEqual(a, b)
}

// Detector inspects the result set of a completed parallel group for
// pairwise contradictions on watched payload fields. Detection is
// deterministic: results are sorted by task identifier before comparison,
// so the output is invariant under input permutation.
type Detector struct {
	fields map[string]Comparator
}

// NewDetector creates a detector with no watched fields. Fields that both
// tasks happen to produce but that are not watched never conflict; disjoint
// informational fields never conflict either.
func NewDetector() *Detector {
	return &Detector{fields: make(map[string]Comparator)}
}

// Watch registers a payload field for conflict comparison. A nil comparator
// falls back to Inequality. Returns the detector for chaining.
func (d *Detector) Watch(field string, cmp Comparator) *Detector {
	if cmp == nil {
		cmp = Inequality
	}
	d.fields[field] = cmp
	return d
}

// Detect returns every pairwise contradiction among the successful results
// of one parallel group. Non-success results (failed, skipped, cancelled)
// are excluded from comparison.
func (d *Detector) Detect(groupID string, results []*task.Result) []Conflict {
	candidates := make([]*task.Result, 0, len(results))
	for _, r := range results {
		if r != nil && r.Status == task.StatusSuccess {
			candidates = append(candidates, r)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].TaskID < candidates[j].TaskID
	})

	fields := make([]string, 0, len(d.fields))
	for f := range d.fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var conflicts []Conflict
	for _, field := range fields {
		cmp := d.fields[field]
		for i := 0; i < len(candidates); i++ {
			a := candidates[i]
			av, aok := a.Field(field)
			if !aok {
				continue
			}
			for j := i + 1; j < len(candidates); j++ {
				b := candidates[j]
				bv, bok := b.Field(field)
				if !bok {
					continue
				}
				if !cmp(av, bv) {
					continue
				}
				conflicts = append(conflicts, Conflict{
					ID:      conflictID(groupID, field, a.TaskID, b.TaskID),
					GroupID: groupID,
					Field:   field,
					TaskIDs: []string{a.TaskID, b.TaskID},
					Values: map[string]any{
						a.TaskID: av,
						b.TaskID: bv,
					},
					Status: StatusUnresolved,
				})
			}
		}
	}
	return conflicts
}

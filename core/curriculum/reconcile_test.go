package curriculum

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func apply(existing, toInsert, toDelete []Link) []Link {
	set := make(map[Link]bool)
	for _, l := range existing {
		set[l] = true
	}
	for _, l := range toDelete {
		delete(set, l)
	}
	for _, l := range toInsert {
		set[l] = true
	}
	out := make([]Link, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ParentID != out[j].ParentID {
			return out[i].ParentID < out[j].ParentID
		}
		return out[i].ChildID < out[j].ChildID
	})
	return out
}

func TestReconcile(t *testing.T) {
	links := func(parent int, children ...int) []Link {
		out := make([]Link, 0, len(children))
		for _, c := range children {
			out = append(out, Link{ParentID: parent, ChildID: c})
		}
		return out
	}

	tests := []struct {
		name       string
		existing   []Link
		checklist  []CheckItem
		wantInsert []Link
		wantDelete []Link
	}{
		{
			name:       "replace every subject of day 1",
			existing:   links(1, 1, 2, 3),
			checklist:  []CheckItem{{1, false}, {2, false}, {3, false}, {4, true}},
			wantInsert: links(1, 4),
			wantDelete: links(1, 1, 2, 3),
		},
		{
			name:      "already in sync",
			existing:  links(1, 1, 2),
			checklist: []CheckItem{{1, true}, {2, true}, {3, false}},
		},
		{
			name:       "absent items are untouched",
			existing:   links(1, 1, 2),
			checklist:  []CheckItem{{2, false}, {5, true}},
			wantInsert: links(1, 5),
			wantDelete: links(1, 2),
		},
		{
			name:       "links of other parents are ignored",
			existing:   append(links(2, 1, 4), links(1, 3)...),
			checklist:  []CheckItem{{1, true}, {3, false}, {4, false}},
			wantInsert: links(1, 1),
			wantDelete: links(1, 3),
		},
		{
			name:       "duplicated items produce one operation",
			checklist:  []CheckItem{{7, true}, {7, true}, {7, false}},
			wantInsert: links(1, 7),
		},
		{name: "empty checklist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toInsert, toDelete := Reconcile(tt.existing, tt.checklist, 1)
			assert.Equal(t, tt.wantInsert, toInsert, "toInsert")
			assert.Equal(t, tt.wantDelete, toDelete, "toDelete")
		})
	}
}

func TestReconcile_converges(t *testing.T) {
	const parent = 3
	universe := []int{1, 2, 3, 4, 5, 6}
	existingSets := [][]int{nil, {1}, {2, 4, 6}, {1, 2, 3, 4, 5, 6}}
	selections := [][]bool{
		{false, false, false, false, false, false},
		{true, false, true, false, true, false},
		{true, true, true, true, true, true},
		{false, true, false, false, false, true},
	}

	for _, ex := range existingSets {
		existing := make([]Link, 0, len(ex))
		for _, c := range ex {
			existing = append(existing, Link{ParentID: parent, ChildID: c})
		}
		// links of another parent must survive
		existing = append(existing, Link{ParentID: parent + 1, ChildID: 1})

		for _, sel := range selections {
			checklist := make([]CheckItem, 0, len(universe))
			var want []Link
			for i, c := range universe {
				checklist = append(checklist, CheckItem{ID: c, Selected: sel[i]})
				if sel[i] {
					want = append(want, Link{ParentID: parent, ChildID: c})
				}
			}
			want = append(want, Link{ParentID: parent + 1, ChildID: 1})

			toInsert, toDelete := Reconcile(existing, checklist, parent)
			after := apply(existing, toInsert, toDelete)
			assert.ElementsMatch(t, want, after, "existing %v, selection %v", ex, sel)

			// a second pass is a no-op
			toInsert, toDelete = Reconcile(after, checklist, parent)
			assert.Empty(t, toInsert)
			assert.Empty(t, toDelete)
		}
	}
}

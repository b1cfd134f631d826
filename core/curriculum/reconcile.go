package curriculum

// Reconcile computes the join rows to insert and delete so that the links of parentID match the checklist.
//
// Selected items with no existing link are inserted, unselected items with an existing link are deleted.
// Children absent from the checklist are left untouched and an item listed twice yields at most one operation.
// Apply toDelete before toInsert.
func Reconcile(existing []Link, checklist []CheckItem, parentID int) (toInsert, toDelete []Link) {
	linked := make(map[int]bool, len(existing))
	for _, l := range existing {
		if l.ParentID == parentID {
			linked[l.ChildID] = true
		}
	}

	done := make(map[int]bool, len(checklist))
	for _, item := range checklist {
		if done[item.ID] {
			continue
		}
		done[item.ID] = true

		switch {
		case item.Selected && !linked[item.ID]:
			toInsert = append(toInsert, Link{ParentID: parentID, ChildID: item.ID})
		case !item.Selected && linked[item.ID]:
			toDelete = append(toDelete, Link{ParentID: parentID, ChildID: item.ID})
		}
	}
	return toInsert, toDelete
}

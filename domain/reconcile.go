package domain

import "sort"

// MoveEvent describes a drag release: the card being dragged and whatever it
// was dropped over. OverID is either a column identifier, another task's id,
// or empty when the drop was cancelled.
type MoveEvent struct {
	ActiveID string
	OverID   string
}

// TaskChange is one field-level outcome of reconciling a move.
type TaskChange struct {
	TaskID   string
	Status   Status
	Position int
}

// Reconcile computes the column and position changes implied by a drag
// release against the given task set. It performs no I/O and does not mutate
// its input; callers apply the returned changes to their own state and
// persist them however they see fit.
func Reconcile(all []Task, ev MoveEvent) []TaskChange {
	if ev.OverID == "" {
		return nil
	}

	var active *Task
	for i := range all {
		if all[i].ID == ev.ActiveID {
			active = &all[i]
			break
		}
	}
	if active == nil {
		return nil
	}

	targetStatus := active.Status
	if s := Status(ev.OverID); s.Valid() {
		targetStatus = s
	} else {
		found := false
		for i := range all {
			if all[i].ID == ev.OverID {
				targetStatus = all[i].Status
				found = true
				break
			}
		}
		if !found {
			return nil
		}
	}

	if targetStatus != active.Status {
		return crossColumn(all, active, targetStatus)
	}
	if ev.ActiveID == ev.OverID {
		return nil
	}
	return sameColumn(all, active, ev.OverID)
}

// crossColumn appends the active task to the end of the destination column.
func crossColumn(all []Task, active *Task, target Status) []TaskChange {
	count := 0
	for i := range all {
		if all[i].Status == target && all[i].ID != active.ID {
			count++
		}
	}
	return []TaskChange{{TaskID: active.ID, Status: target, Position: count}}
}

// sameColumn performs a list-move of the active task to the over task's slot
// and renumbers the column. Only tasks whose position actually changed are
// reported.
func sameColumn(all []Task, active *Task, overID string) []TaskChange {
	column := make([]Task, 0, len(all))
	for i := range all {
		if all[i].Status == active.Status {
			column = append(column, all[i])
		}
	}
	sort.SliceStable(column, func(i, j int) bool { return column[i].Position < column[j].Position })

	activeIdx, overIdx := -1, -1
	for i := range column {
		switch column[i].ID {
		case active.ID:
			activeIdx = i
		case overID:
			overIdx = i
		}
	}
	if activeIdx < 0 || overIdx < 0 || activeIdx == overIdx {
		return nil
	}

	reordered := listMove(column, activeIdx, overIdx)

	changes := make([]TaskChange, 0, len(reordered))
	for idx, t := range reordered {
		if t.Position != idx {
			changes = append(changes, TaskChange{TaskID: t.ID, Status: t.Status, Position: idx})
		}
	}
	return changes
}

// listMove removes the element at from and reinserts it at to, shifting the
// elements in between by one.
func listMove(in []Task, from, to int) []Task {
	out := make([]Task, 0, len(in))
	out = append(out, in[:from]...)
	out = append(out, in[from+1:]...)
	out = append(out[:to], append([]Task{in[from]}, out[to:]...)...)
	return out
}

// SortByBoardOrder orders tasks by column display order and then ascending
// position, matching the order the board renders.
func SortByBoardOrder(tasks []Task) {
	rank := map[Status]int{}
	for i, s := range Statuses {
		rank[s] = i
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Status != tasks[j].Status {
			return rank[tasks[i].Status] < rank[tasks[j].Status]
		}
		return tasks[i].Position < tasks[j].Position
	})
}

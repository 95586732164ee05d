// Package ordering computes the display order for task collections and the
// progress metrics derived from them. It is pure: no tracker or schedule
// state is consulted.
package ordering

import (
	"sort"

	"planner/internal/models"
)

// rank resolves a task's ordering weight. Tasks carrying the normalized enum
// use it directly; otherwise the free-text label runs through the same
// normalization table, so tracker labels like "Highest" rank the same as
// their enum. Only a fully unset priority ranks 0.
func rank(t models.Task) int {
	if t.PriorityEnum != "" {
		return t.PriorityEnum.Rank()
	}
	if t.Priority == "" {
		return 0
	}
	return models.NormalizePriority(t.Priority).Rank()
}

// Order returns a new slice with the tasks in display order. Completed tasks
// always sort after non-completed ones. Among non-completed tasks, active
// sprint membership sorts first. Within each bucket the priority rank sorts
// descending, and ties keep the input's relative order.
func Order(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]

		aDone, bDone := a.IsCompleted(), b.IsCompleted()
		if aDone != bDone {
			return !aDone
		}
		if !aDone && a.InActiveSprint != b.InActiveSprint {
			return a.InActiveSprint
		}
		return rank(a) > rank(b)
	})
	return out
}

// PercentComplete returns completed main tasks over all main tasks as a
// percentage. Subtasks are excluded from both numerator and denominator.
// An empty collection yields 0.
func PercentComplete(tasks []models.Task) float64 {
	return percent(tasks, func(models.Task) bool { return true })
}

// SprintPercentComplete is PercentComplete restricted to tasks in the active
// sprint.
func SprintPercentComplete(tasks []models.Task) float64 {
	return percent(tasks, func(t models.Task) bool { return t.InActiveSprint })
}

func percent(tasks []models.Task, include func(models.Task) bool) float64 {
	var total, completed int
	for _, t := range tasks {
		if t.IsSubtask || !include(t) {
			continue
		}
		total++
		if t.IsCompleted() {
			completed++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

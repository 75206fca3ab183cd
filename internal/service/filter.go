package service

import (
	"strings"

	domain "hufschlaeger.net/clickup-task-sync/internal/domain/clickup"
)

// Deduplicate entfernt Tasks, die während des Walks mehrfach gesehen wurden
// (derselbe Task kann in mehreren Listen oder als Subtask auftauchen).
// Das erste Vorkommen gewinnt und behält seine Provenienz.
func Deduplicate(tasks []domain.Task) []domain.Task {
	seen := make(map[string]struct{}, len(tasks))
	unique := make([]domain.Task, 0, len(tasks))

	for _, task := range tasks {
		if _, ok := seen[task.ID]; ok {
			continue
		}
		seen[task.ID] = struct{}{}
		unique = append(unique, task)
	}
	return unique
}

// NormalizeStatus bringt einen Status-Namen in die Vergleichsform
// (lowercase, getrimmt).
func NormalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// HasTrackedStatus prüft, ob der Task-Status in der konfigurierten Menge
// der "in Arbeit"-Status liegt. Der Vergleich ist case-insensitiv und
// ignoriert umschließende Leerzeichen auf beiden Seiten.
func HasTrackedStatus(task domain.Task, statuses []string) bool {
	name := NormalizeStatus(task.Status.Status)
	if name == "" {
		return false
	}
	for _, status := range statuses {
		if name == NormalizeStatus(status) {
			return true
		}
	}
	return false
}

// FilterMine wendet beide Prüfungen an: dem Benutzer zugewiesen und Status
// in der konfigurierten Menge. Beide laufen immer lokal, auch wenn der
// Server bereits nach Assignee gefiltert hat; der Server-Filter ist nur
// ein Optimierungshinweis.
func FilterMine(tasks []domain.Task, userID string, statuses []string) []domain.Task {
	var mine []domain.Task
	for _, task := range tasks {
		if !task.IsAssignedTo(userID) {
			continue
		}
		if !HasTrackedStatus(task, statuses) {
			continue
		}
		mine = append(mine, task)
	}
	return mine
}

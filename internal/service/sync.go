package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"hufschlaeger.net/clickup-task-sync/internal/config"
	domain "hufschlaeger.net/clickup-task-sync/internal/domain/clickup"
	clickupRepo "hufschlaeger.net/clickup-task-sync/internal/repository/clickup"
	"hufschlaeger.net/clickup-task-sync/pkg/utils"
)

// Syncer ist die Fassade für den Abgleich: kompletter Fetch mit
// Deduplizierung, Filterung und Timer-Abgleich, Einzel-Refresh, Start/Stop
// und der Diagnose-Dump.
type Syncer struct {
	config  *config.Config
	repo    *clickupRepo.Repository
	walker  *Walker
	tracker *Tracker
}

func NewSyncer(cfg *config.Config) *Syncer {
	repo := clickupRepo.NewRepository(cfg)
	return &Syncer{
		config:  cfg,
		repo:    repo,
		walker:  NewWalker(cfg, repo),
		tracker: NewTracker(repo),
	}
}

// Tracker liefert die Timer-Zustandsmaschine, z.B. für abgeleitete
// Laufzeit-Abfragen durch die Anzeige.
func (s *Syncer) Tracker() *Tracker {
	return s.tracker
}

// ResolveTeamID liefert die konfigurierte Team-ID oder das erste Team des
// Benutzers.
func (s *Syncer) ResolveTeamID() (string, error) {
	if s.config.TeamID != "" {
		return s.config.TeamID, nil
	}

	teams, err := s.repo.GetTeams()
	if err != nil {
		return "", err
	}
	if len(teams) == 0 {
		return "", fmt.Errorf("kein Team gefunden")
	}
	return teams[0].ID, nil
}

// FetchTasks läuft die komplette Hierarchie ab und liefert die
// deduplizierten, gefilterten Tasks des Benutzers, mit abgeglichenem
// Timer-Zustand.
func (s *Syncer) FetchTasks() ([]domain.Task, error) {
	if err := s.config.Validate(); err != nil {
		return nil, fmt.Errorf("konfiguration ungültig: %w", err)
	}

	userID, err := s.repo.CurrentUserID()
	if err != nil {
		return nil, err
	}

	teamID, err := s.ResolveTeamID()
	if err != nil {
		return nil, err
	}

	if s.config.Verbose {
		fmt.Printf("🔍 Lade Tasks aus Team %s\n", teamID)
	}

	raw := s.walker.CollectTasks(teamID, userID)
	unique := Deduplicate(raw)
	mine := FilterMine(unique, userID, s.config.TrackingStatuses)

	if s.config.Verbose {
		fmt.Printf("📊 Gefunden: %d Tasks, davon %d in Arbeit\n", len(unique), len(mine))
	}

	return s.tracker.Reconcile(teamID, mine)
}

// RefreshTask aktualisiert genau einen Task im Snapshot, ohne die komplette
// Hierarchie neu zu laden. Ein nicht mehr existierender Task wird aus dem
// Snapshot entfernt; ein Fetch-Fehler fällt auf den kompletten Fetch
// zurück, statt einen veralteten Snapshot zu behalten.
func (s *Syncer) RefreshTask(snapshot []domain.Task, taskID string) ([]domain.Task, error) {
	task, err := s.repo.GetTask(taskID)
	if err != nil {
		fmt.Printf("⚠️  Einzel-Refresh für %s fehlgeschlagen, lade komplett neu: %v\n", taskID, err)
		return s.FetchTasks()
	}

	if task == nil {
		// Gelöscht, geschlossen oder neu zugewiesen.
		return removeTask(snapshot, taskID), nil
	}

	merged := *task
	merged.Subtasks = nil
	merged.CurrentlyTracked = s.tracker.IsTracked(taskID)
	merged.LocalElapsedMs = s.tracker.ElapsedMillis(taskID)

	for i := range snapshot {
		if snapshot[i].ID != taskID {
			continue
		}
		// Felder erhalten, die der Einzel-Fetch nicht liefert.
		if merged.List.ID == "" {
			merged.List = snapshot[i].List
		}
		if merged.Space.ID == "" {
			merged.Space = snapshot[i].Space
		}
		if merged.SpaceName == "" {
			merged.SpaceName = snapshot[i].SpaceName
		}
		snapshot[i] = merged
		return snapshot, nil
	}

	// Task war nicht im Snapshot: unverändert lassen, der nächste volle
	// Fetch entscheidet über die Aufnahme.
	return snapshot, nil
}

// StartTask startet den Timer für einen Task und liefert dessen ID zurück.
func (s *Syncer) StartTask(taskID string) (string, error) {
	teamID, err := s.ResolveTeamID()
	if err != nil {
		return "", err
	}
	if err := s.tracker.Start(teamID, taskID); err != nil {
		return "", err
	}
	return taskID, nil
}

// StopTask stoppt den laufenden Timer und liefert die ID des Tasks, der
// getrackt wurde ("" wenn keiner lief). Damit kann der Aufrufer gezielt
// einen Einzel-Refresh statt eines kompletten Fetchs anstoßen.
func (s *Syncer) StopTask() (string, error) {
	teamID, err := s.ResolveTeamID()
	if err != nil {
		return "", err
	}
	return s.tracker.Stop(teamID)
}

// DumpOverview erzeugt einen Diagnose-Report über alle gefundenen Tasks
// und Status, ungefiltert, zur Fehlersuche wenn die Task-Liste leer
// bleibt. Der Walk läuft ohne Server-seitigen Assignee-Hinweis, damit
// wirklich alles sichtbar wird.
func (s *Syncer) DumpOverview() (string, error) {
	if err := s.config.Validate(); err != nil {
		return "", fmt.Errorf("konfiguration ungültig: %w", err)
	}

	userID, err := s.repo.CurrentUserID()
	if err != nil {
		return "", err
	}
	teamID, err := s.ResolveTeamID()
	if err != nil {
		return "", err
	}

	tasks := Deduplicate(s.walker.CollectTasks(teamID, ""))
	return s.buildOverview(teamID, userID, tasks), nil
}

// buildOverview generiert den Markdown-Report.
func (s *Syncer) buildOverview(teamID, userID string, tasks []domain.Task) string {
	var content strings.Builder

	content.WriteString(fmt.Sprintf("# ClickUp Task Übersicht - Team %s\n\n", teamID))
	content.WriteString(fmt.Sprintf("**Export-Zeit:** %s  \n", time.Now().Format("02.01.2006 15:04:05")))
	content.WriteString(fmt.Sprintf("**Benutzer-ID:** %s  \n", userID))
	content.WriteString(fmt.Sprintf("**Anzahl Tasks (dedupliziert):** %d  \n\n", len(tasks)))

	// Status-Inventar
	content.WriteString("## Status-Inventar\n\n")
	content.WriteString("| Status | Typ | Anzahl |\n")
	content.WriteString("|--------|-----|--------|\n")
	for _, line := range statusInventory(tasks) {
		content.WriteString(line)
	}
	content.WriteString("\n")

	// Tasks pro Space
	for _, spaceName := range spaceNames(tasks) {
		content.WriteString(fmt.Sprintf("## 📂 %s\n\n", utils.EscapeMarkdown(spaceName)))
		for _, task := range tasks {
			if task.SpaceName != spaceName {
				continue
			}
			content.WriteString(formatTaskLine(task, userID))
		}
		content.WriteString("\n")
	}

	return content.String()
}

func statusInventory(tasks []domain.Task) []string {
	type statusKey struct{ name, typ string }
	counts := make(map[statusKey]int)
	for _, task := range tasks {
		counts[statusKey{NormalizeStatus(task.Status.Status), task.Status.Type}]++
	}

	keys := make([]statusKey, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].name != keys[j].name {
			return keys[i].name < keys[j].name
		}
		return keys[i].typ < keys[j].typ
	})

	var lines []string
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("| %s | %s | %d |\n",
			utils.EscapeMarkdown(key.name), key.typ, counts[key]))
	}
	return lines
}

func spaceNames(tasks []domain.Task) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, task := range tasks {
		if _, ok := seen[task.SpaceName]; ok {
			continue
		}
		seen[task.SpaceName] = struct{}{}
		names = append(names, task.SpaceName)
	}
	sort.Strings(names)
	return names
}

func formatTaskLine(task domain.Task, userID string) string {
	marker := "  "
	if task.IsAssignedTo(userID) {
		marker = "👤"
	}
	line := fmt.Sprintf("- %s `%s` %s – Status: %s",
		marker, task.ID, utils.EscapeMarkdown(task.Name), NormalizeStatus(task.Status.Status))
	if task.TimeSpent > 0 {
		line += fmt.Sprintf(" – Erfasst: %s", utils.FormatMillis(task.TimeSpent))
	}
	return line + "\n"
}

func removeTask(tasks []domain.Task, taskID string) []domain.Task {
	var remaining []domain.Task
	for _, task := range tasks {
		if task.ID == taskID {
			continue
		}
		remaining = append(remaining, task)
	}
	return remaining
}

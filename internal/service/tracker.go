package service

import (
	"sync"
	"time"

	domain "hufschlaeger.net/clickup-task-sync/internal/domain/clickup"
	clickupRepo "hufschlaeger.net/clickup-task-sync/internal/repository/clickup"
)

// Tracker hält die lokale Timer-Registry: Task-ID → lokaler Startzeitpunkt
// (Unix-Millisekunden). Die API erlaubt genau einen laufenden Timer pro
// Benutzer und ist die einzige Wahrheit über dessen Zustand; die Registry
// ist nur ein abgeleiteter Cache, aus dem die laufende Zeit angezeigt wird.
// Jeder Abgleich ist ein idempotenter Resync gegen den Remote-Timer, kein
// inkrementeller Diff, so überlebt der Tracker auch Timer, die außerhalb
// dieses Tools (z.B. im Web-Client) gestartet oder gestoppt wurden.
type Tracker struct {
	repo *clickupRepo.Repository

	mu      sync.Mutex
	started map[string]int64
	now     func() time.Time
}

func NewTracker(repo *clickupRepo.Repository) *Tracker {
	return &Tracker{
		repo:    repo,
		started: make(map[string]int64),
		now:     time.Now,
	}
}

func (t *Tracker) nowMillis() int64 {
	return t.now().UnixMilli()
}

// Reconcile gleicht die Registry mit dem Remote-Timer ab und setzt
// CurrentlyTracked und LocalElapsedMs auf den übergebenen Tasks. Nach dem
// Abgleich enthält die Registry höchstens einen Eintrag, und dessen
// Schlüssel ist die Remote-Timer-ID. Die Tasks werden auch bei einem
// Fehler zurückgegeben, damit der Aufrufer den Snapshot behalten kann.
func (t *Tracker) Reconcile(teamID string, tasks []domain.Task) ([]domain.Task, error) {
	current, err := t.repo.GetRunningTimer(teamID)
	if err != nil {
		return tasks, err
	}

	t.applyRemoteState(current)

	for i := range tasks {
		// Ground truth für das Flag ist die Remote-ID, nicht die Registry.
		tasks[i].CurrentlyTracked = current != "" && tasks[i].ID == current
		tasks[i].LocalElapsedMs = t.ElapsedMillis(tasks[i].ID)
	}
	return tasks, nil
}

// applyRemoteState löscht veraltete Registry-Einträge und legt für einen
// extern gestarteten Timer einen synchronisierten Eintrag an.
func (t *Tracker) applyRemoteState(current string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id := range t.started {
		if id != current {
			// Die Dauer dieses Timers steckt bereits im time_spent des
			// Remote-Tasks; der lokale Zähler darf nicht weiterlaufen.
			delete(t.started, id)
		}
	}

	if current == "" {
		return
	}
	if _, ok := t.started[current]; !ok {
		// Extern gestarteter Timer: lokale Uhr läuft ab jetzt. Die vor der
		// Erkennung bereits gelaufene Zeit fehlt im lokalen Zähler,
		// bekannte Näherung, der echte Start wird nicht geraten.
		t.started[current] = t.nowMillis()
	}
}

// Start startet den Remote-Timer für einen Task. Meldet die API "Timer
// already running", wird der laufende Timer gestoppt und der Start genau
// einmal wiederholt.
func (t *Tracker) Start(teamID, taskID string) error {
	err := t.repo.StartTimer(teamID, taskID)
	if clickupRepo.IsAlreadyRunning(err) {
		if _, stopErr := t.Stop(teamID); stopErr != nil {
			return stopErr
		}
		err = t.repo.StartTimer(teamID, taskID)
	}
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.started[taskID] = t.nowMillis()
	t.mu.Unlock()
	return nil
}

// Stop stoppt den laufenden Remote-Timer und liefert die ID des Tasks, der
// getrackt wurde. Die ID muss vor dem Stopp aufgelöst werden, der
// Stop-Endpunkt liefert sie nicht. Die Registry wird erst nach beiden
// Remote-Aufrufen angefasst und dabei neu gelesen, denn zwischen zwei
// Remote-Aufrufen kann eine andere Operation sie verändert haben.
func (t *Tracker) Stop(teamID string) (string, error) {
	current, err := t.repo.GetRunningTimer(teamID)
	if err != nil {
		return "", err
	}

	if err := t.repo.StopTimer(teamID); err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if current != "" {
		delete(t.started, current)
	} else if len(t.started) > 0 {
		// Kein Remote-Timer auflösbar, aber lokale Einträge: inkonsistent,
		// komplett leeren.
		t.started = make(map[string]int64)
	}
	return current, nil
}

// ElapsedMillis liefert die lokal gemessene Laufzeit eines Tasks oder 0,
// wenn kein Registry-Eintrag existiert. Reiner Lesezugriff.
func (t *Tracker) ElapsedMillis(taskID string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	start, ok := t.started[taskID]
	if !ok {
		return 0
	}
	elapsed := t.nowMillis() - start
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// IsTracked prüft die Registry-Mitgliedschaft eines Tasks.
func (t *Tracker) IsTracked(taskID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.started[taskID]
	return ok
}

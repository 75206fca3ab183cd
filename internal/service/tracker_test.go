package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hufschlaeger.net/clickup-task-sync/internal/config"
	domain "hufschlaeger.net/clickup-task-sync/internal/domain/clickup"
	clickupRepo "hufschlaeger.net/clickup-task-sync/internal/repository/clickup"
)

// fakeTimerAPI bildet das Single-Timer-Verhalten der Time-Tracking-Endpunkte
// nach: höchstens ein laufender Timer, Start gegen einen laufenden Timer
// liefert 400 "Timer already running".
type fakeTimerAPI struct {
	mu          sync.Mutex
	currentTask string

	startCalls   int
	stopCalls    int
	currentCalls int
}

func (f *fakeTimerAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/team/9/time_entries/current", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.currentCalls++

		if f.currentTask == "" {
			_, _ = w.Write([]byte(`{"data":null}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"id":   "entry",
				"task": map[string]string{"id": f.currentTask},
			},
		})
	})

	mux.HandleFunc("/team/9/time_entries/start", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.startCalls++

		if f.currentTask != "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"err":"Timer already running"}`))
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.currentTask = body["tid"]
		_, _ = w.Write([]byte(`{"data":{}}`))
	})

	mux.HandleFunc("/team/9/time_entries/stop", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.stopCalls++

		if f.currentTask == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"err":"No timer running"}`))
			return
		}
		f.currentTask = ""
		_, _ = w.Write([]byte(`{"data":{}}`))
	})

	return mux
}

func (f *fakeTimerAPI) setCurrent(taskID string) {
	f.mu.Lock()
	f.currentTask = taskID
	f.mu.Unlock()
}

func (f *fakeTimerAPI) current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentTask
}

func (f *fakeTimerAPI) calls() (starts, stops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCalls, f.stopCalls
}

func newTrackerWithServer(t *testing.T) (*Tracker, *fakeTimerAPI, *time.Time) {
	t.Helper()

	fake := &fakeTimerAPI{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{Token: "pk_test", APIBaseURL: srv.URL}
	tracker := NewTracker(clickupRepo.NewRepository(cfg))

	clock := time.UnixMilli(1_700_000_000_000)
	tracker.now = func() time.Time { return clock }

	return tracker, fake, &clock
}

func registrySnapshot(t *testing.T, tracker *Tracker) map[string]int64 {
	t.Helper()
	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	snapshot := make(map[string]int64, len(tracker.started))
	for id, start := range tracker.started {
		snapshot[id] = start
	}
	return snapshot
}

func TestTracker_StartThenSwitchWithoutStop(t *testing.T) {
	tracker, fake, clock := newTrackerWithServer(t)

	require.NoError(t, tracker.Start("9", "A"))
	t0 := clock.UnixMilli()
	require.Equal(t, map[string]int64{"A": t0}, registrySnapshot(t, tracker))

	// Start(B) ohne Stop: die API meldet "already running", der Tracker
	// stoppt und wiederholt den Start genau einmal.
	*clock = clock.Add(5 * time.Minute)
	require.NoError(t, tracker.Start("9", "B"))

	t1 := clock.UnixMilli()
	assert.Equal(t, map[string]int64{"B": t1}, registrySnapshot(t, tracker))
	starts, stops := fake.calls()
	assert.Equal(t, 3, starts, "start A, rejected start B, retried start B")
	assert.Equal(t, 1, stops)
	assert.Equal(t, "B", fake.current())
}

func TestTracker_ReconcileInvariant(t *testing.T) {
	tracker, fake, _ := newTrackerWithServer(t)

	// Zwei veraltete Einträge, Remote trackt y.
	tracker.started["x"] = 1
	tracker.started["y"] = 2
	fake.setCurrent("y")

	_, err := tracker.Reconcile("9", nil)
	require.NoError(t, err)

	// Nach jedem Abgleich: höchstens ein Eintrag, Schlüssel == Remote-ID.
	assert.Equal(t, map[string]int64{"y": 2}, registrySnapshot(t, tracker))
}

func TestTracker_ReconcileSynthesizesExternalStart(t *testing.T) {
	tracker, fake, clock := newTrackerWithServer(t)

	// Timer wurde außerhalb gestartet, lokal ist nichts bekannt.
	fake.setCurrent("ext")

	tasks := []domain.Task{{ID: "ext"}, {ID: "other"}}
	tasks, err := tracker.Reconcile("9", tasks)
	require.NoError(t, err)

	require.Equal(t, map[string]int64{"ext": clock.UnixMilli()}, registrySnapshot(t, tracker))

	assert.True(t, tasks[0].CurrentlyTracked)
	assert.False(t, tasks[1].CurrentlyTracked)
	// Synchronisierter Eintrag startet bei der Erkennung: Laufzeit 0.
	assert.Zero(t, tasks[0].LocalElapsedMs)
}

func TestTracker_ExternalStopClearsRegistry(t *testing.T) {
	tracker, fake, _ := newTrackerWithServer(t)

	require.NoError(t, tracker.Start("9", "A"))
	require.Len(t, registrySnapshot(t, tracker), 1)

	// Timer wurde im Web-Client gestoppt.
	fake.setCurrent("")

	tasks, err := tracker.Reconcile("9", []domain.Task{{ID: "A"}})
	require.NoError(t, err)

	assert.Empty(t, registrySnapshot(t, tracker))
	assert.False(t, tasks[0].CurrentlyTracked)
	assert.Zero(t, tasks[0].LocalElapsedMs)
}

func TestTracker_StopResolvesTaskBeforeStopping(t *testing.T) {
	tracker, fake, _ := newTrackerWithServer(t)

	require.NoError(t, tracker.Start("9", "A"))

	stopped, err := tracker.Stop("9")
	require.NoError(t, err)

	assert.Equal(t, "A", stopped)
	assert.Empty(t, registrySnapshot(t, tracker))
	_, stops := fake.calls()
	assert.Equal(t, 1, stops)
}

func TestTracker_StopWithoutRemoteTimerClearsDefensively(t *testing.T) {
	tracker, _, _ := newTrackerWithServer(t)

	// Inkonsistenter Zustand: lokale Einträge, aber kein Remote-Timer.
	tracker.started["ghost-1"] = 1
	tracker.started["ghost-2"] = 2

	stopped, err := tracker.Stop("9")
	require.NoError(t, err)

	assert.Empty(t, stopped)
	assert.Empty(t, registrySnapshot(t, tracker))
}

func TestTracker_ElapsedMillis(t *testing.T) {
	tracker, _, clock := newTrackerWithServer(t)

	require.NoError(t, tracker.Start("9", "A"))
	*clock = clock.Add(90 * time.Second)

	assert.Equal(t, int64(90_000), tracker.ElapsedMillis("A"))
	assert.Zero(t, tracker.ElapsedMillis("unknown"), "elapsed query has no side effect and defaults to 0")
	assert.True(t, tracker.IsTracked("A"))
	assert.False(t, tracker.IsTracked("unknown"))
}

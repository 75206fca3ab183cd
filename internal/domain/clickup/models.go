package clickup

import (
	"bytes"
	"encoding/json"
)

// Team ist der oberste Container (Workspace) in ClickUp.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Space struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Status beschreibt den Task-Status inkl. Klassifizierung (open/custom/closed).
type Status struct {
	Status     string      `json:"status"`
	Type       string      `json:"type"`
	Color      string      `json:"color"`
	Orderindex json.Number `json:"orderindex"`
}

// User ist der authentifizierte Benutzer. Die API liefert die ID je nach
// Endpoint als Zahl oder als String, deshalb ein eigener Unmarshaler.
type User struct {
	ID       string
	Username string
}

func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       json.RawMessage `json:"id"`
		Username string          `json:"username"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	u.ID = CanonicalID(raw.ID)
	u.Username = raw.Username
	return nil
}

// Assignee normalisiert die drei Formen, in denen die API einen Bearbeiter
// liefert: flache ID ({"id": 123}), verschachtelt ({"user": {"id": 123}})
// und flach mit Unterstrich ({"user_id": 123}). Nach dem Unmarshaling ist
// ID immer die kanonische String-Form; Vergleiche dürfen nur darauf laufen.
type Assignee struct {
	ID       string
	Username string
}

func (a *Assignee) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID   json.RawMessage `json:"id"`
		User struct {
			ID       json.RawMessage `json:"id"`
			Username string          `json:"username"`
		} `json:"user"`
		UserID   json.RawMessage `json:"user_id"`
		Username string          `json:"username"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case len(raw.ID) > 0 && !isJSONNull(raw.ID):
		a.ID = CanonicalID(raw.ID)
	case len(raw.User.ID) > 0 && !isJSONNull(raw.User.ID):
		a.ID = CanonicalID(raw.User.ID)
	case len(raw.UserID) > 0 && !isJSONNull(raw.UserID):
		a.ID = CanonicalID(raw.UserID)
	}

	a.Username = raw.Username
	if a.Username == "" {
		a.Username = raw.User.Username
	}
	return nil
}

// CanonicalID wandelt eine numerische oder String-ID in die kanonische
// String-Form um.
func CanonicalID(raw json.RawMessage) string {
	if len(raw) == 0 || isJSONNull(raw) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}

	return string(bytes.Trim(raw, `"`))
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Task ist die zentrale Entität. Zeiten (time_spent, time_estimate) liefert
// die API in Millisekunden; time_spent ist nach einem Timer-Stopp die
// einzige verlässliche Gesamtsumme.
type Task struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Status       Status     `json:"status"`
	Assignees    []Assignee `json:"assignees"`
	List         List       `json:"list"`
	Folder       Folder     `json:"folder"`
	Space        Space      `json:"space"`
	TimeSpent    int64      `json:"time_spent"`
	TimeEstimate int64      `json:"time_estimate"`
	Subtasks     []Task     `json:"subtasks"`
	URL          string     `json:"url"`

	// Lokal berechnete Felder, kein Teil der API-Antwort.
	SpaceName        string `json:"-"`
	CurrentlyTracked bool   `json:"-"`
	LocalElapsedMs   int64  `json:"-"`
}

// IsAssignedTo prüft, ob der Task dem Benutzer mit der kanonischen ID
// zugewiesen ist.
func (t *Task) IsAssignedTo(userID string) bool {
	if userID == "" {
		return false
	}
	for _, a := range t.Assignees {
		if a.ID == userID {
			return true
		}
	}
	return false
}

// TimeEntry ist der aktuell laufende Timer aus /time_entries/current.
type TimeEntry struct {
	ID       string `json:"id"`
	Task     *Task  `json:"task"`
	Start    string `json:"start"`
	Duration string `json:"duration"`
}

// TaskID liefert die ID des getrackten Tasks oder "" wenn keiner läuft.
func (e *TimeEntry) TaskID() string {
	if e == nil || e.Task == nil {
		return ""
	}
	return e.Task.ID
}

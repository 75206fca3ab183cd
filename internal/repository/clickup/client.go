package clickup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hufschlaeger.net/clickup-task-sync/internal/config"
	domain "hufschlaeger.net/clickup-task-sync/internal/domain/clickup"
)

type Repository struct {
	config     *config.Config
	httpClient *http.Client
	baseURL    string

	// Identity-Cache, gültig solange das Token unverändert ist.
	cachedUserID   string
	cachedForToken string
}

func NewRepository(cfg *config.Config) *Repository {
	return &Repository{
		config:     cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    cfg.GetAPIBaseURL(),
	}
}

// queryParam ist ein einzelnes Query-Paar. Array-Parameter (z.B.
// "assignees[]") müssen als wiederholte key[]=value Paare serialisiert
// werden; die eckigen Klammern dürfen dabei nicht percent-encodiert werden,
// sonst interpretiert die API den Parameter stillschweigend nicht.
type queryParam struct {
	key   string
	value string
}

func encodeQuery(params []queryParam) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

// doJSON führt einen Request aus und decodiert die Antwort nach out.
// Nicht-2xx Antworten werden zu *RemoteError mit der Meldung aus dem Body.
func (r *Repository) doJSON(method, path, rawQuery string, body interface{}, op string, out interface{}) error {
	if r.config.Token == "" {
		return ErrUnauthenticated
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, r.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	// ClickUp Personal Token wird roh gesendet, ohne "Bearer"-Präfix.
	req.Header.Set("Authorization", r.config.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rawQuery != "" {
		req.URL.RawQuery = rawQuery
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		err = resp.Body.Close()
		if err != nil {
			fmt.Printf("fehler beim Abschliessen des Response bodies.")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return &RemoteError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    extractRemoteMessage(raw),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// extractRemoteMessage holt die Fehlermeldung aus dem API-Body
// (Format: {"err": "...", "ECODE": "..."}), sonst den rohen Body.
func extractRemoteMessage(raw []byte) string {
	var payload struct {
		Err string `json:"err"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Err != "" {
		return payload.Err
	}
	return strings.TrimSpace(string(raw))
}

// CurrentUserID liefert die kanonische ID des authentifizierten Benutzers.
// Das Ergebnis wird pro Token gecacht; ein Tokenwechsel invalidiert den
// Cache automatisch.
func (r *Repository) CurrentUserID() (string, error) {
	if r.config.Token == "" {
		return "", ErrUnauthenticated
	}

	if r.cachedUserID != "" && r.cachedForToken == r.config.Token {
		return r.cachedUserID, nil
	}

	var payload struct {
		User domain.User `json:"user"`
	}
	if err := r.doJSON(http.MethodGet, "/user", "", nil, "get user", &payload); err != nil {
		return "", err
	}
	if payload.User.ID == "" {
		return "", fmt.Errorf("get user: Antwort ohne Benutzer-ID")
	}

	r.cachedUserID = payload.User.ID
	r.cachedForToken = r.config.Token
	return r.cachedUserID, nil
}

// ValidateConnection prüft ob die ClickUp-Verbindung funktioniert
func (r *Repository) ValidateConnection() error {
	_, err := r.CurrentUserID()

	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) && remoteErr.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("invalid ClickUp token")
	}
	if err != nil {
		return fmt.Errorf("clickup connection failed: %w", err)
	}
	return nil
}

// Hierarchie

func (r *Repository) GetTeams() ([]domain.Team, error) {
	var payload struct {
		Teams []domain.Team `json:"teams"`
	}
	err := r.doJSON(http.MethodGet, "/team", "", nil, "get teams", &payload)
	return payload.Teams, err
}

func (r *Repository) GetSpaces(teamID string) ([]domain.Space, error) {
	var payload struct {
		Spaces []domain.Space `json:"spaces"`
	}
	query := encodeQuery([]queryParam{{"archived", "false"}})
	err := r.doJSON(http.MethodGet, "/team/"+teamID+"/space", query, nil, "get spaces", &payload)
	return payload.Spaces, err
}

func (r *Repository) GetFolders(spaceID string) ([]domain.Folder, error) {
	var payload struct {
		Folders []domain.Folder `json:"folders"`
	}
	query := encodeQuery([]queryParam{{"archived", "false"}})
	err := r.doJSON(http.MethodGet, "/space/"+spaceID+"/folder", query, nil, "get folders", &payload)
	return payload.Folders, err
}

func (r *Repository) GetFolderLists(folderID string) ([]domain.List, error) {
	var payload struct {
		Lists []domain.List `json:"lists"`
	}
	query := encodeQuery([]queryParam{{"archived", "false"}})
	err := r.doJSON(http.MethodGet, "/folder/"+folderID+"/list", query, nil, "get lists", &payload)
	return payload.Lists, err
}

// GetFolderlessLists holt Listen, die direkt am Space hängen (ohne Folder).
func (r *Repository) GetFolderlessLists(spaceID string) ([]domain.List, error) {
	var payload struct {
		Lists []domain.List `json:"lists"`
	}
	query := encodeQuery([]queryParam{{"archived", "false"}})
	err := r.doJSON(http.MethodGet, "/space/"+spaceID+"/list", query, nil, "get folderless lists", &payload)
	return payload.Lists, err
}

// Tasks

// GetListTasksPage holt eine Seite Tasks einer Liste. Der Assignee-Filter
// ist nur ein Server-seitiger Optimierungshinweis; die verbindliche
// Filterung passiert immer lokal im Service.
func (r *Repository) GetListTasksPage(listID string, page int, assigneeID string) ([]domain.Task, error) {
	params := []queryParam{
		{"page", strconv.Itoa(page)},
		{"subtasks", "true"},
		{"include_closed", "false"},
		{"include_timl", "true"},
	}
	if assigneeID != "" {
		params = append(params, queryParam{"assignees[]", assigneeID})
	}

	var payload struct {
		Tasks []domain.Task `json:"tasks"`
	}
	err := r.doJSON(http.MethodGet, "/list/"+listID+"/task", encodeQuery(params), nil, "get tasks", &payload)
	return payload.Tasks, err
}

// GetTask holt einen einzelnen Task. Ein 404 ist kein Fehler, sondern
// liefert (nil, nil): der Task wurde gelöscht oder ist nicht mehr sichtbar.
func (r *Repository) GetTask(taskID string) (*domain.Task, error) {
	var task domain.Task
	query := encodeQuery([]queryParam{{"include_subtasks", "true"}})
	err := r.doJSON(http.MethodGet, "/task/"+taskID, query, nil, "get task", &task)
	if err != nil {
		var remoteErr *RemoteError
		if errors.As(err, &remoteErr) && remoteErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// Time-Tracking

// GetRunningTimer liefert die Task-ID des aktuell laufenden Timers oder ""
// wenn keiner läuft. 400/404 bedeutet "kein Timer" und ist kein Fehler.
func (r *Repository) GetRunningTimer(teamID string) (string, error) {
	var payload struct {
		Data *domain.TimeEntry `json:"data"`
	}
	err := r.doJSON(http.MethodGet, "/team/"+teamID+"/time_entries/current", "", nil, "get current timer", &payload)
	if err != nil {
		if isBenignTimerStatus(err) {
			return "", nil
		}
		return "", err
	}
	return payload.Data.TaskID(), nil
}

func (r *Repository) StartTimer(teamID, taskID string) error {
	body := map[string]string{"tid": taskID}
	return r.doJSON(http.MethodPost, "/team/"+teamID+"/time_entries/start", "", body, "start timer", nil)
}

// StopTimer stoppt den laufenden Timer. 400/404 bedeutet, dass keiner lief,
// und ist kein Fehler. Die API schreibt beim Stopp die Gesamtdauer atomar
// in time_spent des Tasks.
func (r *Repository) StopTimer(teamID string) error {
	err := r.doJSON(http.MethodPost, "/team/"+teamID+"/time_entries/stop", "", nil, "stop timer", nil)
	if err != nil && isBenignTimerStatus(err) {
		return nil
	}
	return err
}

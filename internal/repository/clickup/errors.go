package clickup

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthenticated wird zurückgegeben, wenn kein API Token konfiguriert
// ist. Wird nie automatisch neu versucht.
var ErrUnauthenticated = errors.New("kein ClickUp Token konfiguriert (CLICKUP_TOKEN)")

// RemoteError ist eine nicht-2xx Antwort der API inkl. der Fehlermeldung
// aus dem Response-Body, soweit vorhanden.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s failed %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s failed %d", e.Op, e.StatusCode)
}

// IsAlreadyRunning erkennt die 400er Antwort der API, wenn beim Start
// bereits ein Timer läuft. Die Erkennung hängt am Meldungstext, die API
// liefert dafür keinen eigenen Fehlercode.
func IsAlreadyRunning(err error) bool {
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		return false
	}
	return remoteErr.StatusCode == 400 &&
		strings.Contains(strings.ToLower(remoteErr.Message), "already running")
}

// isBenignTimerStatus: 400/404 bei current/stop Timer bedeutet "kein Timer
// läuft" und ist kein Fehler.
func isBenignTimerStatus(err error) bool {
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		return false
	}
	return remoteErr.StatusCode == 400 || remoteErr.StatusCode == 404
}

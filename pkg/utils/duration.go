package utils

import (
	"fmt"
)

// FormatMillis formatiert eine Dauer in Millisekunden für die Anzeige,
// z.B. "2h 05m" oder "45m". Die API liefert alle Zeiten in Millisekunden.
func FormatMillis(ms int64) string {
	if ms <= 0 {
		return "0m"
	}

	totalMinutes := ms / 60000
	hours := totalMinutes / 60
	minutes := totalMinutes % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %02dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatClock formatiert eine laufende Dauer als Uhr, z.B. "1:23:45".
func FormatClock(ms int64) string {
	if ms < 0 {
		ms = 0
	}

	totalSeconds := ms / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
}

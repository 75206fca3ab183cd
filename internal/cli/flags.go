package cli

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"hufschlaeger.net/clickup-task-sync/internal/config"
)

// Options sind die Betriebsmodi der CLI. Ohne Modus-Flag wird die
// gefilterte Task-Liste ausgegeben.
type Options struct {
	StartTaskID   string
	Stop          bool
	RefreshTaskID string
	Dump          bool
}

func ParseFlags() (*config.Config, *Options, error) {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	fs.Usage = usage(fs)
	return parseInto(fs, os.Args[1:])
}

// parseInto parst Flags in eine aus der Umgebung vorbelegte Konfiguration;
// gesetzte Flags überschreiben Environment-Werte.
func parseInto(fs *pflag.FlagSet, args []string) (*config.Config, *Options, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, err
	}

	opts := &Options{}
	var statuses []string

	fs.StringVar(&cfg.Token, "token", cfg.Token, "ClickUp API Token (Standard: CLICKUP_TOKEN)")
	fs.StringVar(&cfg.TeamID, "team", cfg.TeamID, "Team ID (Standard: erstes Team des Benutzers)")
	fs.StringSliceVar(&statuses, "statuses", nil, "Status, die als 'in Arbeit' gelten (kommagetrennt)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Ausführliche Ausgabe")

	fs.StringVar(&opts.StartTaskID, "start", "", "Timer für diese Task-ID starten")
	fs.BoolVar(&opts.Stop, "stop", false, "Laufenden Timer stoppen")
	fs.StringVar(&opts.RefreshTaskID, "refresh", "", "Einzelnen Task neu laden statt komplettem Fetch")
	fs.BoolVar(&opts.Dump, "dump", false, "Diagnose-Übersicht aller Tasks und Status ausgeben")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	if len(statuses) > 0 {
		cfg.TrackingStatuses = statuses
	}

	if err := cfg.Validate(); err != nil {
		fs.Usage()
		return nil, nil, err
	}

	return cfg, opts, nil
}

func usage(fs *pflag.FlagSet) func() {
	return func() {
		fmt.Fprintf(os.Stderr, `ClickUp Task Sync

Usage: %s [OPTIONS]

Beispiele:
  # Eigene Tasks "in Arbeit" inkl. laufendem Timer anzeigen
  %s --token "pk_xxxx"

  # Timer für einen Task starten
  %s --start 86c2r9kq

  # Laufenden Timer stoppen
  %s --stop

  # Diagnose: alle gefundenen Tasks und Status (ungefiltert)
  %s --dump

Optionen:
%s
Environment Variables:
  CLICKUP_TOKEN      ClickUp API Token
  CLICKUP_TEAM_ID    Team ID (optional)
  TRACKING_STATUSES  Status-Liste, kommagetrennt
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], fs.FlagUsages())
	}
}

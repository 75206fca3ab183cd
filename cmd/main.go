package main

import (
	"fmt"
	"os"

	"hufschlaeger.net/clickup-task-sync/internal/cli"
	domain "hufschlaeger.net/clickup-task-sync/internal/domain/clickup"
	"hufschlaeger.net/clickup-task-sync/internal/service"
	"hufschlaeger.net/clickup-task-sync/pkg/utils"
)

func main() {
	cfg, opts, err := cli.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Fehler beim Parsen der Flags: %v\n", err)
		os.Exit(1)
	}

	syncer := service.NewSyncer(cfg)

	if err := run(syncer, opts); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(syncer *service.Syncer, opts *cli.Options) error {
	switch {
	case opts.Dump:
		overview, err := syncer.DumpOverview()
		if err != nil {
			return err
		}
		fmt.Print(overview)
		return nil

	case opts.StartTaskID != "":
		taskID, err := syncer.StartTask(opts.StartTaskID)
		if err != nil {
			return err
		}
		fmt.Printf("▶️  Timer gestartet für Task %s\n", taskID)
		return nil

	case opts.Stop:
		taskID, err := syncer.StopTask()
		if err != nil {
			return err
		}
		if taskID == "" {
			fmt.Println("ℹ️  Es lief kein Timer")
			return nil
		}
		fmt.Printf("⏹  Timer gestoppt für Task %s\n", taskID)
		return nil

	case opts.RefreshTaskID != "":
		snapshot, err := syncer.FetchTasks()
		if err != nil {
			return err
		}
		snapshot, err = syncer.RefreshTask(snapshot, opts.RefreshTaskID)
		if err != nil {
			return err
		}
		printTasks(snapshot)
		return nil

	default:
		tasks, err := syncer.FetchTasks()
		if err != nil {
			return err
		}
		printTasks(tasks)
		return nil
	}
}

func printTasks(tasks []domain.Task) {
	if len(tasks) == 0 {
		fmt.Println("ℹ️  Keine Tasks in Arbeit")
		return
	}

	fmt.Printf("📋 %d Tasks in Arbeit:\n\n", len(tasks))
	for _, task := range tasks {
		marker := "  "
		if task.CurrentlyTracked {
			marker = "▶"
		}

		line := fmt.Sprintf("%s %-10s %-60s [%s]",
			marker, task.ID, utils.TruncateText(task.Name, 60), task.Status.Status)

		if task.CurrentlyTracked {
			line += fmt.Sprintf("  ⏱ %s", utils.FormatClock(task.LocalElapsedMs))
		}
		if task.TimeSpent > 0 {
			line += fmt.Sprintf("  Σ %s", utils.FormatMillis(task.TimeSpent))
		}
		if task.TimeEstimate > 0 {
			line += fmt.Sprintf("  (geschätzt %s)", utils.FormatMillis(task.TimeEstimate))
		}
		if task.SpaceName != "" {
			line += fmt.Sprintf("  – %s", task.SpaceName)
		}

		fmt.Println(line)
	}
}

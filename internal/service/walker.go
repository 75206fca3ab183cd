package service

import (
	"fmt"

	"hufschlaeger.net/clickup-task-sync/internal/config"
	domain "hufschlaeger.net/clickup-task-sync/internal/domain/clickup"
	clickupRepo "hufschlaeger.net/clickup-task-sync/internal/repository/clickup"
)

const (
	// taskPageSize ist die feste Seitengröße der Task-Endpunkte. Eine kurze
	// Seite bedeutet sicher "keine weiteren Daten"; eine volle Seite
	// bedeutet nicht zwingend, dass noch welche kommen.
	taskPageSize = 100

	// maxTaskPages begrenzt die Paginierung pro Liste, damit der Walk auch
	// gegen einen fehlerhaften Server terminiert.
	maxTaskPages = 100
)

// Walker läuft die komplette Container-Hierarchie eines Teams ab
// (Space → Folder → Liste plus folderlose Listen) und sammelt alle Tasks
// inkl. einer Ebene Subtasks ein. Fehler einzelner Container werden
// geloggt; der Walk läuft mit den restlichen Containern weiter.
type Walker struct {
	config *config.Config
	repo   *clickupRepo.Repository
}

func NewWalker(cfg *config.Config, repo *clickupRepo.Repository) *Walker {
	return &Walker{config: cfg, repo: repo}
}

// CollectTasks sammelt alle Tasks des Teams ein. Die Reihenfolge der
// Container-Besuche ist deterministisch (sequenziell, wie von der API
// geliefert), damit die spätere Deduplizierung reproduzierbar ist.
// assigneeID ist nur ein Server-seitiger Filterhinweis und darf leer sein.
func (w *Walker) CollectTasks(teamID, assigneeID string) []domain.Task {
	spaces, err := w.repo.GetSpaces(teamID)
	if err != nil {
		fmt.Printf("⚠️  Fehler beim Laden der Spaces (Team %s): %v\n", teamID, err)
		return nil
	}

	var tasks []domain.Task
	for _, space := range spaces {
		tasks = append(tasks, w.collectSpaceTasks(space, assigneeID)...)
	}
	return tasks
}

func (w *Walker) collectSpaceTasks(space domain.Space, assigneeID string) []domain.Task {
	var tasks []domain.Task

	folders, err := w.repo.GetFolders(space.ID)
	if err != nil {
		fmt.Printf("⚠️  Fehler beim Laden der Folder (Space %s): %v\n", space.Name, err)
	} else {
		for _, folder := range folders {
			lists, err := w.repo.GetFolderLists(folder.ID)
			if err != nil {
				fmt.Printf("⚠️  Fehler beim Laden der Listen (Folder %s): %v\n", folder.Name, err)
				continue
			}
			for _, list := range lists {
				tasks = append(tasks, w.collectListTasks(list, space, assigneeID)...)
			}
		}
	}

	// Listen ohne Folder hängen direkt am Space.
	lists, err := w.repo.GetFolderlessLists(space.ID)
	if err != nil {
		fmt.Printf("⚠️  Fehler beim Laden der folderlosen Listen (Space %s): %v\n", space.Name, err)
	} else {
		for _, list := range lists {
			tasks = append(tasks, w.collectListTasks(list, space, assigneeID)...)
		}
	}

	return tasks
}

// collectListTasks paginiert eine Liste ab Seite 0, solange volle Seiten
// zurückkommen, und bricht bei der ersten kurzen Seite ab.
func (w *Walker) collectListTasks(list domain.List, space domain.Space, assigneeID string) []domain.Task {
	var collected []domain.Task

	for page := 0; ; page++ {
		if page >= maxTaskPages {
			fmt.Printf("⚠️  Seitenlimit (%d) für Liste %s erreicht, Paginierung abgebrochen\n",
				maxTaskPages, list.Name)
			break
		}

		tasks, err := w.repo.GetListTasksPage(list.ID, page, assigneeID)
		if err != nil {
			fmt.Printf("⚠️  Fehler beim Laden der Tasks (Liste %s, Seite %d): %v\n",
				list.Name, page, err)
			break
		}

		for _, task := range tasks {
			subtasks := task.Subtasks
			collected = append(collected, stampTask(task, list, space))
			// Eine Ebene Subtasks landet in derselben Ergebnismenge.
			for _, sub := range subtasks {
				collected = append(collected, stampTask(sub, list, space))
			}
		}

		if len(tasks) < taskPageSize {
			break
		}
	}

	if w.config.Verbose {
		fmt.Printf("   📄 Liste %s: %d Tasks\n", list.Name, len(collected))
	}
	return collected
}

// stampTask versieht einen Task mit der Provenienz des Containers, unter
// dem er gefunden wurde.
func stampTask(task domain.Task, list domain.List, space domain.Space) domain.Task {
	task.SpaceName = space.Name
	if task.Space.ID == "" {
		task.Space = space
	}
	if task.List.ID == "" {
		task.List = list
	}
	task.Subtasks = nil
	return task
}

package service

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	domain "hufschlaeger.net/clickup-task-sync/internal/domain/clickup"
)

func TestDeduplicate_FirstSeenWinsAcrossContainers(t *testing.T) {
	// Derselbe Task taucht in einer Folder-Liste und einer folderlosen
	// Liste auf; das erste Vorkommen behält seine Provenienz.
	tasks := []domain.Task{
		{ID: "t1", Name: "A", SpaceName: "Dev", List: domain.List{ID: "l1", Name: "Sprint"}},
		{ID: "t2", Name: "B", SpaceName: "Dev", List: domain.List{ID: "l1", Name: "Sprint"}},
		{ID: "t1", Name: "A", SpaceName: "Ops", List: domain.List{ID: "l9", Name: "Folderlos"}},
	}

	got := Deduplicate(tasks)

	want := []domain.Task{
		{ID: "t1", Name: "A", SpaceName: "Dev", List: domain.List{ID: "l1", Name: "Sprint"}},
		{ID: "t2", Name: "B", SpaceName: "Dev", List: domain.List{ID: "l1", Name: "Sprint"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Deduplicate() mismatch (-want +got):\n%s", diff)
	}
}

func TestDeduplicate_Empty(t *testing.T) {
	if got := Deduplicate(nil); len(got) != 0 {
		t.Fatalf("Deduplicate(nil) = %v, want empty", got)
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{" In Progress ", "in progress"},
		{"ACTIVE", "active"},
		{"", ""},
		{"  ", ""},
	}
	for i, c := range cases {
		if got := NormalizeStatus(c.in); got != c.want {
			t.Fatalf("case %d: NormalizeStatus(%q) = %q, want %q", i, c.in, got, c.want)
		}
	}
}

func TestHasTrackedStatus_CaseInsensitiveAndTrimmed(t *testing.T) {
	statuses := []string{"in progress", "ACTIVE "}

	cases := []struct {
		status string
		want   bool
	}{
		{" In Progress ", true},
		{"in progress", true},
		{"active", true},
		{"done", false},
		{"", false},
	}

	for i, c := range cases {
		task := domain.Task{Status: domain.Status{Status: c.status}}
		if got := HasTrackedStatus(task, statuses); got != c.want {
			t.Fatalf("case %d: HasTrackedStatus(%q) = %t, want %t", i, c.status, got, c.want)
		}
	}
}

func TestFilterMine_BothPredicatesMustPass(t *testing.T) {
	statuses := []string{"in progress"}

	tasks := []domain.Task{
		{ID: "mine-ok", Status: domain.Status{Status: "in progress"},
			Assignees: []domain.Assignee{{ID: "42"}}},
		{ID: "mine-wrong-status", Status: domain.Status{Status: "done"},
			Assignees: []domain.Assignee{{ID: "42"}}},
		{ID: "foreign-ok-status", Status: domain.Status{Status: "in progress"},
			Assignees: []domain.Assignee{{ID: "7"}}},
		{ID: "unassigned", Status: domain.Status{Status: "in progress"}},
	}

	got := FilterMine(tasks, "42", statuses)

	if len(got) != 1 || got[0].ID != "mine-ok" {
		t.Fatalf("FilterMine() = %+v, want exactly mine-ok", got)
	}
}

func TestFilterMine_NormalizedIdentitiesFromAllShapes(t *testing.T) {
	// Nach der Adapter-Normalisierung tragen alle drei Formen dieselbe
	// kanonische ID; der Filter sieht nur noch diese.
	tasks := []domain.Task{
		{ID: "a", Status: domain.Status{Status: "active"}, Assignees: []domain.Assignee{{ID: "42"}}},
		{ID: "b", Status: domain.Status{Status: "active"}, Assignees: []domain.Assignee{{ID: "42", Username: "hd"}}},
		{ID: "c", Status: domain.Status{Status: "active"}, Assignees: []domain.Assignee{{ID: "99"}, {ID: "42"}}},
		{ID: "d", Status: domain.Status{Status: "active"}, Assignees: []domain.Assignee{{ID: "99"}}},
	}

	got := FilterMine(tasks, "42", []string{"active"})

	var ids []string
	for _, task := range got {
		ids = append(ids, task.ID)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, ids); diff != "" {
		t.Fatalf("FilterMine() ids mismatch (-want +got):\n%s", diff)
	}
}

package domain

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TaskDraft is a task to be created from an import file, with nested subtasks.
// Fields are ordered to minimize memory padding.
type TaskDraft struct {
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Assignee    string      `yaml:"assignee"`
	Unit        string      `yaml:"unit"`     // "minutes" (default) or "days"
	Start       string      `yaml:"start"`    // Inherited from the parent when empty
	Deadline    string      `yaml:"deadline"` // Inherited from the parent when empty
	Subtasks    []TaskDraft `yaml:"subtasks"`
	Estimate    int         `yaml:"estimate"` // Ignored for drafts with subtasks
}

// taskDraftFile is the document layout of an import file.
type taskDraftFile struct {
	Tasks []TaskDraft `yaml:"tasks"`
}

// FlatDraft is a draft in creation order. Parent is the index of the parent
// draft in the flattened list, or -1 for a root task.
type FlatDraft struct {
	Start    time.Time
	Deadline time.Time
	Draft    TaskDraft
	Parent   int
	Minutes  int // Estimate in minutes, derived for drafts with subtasks
}

// ParseTaskDrafts parses a YAML import file.
//
// Format:
//
//	tasks:
//	  - title: Launch
//	    description: Ship the release
//	    assignee: alice
//	    start: 2024-05-01T09:00:00
//	    deadline: 2024-05-10T18:00:00
//	    subtasks:
//	      - title: Changelog
//	        description: Write it
//	        estimate: 2
//	        unit: days
func ParseTaskDrafts(content string) ([]TaskDraft, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyFile
	}
	var file taskDraftFile
	if err := yaml.Unmarshal([]byte(content), &file); err != nil {
		return nil, fmt.Errorf("parse task file: %w", err)
	}
	if len(file.Tasks) == 0 {
		return nil, ErrNoTasksInFile
	}
	return file.Tasks, nil
}

// FlattenDrafts orders drafts so every parent precedes its subtasks, resolves
// inherited dates and units, and validates each draft.
func FlattenDrafts(drafts []TaskDraft, loc *time.Location) ([]FlatDraft, error) {
	type item struct {
		draft  TaskDraft
		parent int
	}
	var out []FlatDraft
	stack := make([]item, 0, len(drafts))
	for i := len(drafts) - 1; i >= 0; i-- {
		stack = append(stack, item{draft: drafts[i], parent: -1})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		flat, err := resolveDraft(it.draft, it.parent, out, loc)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", it.draft.Title, err)
		}
		out = append(out, flat)
		idx := len(out) - 1
		for i := len(it.draft.Subtasks) - 1; i >= 0; i-- {
			stack = append(stack, item{draft: it.draft.Subtasks[i], parent: idx})
		}
	}
	return out, nil
}

func resolveDraft(d TaskDraft, parent int, done []FlatDraft, loc *time.Location) (FlatDraft, error) {
	flat := FlatDraft{Draft: d, Parent: parent}

	var err error
	if flat.Start, err = ParseDateTime(d.Start, loc); err != nil {
		return flat, err
	}
	if flat.Deadline, err = ParseDateTime(d.Deadline, loc); err != nil {
		return flat, err
	}
	if parent >= 0 {
		if flat.Start.IsZero() {
			flat.Start = done[parent].Start
		}
		if flat.Deadline.IsZero() {
			flat.Deadline = done[parent].Deadline
		}
		if flat.Draft.Assignee == "" {
			flat.Draft.Assignee = done[parent].Draft.Assignee
		}
	}

	flat.Minutes, err = draftMinutes(d)
	if err != nil {
		return flat, err
	}
	return flat, nil
}

// draftMinutes returns the estimate of a draft: its own for a leaf, else the sum of its subtree.
func draftMinutes(d TaskDraft) (int, error) {
	total := 0
	stack := []TaskDraft{d}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(n.Subtasks) > 0 {
			stack = append(stack, n.Subtasks...)
			continue
		}
		unit, err := ParseTimeUnit(n.Unit)
		if err != nil {
			return 0, err
		}
		total += ToMinutes(n.Estimate, unit)
	}
	return total, nil
}

// dateTimeLayouts are accepted for start and deadline, in local time.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDateTime parses a start or deadline given in one of the accepted layouts.
// An empty string yields the zero time.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ValidationError{Field: "date", Message: fmt.Sprintf("cannot parse %q", s)}
}

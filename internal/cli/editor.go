package cli

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"gopkg.in/yaml.v3"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/usecase"
)

// openEditorFunc is a function variable for opening the editor, allowing it to be mocked in tests.
var openEditorFunc = openEditor

// getEditor returns the user's preferred editor from environment variables.
// It checks EDITOR, then VISUAL, and defaults to vim if neither is set.
func getEditor() string {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		editor = "vim"
	}
	return editor
}

// openEditor opens the specified file in the user's editor.
// It returns an error if the editor cannot be started or exits with a non-zero status.
func openEditor(filePath string) error {
	editor := getEditor()

	cmd := exec.Command(editor, filePath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor %s: %w", editor, err)
	}

	return nil
}

// editDocument is the editable part of a task, as written to the editor.
type editDocument struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Assignee    string `yaml:"assignee"`
	Estimate    int    `yaml:"estimate"` // Minutes; ignored for tasks with subtasks
}

func newEditDocument(t *domain.Task) editDocument {
	return editDocument{
		Title:       t.Title,
		Description: t.Description,
		Assignee:    t.AssignedUserName,
		Estimate:    t.EstimatedTime,
	}
}

// Marshal encodes the document as YAML.
func (d editDocument) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode task: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode task: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes an edited YAML document.
func (d *editDocument) Unmarshal(data []byte) error {
	if err := yaml.Unmarshal(data, d); err != nil {
		return fmt.Errorf("parse edited task: %w", err)
	}
	return nil
}

// Diff returns the edit input for the fields that differ in after.
// The estimate is only compared for leaf tasks.
func (d editDocument) Diff(after editDocument, leaf bool) usecase.EditTaskInput {
	var in usecase.EditTaskInput
	if after.Title != d.Title {
		in.Title = &after.Title
	}
	if after.Description != d.Description {
		in.Description = &after.Description
	}
	if after.Assignee != d.Assignee {
		in.Assignee = &after.Assignee
	}
	if leaf && after.Estimate != d.Estimate {
		in.EstimatedTime = &after.Estimate
	}
	return in
}

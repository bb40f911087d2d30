package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/runoshun/taskflow/internal/app"
	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/usecase"
)

const timeLayout = "2006-01-02 15:04"

var groupHeaderStyle = lipgloss.NewStyle().Bold(true)

// newNewCommand creates the new command for creating tasks.
func newNewCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Title       string
		Description string
		Assignee    string
		Start       string
		Deadline    string
		Unit        string
		ParentID    int
		Estimate    int
	}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a new task",
		Long: `Create a new task in progress, assigned to a user.

With --parent the task is added as a subtask. Only the creator of the parent
can add subtasks, and only while the parent is in progress. The parent's
estimate becomes the sum of its subtasks.

Dates accept "2006-01-02", "2006-01-02 15:04", "2006-01-02T15:04:05"
or RFC 3339, in local time. --start defaults to now.

Examples:
  # Create a root task
  taskflow new --title "Launch" --body "Ship the release" \
    --assignee bob --deadline 2025-03-10 --estimate 3 --unit days

  # Add a subtask to task #1
  taskflow new --parent 1 --title "Changelog" --body "Write it" \
    --assignee bob --deadline 2025-03-07 --estimate 90`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			unit, err := domain.ParseTimeUnit(opts.Unit)
			if err != nil {
				return err
			}
			now := c.Clock.Now()
			start := now
			if opts.Start != "" {
				if start, err = domain.ParseDateTime(opts.Start, now.Location()); err != nil {
					return err
				}
			}
			deadline, err := domain.ParseDateTime(opts.Deadline, now.Location())
			if err != nil {
				return err
			}

			input := usecase.NewTaskInput{
				Title:       opts.Title,
				Description: opts.Description,
				Assignee:    opts.Assignee,
				StartDate:   start,
				EndDate:     deadline,
				Estimate:    opts.Estimate,
				Unit:        unit,
			}
			if opts.ParentID > 0 {
				input.ParentID = &opts.ParentID
			}

			out, err := c.NewTaskUseCase().Execute(cmd.Context(), input)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Created task #%d\n", out.Task.ID)
			if out.Parent != nil {
				_, _ = fmt.Fprintf(w, "Parent #%d estimate: %s\n", out.Parent.ID, domain.FormatEstimate(out.Parent.EstimatedTime))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "Task title")
	cmd.Flags().StringVar(&opts.Description, "body", "", "Task description")
	cmd.Flags().StringVar(&opts.Assignee, "assignee", "", "Name of the assigned user")
	cmd.Flags().StringVar(&opts.Start, "start", "", "Start date (default: now)")
	cmd.Flags().StringVar(&opts.Deadline, "deadline", "", "Deadline")
	cmd.Flags().IntVar(&opts.Estimate, "estimate", 0, "Estimated time in --unit")
	cmd.Flags().StringVar(&opts.Unit, "unit", string(domain.UnitMinutes), "Unit of --estimate (minutes, days)")
	cmd.Flags().IntVar(&opts.ParentID, "parent", 0, "Parent task ID (creates a subtask)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("body")
	_ = cmd.MarkFlagRequired("assignee")
	_ = cmd.MarkFlagRequired("deadline")
	_ = cmd.MarkFlagRequired("estimate")

	return cmd
}

// newListCommand creates the list command for listing tasks.
func newListCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long: `Display the task tree grouped by creation date
(Today, Yesterday, This Week, This Month, then by month).

Within a group, tasks are ordered by last update, most recent first.
Subtasks are indented under their parent. The combined estimate of
all tasks is printed at the end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ListTasksUseCase().Execute(cmd.Context(), usecase.ListTasksInput{})
			if err != nil {
				return err
			}
			printTaskGroups(cmd.OutOrStdout(), out.Groups)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %s\n", domain.FormatEstimate(out.TotalTime))
			return nil
		},
	}
}

// printTaskGroups prints each group as a header followed by its task tree.
func printTaskGroups(w io.Writer, groups []domain.TaskGroup) {
	if len(groups) == 0 {
		_, _ = fmt.Fprintln(w, "No tasks")
		return
	}
	for i, g := range groups {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintln(w, groupHeaderStyle.Render(g.Label))

		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(tw, "ID\tSTATUS\tASSIGNEE\tESTIMATE\tTITLE")
		domain.Walk(g.Tasks, func(t *domain.Task, depth int) bool {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s%s\n",
				t.ID, t.Status, t.AssignedUserName, domain.FormatEstimate(t.EstimatedTime),
				strings.Repeat("  ", depth), t.Title)
			return true
		})
		_ = tw.Flush()
	}
}

// newShowCommand creates the show command for displaying task details.
func newShowCommand(c *app.Container) *cobra.Command {
	var opts struct {
		JSON bool
		Raw  bool
	}

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show task details",
		Long: `Display the details of a task: status, assignee, dates, estimate,
the actions you may perform, its subtasks and the recorded sittings.

Output is rendered Markdown. Use --raw for the plain Markdown source
or --json for machine-readable output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}

			out, err := c.ShowTaskUseCase().Execute(cmd.Context(), usecase.ShowTaskInput{TaskID: taskID})
			if err != nil {
				return err
			}

			if opts.JSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(newTaskJSON(out))
			}

			md := taskMarkdown(out)
			if opts.Raw {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), md)
				return nil
			}
			r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
			if err != nil {
				return fmt.Errorf("create renderer: %w", err)
			}
			rendered, err := r.Render(md)
			if err != nil {
				return fmt.Errorf("render task: %w", err)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output in JSON format")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "Output unrendered Markdown")
	cmd.MarkFlagsMutuallyExclusive("json", "raw")

	return cmd
}

// taskJSON is the JSON shape of 'show --json'.
type taskJSON struct {
	Task         *domain.Task     `json:"task"`
	Countdown    string           `json:"countdown,omitempty"`
	Role         domain.Role      `json:"role"`
	Actions      []domain.Action  `json:"actions"`
	Sittings     []domain.Sitting `json:"sittings"`
	SittingTotal int              `json:"sitting_total"`
}

func newTaskJSON(out *usecase.ShowTaskOutput) taskJSON {
	actions := out.Actions
	if actions == nil {
		actions = []domain.Action{}
	}
	sittings := out.Sittings
	if sittings == nil {
		sittings = []domain.Sitting{}
	}
	return taskJSON{
		Task:         out.Task,
		Countdown:    out.Countdown,
		Role:         out.Role,
		Actions:      actions,
		Sittings:     sittings,
		SittingTotal: out.SittingTotal,
	}
}

// taskMarkdown renders the task detail as Markdown.
func taskMarkdown(out *usecase.ShowTaskOutput) string {
	t := out.Task
	var b strings.Builder

	fmt.Fprintf(&b, "# %s (#%d)\n\n", t.Title, t.ID)
	fmt.Fprintf(&b, "- **Status:** %s\n", t.Status.Display())
	fmt.Fprintf(&b, "- **Assignee:** %s\n", t.AssignedUserName)
	fmt.Fprintf(&b, "- **Your role:** %s\n", out.Role)
	fmt.Fprintf(&b, "- **Estimate:** %s\n", domain.FormatEstimate(t.EstimatedTime))
	if t.StartDate != nil {
		fmt.Fprintf(&b, "- **Start:** %s\n", t.StartDate.Local().Format(timeLayout))
	}
	if t.EndDate != nil {
		fmt.Fprintf(&b, "- **Deadline:** %s\n", t.EndDate.Local().Format(timeLayout))
	}
	if out.Countdown != "" {
		fmt.Fprintf(&b, "- **Countdown:** %s\n", out.Countdown)
	}
	fmt.Fprintf(&b, "- **Recorded:** %s in %d sitting(s)\n",
		domain.FormatSittingDuration(out.SittingTotal), len(out.Sittings))
	if len(out.Actions) > 0 {
		names := make([]string, len(out.Actions))
		for i, a := range out.Actions {
			names[i] = string(a)
		}
		fmt.Fprintf(&b, "- **Actions:** %s\n", strings.Join(names, ", "))
	}

	if t.Description != "" {
		fmt.Fprintf(&b, "\n## Description\n\n%s\n", t.Description)
	}

	if len(t.Subtasks) > 0 {
		b.WriteString("\n## Subtasks\n\n")
		domain.Walk(t.Subtasks, func(st *domain.Task, depth int) bool {
			fmt.Fprintf(&b, "%s- #%d %s (%s, %s)\n", strings.Repeat("  ", depth),
				st.ID, st.Title, st.Status.Display(), domain.FormatEstimate(st.EstimatedTime))
			return true
		})
	}

	if len(out.Sittings) > 0 {
		b.WriteString("\n## Sittings\n\n")
		for _, s := range out.Sittings {
			fmt.Fprintf(&b, "- %s to %s (%s)\n", s.Start.Local().Format(timeLayout),
				s.End.Local().Format("15:04"), domain.FormatSittingDuration(s.Duration))
		}
	}

	return b.String()
}

// parseTaskID parses a task ID string to int.
func parseTaskID(s string) (int, error) {
	// Remove leading # if present
	s = strings.TrimPrefix(s, "#")
	var id int
	_, err := fmt.Sscanf(s, "%d", &id)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("task ID must be positive")
	}
	return id, nil
}

// newEditCommand creates the edit command for editing task information.
func newEditCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Title       string
		Description string
		Assignee    string
		Unit        string
		Estimate    int
	}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit task information",
		Long: `Edit a task's title, description, assignee or estimate.

Only the creator can edit a task, and only while it is in progress.
The estimate of a task with subtasks is derived and cannot be edited.

If no flags are provided, the task is opened in $EDITOR as YAML.

Examples:
  # Open task in editor
  taskflow edit 1

  # Reassign and re-estimate
  taskflow edit 1 --assignee carol --estimate 2 --unit days`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}

			flags := cmd.Flags()
			hasFlags := flags.Changed("title") ||
				flags.Changed("body") ||
				flags.Changed("assignee") ||
				flags.Changed("estimate")
			if !hasFlags {
				return editTaskWithEditor(cmd, c, taskID)
			}

			input := usecase.EditTaskInput{TaskID: taskID}
			if flags.Changed("title") {
				input.Title = &opts.Title
			}
			if flags.Changed("body") {
				input.Description = &opts.Description
			}
			if flags.Changed("assignee") {
				input.Assignee = &opts.Assignee
			}
			if flags.Changed("estimate") {
				unit, err := domain.ParseTimeUnit(opts.Unit)
				if err != nil {
					return err
				}
				minutes := domain.ToMinutes(opts.Estimate, unit)
				input.EstimatedTime = &minutes
			}

			return runEdit(cmd, c, input)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "New task title")
	cmd.Flags().StringVar(&opts.Description, "body", "", "New task description")
	cmd.Flags().StringVar(&opts.Assignee, "assignee", "", "New assignee name")
	cmd.Flags().IntVar(&opts.Estimate, "estimate", 0, "New estimate in --unit")
	cmd.Flags().StringVar(&opts.Unit, "unit", string(domain.UnitMinutes), "Unit of --estimate (minutes, days)")

	return cmd
}

// runEdit executes the edit and reports the result.
func runEdit(cmd *cobra.Command, c *app.Container, input usecase.EditTaskInput) error {
	out, err := c.EditTaskUseCase().Execute(cmd.Context(), input)
	if err != nil {
		return err
	}
	if !out.Applied {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task #%d: a newer update was already applied\n", input.TaskID)
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated task #%d\n", out.Task.ID)
	return nil
}

// editTaskWithEditor opens the task in an editor for editing.
func editTaskWithEditor(cmd *cobra.Command, c *app.Container, taskID int) error {
	showOut, err := c.ShowTaskUseCase().Execute(cmd.Context(), usecase.ShowTaskInput{TaskID: taskID})
	if err != nil {
		return err
	}
	task := showOut.Task
	doc := newEditDocument(task)

	content, err := doc.Marshal()
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp("", fmt.Sprintf("taskflow-task-%d-*.yaml", taskID))
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, writeErr := tmpFile.Write(content); writeErr != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", writeErr)
	}
	if closeErr := tmpFile.Close(); closeErr != nil {
		return fmt.Errorf("failed to close temp file: %w", closeErr)
	}

	if editorErr := openEditorFunc(tmpPath); editorErr != nil {
		return editorErr
	}

	edited, err := os.ReadFile(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to read edited file: %w", err)
	}
	if string(edited) == string(content) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No changes made")
		return nil
	}

	var after editDocument
	if err := after.Unmarshal(edited); err != nil {
		return err
	}
	input := doc.Diff(after, task.IsLeaf())
	input.TaskID = taskID
	if input.Title == nil && input.Description == nil && input.Assignee == nil && input.EstimatedTime == nil {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No changes made")
		return nil
	}
	return runEdit(cmd, c, input)
}

// newRmCommand creates the rm command for deleting tasks.
func newRmCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task and its subtasks",
		Long: `Delete a task together with all its subtasks.

Only the creator can delete a task. Deleting a task that no longer
exists succeeds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			out, err := c.DeleteTaskUseCase().Execute(cmd.Context(), usecase.DeleteTaskInput{TaskID: taskID})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted task #%d (%d task(s) removed)\n", taskID, out.Removed)
			return nil
		},
	}
}

// newImportCommand creates the import command for creating a task tree from a file.
func newImportCommand(c *app.Container) *cobra.Command {
	var opts struct {
		ParentID int
		DryRun   bool
	}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Create tasks from a YAML file",
		Long: `Create a tree of tasks from a YAML file.

Every draft is validated before anything is created. Subtasks inherit
start and deadline from their parent when omitted, and the estimate of
a draft with subtasks is the sum of its subtasks.

File format:
  tasks:
    - title: Launch
      description: Ship the release
      assignee: bob
      start: 2025-03-05
      deadline: 2025-03-10
      subtasks:
        - title: Changelog
          description: Write it
          assignee: bob
          estimate: 2
          unit: days`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}

			input := usecase.CreateTasksFromFileInput{
				Content: string(content),
				DryRun:  opts.DryRun,
			}
			if opts.ParentID > 0 {
				input.ParentID = &opts.ParentID
			}

			out, err := c.CreateTasksFromFileUseCase().Execute(cmd.Context(), input)
			if out != nil {
				printCreatedTasks(cmd.OutOrStdout(), out.Tasks, opts.DryRun)
			}
			return err
		},
	}

	cmd.Flags().IntVar(&opts.ParentID, "parent", 0, "Attach the top-level tasks under this task")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Validate and preview without creating")

	return cmd
}

// printCreatedTasks prints the created (or previewed) tasks as an indented tree.
func printCreatedTasks(w io.Writer, tasks []usecase.CreatedTask, dryRun bool) {
	if dryRun {
		_, _ = fmt.Fprintln(w, "Dry run - tasks that would be created:")
	}
	for _, t := range tasks {
		indent := strings.Repeat("  ", t.Depth)
		if dryRun {
			_, _ = fmt.Fprintf(w, "%s%d. %s (%s, %s)\n", indent, t.ID, t.Title, t.Assignee, domain.FormatEstimate(t.EstimatedTime))
			continue
		}
		_, _ = fmt.Fprintf(w, "%s#%d %s (%s, %s)\n", indent, t.ID, t.Title, t.Assignee, domain.FormatEstimate(t.EstimatedTime))
	}
	if !dryRun {
		_, _ = fmt.Fprintf(w, "\nCreated %d task(s)\n", len(tasks))
	}
}


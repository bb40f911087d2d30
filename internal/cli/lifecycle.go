package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/taskflow/internal/app"
	"github.com/runoshun/taskflow/internal/usecase"
)

// transitionFunc runs one lifecycle use case.
type transitionFunc func(ctx context.Context, in usecase.TransitionInput) (*usecase.TransitionOutput, error)

// newTransitionCommand builds a command that applies one lifecycle action to a task.
func newTransitionCommand(use, short, long string, run func() transitionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			out, err := run()(cmd.Context(), usecase.TransitionInput{TaskID: taskID})
			if err != nil {
				return err
			}
			if !out.Applied {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task #%d: a newer update was already applied (%s)\n",
					out.Task.ID, out.Task.Status.Display())
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task #%d: %s\n", out.Task.ID, out.Task.Status.Display())
			return nil
		},
	}
}

// newRequestApprovalCommand creates the request-approval command.
func newRequestApprovalCommand(c *app.Container) *cobra.Command {
	return newTransitionCommand("request-approval", "Ask the creator to approve a task",
		`Move a task from In Progress to Pending Approval.

Only the assignee can request approval.`,
		func() transitionFunc { return c.RequestApprovalUseCase().Execute })
}

// newApproveCommand creates the approve command.
func newApproveCommand(c *app.Container) *cobra.Command {
	return newTransitionCommand("approve", "Approve a task",
		`Move a task from Pending Approval to Completed.

Only the creator can approve.`,
		func() transitionFunc { return c.ApproveTaskUseCase().Execute })
}

// newRejectCommand creates the reject command.
func newRejectCommand(c *app.Container) *cobra.Command {
	return newTransitionCommand("reject", "Send a task back to the assignee",
		`Move a task from Pending Approval back to In Progress.

Only the creator can reject.`,
		func() transitionFunc { return c.RejectTaskUseCase().Execute })
}

// newRevertCommand creates the revert command.
func newRevertCommand(c *app.Container) *cobra.Command {
	return newTransitionCommand("revert", "Withdraw an approval request",
		`Move a task from Pending Approval back to In Progress.

Only the assignee can withdraw their own request.`,
		func() transitionFunc { return c.RevertTaskUseCase().Execute })
}

// newCompleteCommand creates the complete command.
func newCompleteCommand(c *app.Container) *cobra.Command {
	return newTransitionCommand("complete", "Mark a task completed",
		`Mark a task Completed without going through approval.

Only the creator can complete a task, from In Progress or Pending Approval.
Completed is final.`,
		func() transitionFunc { return c.CompleteTaskUseCase().Execute })
}

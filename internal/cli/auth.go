package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/runoshun/taskflow/internal/app"
	"github.com/runoshun/taskflow/internal/usecase"
)

// newLoginCommand creates the login command.
func newLoginCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Email    string
		Password string
	}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the task service",
		Long: `Log in with email and password and store the session.

If --password is omitted, the password is read from the first line of stdin.

Examples:
  taskflow login --email alice@example.com
  echo "$PASSWORD" | taskflow login --email alice@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := passwordFromFlagOrStdin(cmd, opts.Password)
			if err != nil {
				return err
			}
			out, err := c.LoginUseCase().Execute(cmd.Context(), usecase.LoginInput{
				Email:    opts.Email,
				Password: password,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", out.User.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&opts.Password, "password", "", "Account password (read from stdin if omitted)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// newSignupCommand creates the signup command.
func newSignupCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Name     string
		Email    string
		Password string
	}

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account",
		Long: `Register a new account and log in with it.

If --password is omitted, the password is read from the first line of stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := passwordFromFlagOrStdin(cmd, opts.Password)
			if err != nil {
				return err
			}
			out, err := c.SignupUseCase().Execute(cmd.Context(), usecase.SignupInput{
				Name:     opts.Name,
				Email:    opts.Email,
				Password: password,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed up and logged in as %s\n", out.User.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "Display name, used to assign tasks")
	cmd.Flags().StringVar(&opts.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&opts.Password, "password", "", "Account password (read from stdin if omitted)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// newLogoutCommand creates the logout command.
func newLogoutCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.LogoutUseCase().Execute(cmd.Context(), usecase.LogoutInput{}); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

// newUsersCommand creates the users command listing possible assignees.
func newUsersCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users",
		Long:  `List the users tasks can be assigned to.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ListUsersUseCase().Execute(cmd.Context(), usecase.ListUsersInput{})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			defer func() { _ = tw.Flush() }()
			_, _ = fmt.Fprintln(tw, "ID\tNAME\tROLE")
			for _, u := range out.Users {
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Name, u.Role)
			}
			return nil
		},
	}
}

// passwordFromFlagOrStdin returns the flag value, or the first line of stdin.
func passwordFromFlagOrStdin(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

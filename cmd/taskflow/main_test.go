package main

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/taskflow/internal/app"
	"github.com/runoshun/taskflow/internal/cli"
)

func TestCanRunWithoutContainer(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{
			name: "no args opens the board",
			args: nil,
			want: false,
		},
		{
			name: "help flag",
			args: []string{"--help"},
			want: true,
		},
		{
			name: "help shorthand on a subcommand",
			args: []string{"new", "-h"},
			want: true,
		},
		{
			name: "version flag",
			args: []string{"--version"},
			want: true,
		},
		{
			name: "help subcommand",
			args: []string{"help", "new"},
			want: true,
		},
		{
			name: "config template",
			args: []string{"config", "template"},
			want: true,
		},
		{
			name: "config show",
			args: []string{"config", "show"},
			want: false,
		},
		{
			name: "bare config",
			args: []string{"config"},
			want: false,
		},
		{
			name: "task command",
			args: []string{"new", "--title", "test"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canRunWithoutContainer(tt.args))
		})
	}
}

// captureRoot replaces newRootCommand so the built command writes to out.
func captureRoot(t *testing.T, args []string) *bytes.Buffer {
	t.Helper()
	originalArgs := os.Args
	originalRoot := newRootCommand
	t.Cleanup(func() {
		os.Args = originalArgs
		newRootCommand = originalRoot
	})

	out := &bytes.Buffer{}
	os.Args = append([]string{"taskflow"}, args...)
	newRootCommand = func(c *app.Container, v string) *cobra.Command {
		root := cli.NewRootCommand(c, v)
		root.SetOut(out)
		root.SetErr(out)
		root.SetArgs(args)
		return root
	}
	return out
}

func TestRunWithoutContainer_ConfigTemplate(t *testing.T) {
	out := captureRoot(t, []string{"config", "template"})

	require.NoError(t, runWithoutContainer(errors.New("broken config")))
	assert.Contains(t, out.String(), "[pomodoro]")
}

func TestRunWithoutContainer_OtherCommandsFail(t *testing.T) {
	captureRoot(t, []string{"list"})

	err := runWithoutContainer(errors.New("broken config"))
	assert.ErrorContains(t, err, "failed to initialize: broken config")
}

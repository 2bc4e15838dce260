// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"devcell/internal/container"
	"devcell/internal/issue"
	"devcell/internal/provision"

	"github.com/creack/pty"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	enterEngine string

	// enterCmd opens an interactive shell inside the development container
	enterCmd = &cobra.Command{
		Use:   "enter [containerName]",
		Short: "Open an interactive shell inside the development container",
		Long: `Open an interactive login shell inside the development container.

The container must already exist (run 'devcell provision' first). The shell
is attached through a PTY, so interactive programs and window resizing work
as in a regular terminal.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runEnter,
	}
)

func init() {
	enterCmd.Flags().StringVarP(&enterEngine, "engine", "e", "", "container engine preference (auto, podman, docker)")
}

func runEnter(cmd *cobra.Command, args []string) error {
	cfg := loadConfigOrDefaults()

	name, _ := resolveTarget(cfg, args)
	if err := name.Validate(); err != nil {
		return err
	}

	choice, err := resolveEngineChoice(cfg, enterEngine)
	if err != nil {
		return err
	}

	eng, err := engineFactoryFor(choice)()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	exists, err := eng.Exists(ctx, name)
	if err != nil {
		return newExitError(err)
	}
	if !exists {
		return issue.NewErrorContext().
			WithOperation("enter container").
			WithResource(string(name)).
			WithSuggestion("Provision it first: devcell provision " + string(name)).
			BuildError()
	}

	if err := eng.Start(ctx, name); err != nil {
		return newExitError(err)
	}

	shell := eng.ExecCommand(ctx, name, []string{"bash", "-l"}, container.ExecOptions{
		Interactive: true,
		TTY:         true,
		Env:         map[string]string{provision.CellNameEnvVar: string(name)},
	})

	if err := attachPTY(shell); err != nil {
		return newExitError(err)
	}
	return nil
}

// attachPTY runs cmd on a pseudo-terminal wired to the invoking terminal,
// forwarding window resizes and restoring the terminal state on exit.
func attachPTY(cmd *exec.Cmd) error {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("failed to start pty: %w", err)
	}
	defer func() { _ = ptmx.Close() }()

	// Forward terminal resizes to the PTY
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	go func() {
		for range winch {
			_ = pty.InheritSize(os.Stdin, ptmx)
		}
	}()
	winch <- syscall.SIGWINCH // Initial size
	defer func() { signal.Stop(winch); close(winch) }()

	// Raw mode so control sequences reach the container shell
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to set raw terminal mode: %w", err)
	}
	defer func() { _ = term.Restore(int(os.Stdin.Fd()), oldState) }()

	go func() { _, _ = io.Copy(ptmx, os.Stdin) }()
	_, _ = io.Copy(os.Stdout, ptmx)

	return cmd.Wait()
}

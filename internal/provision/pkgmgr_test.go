// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"
	"testing"
)

type (
	// commandRecorder captures arguments passed to exec.Command for
	// verification. It uses the TestHelperProcess pattern to simulate
	// command execution.
	commandRecorder struct {
		Invocations []recordedInvocation
		// FailOn maps a command name (after sudo stripping the mock does not
		// do; match on the recorded name) to the exit code it should return.
		FailOn map[string]int
	}

	recordedInvocation struct {
		Name string
		Args []string
	}
)

func newCommandRecorder() *commandRecorder {
	return &commandRecorder{FailOn: make(map[string]int)}
}

// CommandFunc returns a RunCommandFunc replacement that records invocations
// and runs TestHelperProcess instead of the real command.
func (r *commandRecorder) CommandFunc(t *testing.T) RunCommandFunc {
	t.Helper()
	return func(_ context.Context, name string, args ...string) *exec.Cmd {
		r.Invocations = append(r.Invocations, recordedInvocation{Name: name, Args: args})

		exitCode := 0
		// sudo-prefixed runs carry the real command as the first argument.
		effective := name
		if name == "sudo" && len(args) > 0 {
			effective = args[0]
		}
		if code, ok := r.FailOn[effective]; ok {
			exitCode = code
		}

		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, args...)
		cmd := exec.Command(os.Args[0], cs...)
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", exitCode),
		}
		return cmd
	}
}

func (r *commandRecorder) commandLines() []string {
	lines := make([]string, 0, len(r.Invocations))
	for _, inv := range r.Invocations {
		lines = append(lines, strings.Join(append([]string{inv.Name}, inv.Args...), " "))
	}
	return lines
}

// TestHelperProcess is used by the mock to simulate command execution.
// This function should not be called directly - it is invoked by the mock.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	// Drain stdin so piped writers never block.
	_, _ = io.Copy(io.Discard, os.Stdin)

	exitCode := 0
	if code := os.Getenv("GO_HELPER_EXIT_CODE"); code != "" {
		fmt.Sscanf(code, "%d", &exitCode)
	}
	os.Exit(exitCode)
}

func newTestDNFManager(t *testing.T, rec *commandRecorder, opts ...DNFManagerOption) *DNFManager {
	t.Helper()
	base := []DNFManagerOption{
		WithDNFExecCommand(rec.CommandFunc(t)),
		WithDNFStat(fakeStat()),
		WithDNFSudo(false),
		WithDNFOutput(io.Discard, io.Discard),
	}
	return NewDNFManager(append(base, opts...)...)
}

func TestDNFManager_EnsureRepo_SkipsWhenRepoFileExists(t *testing.T) {
	t.Parallel()

	rec := newCommandRecorder()
	m := newTestDNFManager(t, rec,
		WithDNFStat(fakeStat("/etc/yum.repos.d/vscode.repo")))

	if err := m.EnsureRepo(context.Background()); err != nil {
		t.Fatalf("EnsureRepo() error = %v", err)
	}
	if len(rec.Invocations) != 0 {
		t.Errorf("EnsureRepo() with existing definition ran commands: %v", rec.commandLines())
	}
}

func TestDNFManager_EnsureRepo_ImportsKeyThenWritesDefinition(t *testing.T) {
	t.Parallel()

	rec := newCommandRecorder()
	m := newTestDNFManager(t, rec)

	if err := m.EnsureRepo(context.Background()); err != nil {
		t.Fatalf("EnsureRepo() error = %v", err)
	}

	lines := rec.commandLines()
	want := []string{
		"rpm --import https://packages.microsoft.com/keys/microsoft.asc",
		"tee /etc/yum.repos.d/vscode.repo",
	}
	if !slices.Equal(lines, want) {
		t.Errorf("EnsureRepo() commands = %v, want %v", lines, want)
	}
}

func TestDNFManager_EnsureRepo_KeyImportFailure(t *testing.T) {
	t.Parallel()

	rec := newCommandRecorder()
	rec.FailOn["rpm"] = 1
	m := newTestDNFManager(t, rec)

	if err := m.EnsureRepo(context.Background()); err == nil {
		t.Fatal("EnsureRepo() should fail when the key import fails")
	}
	if len(rec.Invocations) != 1 {
		t.Errorf("EnsureRepo() should stop after the failed import, ran: %v", rec.commandLines())
	}
}

func TestDNFManager_EnsureRepo_CustomRepoDir(t *testing.T) {
	t.Parallel()

	rec := newCommandRecorder()
	m := newTestDNFManager(t, rec, WithDNFRepoDir("/tmp/repos"))

	if err := m.EnsureRepo(context.Background()); err != nil {
		t.Fatalf("EnsureRepo() error = %v", err)
	}
	last := rec.Invocations[len(rec.Invocations)-1]
	if !slices.Contains(last.Args, "/tmp/repos/vscode.repo") {
		t.Errorf("EnsureRepo() should write into the configured repo dir, got %v", last.Args)
	}
}

func TestDNFManager_Refresh(t *testing.T) {
	t.Parallel()

	rec := newCommandRecorder()
	m := newTestDNFManager(t, rec)

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	want := []string{"dnf -y makecache --refresh"}
	if !slices.Equal(rec.commandLines(), want) {
		t.Errorf("Refresh() commands = %v, want %v", rec.commandLines(), want)
	}
}

func TestDNFManager_Refresh_PropagatesFailure(t *testing.T) {
	t.Parallel()

	rec := newCommandRecorder()
	rec.FailOn["dnf"] = 1
	m := newTestDNFManager(t, rec)

	if err := m.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() should surface the dnf failure to the caller")
	}
}

func TestDNFManager_Install(t *testing.T) {
	t.Parallel()

	rec := newCommandRecorder()
	m := newTestDNFManager(t, rec)

	pkgs := []Package{
		{Name: "gcc", Category: CategoryToolchain},
		{Name: "neovim", Category: CategoryEditor},
	}
	if err := m.Install(context.Background(), pkgs); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	want := []string{"dnf -y install gcc neovim"}
	if !slices.Equal(rec.commandLines(), want) {
		t.Errorf("Install() commands = %v, want %v", rec.commandLines(), want)
	}
}

func TestDNFManager_Install_EmptySetIsNoop(t *testing.T) {
	t.Parallel()

	rec := newCommandRecorder()
	m := newTestDNFManager(t, rec)

	if err := m.Install(context.Background(), nil); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if len(rec.Invocations) != 0 {
		t.Errorf("Install() with no packages ran commands: %v", rec.commandLines())
	}
}

func TestDNFManager_SudoPrefix(t *testing.T) {
	t.Parallel()

	rec := newCommandRecorder()
	m := newTestDNFManager(t, rec, WithDNFSudo(true))

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	inv := rec.Invocations[0]
	if inv.Name != "sudo" {
		t.Errorf("Refresh() with sudo enabled ran %q, want sudo", inv.Name)
	}
	if len(inv.Args) == 0 || inv.Args[0] != "dnf" {
		t.Errorf("sudo-prefixed run should carry dnf as the first argument, got %v", inv.Args)
	}
}

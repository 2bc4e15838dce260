// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"slices"
	"testing"
)

func TestAddKeepIDUserns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "create gets userns flag",
			args:     []string{"create", "--name", "fedora-dev", "img"},
			expected: []string{"create", "--userns=keep-id", "--name", "fedora-dev", "img"},
		},
		{
			name:     "non-create args untouched",
			args:     []string{"exec", "fedora-dev", "true"},
			expected: []string{"exec", "fedora-dev", "true"},
		},
		{
			name:     "empty args untouched",
			args:     nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := addKeepIDUserns(tt.args)
			if !slices.Equal(got, tt.expected) {
				t.Errorf("addKeepIDUserns(%v) = %v, want %v", tt.args, got, tt.expected)
			}
		})
	}
}

func TestPodmanEngine_Exists(t *testing.T) {
	recorder := NewMockCommandRecorder()
	engine := &PodmanEngine{
		BaseCLIEngine: NewBaseCLIEngine("podman", WithExecCommand(recorder.CommandFunc(t))),
	}

	exists, err := engine.Exists(context.Background(), "fedora-dev")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("Exists() = false, want true on zero exit")
	}
	if !slices.Equal(recorder.LastArgs(), []string{"container", "exists", "fedora-dev"}) {
		t.Errorf("Exists() args = %v", recorder.LastArgs())
	}
}

func TestPodmanEngine_Exists_NotFound(t *testing.T) {
	recorder := NewMockCommandRecorder()
	recorder.ExitCode = 1
	engine := &PodmanEngine{
		BaseCLIEngine: NewBaseCLIEngine("podman", WithExecCommand(recorder.CommandFunc(t))),
	}

	exists, err := engine.Exists(context.Background(), "fedora-dev")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Error("Exists() = true, want false on non-zero exit")
	}
}

func TestPodmanEngine_Exists_InvalidName(t *testing.T) {
	recorder := NewMockCommandRecorder()
	engine := &PodmanEngine{
		BaseCLIEngine: NewBaseCLIEngine("podman", WithExecCommand(recorder.CommandFunc(t))),
	}

	if _, err := engine.Exists(context.Background(), ""); err == nil {
		t.Fatal("Exists() with empty name should fail validation")
	}
	recorder.AssertInvocationCount(t, 0)
}

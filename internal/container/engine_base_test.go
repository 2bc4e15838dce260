// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestBaseCLIEngine_CreateArgs(t *testing.T) {
	t.Parallel()
	engine := NewBaseCLIEngine("/usr/bin/docker")

	tests := []struct {
		name     string
		opts     CreateOptions
		expected []string
	}{
		{
			name: "minimal create",
			opts: CreateOptions{
				Name:  "fedora-dev",
				Image: "registry.fedoraproject.org/fedora-toolbox:42",
			},
			expected: []string{
				"create", "--name", "fedora-dev", "--hostname", "fedora-dev",
				"registry.fedoraproject.org/fedora-toolbox:42", "sleep", "infinity",
			},
		},
		{
			name: "create with hostname",
			opts: CreateOptions{
				Name:     "fedora-dev",
				Image:    "fedora-toolbox:42",
				Hostname: "cell",
			},
			expected: []string{
				"create", "--name", "fedora-dev", "--hostname", "cell",
				"fedora-toolbox:42", "sleep", "infinity",
			},
		},
		{
			name: "create with volume",
			opts: CreateOptions{
				Name:  "fedora-dev",
				Image: "fedora-toolbox:42",
				Volumes: []VolumeMount{
					{HostPath: "/home/dev", ContainerPath: "/home/dev"},
				},
			},
			expected: []string{
				"create", "--name", "fedora-dev", "--hostname", "fedora-dev",
				"-v", "/home/dev:/home/dev",
				"fedora-toolbox:42", "sleep", "infinity",
			},
		},
		{
			name: "create with custom keep-alive",
			opts: CreateOptions{
				Name:      "fedora-dev",
				Image:     "fedora-toolbox:42",
				KeepAlive: []string{"tail", "-f", "/dev/null"},
			},
			expected: []string{
				"create", "--name", "fedora-dev", "--hostname", "fedora-dev",
				"fedora-toolbox:42", "tail", "-f", "/dev/null",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := engine.CreateArgs(tt.opts)
			if !slices.Equal(got, tt.expected) {
				t.Errorf("CreateArgs() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBaseCLIEngine_CreateArgs_Env(t *testing.T) {
	t.Parallel()
	engine := NewBaseCLIEngine("/usr/bin/docker")

	got := engine.CreateArgs(CreateOptions{
		Name:  "fedora-dev",
		Image: "fedora-toolbox:42",
		Env:   map[string]string{"DEVCELL_NAME": "fedora-dev"},
	})

	want := []string{"-e", "DEVCELL_NAME=fedora-dev"}
	for i := 0; i < len(got)-1; i++ {
		if got[i] == want[0] && got[i+1] == want[1] {
			return
		}
	}
	t.Errorf("CreateArgs() = %v, want it to contain %v", got, want)
}

func TestBaseCLIEngine_ExecArgs(t *testing.T) {
	t.Parallel()
	engine := NewBaseCLIEngine("/usr/bin/docker")

	tests := []struct {
		name     string
		opts     ExecOptions
		command  []string
		expected []string
	}{
		{
			name:     "plain exec",
			command:  []string{"dnf", "-y", "install", "git"},
			expected: []string{"exec", "fedora-dev", "dnf", "-y", "install", "git"},
		},
		{
			name:     "interactive tty exec",
			opts:     ExecOptions{Interactive: true, TTY: true},
			command:  []string{"bash", "-l"},
			expected: []string{"exec", "-i", "-t", "fedora-dev", "bash", "-l"},
		},
		{
			name:     "exec with user and workdir",
			opts:     ExecOptions{User: "dev", WorkDir: "/home/dev"},
			command:  []string{"true"},
			expected: []string{"exec", "-u", "dev", "-w", "/home/dev", "fedora-dev", "true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := engine.ExecArgs("fedora-dev", tt.command, tt.opts)
			if !slices.Equal(got, tt.expected) {
				t.Errorf("ExecArgs() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBaseCLIEngine_Create_Validates(t *testing.T) {
	t.Parallel()
	engine := NewBaseCLIEngine("/usr/bin/docker")

	err := engine.Create(context.Background(), CreateOptions{Name: "", Image: "img"})
	if err == nil {
		t.Fatal("Create() with empty name should fail validation")
	}
	if !errors.Is(err, ErrInvalidContainerName) {
		t.Errorf("Create() error = %v, want ErrInvalidContainerName", err)
	}
}

func TestBaseCLIEngine_Exec_ExitCode(t *testing.T) {
	recorder := NewMockCommandRecorder()
	recorder.ExitCode = 3
	engine := NewBaseCLIEngine("docker", WithExecCommand(recorder.CommandFunc(t)))

	result, err := engine.Exec(context.Background(), "fedora-dev", []string{"false"}, ExecOptions{})
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("Exec() exit code = %d, want 3", result.ExitCode)
	}
	if result.Error != nil {
		t.Errorf("Exec() infrastructure error = %v, want nil", result.Error)
	}
}

func TestBaseCLIEngine_Start(t *testing.T) {
	recorder := NewMockCommandRecorder()
	engine := NewBaseCLIEngine("podman", WithExecCommand(recorder.CommandFunc(t)))

	if err := engine.Start(context.Background(), "fedora-dev"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	recorder.AssertInvocationCount(t, 1)
	if !slices.Equal(recorder.LastArgs(), []string{"start", "fedora-dev"}) {
		t.Errorf("Start() args = %v", recorder.LastArgs())
	}
}

func TestContainerName_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   ContainerName
		wantErr bool
	}{
		{"simple", "fedora-dev", false},
		{"with dots and underscores", "dev_cell.1", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"leading dash", "-dev", true},
		{"embedded space", "fedora dev", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.value.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidContainerName) {
				t.Errorf("Validate(%q) error = %v, want ErrInvalidContainerName", tt.value, err)
			}
		})
	}
}

func TestVolumeMount_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mount    VolumeMount
		expected string
	}{
		{"plain", VolumeMount{HostPath: "/a", ContainerPath: "/b"}, "/a:/b"},
		{"read-only", VolumeMount{HostPath: "/a", ContainerPath: "/b", ReadOnly: true}, "/a:/b:ro"},
		{"selinux", VolumeMount{HostPath: "/a", ContainerPath: "/b", SELinux: SELinuxLabelPrivate}, "/a:/b:Z"},
		{"selinux and read-only", VolumeMount{HostPath: "/a", ContainerPath: "/b", ReadOnly: true, SELinux: SELinuxLabelShared}, "/a:/b:z,ro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.mount.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// useTempConfigDir redirects the config directory for the test and restores
// it afterwards. Tests touching the override must not run in parallel.
func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(func() { SetConfigDirOverride("") })
	return dir
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	useTempConfigDir(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ContainerName != DefaultContainerName {
		t.Errorf("ContainerName = %q, want %q", cfg.ContainerName, DefaultContainerName)
	}
	if cfg.Engine != EngineAuto {
		t.Errorf("Engine = %q, want %q", cfg.Engine, EngineAuto)
	}
	if cfg.BaseImage != DefaultBaseImage {
		t.Errorf("BaseImage = %q, want %q", cfg.BaseImage, DefaultBaseImage)
	}
	if cfg.Verbose {
		t.Error("Verbose should default to false")
	}
}

func TestLoad_FileValuesOverrideDefaults(t *testing.T) {
	dir := useTempConfigDir(t)

	content := `container_name = "work-cell"
engine = "podman"
verbose = true
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ContainerName != "work-cell" {
		t.Errorf("ContainerName = %q, want work-cell", cfg.ContainerName)
	}
	if cfg.Engine != EnginePodman {
		t.Errorf("Engine = %q, want podman", cfg.Engine)
	}
	if !cfg.Verbose {
		t.Error("Verbose should be true from the file")
	}
	// Unset keys keep their defaults.
	if cfg.BaseImage != DefaultBaseImage {
		t.Errorf("BaseImage = %q, want default", cfg.BaseImage)
	}
}

func TestLoad_InvalidEngineRejected(t *testing.T) {
	dir := useTempConfigDir(t)

	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`engine = "kubernetes"`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject an unknown engine value")
	}
}

func TestLoad_MalformedFileRejected(t *testing.T) {
	dir := useTempConfigDir(t)

	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("container_name = [broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail on a malformed config file")
	}
}

func TestMarshalTOML(t *testing.T) {
	t.Parallel()

	out, err := DefaultConfig().MarshalTOML()
	if err != nil {
		t.Fatalf("MarshalTOML() error = %v", err)
	}

	rendered := string(out)
	for _, want := range []string{
		`container_name = 'fedora-dev'`,
		`engine = 'auto'`,
		`base_image = 'registry.fedoraproject.org/fedora-toolbox:42'`,
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("MarshalTOML() output missing %q:\n%s", want, rendered)
		}
	}
}

func TestWriteDefault(t *testing.T) {
	dir := useTempConfigDir(t)

	path, err := WriteDefault(false)
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("WriteDefault() path = %q, want under %q", path, dir)
	}

	// Second write refuses without force.
	if _, err := WriteDefault(false); err == nil {
		t.Error("WriteDefault() should refuse to overwrite without force")
	}
	if _, err := WriteDefault(true); err != nil {
		t.Errorf("WriteDefault(force) error = %v", err)
	}

	// The written file round-trips through Load.
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() after WriteDefault error = %v", err)
	}
	if cfg.ContainerName != DefaultContainerName {
		t.Errorf("ContainerName = %q after round-trip", cfg.ContainerName)
	}
}

func TestConfigFilePath(t *testing.T) {
	dir := useTempConfigDir(t)

	path, err := ConfigFilePath()
	if err != nil {
		t.Fatalf("ConfigFilePath() error = %v", err)
	}
	want := filepath.Join(dir, "config.toml")
	if path != want {
		t.Errorf("ConfigFilePath() = %q, want %q", path, want)
	}
}

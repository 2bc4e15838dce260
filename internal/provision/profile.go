// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

const (
	// PathMarker is the full comment line guarding the PATH-extension block.
	// Markers are matched as whole lines so an unrelated line that merely
	// contains a similar substring can never suppress an append.
	PathMarker = "# devcell: user bin PATH"

	// AliasMarker is the full comment line guarding the alias block.
	AliasMarker = "# devcell: aliases"
)

type (
	// Block is one marker-guarded chunk of shell-profile text. The marker
	// line doubles as the idempotence sentinel: a profile containing it as a
	// whole line is considered to already carry the block.
	Block struct {
		// Marker is the comment line written first and checked for.
		Marker string
		// Lines are the shell lines written beneath the marker.
		Lines []string
	}

	// Profile is an explicit handle on the user's shell profile file. It is
	// only ever appended to, never rewritten, and never deleted.
	Profile struct {
		path string
	}
)

// PathBlock returns the PATH-extension block. $HOME stays unquoted so the
// shell expands it at source time.
func PathBlock() Block {
	return Block{
		Marker: PathMarker,
		Lines: []string{
			`export PATH="$HOME/.local/bin:$HOME/bin:$PATH"`,
		},
	}
}

// AliasBlock returns the alias block. Alias values are shell-quoted with the
// mvdan/sh quoter so the rendered lines survive any characters in the table.
func AliasBlock() Block {
	aliases := []struct{ name, command string }{
		{"ll", "ls -alF"},
		{"la", "ls -A"},
		{"gs", "git status"},
		{"gd", "git diff"},
		{"vim", "nvim"},
	}

	lines := make([]string, 0, len(aliases))
	for _, a := range aliases {
		quoted, err := syntax.Quote(a.command, syntax.LangBash)
		if err != nil {
			// The table is static ASCII; Quote only fails on NUL bytes.
			panic(fmt.Sprintf("alias %s: %v", a.name, err))
		}
		lines = append(lines, fmt.Sprintf("alias %s=%s", a.name, quoted))
	}

	return Block{Marker: AliasMarker, Lines: lines}
}

// Render returns the block text as appended to the profile: a blank separator
// line, the marker, then the shell lines, each newline-terminated.
func (b Block) Render() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(b.Marker)
	sb.WriteString("\n")
	for _, line := range b.Lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Validate parses the rendered block as bash and reports syntax errors.
// It guards the static block tables against typos at test time.
func (b Block) Validate() error {
	_, err := syntax.NewParser().Parse(strings.NewReader(b.Render()), b.Marker)
	if err != nil {
		return fmt.Errorf("block %q is not valid shell: %w", b.Marker, err)
	}
	return nil
}

// HasBlock reports whether content already carries the block guarded by
// marker. The check is a whole-line match on the trimmed marker, which makes
// it a pure function of file content and immune to substring false positives.
func HasBlock(content []byte, marker string) bool {
	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == marker {
			return true
		}
	}
	return false
}

// EnsureBlock returns content with the block appended, or content unchanged
// when the marker is already present. The boolean reports whether an append
// happened. Pure function; the Profile methods apply it to the real file.
func EnsureBlock(content []byte, b Block) ([]byte, bool) {
	if HasBlock(content, b.Marker) {
		return content, false
	}
	out := make([]byte, 0, len(content)+len(b.Render()))
	out = append(out, content...)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	out = append(out, b.Render()...)
	return out, true
}

// DefaultProfilePath returns the invoking user's bash profile path (~/.bashrc).
func DefaultProfilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".bashrc"), nil
}

// NewProfile creates a handle for the profile file at path. The file does not
// need to exist yet; the first append creates it.
func NewProfile(path string) *Profile {
	return &Profile{path: path}
}

// Path returns the profile file path.
func (p *Profile) Path() string { return p.path }

// EnsureBlocks appends each block whose marker is absent and returns the
// markers of the blocks actually appended. The containment check runs against
// the current file content immediately before each append, so N runs leave a
// file byte-identical to one run.
func (p *Profile) EnsureBlocks(blocks ...Block) ([]string, error) {
	var applied []string
	for _, b := range blocks {
		appended, err := p.ensureBlock(b)
		if err != nil {
			return applied, err
		}
		if appended {
			applied = append(applied, b.Marker)
		}
	}
	return applied, nil
}

// ensureBlock re-reads the file, checks the marker, and appends the block in
// a scoped open/write/close with the write flushed on every exit path.
func (p *Profile) ensureBlock(b Block) (bool, error) {
	content, err := os.ReadFile(p.path)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("read profile %s: %w", p.path, err)
	}

	if HasBlock(content, b.Marker) {
		return false, nil
	}

	f, err := os.OpenFile(p.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, fmt.Errorf("open profile %s: %w", p.path, err)
	}

	text := b.Render()
	if len(content) > 0 && content[len(content)-1] != '\n' {
		text = "\n" + text
	}

	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("append to profile %s: %w", p.path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("flush profile %s: %w", p.path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("close profile %s: %w", p.path, err)
	}

	return true, nil
}

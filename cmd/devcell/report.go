// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"devcell/internal/provision"
)

// renderSummary prints the human-readable completion report. It branches only
// on the execution context captured at the start of the run: inside a
// container it reports what was installed and configured; on the host it
// reports the container state and how to enter it.
func renderSummary(w io.Writer, s *provision.Summary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("devcell")+" "+SuccessStyle.Render("✓ provisioning complete"))
	fmt.Fprintln(w)

	if !s.Context.Inside {
		if s.Created {
			fmt.Fprintf(w, "  Container %s created from the base image and provisioned.\n", CmdStyle.Render(string(s.Route.Name)))
		} else {
			fmt.Fprintf(w, "  Existing container %s re-provisioned.\n", CmdStyle.Render(string(s.Route.Name)))
		}
		fmt.Fprintf(w, "  Engine: %s\n", s.EngineName)
		fmt.Fprintln(w)
		fmt.Fprintln(w, SubtitleStyle.Render("Next steps:"))
		fmt.Fprintf(w, "  Enter the container with: %s\n", CmdStyle.Render("devcell enter "+string(s.Route.Name)))
		return
	}

	for _, cat := range []provision.Category{
		provision.CategoryToolchain,
		provision.CategoryEditor,
		provision.CategoryUtility,
	} {
		names := s.Categories[cat]
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s (%d): %s\n", titleFor(cat), len(names), joinNames(names))
	}

	fmt.Fprintln(w)
	if len(s.ProfileBlocksAdded) > 0 {
		fmt.Fprintf(w, "  Shell profile %s updated (%d block(s) added).\n", CmdStyle.Render(s.ProfilePath), len(s.ProfileBlocksAdded))
	} else {
		fmt.Fprintf(w, "  Shell profile %s already configured.\n", CmdStyle.Render(s.ProfilePath))
	}
	if s.RefreshFailed {
		fmt.Fprintln(w, WarningStyle.Render("  Note: package metadata refresh failed; packages were installed from cached metadata."))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, SubtitleStyle.Render("Next steps:"))
	fmt.Fprintf(w, "  Reload your shell: %s\n", CmdStyle.Render("source "+s.ProfilePath))
}

// titleFor maps a category onto its report heading.
func titleFor(cat provision.Category) string {
	switch cat {
	case provision.CategoryToolchain:
		return "Toolchains"
	case provision.CategoryEditor:
		return "Editors"
	case provision.CategoryUtility:
		return "CLI utilities"
	default:
		return string(cat)
	}
}

// joinNames renders a package-name list for the report.
func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

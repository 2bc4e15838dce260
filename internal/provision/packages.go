// SPDX-License-Identifier: MPL-2.0

package provision

const (
	// CategoryToolchain covers compilers, interpreters, and build tools.
	CategoryToolchain Category = "toolchain"
	// CategoryEditor covers text editors and IDEs.
	CategoryEditor Category = "editor"
	// CategoryUtility covers general-purpose CLI utilities.
	CategoryUtility Category = "utility"
)

type (
	// Category groups packages for reporting.
	Category string

	// Package is one entry of the declarative package table.
	Package struct {
		// Name is the package name as known to the package manager.
		Name string
		// Category is the reporting category the package belongs to.
		Category Category
	}
)

// String returns the string representation of the Category.
func (c Category) String() string { return string(c) }

// DefaultPackageSet returns the fixed package table for a development cell.
// The install step is a generic "apply package set" over this data; swapping
// the table (or a fake package manager) is all a test needs.
func DefaultPackageSet() []Package {
	return []Package{
		// Toolchains
		{Name: "gcc", Category: CategoryToolchain},
		{Name: "gcc-c++", Category: CategoryToolchain},
		{Name: "make", Category: CategoryToolchain},
		{Name: "cmake", Category: CategoryToolchain},
		{Name: "golang", Category: CategoryToolchain},
		{Name: "rust", Category: CategoryToolchain},
		{Name: "cargo", Category: CategoryToolchain},
		{Name: "nodejs", Category: CategoryToolchain},
		{Name: "npm", Category: CategoryToolchain},
		{Name: "python3", Category: CategoryToolchain},
		{Name: "python3-pip", Category: CategoryToolchain},

		// Editors. "code" comes from the secondary repository registered by
		// DNFManager.EnsureRepo.
		{Name: "neovim", Category: CategoryEditor},
		{Name: "code", Category: CategoryEditor},

		// CLI utilities
		{Name: "git", Category: CategoryUtility},
		{Name: "gh", Category: CategoryUtility},
		{Name: "ripgrep", Category: CategoryUtility},
		{Name: "fd-find", Category: CategoryUtility},
		{Name: "fzf", Category: CategoryUtility},
		{Name: "bat", Category: CategoryUtility},
		{Name: "jq", Category: CategoryUtility},
		{Name: "tmux", Category: CategoryUtility},
		{Name: "htop", Category: CategoryUtility},
		{Name: "ShellCheck", Category: CategoryUtility},
	}
}

// PackageNames returns the names of the given packages, preserving table order.
func PackageNames(pkgs []Package) []string {
	names := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		names = append(names, p.Name)
	}
	return names
}

// PackagesByCategory groups package names by category, preserving table order
// within each category.
func PackagesByCategory(pkgs []Package) map[Category][]string {
	byCat := make(map[Category][]string)
	for _, p := range pkgs {
		byCat[p.Category] = append(byCat[p.Category], p.Name)
	}
	return byCat
}

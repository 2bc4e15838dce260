// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error types for the devcell CLI.
//
// ActionableError carries the operation that failed, the resource involved,
// and suggestions for fixing the problem. The CLI layer renders suggestions
// beneath the error message so fatal failures (engine missing, package
// install failed) always come with a next step.
package issue

// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// An ActionableError records what the launcher was doing, which path or
// command was involved and what the user can try next. Errors may also name
// an entry of the issue catalog: a Markdown page rendered with glamour that
// explains the failure kind in more depth.
package issue

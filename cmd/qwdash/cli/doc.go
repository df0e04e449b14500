// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the qwdash
// control CLI.
//
// The central type is [Command], a named subcommand with optional
// nested [Command.Subcommands], a [pflag.FlagSet] factory and a Run
// function. The tree is assembled in cmd/qwdash and dispatched with
// [Command.Execute], which handles flag parsing, routing and help
// output.
//
// Unknown subcommands and flags get a "did you mean" suggestion from
// the closest known name by Levenshtein distance (at most 3 edits).
//
// Flags are usually declared as tagged struct fields and bound with
// [FlagsFromParams]. Failures that the user can act on are returned
// as a [ToolError] carrying a hint, and [DiagnoseSocketError] turns
// control socket dial failures into one.
package cli

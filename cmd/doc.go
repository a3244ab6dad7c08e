// Package cmd implements the command-line interface for formintake.
//
// This package provides the following commands:
//   - poll: Poll a Microsoft 365 mailbox for intake requests and download their attachments
//   - extract: Extract the form fields of an intake PDF as sentinel lines
//   - version: Display version information
package cmd

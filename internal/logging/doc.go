// Package logging assembles the structured slog loggers used by the FillDrops
// CLI and pipeline packages.
//
// It owns the console and JSON handlers, level parsing, and output routing.
// Terminal outputs get colourized console lines through tint; files and pipes
// get the plain console format so log files stay grep friendly. Context
// helpers tag lines with the current run identifier and frame index.
//
// Library packages accept a *slog.Logger and default to NewNop so tests and
// embedders never need to configure logging.
package logging

// Package preflight provides readiness checks for the binaries and
// directories a run depends on.
//
// The CLI "check" command prints every result; "run" calls RunAll and refuses
// to start when a required check fails.
package preflight

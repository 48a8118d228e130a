// Package workflow turns one configured job into a finished short.
//
// Runner.Process validates the job, runs preflight checks, takes an
// exclusive lock on the destination, then drives the pipeline inside a
// per-run working directory next to the output: trim, and when subtitles
// are enabled extract audio, transcribe and burn. The working directory is
// removed on success and kept for inspection on failure. Every run is
// recorded in history when a recorder is configured.
package workflow

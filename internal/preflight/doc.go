// Package preflight provides readiness checks for the external binaries and
// filesystem paths a generation run depends on.
//
// These checks run in two contexts:
//   - The workflow runner calls RunAll before touching any media and aborts
//     when a check fails.
//   - The CLI "quickshorts status" command renders the same results as a table.
package preflight

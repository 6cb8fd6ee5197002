// Package procrun is an execution layer for external commands: bounded
// timeouts, deadlock-safe output capture, classified failures, and
// process-tree termination. The core lives in the runner and proctree
// packages; this package only carries module metadata.
package procrun

// Version is the procrun release version.
const Version = "0.2.0"

// Package flows contains pure-function orchestrators for Engine operations.
//
// Each flow function accepts a typed dependency struct and returns a
// classified result without side-effects beyond those dependencies. This
// keeps the Engine type thin and lets the pipeline's state machine be unit
// tested with mock dependencies.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import originauth (to avoid import cycles).
//   - Perform I/O directly — all I/O is mediated through dependencies.
package flows

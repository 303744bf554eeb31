// Package audit defines the structured audit event model and the sinks that
// receive it. Dispatch (buffering, backpressure) lives at the root in the
// engine's dispatcher; this package stays I/O-neutral apart from the
// writer-backed sink.
package audit

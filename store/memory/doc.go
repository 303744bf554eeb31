// Package memory provides an in-process CredentialStore with the same
// uniqueness semantics as the durable implementations. It exists for tests
// and examples; data does not survive the process.
package memory

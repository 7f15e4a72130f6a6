// Package executor runs independent bounce computations concurrently. Each
// job receives a context carrying its own run ID and a logger annotated with
// that ID, so the log lines of interleaved computations can be told apart.
package executor

// Package pathguess builds initial tunnelling paths and refines vacuum
// positions before a bounce computation.
package pathguess

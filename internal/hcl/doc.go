// Package hcl provides the concrete HCL implementation of the scenario
// loading and expression binding interfaces defined in the `config` package.
// It is responsible for file parsing, HCL-to-model translation and the
// compilation of potential expressions into Go closures.
package hcl

// Package config defines the format-agnostic scenario model of the
// application, along with the interfaces (Loader, Converter) for loading
// scenarios and turning their expressions into Go callables.
//
// The `config.Model` is the single source of truth for the `app` package.
// Concrete implementations of the interfaces, such as for HCL, are provided
// in separate packages.
package config

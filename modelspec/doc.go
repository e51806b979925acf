// Package modelspec defines the format-agnostic model for declared network
// architectures, along with the error taxonomy and the Loader interface
// implemented by each document front-end.
//
// The `modelspec.Model` is the single source of truth for the `registry`
// and `builder` packages. Concrete implementations of the Loader interface,
// such as for YAML and HCL, are provided in separate packages.
package modelspec

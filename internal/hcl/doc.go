// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It is responsible for file discovery, parsing, decoding the
// top-level blocks and converting HCL values into the project model.
package hcl

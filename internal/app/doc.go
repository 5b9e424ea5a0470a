// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the compile and preprocess entrypoints,
// decoupled from any specific frontend like the CLI.
package app

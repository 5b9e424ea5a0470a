// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"
)

// Defaults used when the configuration does not set a value.
const (
	DefaultVyperVersion  = "0.3.3"
	DefaultVyperBinary   = "vyper"
	DefaultVyperFormat   = "combined_json"
	DefaultNetwork       = "hardhat"
	DefaultBlockGasLimit = 30_000_000

	DefaultSourcesPath   = "contracts"
	DefaultCachePath     = "hh-cache"
	DefaultArtifactsPath = "artifacts"
	DefaultTmpPath       = "tmp"
)

// Project is the complete configuration of one vyper project.
type Project struct {
	// Root is the absolute project root.
	Root string

	Vyper        Vyper
	Networks     map[string]*Network
	Paths        Paths
	Preprocessor Preprocessor

	// Files lists the configuration files that were loaded, in load order.
	Files []string
}

// Vyper configures the compiler binary.
type Vyper struct {
	// Version is the compiler version the project expects.
	Version string
	Binary  string
	Format  string
	// Timeout bounds one compiler run. Zero disables it.
	Timeout time.Duration
}

// Network holds the parameters of a named network.
type Network struct {
	Name          string
	BlockGasLimit uint64
}

// Paths are the project directories.
type Paths struct {
	Sources   string
	Cache     string
	Artifacts string
	Tmp       string
}

// Preprocessor configures the source preprocessor.
type Preprocessor struct {
	BasePath     string
	IncludePaths []string
	Defines      map[string]string
}

// Default returns the configuration used when no file overrides anything.
func Default(root string) *Project {
	return &Project{
		Root: root,
		Vyper: Vyper{
			Version: DefaultVyperVersion,
			Binary:  DefaultVyperBinary,
			Format:  DefaultVyperFormat,
		},
		Networks: map[string]*Network{
			DefaultNetwork: {Name: DefaultNetwork, BlockGasLimit: DefaultBlockGasLimit},
		},
		Paths: Paths{
			Sources:   DefaultSourcesPath,
			Cache:     DefaultCachePath,
			Artifacts: DefaultArtifactsPath,
			Tmp:       DefaultTmpPath,
		},
		Preprocessor: Preprocessor{
			Defines: map[string]string{},
		},
	}
}

// Abs resolves a project path against Root.
func (p *Project) Abs(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Root, filepath.FromSlash(path))
}

// NetworkNames returns the configured network names in sorted order.
func (p *Project) NetworkNames() []string {
	names := make([]string, 0, len(p.Networks))
	for name := range p.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate reports settings that cannot work regardless of the environment.
func (p *Project) Validate() error {
	if p.Root == "" {
		return fmt.Errorf("project root is empty")
	}
	if p.Vyper.Binary == "" {
		return fmt.Errorf("vyper.binary must not be empty")
	}
	if p.Vyper.Timeout < 0 {
		return fmt.Errorf("vyper.timeout must not be negative, got %s", p.Vyper.Timeout)
	}
	for _, required := range []struct{ name, path string }{
		{"paths.sources", p.Paths.Sources},
		{"paths.artifacts", p.Paths.Artifacts},
		{"paths.tmp", p.Paths.Tmp},
	} {
		if required.path == "" {
			return fmt.Errorf("%s must not be empty", required.name)
		}
	}
	for _, name := range p.NetworkNames() {
		if p.Networks[name].BlockGasLimit == 0 {
			return fmt.Errorf("network %q: block_gas_limit must be positive", name)
		}
	}
	return nil
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths on top of Default(root).
	// Paths may be files or directories. Paths that do not exist are skipped.
	Load(ctx context.Context, root string, paths ...string) (*Project, error)
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package config defines the format-agnostic project configuration along with
// the Loader interface that concrete formats implement.
//
// A Project always starts from Default, so every setting has a value even
// when no configuration file exists. Loaders only overwrite what a file
// actually sets. All paths in a Project are relative to Project.Root unless
// they are already absolute; use Project.Abs to resolve them.
package config

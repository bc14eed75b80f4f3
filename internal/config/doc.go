// Package config provides the configuration for pkgbuilder.
//
// Configuration is resolved in layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← PKGBUILDER_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← pkgbuilder.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Command line flags are applied by the caller on the returned Config.
//
// # Example
//
//	[history]
//	max_entries = 50
//
//	[logging]
//	level = "debug"
//	format = "json"
//
//	[catalog]
//	path = "catalog.toml"
//	watch = true
//	debounce_ms = 200
package config

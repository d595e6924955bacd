// Package config provides centralized configuration management for the
// cause-list retrieval system.
//
// Configuration is resolved in three layers, highest precedence first:
//
//  1. Environment variables with the CAUSELIST_ prefix
//  2. An optional config.yaml next to the executable
//  3. Struct tag defaults
//
// All file system paths are anchored at the executable directory so the
// binaries behave the same regardless of the working directory they are
// launched from.
package config

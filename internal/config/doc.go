// SPDX-License-Identifier: MPL-2.0

// Package config handles the global loadseq configuration using Viper with CUE
// as the file format.
//
// Configuration is loaded from $XDG_CONFIG_HOME/loadseq/config.cue on Linux
// (~/.config/loadseq when unset), ~/Library/Application Support/loadseq/config.cue
// on macOS and %APPDATA%\loadseq\config.cue on Windows. Files are validated
// against an embedded CUE schema (config_schema.cue). LOADSEQ_* environment
// variables override file values (LOADSEQ_UI_STATS=false for ui.stats).
package config

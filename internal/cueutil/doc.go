// SPDX-License-Identifier: MPL-2.0

// Package cueutil holds the CUE parsing flow shared by the global configuration
// and CUE project files: compile the embedded schema, unify the user file with
// the named definition, validate, then decode.
//
//	//go:embed project_schema.cue
//	var schema []byte
//
//	res, err := cueutil.ParseAndDecode[File](schema, data, "#Project",
//	    cueutil.WithFilename(path))
package cueutil

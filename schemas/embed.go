// Package schemas holds the JSON Schema documents shipped with the binary.
package schemas

import _ "embed"

// Report is the schema of an analyze reply carrying an inline structured report.
//
//go:embed report.schema.json
var Report []byte

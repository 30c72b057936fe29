// Package scripts embeds the Risor rule scripts shipped with lintchecks.
package scripts

import "embed"

// FS holds rules.risor and any helper modules it imports.
//
//go:embed *.risor
var FS embed.FS

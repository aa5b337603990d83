// Package web carries the embedded listener page.
package web

import _ "embed"

// IndexHTML is the single-page UI served at /.
//
//go:embed index.html
var IndexHTML []byte

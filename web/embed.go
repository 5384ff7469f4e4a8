package web

import "embed"

// TemplatesFS embeds the print page templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

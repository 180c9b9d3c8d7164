// Package web holds the embedded dashboard templates and static assets.
package web

import "embed"

// TemplatesFS holds index.html and the dashboard partial.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the row-delete script.
//
//go:embed static/*
var StaticFS embed.FS

// Package web holds the HTML pages and stylesheet served by the tally server.
package web

import "embed"

// TemplatesFS embeds the round history and expense page templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet shared by the pages.
//
//go:embed static/*
var StaticFS embed.FS

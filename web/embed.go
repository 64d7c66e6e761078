package web

import "embed"

// StaticFS embeds the dashboard page and its assets (html/css/js).
//
//go:embed static/*
var StaticFS embed.FS

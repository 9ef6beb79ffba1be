// Package userdeck provides embedded assets for production builds.
package userdeck

import "embed"

// Embedded assets for production builds.
// In dev mode (IsDev=true), assets are loaded from disk so edits show up on reload.
// In production mode (IsDev=false), assets are served from these embedded filesystems.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS

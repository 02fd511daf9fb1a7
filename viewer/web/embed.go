// Package web embeds the viewer's single page UI.
package web

import "embed"

//go:embed static
var Static embed.FS

// Package appfs exposes embedded assets needed at runtime.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS

// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
)

// Files contains the dashboard served at "/". The page reads everything it
// shows from the JSON API.
//
//go:embed static
var Files embed.FS

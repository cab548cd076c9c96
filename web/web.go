// Package web embeds the browser client: markup, styles, and the playback bridge.
package web

import "embed"

//go:embed index.html styles.css app.js
var Assets embed.FS

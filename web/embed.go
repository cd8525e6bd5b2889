// Package web embeds the browser client served at "/".
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var files embed.FS

// FS is the client's file tree with index.html at its root.
func FS() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// HTTP returns FS as an http.FileSystem.
func HTTP() http.FileSystem {
	return http.FS(FS())
}

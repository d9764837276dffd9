package server

import (
	"embed"
	"io/fs"
)

//go:embed assets
var assetsFS embed.FS

// staticFS exposes assets/static as the /static/* file tree.
func staticFS() fs.FS {
	sub, err := fs.Sub(assetsFS, "assets/static")
	if err != nil {
		panic(err)
	}
	return sub
}

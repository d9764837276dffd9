//go:build ignore
// +build ignore

package main

import (
	"log"

	inkpad "github.com/mithrel/inkpad/internal/cli"
	"github.com/spf13/cobra/doc"
)

func main() {
	root := inkpad.NewRootCmd()

	if err := doc.GenMarkdownTree(root, "./docs/markdown"); err != nil {
		log.Fatal(err)
	}

	header := &doc.GenManHeader{
		Title:   "INKPAD",
		Section: "1",
	}
	if err := doc.GenManTree(root, header, "./docs/man"); err != nil {
		log.Fatal(err)
	}
}

// Package web holds the storefront templates and static assets.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	html "github.com/gofiber/template/html/v2"
)

//go:embed templates
var templates embed.FS

//go:embed static
var static embed.FS

// Views returns the template engine over the embedded templates.
func Views() *html.Engine {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("money", func(v float64) string { return fmt.Sprintf("$%.2f", v) })
	return engine
}

// StaticFS serves web/static.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

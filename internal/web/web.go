// Package web holds the HTML templates and builds the view engine.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"ecofinds/internal/views"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var templates embed.FS

// Layout is the template every page is rendered into.
const Layout = "layouts/main"

// NewEngine returns the template engine over the embedded templates.
func NewEngine() *html.Engine {
	root, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(root), ".html")
	engine.AddFunc("price", views.FormatPrice)
	engine.AddFunc("date", views.FormatDate)
	engine.AddFunc("initial", views.Initial)
	return engine
}

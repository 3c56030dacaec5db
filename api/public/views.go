package publicapi

import (
	"embed"
	"io/fs"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

//go:embed views/*.html
var viewsFs embed.FS

func TemplateEngine() fiber.Views {
	views, err := fs.Sub(viewsFs, "views")
	if err != nil {
		log.Fatalf("publicapi.TemplateEngine: err = %s", err)
	}
	return html.NewFileSystem(http.FS(views), ".html")
}

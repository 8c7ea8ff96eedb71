package echo

import (
	"html/template"
	"io"

	"github.com/confide-dev/confide/web"
	"github.com/labstack/echo/v4"
)

// Renderer adapts the embedded template set to echo's Renderer interface.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded views.
func NewRenderer() *Renderer {
	return &Renderer{templates: web.Templates()}
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobboard/internal/api/middleware"
	"github.com/yoockh/jobboard/internal/filters"
	"github.com/yoockh/jobboard/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// view is the data every page template receives.
type view struct {
	Title string
	User  *models.User
	Flash *Flash
	Path  string
	Data  any
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	},
	"statusLabel": func(s models.ApplicationStatus) string {
		if s == "" {
			return "All"
		}
		return strings.ToUpper(string(s[:1])) + string(s[1:])
	},
	"jobQuery": filters.QueryString,
	"listItem": filters.EscapeItem,
	"contains": func(list []string, s any) bool {
		want := fmt.Sprint(s)
		for _, it := range list {
			if it == want {
				return true
			}
		}
		return false
	},
	"join": strings.Join,
}

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &renderer{pages: map[string]*template.Template{}}
	for _, n := range names {
		base := strings.TrimSuffix(strings.TrimPrefix(n, "templates/"), ".html")
		if base == "layout" || base == "partials" {
			continue
		}
		t, err := template.New(base).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/partials.html", n)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", base, err)
		}
		r.pages[base] = t
	}
	return r, nil
}

func (p *Pages) render(c *gin.Context, status int, name, title string, data any) {
	t, ok := p.tmpl.pages[name]
	if !ok {
		p.log.WithField("template", name).Error("unknown template")
		c.String(http.StatusInternalServerError, "Unknown error occurred")
		return
	}

	v := view{
		Title: title,
		User:  middleware.CurrentUser(c),
		Flash: p.takeFlash(c),
		Path:  c.Request.URL.RequestURI(),
		Data:  data,
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		p.log.WithError(err).WithField("template", name).Error("render failed")
		c.String(http.StatusInternalServerError, "Unknown error occurred")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

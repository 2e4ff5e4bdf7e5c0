package echoapi

import (
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	appfs "github.com/trezcool/coachdesk/fs"
)

const pagesDir = "templates/pages"

type (
	// templateRenderer renders every page inside the shared "_layout.gohtml".
	templateRenderer struct {
		pages map[string]*template.Template
	}

	// pageData is handed to every page template.
	pageData struct {
		Title   string
		Flashes []string
		Data    interface{}
	}
)

var _ echo.Renderer = (*templateRenderer)(nil)

func newTemplateRenderer() (*templateRenderer, error) {
	entries, err := fs.ReadDir(appfs.FS, pagesDir)
	if err != nil {
		return nil, errors.Wrap(err, "reading pages dir")
	}

	layout := path.Join(pagesDir, "_layout.gohtml")
	r := &templateRenderer{pages: make(map[string]*template.Template, len(entries))}
	for _, e := range entries {
		fname := e.Name()
		if e.IsDir() || strings.HasPrefix(fname, "_") || path.Ext(fname) != ".gohtml" {
			continue
		}
		tmpl, err := template.ParseFS(appfs.FS, layout, path.Join(pagesDir, fname))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", fname)
		}
		r.pages[strings.TrimSuffix(fname, ".gohtml")] = tmpl
	}
	return r, nil
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("unknown page %q", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// renderPage pops the pending flashes and renders the page `name`.
func renderPage(ctx echo.Context, sess *sessionStore, code int, name, title string, data interface{}) error {
	flashes, err := sess.flashes(ctx)
	if err != nil {
		return err
	}
	return ctx.Render(code, name, pageData{Title: title, Flashes: flashes, Data: data})
}

// flashAndRedirect stores msg for the next page and redirects to `to`.
func flashAndRedirect(ctx echo.Context, sess *sessionStore, to, msg string) error {
	if err := sess.flash(ctx, msg); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusFound, to)
}

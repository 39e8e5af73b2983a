package handler

import (
	"net/http"

	"dance-storefront/internal/middleware"
	"dance-storefront/internal/view"
)

// pageBase is shared by the HTML handlers.
type pageBase struct {
	renderer *view.Renderer
	flash    *Flash
	metrics  *middleware.Metrics
}

func (b pageBase) render(w http.ResponseWriter, r *http.Request, status int, name string, page view.Page) {
	page.Session = middleware.SessionFromContext(r.Context()).View()
	page.Path = r.URL.Path
	if b.flash != nil && page.Flash == "" {
		page.Flash = b.flash.Pop(w, r)
	}
	b.renderer.Render(w, status, name, page)
}

func (b pageBase) notFound(w http.ResponseWriter, r *http.Request) {
	b.render(w, r, http.StatusNotFound, "not_found", view.Page{Title: "No encontrado"})
}

func (b pageBase) addFlash(w http.ResponseWriter, r *http.Request, message string) {
	if b.flash != nil {
		b.flash.Add(w, r, message)
	}
}

// seeOther redirects after a form submission or to a login page.
func seeOther(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

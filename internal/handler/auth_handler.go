package handler

import (
	"errors"
	"net/http"
	"strings"

	"dance-storefront/internal/middleware"
	"dance-storefront/internal/service"
	"dance-storefront/internal/util"
	"dance-storefront/internal/view"
	"dance-storefront/pkg/apierror"
)

const unavailableMessage = "No pudimos conectar con el servidor. Intenta nuevamente en unos minutos."

type authFormData struct {
	Redirect   string
	Identifier string
	Username   string
	Email      string
}

type AuthHandler struct {
	pageBase
	service  *service.AuthService
	sessions *middleware.SessionMiddleware
}

func NewAuthHandler(renderer *view.Renderer, flash *Flash, metrics *middleware.Metrics, service *service.AuthService, sessions *middleware.SessionMiddleware) *AuthHandler {
	return &AuthHandler{
		pageBase: pageBase{renderer: renderer, flash: flash, metrics: metrics},
		service:  service,
		sessions: sessions,
	}
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromContext(r.Context()).Authenticated() {
		seeOther(w, r, util.SafeRedirect(r.URL.Query().Get("redirect"), "/mi-cuenta"))
		return
	}

	data := authFormData{Redirect: util.SafeRedirect(r.URL.Query().Get("redirect"), "")}
	h.render(w, r, http.StatusOK, "login", view.Page{Title: "Ingresar", Data: data})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	data := authFormData{
		Redirect:   util.SafeRedirect(r.URL.Query().Get("redirect"), ""),
		Identifier: strings.TrimSpace(r.PostFormValue("identifier")),
	}

	session, err := h.service.Login(r.Context(), data.Identifier, r.PostFormValue("password"))
	if err != nil {
		h.metrics.Outcome("login", "failure")
		h.render(w, r, statusForAuthError(err), "login", view.Page{Title: "Ingresar", Error: authErrorMessage(err), Data: data})
		return
	}

	h.metrics.Outcome("login", "success")
	h.sessions.SetToken(w, session.Token())
	h.addFlash(w, r, "¡Hola, "+session.User().Username+"!")
	seeOther(w, r, util.SafeRedirect(data.Redirect, "/"))
}

func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromContext(r.Context()).Authenticated() {
		seeOther(w, r, util.SafeRedirect(r.URL.Query().Get("redirect"), "/mi-cuenta"))
		return
	}

	data := authFormData{Redirect: util.SafeRedirect(r.URL.Query().Get("redirect"), "")}
	h.render(w, r, http.StatusOK, "register", view.Page{Title: "Crear cuenta", Data: data})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	data := authFormData{
		Redirect: util.SafeRedirect(r.URL.Query().Get("redirect"), ""),
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
	}

	session, err := h.service.Register(r.Context(), data.Username, data.Email, r.PostFormValue("password"))
	if err != nil {
		h.metrics.Outcome("register", "failure")
		h.render(w, r, statusForAuthError(err), "register", view.Page{Title: "Crear cuenta", Error: authErrorMessage(err), Data: data})
		return
	}

	h.metrics.Outcome("register", "success")
	h.sessions.SetToken(w, session.Token())
	h.addFlash(w, r, "¡Bienvenido, "+session.User().Username+"! Tu cuenta fue creada.")
	seeOther(w, r, util.SafeRedirect(data.Redirect, "/"))
}

// Logout anonymizes the request session, forgets the token and sends the
// browser to the home page with a full navigation.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r.Context(), middleware.SessionFromContext(r.Context()))
	h.sessions.ClearToken(w)
	h.metrics.Outcome("logout", "success")
	h.addFlash(w, r, "Cerraste sesión.")
	seeOther(w, r, "/")
}

// authErrorMessage shows backend and validation messages verbatim; transport
// and payload failures get a generic message.
func authErrorMessage(err error) string {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case apierror.KindAuth, apierror.KindInvalid:
			return apiErr.Message
		}
	}
	return unavailableMessage
}

func statusForAuthError(err error) int {
	switch apierror.KindOf(err) {
	case apierror.KindAuth:
		return http.StatusUnauthorized
	case apierror.KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

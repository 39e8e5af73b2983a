package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"dance-storefront/internal/middleware"
	"dance-storefront/internal/model"
	"dance-storefront/internal/service"
	"dance-storefront/internal/util"
	"dance-storefront/internal/view"
	"dance-storefront/pkg/apierror"
)

const recentActivityLimit = 5

type homeData struct {
	Featured []service.ClassCard
}

type purchaseCard struct {
	Slug      string
	Title     string
	Thumbnail string
}

type accountData struct {
	User      *model.User
	Purchases []purchaseCard
	Activity  []model.AuditEntry
}

type resultData struct {
	Status  string
	Heading string
	Message string
}

var checkoutResults = map[string]resultData{
	"success": {Status: "success", Heading: "¡Pago aprobado!", Message: "Tu clase ya está disponible en tu cuenta. Puede tardar unos minutos en aparecer."},
	"failure": {Status: "failure", Heading: "El pago no se pudo completar", Message: "No se realizó ningún cobro. Puedes intentarlo nuevamente."},
	"pending": {Status: "pending", Heading: "Pago pendiente", Message: "Estamos esperando la confirmación del pago. Te avisaremos cuando se acredite."},
}

type PageHandler struct {
	pageBase
	catalog  *service.CatalogService
	watch    *service.WatchService
	checkout *service.CheckoutService
	audit    *service.AuditService
}

func NewPageHandler(renderer *view.Renderer, flash *Flash, metrics *middleware.Metrics, catalog *service.CatalogService, watch *service.WatchService, checkout *service.CheckoutService, audit *service.AuditService) *PageHandler {
	return &PageHandler{
		pageBase: pageBase{renderer: renderer, flash: flash, metrics: metrics},
		catalog:  catalog,
		watch:    watch,
		checkout: checkout,
		audit:    audit,
	}
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	featured := h.catalog.Featured(r.Context(), session)

	h.render(w, r, http.StatusOK, "home", view.Page{Data: homeData{Featured: featured}})
}

func (h *PageHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	page := h.catalog.List(r.Context(), session, r.URL.Query().Get("nivel"))

	h.render(w, r, http.StatusOK, "catalog", view.Page{Title: "Clases", Data: page})
}

func (h *PageHandler) ClassDetail(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	detail, err := h.catalog.Detail(r.Context(), session, chi.URLParam(r, "slug"))
	if err != nil {
		h.notFound(w, r)
		return
	}

	h.render(w, r, http.StatusOK, "detail", view.Page{Title: detail.Class.Title, Data: detail})
}

func (h *PageHandler) Watch(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	result := h.watch.Evaluate(r.Context(), session, chi.URLParam(r, "slug"))
	h.metrics.Outcome("watch", string(result.State))

	switch result.State {
	case service.WatchRedirectLogin:
		seeOther(w, r, result.RedirectURL)
	case service.WatchUnlocked:
		h.render(w, r, http.StatusOK, "watch", view.Page{Title: result.Class.Title, Data: result})
	case service.WatchLocked:
		h.render(w, r, http.StatusForbidden, "watch", view.Page{Title: result.Class.Title, Data: result})
	default:
		h.notFound(w, r)
	}
}

func (h *PageHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	h.renderCheckout(w, r, h.checkout.Prepare(r.Context(), session, r.URL.Query().Get("product")))
}

// StartPayment handles the explicit pay action. Failures re-render the
// summary with the error so the user can retry.
func (h *PageHandler) StartPayment(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	checkoutView, _ := h.checkout.CreatePreference(r.Context(), session, r.URL.Query().Get("product"))
	h.renderCheckout(w, r, checkoutView)
}

func (h *PageHandler) renderCheckout(w http.ResponseWriter, r *http.Request, checkoutView service.CheckoutView) {
	h.metrics.Outcome("checkout", string(checkoutView.State))

	switch checkoutView.State {
	case service.CheckoutRedirectLogin:
		seeOther(w, r, checkoutView.RedirectURL)
	case service.CheckoutNotFound:
		h.notFound(w, r)
	case service.CheckoutFailed:
		h.render(w, r, http.StatusBadGateway, "checkout", view.Page{Title: "Finalizar compra", Data: checkoutView})
	default:
		h.render(w, r, http.StatusOK, "checkout", view.Page{Title: "Finalizar compra", Data: checkoutView})
	}
}

func (h *PageHandler) CheckoutResult(w http.ResponseWriter, r *http.Request) {
	result, ok := checkoutResults[chi.URLParam(r, "status")]
	if !ok {
		h.notFound(w, r)
		return
	}

	h.metrics.Outcome("payment_return", result.Status)
	h.render(w, r, http.StatusOK, "checkout_result", view.Page{Title: result.Heading, Data: result})
}

func (h *PageHandler) Account(w http.ResponseWriter, r *http.Request) {
	user := middleware.SessionFromContext(r.Context()).User()
	if user == nil {
		seeOther(w, r, util.LoginRedirect(r.URL.RequestURI()))
		return
	}

	purchases := make([]purchaseCard, 0, len(user.PurchasedClasses))
	for _, ref := range service.DedupePurchases(user.PurchasedClasses) {
		if strings.TrimSpace(ref.Slug) == "" {
			continue
		}
		purchases = append(purchases, purchaseCard{
			Slug:      ref.Slug,
			Title:     ref.Title,
			Thumbnail: util.FirstThumbnail(ref.ThumbnailURL, ref.ExternalVideoRef),
		})
	}

	data := accountData{
		User:      user,
		Purchases: purchases,
		Activity:  h.audit.Recent(r.Context(), user.ID, recentActivityLimit),
	}

	h.render(w, r, http.StatusOK, "account", view.Page{Title: "Mi cuenta", Data: data})
}

func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	if middleware.WantsJSON(r) {
		writeError(w, apierror.New("NOT_FOUND", "resource not found", r.URL.Path, http.StatusNotFound))
		return
	}
	h.notFound(w, r)
}

func (h *PageHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if middleware.WantsJSON(r) {
		writeError(w, apierror.New("METHOD_NOT_ALLOWED", "method not allowed", r.Method, http.StatusMethodNotAllowed))
		return
	}
	h.render(w, r, http.StatusMethodNotAllowed, "error", view.Page{Title: "Algo salió mal"})
}

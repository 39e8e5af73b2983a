package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"dance-storefront/internal/model"
	"dance-storefront/pkg/apierror"
)

const (
	loginFallback    = "Error al iniciar sesión"
	registerFallback = "Error al registrarse"
)

// Login exchanges credentials for a token and the user record.
func (c *Client) Login(ctx context.Context, identifier string, password string) (AuthResult, error) {
	payload := map[string]string{"identifier": identifier, "password": password}
	return c.authenticate(ctx, "/auth/local", payload, loginFallback)
}

func (c *Client) Register(ctx context.Context, username string, email string, password string) (AuthResult, error) {
	payload := map[string]string{"username": username, "email": email, "password": password}
	return c.authenticate(ctx, "/auth/local/register", payload, registerFallback)
}

func (c *Client) authenticate(ctx context.Context, path string, payload any, fallback string) (AuthResult, error) {
	var raw json.RawMessage
	if err := c.Post(ctx, path, payload, "", &raw); err != nil {
		var apiErr *apierror.APIError
		if !errors.As(err, &apiErr) || UpstreamStatus(err) == 0 {
			return AuthResult{}, err
		}

		message, ok := BackendMessage(err)
		if !ok {
			message = fallback
		}
		return AuthResult{}, apierror.Wrap(apierror.KindAuth, "AUTH_FAILED", message, http.StatusUnauthorized, err).
			WithDetails(apiErr.Details)
	}

	return parseAuth(raw, c.baseURL, fallback)
}

// Me fetches the user that owns token, including purchase references.
func (c *Client) Me(ctx context.Context, token string) (*model.User, error) {
	query := Params{
		"populate": Params{
			"purchased_clases": Params{
				"populate": []string{"thumbnail"},
			},
		},
	}

	var raw json.RawMessage
	if err := c.Get(ctx, "/users/me", query, token, &raw); err != nil {
		return nil, err
	}

	return ParseUser(raw, c.baseURL)
}

type ListParams struct {
	Limit int
	Sort  []string
}

// ListClasses returns classes sorted as requested (newest first by default).
func (c *Client) ListClasses(ctx context.Context, params ListParams) ([]model.Class, error) {
	sortBy := params.Sort
	if len(sortBy) == 0 {
		sortBy = []string{"createdAt:desc"}
	}

	query := Params{
		"populate": "*",
		"sort":     sortBy,
	}
	if params.Limit > 0 {
		query["pagination"] = Params{"limit": params.Limit}
	}

	var raw json.RawMessage
	if err := c.Get(ctx, "/clases", query, "", &raw); err != nil {
		return nil, err
	}

	return ParseClassList(raw, c.baseURL)
}

// FeaturedClasses returns the limit most recently created classes.
func (c *Client) FeaturedClasses(ctx context.Context, limit int) ([]model.Class, error) {
	if limit <= 0 {
		limit = 3
	}
	return c.ListClasses(ctx, ListParams{Limit: limit, Sort: []string{"createdAt:desc"}})
}

// FindClassBySlug returns the first class whose slug equals slug, or
// model.ErrClassNotFound.
func (c *Client) FindClassBySlug(ctx context.Context, slug string) (*model.Class, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, model.ErrClassNotFound
	}

	query := Params{
		"filters": Params{
			"slug": Params{"$eq": slug},
		},
		"populate": "*",
	}

	var raw json.RawMessage
	if err := c.Get(ctx, "/clases", query, "", &raw); err != nil {
		return nil, err
	}

	classes, err := ParseClassList(raw, c.baseURL)
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, model.ErrClassNotFound
	}

	return &classes[0], nil
}

// CreatePreference asks the backend to open a payment intent for documentID.
func (c *Client) CreatePreference(ctx context.Context, token string, documentID string) (model.PaymentPreference, error) {
	var raw json.RawMessage
	if err := c.Post(ctx, "/payment/preference", map[string]string{"claseId": documentID}, token, &raw); err != nil {
		return model.PaymentPreference{}, err
	}

	return parsePreference(raw)
}

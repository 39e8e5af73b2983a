package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"dance-storefront/internal/model"
	"dance-storefront/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		// Upstream details name internal URLs; they stay in the logs.
		switch apiErr.Kind {
		case apierror.KindTransport, apierror.KindStatus, apierror.KindMalformed:
			slog.Warn("backend error returned to client", "code", apiErr.Code, "error", err)
		default:
			body.Details = apiErr.Details
		}
	} else if errors.Is(err, model.ErrClassNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Class not found"
	} else if errors.Is(err, model.ErrUnauthenticated) || errors.Is(err, model.ErrTokenRejected) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Authentication required"
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
	} else if errors.Is(err, model.ErrMediaHostNotAllowed) {
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "Media host not allowed"
	} else if errors.Is(err, model.ErrUnsupportedMedia) {
		status = http.StatusUnsupportedMediaType
		body.Code = "UNSUPPORTED_TYPE"
		body.Message = "Unsupported media type"
	} else {
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	if status < 400 {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

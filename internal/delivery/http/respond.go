package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
)

type errorBody struct {
	Error     string   `json:"error"`
	Fields    []string `json:"fields,omitempty"`
	ProductID string   `json:"product_id,omitempty"`
	Product   string   `json:"product,omitempty"`
	Available *int     `json:"available,omitempty"`
	Requested *int     `json:"requested,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}

// writeError maps domain errors to status codes. Unexpected errors are logged
// and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *entity.ValidationError
		stock      *entity.InsufficientStockError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: validation.Msg, Fields: validation.Fields})
	case errors.As(err, &stock):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:     stock.Error(),
			ProductID: stock.ProductID,
			Product:   stock.ProductName,
			Available: &stock.Available,
			Requested: &stock.Requested,
		})
	case errors.Is(err, entity.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
	case errors.Is(err, entity.ErrForbidden), errors.Is(err, entity.ErrCustomerNotApproved):
		writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
	case errors.Is(err, entity.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, entity.ErrConflict), errors.Is(err, entity.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &entity.ValidationError{Msg: "request body too large"}
		}
		return nil, &entity.ValidationError{Msg: "failed to read request body"}
	}
	return body, nil
}

func decodeJSON(r *http.Request, dst any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &entity.ValidationError{Msg: "invalid request body: " + err.Error()}
	}
	return nil
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MelannyAlzate/VinsBakery/internal/service"
)

func (h *Handler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.Customers.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(customers))
}

func (h *Handler) handleCustomerByPhone(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Customers.FindByPhone(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in service.CustomerInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.Customers.Create(r.Context(), callerFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleApproveCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Customers.Approve(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

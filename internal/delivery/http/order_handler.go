package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
)

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateJSONSchema(placeOrderLoader, body); err != nil {
		writeError(w, r, err)
		return
	}

	var cmd entity.PlaceOrder
	if err := json.Unmarshal(body, &cmd); err != nil {
		writeError(w, r, &entity.ValidationError{Msg: "invalid request body: " + err.Error()})
		return
	}

	caller := callerFrom(r.Context())
	if cmd.CustomerID == "" && caller.Role == entity.RoleCustomer {
		cmd.CustomerID = caller.CustomerID
	}

	order, err := h.svc.Orders.PlaceOrder(r.Context(), caller, &cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newOrderView(order))
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	orders, err := h.svc.Orders.ListOrders(r.Context(), callerFrom(r.Context()), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderViews(orders))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Orders.GetOrder(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderView(order))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateJSONSchema(statusUpdateLoader, body); err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, r, &entity.ValidationError{Msg: "invalid request body: " + err.Error()})
		return
	}

	order, err := h.svc.Orders.UpdateStatus(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderView(order))
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &entity.ValidationError{Fields: []string{key}, Msg: "must be an integer"}
	}
	return n, nil
}

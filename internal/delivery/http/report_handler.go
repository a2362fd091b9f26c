package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
)

func (h *Handler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	var resolved *bool
	if raw := r.URL.Query().Get("resolved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, &entity.ValidationError{Fields: []string{"resolved"}, Msg: "must be true or false"})
			return
		}
		resolved = &v
	}

	alerts, err := h.svc.Alerts.List(r.Context(), resolved)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(alerts))
}

func (h *Handler) handleScanAlerts(w http.ResponseWriter, r *http.Request) {
	opened, err := h.svc.Alerts.Scan(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"opened": opened})
}

func (h *Handler) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := h.svc.Alerts.Resolve(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Reports.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsView{
		Sales:     entity.Display(stats.Sales),
		Orders:    stats.Orders,
		Customers: stats.Customers,
		Products:  stats.Products,
	})
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := h.svc.Reports.RecentActivity(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(entries))
}

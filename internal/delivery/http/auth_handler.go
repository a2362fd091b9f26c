package http

import (
	"net/http"

	"github.com/MelannyAlzate/VinsBakery/internal/access"
	"github.com/MelannyAlzate/VinsBakery/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.svc.Auth.Register(r.Context(), callerFrom(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

type meResponse struct {
	UserID      string                         `json:"user_id"`
	Role        string                         `json:"role"`
	CustomerID  string                         `json:"customer_id,omitempty"`
	Permissions map[access.Module]access.Flags `json:"permissions"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	writeJSON(w, http.StatusOK, meResponse{
		UserID:      caller.UserID,
		Role:        string(caller.Role),
		CustomerID:  caller.CustomerID,
		Permissions: h.gate.Grants(caller.Role),
	})
}

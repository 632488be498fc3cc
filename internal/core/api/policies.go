package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/solatis/policykeeper/internal/core/auth"
	"github.com/solatis/policykeeper/internal/policy"
)

func (h *Handler) generatePolicy(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.policies.Create(r.Context(), policy.CreateRequest{
		Title:      req.Title,
		PolicyText: req.PolicyText,
		PDFBase64:  req.PDFBase64,
		Rules:      req.Rules,
		UserID:     auth.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// listPolicies filters by the userId query parameter, falling back to the
// caller identity. Anonymous callers without a filter see every policy.
func (h *Handler) listPolicies(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("userId")
	if owner != "" {
		parsed, err := auth.ParseUserID(owner)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		owner = parsed
	} else {
		owner = auth.UserIDFromContext(r.Context())
	}

	policies, err := h.policies.List(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Policies: policies})
}

func (h *Handler) getPolicy(w http.ResponseWriter, r *http.Request) {
	p, err := h.policies.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) updateChecklist(w http.ResponseWriter, r *http.Request) {
	var req checklistRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.policies.UpdateChecklist(r.Context(), chi.URLParam(r, "id"), req.Checklist)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

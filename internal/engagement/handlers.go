// internal/engagement/handlers.go
package engagement

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/imadgeboyega/kiekky-feed/internal/auth"
	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
	"github.com/imadgeboyega/kiekky-feed/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type toggleResponse struct {
	PostID string `json:"postId"`
	Active bool   `json:"active"`
}

type RecordEventRequest struct {
	Flag string `json:"flag" validate:"required"`
}

func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.ToggleLike)
}

func (h *Handler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.ToggleBookmark)
}

func (h *Handler) ToggleRepost(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.ToggleRepost)
}

func (h *Handler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req RecordEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.DomainErrorResponse(w, err)
		return
	}

	viewer := auth.ViewerFromContext(r.Context())
	postID := mux.Vars(r)["id"]
	if err := h.service.RecordPostEvent(r.Context(), viewer, postID, models.StatFlag(req.Flag)); err != nil {
		utils.DomainErrorResponse(w, err)
		return
	}

	utils.MessageResponse(w, "Event recorded", http.StatusOK)
}

type toggleFunc func(ctx context.Context, viewer models.Viewer, postID string) (bool, error)

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, fn toggleFunc) {
	viewer := auth.ViewerFromContext(r.Context())
	postID := mux.Vars(r)["id"]

	active, err := fn(r.Context(), viewer, postID)
	if err != nil {
		utils.DomainErrorResponse(w, err)
		return
	}

	utils.SuccessResponse(w, toggleResponse{PostID: postID, Active: active}, http.StatusOK)
}

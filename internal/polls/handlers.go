// internal/polls/handlers.go
package polls

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/imadgeboyega/kiekky-feed/internal/auth"
	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
	"github.com/imadgeboyega/kiekky-feed/internal/common/utils"
)

// PostReader returns the post as the viewer sees it after voting
type PostReader interface {
	GetPostByID(ctx context.Context, viewer models.Viewer, postID string) (*models.MaterializedPost, error)
}

type Handler struct {
	service Service
	posts   PostReader
}

func NewHandler(service Service, posts PostReader) *Handler {
	return &Handler{service: service, posts: posts}
}

type CastVoteRequest struct {
	OptionIdx *int `json:"optionIdx" validate:"required"`
}

func (h *Handler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req CastVoteRequest
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

	vote, err := h.service.CastVote(r.Context(), viewer, postID, *req.OptionIdx)
	if err != nil {
		utils.DomainErrorResponse(w, err)
		return
	}

	post, err := h.posts.GetPostByID(r.Context(), viewer, postID)
	if err != nil {
		log.Printf("vote recorded but post %s could not be reloaded: %v", postID, err)
		utils.SuccessResponse(w, vote, http.StatusCreated)
		return
	}
	utils.SuccessResponse(w, post, http.StatusCreated)
}

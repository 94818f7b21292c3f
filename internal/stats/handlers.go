// internal/stats/handlers.go
package stats

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/imadgeboyega/kiekky-feed/internal/auth"
	"github.com/imadgeboyega/kiekky-feed/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetStats(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.DomainErrorResponse(w, err)
		return
	}
	utils.SuccessResponse(w, summary, http.StatusOK)
}

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware.OptionalAuthenticate)

	api.HandleFunc("/posts/{id}/stats", handler.GetStats).Methods("GET")
}

// internal/engagement/routes.go
package engagement

import (
	"github.com/gorilla/mux"

	"github.com/imadgeboyega/kiekky-feed/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/posts/{id}/like", handler.ToggleLike).Methods("POST")
	api.HandleFunc("/posts/{id}/bookmark", handler.ToggleBookmark).Methods("POST")
	api.HandleFunc("/posts/{id}/repost", handler.ToggleRepost).Methods("POST")
	api.HandleFunc("/posts/{id}/events", handler.RecordEvent).Methods("POST")
}

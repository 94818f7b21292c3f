// internal/polls/routes.go
package polls

import (
	"github.com/gorilla/mux"

	"github.com/imadgeboyega/kiekky-feed/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/posts/{id}/poll/votes", handler.CastVote).Methods("POST")
}

// internal/posts/routes.go
package posts

import (
	"github.com/gorilla/mux"

	"github.com/imadgeboyega/kiekky-feed/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	public := router.PathPrefix("/api/v1").Subrouter()
	public.Use(authMiddleware.OptionalAuthenticate)
	public.HandleFunc("/posts/{id}", handler.GetPost).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware.Authenticate)

	// Fixed paths before {id}
	api.HandleFunc("/posts", handler.CreatePost).Methods("POST")
	api.HandleFunc("/posts/thread", handler.CreateThread).Methods("POST")
	api.HandleFunc("/posts/images", handler.UploadImages).Methods("POST")

	api.HandleFunc("/posts/{id}", handler.UpdatePost).Methods("PUT")
	api.HandleFunc("/posts/{id}", handler.DeletePost).Methods("DELETE")
	api.HandleFunc("/posts/{id}/replies", handler.CreateReply).Methods("POST")
	api.HandleFunc("/posts/{id}/quote", handler.QuoteOrRepost).Methods("POST")
	api.HandleFunc("/posts/{id}/pin", handler.TogglePin).Methods("POST")
}

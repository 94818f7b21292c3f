// internal/feed/handlers.go
package feed

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

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

// GetFeed serves GET /feed?creatorId=&parentPostId=&page=&limit=&sort=&fields=&includeReposts=&includePromotions=
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	params, err := parseParams(r.URL.Query())
	if err != nil {
		utils.DomainErrorResponse(w, err)
		return
	}

	items, err := h.service.QueryFeed(r.Context(), auth.ViewerFromContext(r.Context()), params)
	if err != nil {
		utils.DomainErrorResponse(w, err)
		return
	}

	if len(params.Fields) == 0 {
		utils.SuccessResponse(w, items, http.StatusOK)
		return
	}

	projected, err := Project(items, params.Fields)
	if err != nil {
		utils.DomainErrorResponse(w, err)
		return
	}
	utils.SuccessResponse(w, projected, http.StatusOK)
}

func parseParams(q url.Values) (Params, error) {
	params := Params{
		CreatorID:         q.Get("creatorId"),
		ParentPostID:      q.Get("parentPostId"),
		Sort:              q.Get("sort"),
		IncludeReposts:    q.Get("includeReposts") != "false",
		IncludePromotions: q.Get("includePromotions") != "false",
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"page", &params.Page},
		{"limit", &params.Limit},
	}
	for _, p := range ints {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, models.NewValidationError(p.name, p.name+" must be a number")
		}
		*p.dst = n
	}

	if fields := q.Get("fields"); fields != "" {
		for _, f := range strings.Split(fields, ",") {
			if f = strings.TrimSpace(f); f != "" {
				params.Fields = append(params.Fields, f)
			}
		}
	}
	return params, nil
}

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware.OptionalAuthenticate)

	api.HandleFunc("/feed", handler.GetFeed).Methods("GET")
}

package posts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/imadgeboyega/kiekky-feed/internal/auth"
	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
)

// asUser stands in for the JWT middleware: the X-User header names the viewer
func asUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer := models.Viewer{ID: r.Header.Get("X-User")}
		next.ServeHTTP(w, r.WithContext(auth.WithViewer(r.Context(), viewer)))
	})
}

func newTestRouter(h *harness) *mux.Router {
	handler := NewHandler(h.svc, nil)
	router := mux.NewRouter()
	router.Use(asUser)
	router.HandleFunc("/posts", handler.CreatePost).Methods("POST")
	router.HandleFunc("/posts/{id}", handler.GetPost).Methods("GET")
	router.HandleFunc("/posts/{id}", handler.DeletePost).Methods("DELETE")
	router.HandleFunc("/posts/{id}/quote", handler.QuoteOrRepost).Methods("POST")
	return router
}

func serve(router http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("X-User", user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env
}

func TestCreatePostHandler(t *testing.T) {
	router := newTestRouter(newHarness())

	tests := []struct {
		name   string
		user   string
		body   string
		status int
	}{
		{"created", "alice", `{"text":"hello"}`, http.StatusCreated},
		{"malformed json", "alice", `{"text":`, http.StatusBadRequest},
		{"bad audience", "alice", `{"text":"hi","audience":"friends"}`, http.StatusBadRequest},
		{"bad image url", "alice", `{"images":["not a url"]}`, http.StatusBadRequest},
		{"empty post", "alice", `{}`, http.StatusBadRequest},
		{"anonymous", "", `{"text":"hi"}`, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodPost, "/posts", tt.user, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetAndDeletePostHandler(t *testing.T) {
	h := newHarness()
	router := newTestRouter(h)

	draft, err := h.svc.CreatePost(context.Background(), alice, &CreatePostRequest{Text: "secret", IsDraft: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if rec := serve(router, http.MethodGet, "/posts/"+draft.ID, "bob", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected drafts hidden from others, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodDelete, "/posts/"+draft.ID, "bob", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec := serve(router, http.MethodDelete, "/posts/"+draft.ID, "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodDelete, "/posts/"+draft.ID, "alice", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestQuoteOrRepostHandler(t *testing.T) {
	h := newHarness()
	router := newTestRouter(h)

	original, err := h.svc.CreatePost(context.Background(), alice, &CreatePostRequest{Text: "original"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := serve(router, http.MethodPost, "/posts/"+original.ID+"/quote", "bob", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for repost, got %d: %s", rec.Code, rec.Body.String())
	}
	var repost QuoteOrRepostResult
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &repost); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if repost.Reposted == nil || !*repost.Reposted || repost.Post != nil {
		t.Fatalf("expected plain repost, got %+v", repost)
	}

	rec = serve(router, http.MethodPost, "/posts/"+original.ID+"/quote", "bob", `{"text":"so true"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for quote, got %d: %s", rec.Code, rec.Body.String())
	}
	var quote QuoteOrRepostResult
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &quote); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if quote.Post == nil || quote.Post.QuotedPostID == nil || *quote.Post.QuotedPostID != original.ID {
		t.Fatalf("expected quote of %s, got %+v", original.ID, quote.Post)
	}
}

// internal/posts/handlers.go
package posts

import (
	"encoding/json"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/imadgeboyega/kiekky-feed/internal/auth"
	"github.com/imadgeboyega/kiekky-feed/internal/common/utils"
)

// ImageUploader stores an uploaded image and returns its URL
type ImageUploader interface {
	UploadImage(file multipart.File, header *multipart.FileHeader) (string, error)
}

type Handler struct {
	service  Service
	uploader ImageUploader
}

func NewHandler(service Service, uploader ImageUploader) *Handler {
	return &Handler{service: service, uploader: uploader}
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	post, err := h.service.CreatePost(r.Context(), auth.ViewerFromContext(r.Context()), &req)
	if err != nil {
		utils.DomainErrorResponse(w, err)
		return
	}
	utils.SuccessResponse(w, post, http.StatusCreated)
}

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	var req CreateThreadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.CreateThread(r.Context(), auth.ViewerFromContext(r.Context()), &req)
	if err != nil {
		utils.DomainErrorResponse(w, err)
		return
	}

	status := http.StatusCreated
	if len(result.Posts) == 0 {
		status = http.StatusBadRequest
	}
	utils.SuccessResponse(w, result, status)
}

func (h *Handler) CreateReply(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	post, err := h.service.CreateReply(r.Context(), auth.ViewerFromContext(r.Context()), mux.Vars(r)["id"], &req)
	if err != nil {
		utils.DomainErrorResponse(w, err)
		return
	}
	utils.SuccessResponse(w, post, http.StatusCreated)
}

// QuoteOrRepost accepts an empty body for a plain repost
func (h *Handler) QuoteOrRepost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(w, r, &req) {
			return
		}
	}

	result, err := h.service.CreateQuoteOrRepost(r.Context(), auth.ViewerFromContext(r.Context()), mux.Vars(r)["id"], &req)
	if err != nil {
		utils.DomainErrorResponse(w, err)
		return
	}

	status := http.StatusOK
	if result.Post != nil {
		status = http.StatusCreated
	}
	utils.SuccessResponse(w, result, status)
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPostByID(r.Context(), auth.ViewerFromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		utils.DomainErrorResponse(w, err)
		return
	}
	utils.SuccessResponse(w, post, http.StatusOK)
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var req UpdatePostRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	post, err := h.service.UpdatePost(r.Context(), auth.ViewerFromContext(r.Context()), mux.Vars(r)["id"], &req)
	if err != nil {
		utils.DomainErrorResponse(w, err)
		return
	}
	utils.SuccessResponse(w, post, http.StatusOK)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePost(r.Context(), auth.ViewerFromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		utils.DomainErrorResponse(w, err)
		return
	}
	utils.MessageResponse(w, "Post deleted successfully", http.StatusOK)
}

func (h *Handler) TogglePin(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["id"]
	pinned, err := h.service.TogglePin(r.Context(), auth.ViewerFromContext(r.Context()), postID)
	if err != nil {
		utils.DomainErrorResponse(w, err)
		return
	}
	utils.SuccessResponse(w, map[string]interface{}{"postId": postID, "isPinned": pinned}, http.StatusOK)
}

func (h *Handler) UploadImages(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.ErrorResponse(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		utils.ErrorResponse(w, "No images provided", http.StatusBadRequest)
		return
	}

	urls := make([]string, 0, len(files))
	for _, header := range files {
		url, err := h.uploadOne(header)
		if err != nil {
			utils.ErrorResponse(w, "Failed to upload image: "+err.Error(), http.StatusBadRequest)
			return
		}
		urls = append(urls, url)
	}
	utils.SuccessResponse(w, map[string][]string{"images": urls}, http.StatusCreated)
}

func (h *Handler) uploadOne(header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()
	return h.uploader.UploadImage(file, header)
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		utils.DomainErrorResponse(w, err)
		return false
	}
	return true
}

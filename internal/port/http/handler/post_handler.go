package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pawmates/adoption-service/internal/domain/entity"
	"github.com/pawmates/adoption-service/internal/platform/logger"
	"github.com/pawmates/adoption-service/internal/port/http/middleware"
	"github.com/pawmates/adoption-service/internal/repository"
	"github.com/pawmates/adoption-service/internal/service"
)

type PostHandler struct {
	posts service.PostService
	log   logger.Logger
}

func NewPostHandler(posts service.PostService, log logger.Logger) *PostHandler {
	return &PostHandler{posts: posts, log: log}
}

type createPostBody struct {
	Captions  string   `json:"captions"`
	ImageURLs []string `json:"image_urls"`
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var body createPostBody
	if !decodeBody(w, r, &body) {
		return
	}

	post, err := h.posts.Create(r.Context(), userID, body.Captions, body.ImageURLs)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetByID(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	posts, total, err := h.posts.List(r.Context(), repository.ListPostsParams{
		AuthorID: q.Get("author_id"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"posts":       postsOrEmpty(posts),
		"total_count": total,
	})
}

// ListMine handles GET /api/posts/my.
func (h *PostHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	posts, total, err := h.posts.List(r.Context(), repository.ListPostsParams{
		AuthorID: userID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"posts":       postsOrEmpty(posts),
		"total_count": total,
	})
}

// ListLoved handles GET /api/posts/loved.
func (h *PostHandler) ListLoved(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	posts, total, err := h.posts.List(r.Context(), repository.ListPostsParams{
		LovedBy:  userID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"posts":       postsOrEmpty(posts),
		"total_count": total,
	})
}

type updatePostBody struct {
	Captions  *string  `json:"captions"`
	ImageURLs []string `json:"image_urls"`
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var body updatePostBody
	if !decodeBody(w, r, &body) {
		return
	}

	post, err := h.posts.Update(r.Context(), chi.URLParam(r, "postID"), userID, service.UpdatePostInput{
		Captions:  body.Captions,
		ImageURLs: body.ImageURLs,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	if err := h.posts.Delete(r.Context(), chi.URLParam(r, "postID"), userID); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addCommentBody struct {
	Text string `json:"text"`
}

func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var body addCommentBody
	if !decodeBody(w, r, &body) {
		return
	}

	comment, err := h.posts.AddComment(r.Context(), chi.URLParam(r, "postID"), userID, body.Text)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *PostHandler) ToggleLove(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	loved, err := h.posts.ToggleLove(r.Context(), chi.URLParam(r, "postID"), userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"loved": loved})
}

func postsOrEmpty(posts []entity.Post) []entity.Post {
	if posts == nil {
		return []entity.Post{}
	}
	return posts
}

package source

import (
	"encoding/json"
	"errors"
	"net/http"

	"feedhistd/internal/handler/http/respond"
	"feedhistd/internal/usecase/catalog"
)

type CreateHandler struct{ Svc *catalog.Service }

// ServeHTTP registers a new tracked source.
// @Summary      Add a tracked source
// @Description  Registers a new feed URL for history reconstruction
// @Tags         sources
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        source body object true "source info"
// @Success      201 {object} DTO "created"
// @Failure      400 {string} string "Bad request - invalid input"
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Router       /admin/sources [post]
func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		FeedURL string `json:"feedUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" || req.FeedURL == "" {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("name and feedUrl required"))
		return
	}

	src, err := h.Svc.Create(r.Context(), catalog.CreateInput{
		Name: req.Name, FeedURL: req.FeedURL,
	})
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, catalog.ErrDuplicateSource) {
			code = http.StatusConflict
		}
		respond.SafeError(w, code, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(src))
}

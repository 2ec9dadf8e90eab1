package source

import (
	"encoding/json"
	"errors"
	"net/http"

	"feedhistd/internal/handler/http/pathutil"
	"feedhistd/internal/handler/http/respond"
	"feedhistd/internal/usecase/catalog"
)

type UpdateHandler struct{ Svc *catalog.Service }

// ServeHTTP updates an existing tracked source.
// @Summary      Update a tracked source
// @Description  Updates name, feed URL or active state of a tracked source
// @Tags         sources
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "source id"
// @Success      200 {object} DTO "updated"
// @Failure      400 {string} string "bad request"
// @Failure      401 {string} string "Authentication required"
// @Failure      404 {string} string "source not found"
// @Router       /admin/sources/{id} [patch]
func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractStringID(r.URL.Path, "/admin/sources/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Name    string `json:"name"`
		FeedURL string `json:"feedUrl"`
		Active  *bool  `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	src, err := h.Svc.Update(r.Context(), catalog.UpdateInput{
		ID: id, Name: req.Name, FeedURL: req.FeedURL,
		Active: req.Active,
	})
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, catalog.ErrSourceNotFound) {
			code = http.StatusNotFound
		}
		if errors.Is(err, catalog.ErrDuplicateSource) {
			code = http.StatusConflict
		}
		respond.SafeError(w, code, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(src))
}

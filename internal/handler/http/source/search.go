package source

import (
	"errors"
	"net/http"

	"feedhistd/internal/handler/http/respond"
	"feedhistd/internal/usecase/catalog"
)

type SearchHandler struct{ Svc *catalog.Service }

// ServeHTTP searches tracked sources by name or feed URL.
// @Summary      Search tracked sources
// @Description  Searches sources whose name or feed URL contains the given keyword
// @Tags         sources
// @Security     BearerAuth
// @Produce      json
// @Param        keyword query string true "search keyword"
// @Success      200 {array} DTO "matching sources"
// @Failure      400 {string} string "bad request"
// @Failure      401 {string} string "Authentication required"
// @Failure      500 {string} string "internal server error"
// @Router       /admin/sources/search [get]
func (h SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		respond.SafeError(w, http.StatusBadRequest, errors.New("keyword query param required"))
		return
	}

	list, err := h.Svc.Search(r.Context(), keyword)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTOs(list))
}

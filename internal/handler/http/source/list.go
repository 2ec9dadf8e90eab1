package source

import (
	"net/http"

	roothttp "feedhistd/internal/handler/http"
	"feedhistd/internal/handler/http/respond"
	"feedhistd/internal/usecase/catalog"
)

type ListHandler struct{ Svc *catalog.Service }

// ServeHTTP lists every tracked source in the catalog.
// @Summary      List tracked sources
// @Description  Returns every source this service knows to reconstruct history for
// @Tags         sources
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} DTO "source list"
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Failure      500 {string} string "internal server error"
// @Router       /admin/sources [get]
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	list, err := h.Svc.List(r.Context())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	roothttp.UpdateTrackedSourcesTotal(len(list))
	respond.JSON(w, http.StatusOK, toDTOs(list))
}

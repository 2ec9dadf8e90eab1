package source

import (
	"errors"
	"net/http"

	"feedhistd/internal/handler/http/pathutil"
	"feedhistd/internal/handler/http/respond"
	"feedhistd/internal/usecase/catalog"
)

type DeleteHandler struct{ Svc *catalog.Service }

// ServeHTTP removes a tracked source from the catalog.
// @Summary      Delete a tracked source
// @Description  Stops history reconstruction for the given source
// @Tags         sources
// @Security     BearerAuth
// @Param        id path string true "source id"
// @Success      204 "deleted"
// @Failure      400 {string} string "bad request"
// @Failure      401 {string} string "Authentication required"
// @Failure      404 {string} string "source not found"
// @Router       /admin/sources/{id} [delete]
func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractStringID(r.URL.Path, "/admin/sources/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, catalog.ErrSourceNotFound) {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

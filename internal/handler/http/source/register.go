package source

import (
	"net/http"

	"feedhistd/internal/handler/http/auth"
	"feedhistd/internal/usecase/catalog"
)

// Register wires the admin source-catalog endpoints onto mux. The entire
// /admin/sources surface sits behind the JWT guard - there is no
// unauthenticated read access to the catalog.
func Register(mux *http.ServeMux, svc *catalog.Service) {
	mux.Handle("GET    /admin/sources", auth.Authz(ListHandler{svc}))
	mux.Handle("GET    /admin/sources/search", auth.Authz(SearchHandler{svc}))
	mux.Handle("POST   /admin/sources", auth.Authz(CreateHandler{svc}))
	mux.Handle("PATCH  /admin/sources/", auth.Authz(UpdateHandler{svc}))
	mux.Handle("DELETE /admin/sources/", auth.Authz(DeleteHandler{svc}))
}

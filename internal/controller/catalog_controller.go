package controller

import (
	"net/http"

	"github.com/kasoamart/boostpay/internal/domain/catalog"
)

// CatalogController serves the boost package catalog.
type CatalogController struct {
	packages catalog.Repository
}

func NewCatalogController(packages catalog.Repository) *CatalogController {
	return &CatalogController{packages: packages}
}

// List handles GET /api/v1/packages
func (h *CatalogController) List(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.packages.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]*PackageResponse, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, FromPackage(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"packages": out})
}

package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"exporthub/pkg/types"
)

// apiOrganizations lists organization folders.
//
// @Summary      List organizations
// @Description  Top-level folder names under the configs root, sorted.
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  types.OrganizationsResponse
// @Router       /api/organizations [get]
func (s *server) apiOrganizations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.OrganizationsResponse{Organizations: s.svc.Organizations()})
}

// apiOrganizationModels lists the cards whose effective organization matches.
//
// @Summary      Models of an organization
// @Description  Cards stored in the folder come first, then cards claimed from other folders. With limit, only the first entries are returned.
// @Tags         catalog
// @Produce      json
// @Param        organization  path      string  true   "Organization"
// @Param        limit         query     int     false  "Maximum number of models (positive)"
// @Success      200  {object}  types.OrganizationModelsResponse
// @Failure      400  {object}  types.ErrorResponse
// @Failure      404  {object}  types.ErrorResponse
// @Router       /api/organizations/{organization}/models [get]
func (s *server) apiOrganizationModels(w http.ResponseWriter, r *http.Request) {
	org := pathParam(r, "organization")
	var models []types.ModelCard
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		models = s.svc.TopModels(org, limit)
	} else {
		models = s.svc.ModelsByOrganization(org)
	}
	if len(models) == 0 {
		writeJSONError(w, http.StatusNotFound, orgNotFoundMessage(org))
		return
	}
	writeJSON(w, http.StatusOK, types.OrganizationModelsResponse{Organization: org, Models: models})
}

// apiCatalog returns every card bucketed by effective organization.
//
// @Summary      Full catalog
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  types.CatalogResponse
// @Router       /api/catalog [get]
func (s *server) apiCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.CatalogResponse{Organizations: s.svc.AllModelsByOrganization()})
}

// apiModel returns one card by its physical location.
//
// @Summary      Get a model card
// @Description  Looks up <configs>/<organization>/<modelID>.json. Identity fields inside other cards do not affect this lookup.
// @Tags         catalog
// @Produce      json
// @Param        organization  path  string  true  "Organization folder"
// @Param        modelID       path  string  true  "Card file name without .json"
// @Success      200  {object}  types.ModelCard
// @Failure      404  {object}  types.ErrorResponse
// @Router       /api/models/{organization}/{modelID} [get]
func (s *server) apiModel(w http.ResponseWriter, r *http.Request) {
	org, id := pathParam(r, "organization"), pathParam(r, "modelID")
	card, err := s.svc.Model(org, id)
	if err != nil {
		status := statusFor(err)
		msg := err.Error()
		if status == http.StatusNotFound {
			msg = modelNotFoundMessage(org, id)
		}
		writeJSONError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// apiScan reports the health of the most recent scan.
//
// @Summary      Scan report
// @Description  Folder and file counts, skipped files with reasons, and notices such as duplicate model ids.
// @Tags         operations
// @Produce      json
// @Success      200  {object}  types.ScanReport
// @Router       /api/scan [get]
func (s *server) apiScan(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Report())
}

func orgNotFoundMessage(org string) string {
	return fmt.Sprintf("Organization '%s' not found or has no models", org)
}

func modelNotFoundMessage(org, id string) string {
	return fmt.Sprintf("Model card '%s' in organization '%s' not found", id, org)
}

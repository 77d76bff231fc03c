package types

// OrganizationsResponse is returned by GET /api/organizations.
type OrganizationsResponse struct {
	// Organization folder names, sorted.
	// example: ["Acme","Globex"]
	Organizations []string `json:"organizations" example:"Acme,Globex"`
}

// OrganizationModelsResponse is returned by GET /api/organizations/{organization}/models.
type OrganizationModelsResponse struct {
	// example: Acme
	Organization string `json:"organization" example:"Acme"`
	// Cards whose effective organization matches.
	Models []ModelCard `json:"models"`
}

// CatalogResponse is returned by GET /api/catalog.
type CatalogResponse struct {
	// Cards bucketed by effective organization.
	Organizations map[string][]ModelCard `json:"organizations"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: model card not found: Acme/widget
	Error string `json:"error" example:"model card not found: Acme/widget"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}

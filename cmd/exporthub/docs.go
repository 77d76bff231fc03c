package main

// General API documentation for swaggo. Regenerate docs/ with
// `swag init -g cmd/exporthub/docs.go -o docs`.
//
// @title           exporthub API
// @version         1.0
// @description     Read-only catalog of exported model cards, grouped by organization.
//
// @contact.name   exporthub maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http

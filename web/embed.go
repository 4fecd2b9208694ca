package web

import (
	"embed"
	"log"
)

//go:embed openapi.yaml
var content embed.FS

// OpenAPI returns the OpenAPI document describing the REST API.
func OpenAPI() []byte {
	data, err := content.ReadFile("openapi.yaml")
	if err != nil {
		log.Fatalf("failed to read embedded OpenAPI document: %v", err)
	}
	return data
}

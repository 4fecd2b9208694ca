package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

type openAPIDoc struct {
	OpenAPI string                                `yaml:"openapi"`
	Paths   map[string]map[string]yaml.MapSlice `yaml:"paths"`
}

func TestOpenAPIDocumentsRoutes(t *testing.T) {
	var doc openAPIDoc
	require.NoError(t, yaml.Unmarshal(OpenAPI(), &doc))
	assert.Equal(t, "3.0.3", doc.OpenAPI)

	routes := map[string][]string{
		"/api/drinks":                                    {"get", "post"},
		"/api/drinks/{id}":                               {"get"},
		"/api/drinks/{id}/pictures":                      {"post"},
		"/api/drinks/{id}/pictures/{pictureId}/thumbnail": {"get"},
		"/api/drinks/{id}/reviews":                       {"get", "post"},
		"/uploads/{file}":                                {"get"},
	}
	for path, methods := range routes {
		ops, ok := doc.Paths[path]
		require.True(t, ok, "missing path %s", path)
		for _, m := range methods {
			assert.Contains(t, ops, m, "%s %s", m, path)
		}
	}
}

package router

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The served OpenAPI document must stay valid and describe every route the
// routers install.
func TestOpenAPIDocumentMatchesRoutes(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("../../../public/docs/v1/openapi.yml")
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	for _, path := range []string{
		"/payments/payanyway/notify",
		"/payments/payanyway/legacy",
		"/api/v1/packages",
		"/health",
	} {
		item := doc.Paths.Find(path)
		assert.NotNilf(t, item, "path %s is missing from the OpenAPI document", path)
	}

	notify := doc.Paths.Find("/payments/payanyway/notify")
	require.NotNil(t, notify)
	require.NotNil(t, notify.Post)
	assert.NotNil(t, notify.Post.RequestBody, "webhook must document its form body")
}

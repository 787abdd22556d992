package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webcore/internal/domain"
	"webcore/internal/webapi"
	"webcore/internal/webapi/adapter/catalog"
)

var _ webapi.MessageResolver = (*catalog.Catalog)(nil)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewCopiesInput(t *testing.T) {
	src := map[int]string{1: "sign in"}
	c := catalog.New(src)
	src[1] = "changed"

	assert.Equal(t, "sign in", c.Message(context.Background(), 1))
}

func TestUnknownCodeIsEmpty(t *testing.T) {
	c := catalog.Default()

	assert.Empty(t, c.Message(context.Background(), 999))
	assert.Empty(t, c.Message(context.Background(), domain.CodeUnclassified))
}

func TestDefaultCoversRaisedCodes(t *testing.T) {
	c := catalog.Default()

	for _, code := range []int{
		domain.CodeUnauthorizedRequest,
		domain.CodeForbiddenRequest,
		domain.CodeRateLimited,
		domain.CodeInvalidRequest,
		domain.CodeResourceNotFound,
		domain.CodeInvalidCredentials,
	} {
		assert.NotEmpty(t, c.Message(context.Background(), code), "code %d", code)
	}
}

func TestLoadYAMLOverridesBase(t *testing.T) {
	path := writeFile(t, "messages.yaml", `
messages:
  "1": "Bitte melden Sie sich an."
  "100": "Custom code."
`)

	c, err := catalog.Load(path, catalog.Default())
	require.NoError(t, err)

	ctx := context.Background()
	assert.Equal(t, "Bitte melden Sie sich an.", c.Message(ctx, 1))
	assert.Equal(t, "Custom code.", c.Message(ctx, 100))
	assert.Equal(t, catalog.Default().Message(ctx, 2), c.Message(ctx, 2))
}

func TestLoadJSONWithoutBase(t *testing.T) {
	path := writeFile(t, "messages.json", `{"messages": {"2": "Nope."}}`)

	c, err := catalog.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "Nope.", c.Message(context.Background(), 2))
}

func TestLoadRejectsNonNumericKey(t *testing.T) {
	path := writeFile(t, "messages.yaml", "messages:\n  unauthorized: \"x\"\n")

	_, err := catalog.Load(path, nil)

	assert.ErrorContains(t, err, "not an error code")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := catalog.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)

	assert.Error(t, err)
}

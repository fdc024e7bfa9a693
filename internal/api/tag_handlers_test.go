package api

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
)

func tagPath(id int64) string {
	return "/api/v1/tags/" + strconv.FormatInt(id, 10)
}

func TestTags_CreateNormalizes(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/tags", ts.authHeader(t, 1), map[string]any{"name": "  fire & ice "})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	env := decodeEnvelope[domain.Tag](t, resp)
	assert.Equal(t, "Fire Ice", env.Data.Name)
	assert.Equal(t, "fire-ice", env.Data.Slug)
}

func TestTags_DuplicateSlugConflict(t *testing.T) {
	ts := setupTestServer(t)
	auth1 := ts.authHeader(t, 1)

	resp := ts.api.Post("/api/v1/tags", auth1, map[string]any{"name": "Fire Ice"})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.api.Post("/api/v1/tags", auth1, map[string]any{"name": "fire-ice"})
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "ALREADY_EXISTS", decodeEnvelope[any](t, resp).Code)

	// Slugs are unique per owner only.
	resp = ts.api.Post("/api/v1/tags", ts.authHeader(t, 2), map[string]any{"name": "Fire Ice"})
	assert.Equal(t, http.StatusCreated, resp.Code)
}

func TestTags_InvalidName(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/tags", ts.authHeader(t, 1), map[string]any{"name": "&&&"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decodeEnvelope[any](t, resp).Code)
}

func TestTags_ListAndSearch(t *testing.T) {
	ts := setupTestServer(t)
	auth1 := ts.authHeader(t, 1)
	for _, name := range []string{"Faith", "Family", "Grace"} {
		resp := ts.api.Post("/api/v1/tags", auth1, map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, resp.Code)
	}

	resp := ts.api.Get("/api/v1/tags", auth1)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decodeEnvelope[ListTagsResponse](t, resp).Data.Tags, 3)

	resp = ts.api.Get("/api/v1/tags/search/fa", auth1)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	tags := decodeEnvelope[ListTagsResponse](t, resp).Data.Tags
	require.Len(t, tags, 2)
	assert.Equal(t, "Faith", tags[0].Name)
	assert.Equal(t, "Family", tags[1].Name)

	resp = ts.api.Get("/api/v1/tags", ts.authHeader(t, 2))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decodeEnvelope[ListTagsResponse](t, resp).Data.Tags)
}

func TestTags_RenameAndDelete(t *testing.T) {
	ts := setupTestServer(t)
	auth1 := ts.authHeader(t, 1)

	resp := ts.api.Post("/api/v1/tags", auth1, map[string]any{"name": "Hope"})
	require.Equal(t, http.StatusCreated, resp.Code)
	tag := decodeEnvelope[domain.Tag](t, resp).Data

	resp = ts.api.Patch(tagPath(tag.ID), auth1, map[string]any{"name": "great hope"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	renamed := decodeEnvelope[domain.Tag](t, resp).Data
	assert.Equal(t, "Great Hope", renamed.Name)
	assert.Equal(t, "great-hope", renamed.Slug)

	resp = ts.api.Get(tagPath(tag.ID), ts.authHeader(t, 2))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Delete(tagPath(tag.ID), auth1)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get(tagPath(tag.ID), auth1)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestTags_ListIllustrationsByName(t *testing.T) {
	ts := setupTestServer(t)
	auth1 := ts.authHeader(t, 1)

	tagged := ts.createIllustration(t, 1, "Burning Bush", "Fire", "Fire & Ice")
	ts.createIllustration(t, 1, "Still Water", "Calm", "Peace")
	ts.createIllustration(t, 2, "Other Owner", "Fire", "fire-ice")

	resp := ts.api.Get("/api/v1/tags/name/fire-ice/illustrations", auth1)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	got := decodeEnvelope[ListIllustrationsResponse](t, resp).Data
	require.Len(t, got.Illustrations, 1)
	assert.Equal(t, tagged.ID, got.Illustrations[0].ID)
	assert.Equal(t, 20, got.Limit)

	resp = ts.api.Get("/api/v1/tags/name/hope/illustrations", auth1)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

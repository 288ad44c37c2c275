package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"agora/internal/models"
	"agora/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCategories(t *testing.T) {
	t.Parallel()

	app, _, db := newTestApp(t)
	seedCategory(t, db, "General", "general")
	seedCategory(t, db, "Help", "help")

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var categories []models.Category
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&categories))
	assert.Len(t, categories, 2)
}

func TestGetDiscussions(t *testing.T) {
	t.Parallel()

	app, _, db := newTestApp(t)
	author := seedUser(t, db, "author", false)
	category := seedCategory(t, db, "General", "general")
	seedDiscussion(t, db, author.ID, category.ID, models.DiscussionNormal)
	seedDiscussion(t, db, author.ID, category.ID, models.DiscussionNormal)
	seedDiscussion(t, db, author.ID, category.ID, models.DiscussionHidden)

	t.Run("lists visible discussions", func(t *testing.T) {
		url := fmt.Sprintf("/api/discussions?categoryId=%d", category.ID)
		req := httptest.NewRequest(http.MethodGet, url, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var discussions []models.Discussion
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&discussions))
		assert.Len(t, discussions, 2)
	})

	t.Run("missing categoryId", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/discussions", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown category", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/discussions?categoryId=999", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestGetDiscussion_Visibility(t *testing.T) {
	t.Parallel()

	app, _, db := newTestApp(t)
	owner := seedUser(t, db, "owner", false)
	admin := seedUser(t, db, "mod", true)
	stranger := seedUser(t, db, "stranger", false)
	category := seedCategory(t, db, "General", "general")
	hidden := seedDiscussion(t, db, owner.ID, category.ID, models.DiscussionHidden)

	get := func(t *testing.T, header string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/discussions/%d", hidden.ID), nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("anonymous gets 404", func(t *testing.T) {
		resp := get(t, "")
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("stranger gets 404", func(t *testing.T) {
		resp := get(t, authHeader(t, stranger.ID))
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("owner sees it", func(t *testing.T) {
		resp := get(t, authHeader(t, owner.ID))
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var detail service.DiscussionDetail
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
		assert.Equal(t, hidden.ID, detail.Discussion.ID)
	})

	t.Run("admin sees it", func(t *testing.T) {
		resp := get(t, authHeader(t, admin.ID))
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("read does not bump view count", func(t *testing.T) {
		var got models.Discussion
		require.NoError(t, db.First(&got, hidden.ID).Error)
		assert.Zero(t, got.ViewCount)
	})
}

func TestGetDiscussionByCode(t *testing.T) {
	t.Parallel()

	app, _, db := newTestApp(t)
	author := seedUser(t, db, "author", false)
	category := seedCategory(t, db, "General", "general")
	discussion := seedDiscussion(t, db, author.ID, category.ID, models.DiscussionNormal)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/discussions/byCode/"+discussion.Code, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var detail service.DiscussionDetail
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
		assert.Equal(t, discussion.ID, detail.Discussion.ID)
	})

	t.Run("unknown code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/discussions/byCode/no-such-code", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCreateDiscussionEndpoint(t *testing.T) {
	t.Parallel()

	app, _, db := newTestApp(t)
	author := seedUser(t, db, "author", false)
	category := seedCategory(t, db, "General", "general")

	post := func(t *testing.T, header string, body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/discussions", bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("requires auth", func(t *testing.T) {
		resp := post(t, "", `{"category_id":1,"title":"T","content":"C"}`)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("creates and sanitizes", func(t *testing.T) {
		body := fmt.Sprintf(`{"category_id":%d,"title":"Hello","content":"Hi<script>alert(1)</script>"}`, category.ID)
		resp := post(t, authHeader(t, author.ID), body)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var detail service.DiscussionDetail
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
		assert.NotEmpty(t, detail.Discussion.Code)
		assert.NotContains(t, detail.Discussion.Content, "<script>")
		assert.Equal(t, models.DiscussionNormal, detail.Discussion.State)
	})

	t.Run("non-admin cannot create hidden", func(t *testing.T) {
		body := fmt.Sprintf(`{"category_id":%d,"title":"T","content":"C","state":"Hidden"}`, category.ID)
		resp := post(t, authHeader(t, author.ID), body)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("unknown category", func(t *testing.T) {
		resp := post(t, authHeader(t, author.ID), `{"category_id":999,"title":"T","content":"C"}`)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestIncrementViewCountEndpoint(t *testing.T) {
	t.Parallel()

	app, _, db := newTestApp(t)
	author := seedUser(t, db, "author", false)
	category := seedCategory(t, db, "General", "general")
	discussion := seedDiscussion(t, db, author.ID, category.ID, models.DiscussionNormal)

	t.Run("increments", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			url := fmt.Sprintf("/api/discussions/%d/increment-view-count", discussion.ID)
			req := httptest.NewRequest(http.MethodPost, url, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			_ = resp.Body.Close()
		}

		var got models.Discussion
		require.NoError(t, db.First(&got, discussion.ID).Error)
		assert.EqualValues(t, 3, got.ViewCount)
	})

	t.Run("unknown discussion", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/discussions/999/increment-view-count", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestToggleEndpoints(t *testing.T) {
	t.Parallel()

	app, _, db := newTestApp(t)
	author := seedUser(t, db, "author", false)
	admin := seedUser(t, db, "mod", true)
	category := seedCategory(t, db, "General", "general")
	discussion := seedDiscussion(t, db, author.ID, category.ID, models.DiscussionNormal)

	put := func(t *testing.T, path, header string) *http.Response {
		req := httptest.NewRequest(http.MethodPut, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	toggleTop := fmt.Sprintf("/api/discussions/%d/toggle-top", discussion.ID)
	toggleVisibility := fmt.Sprintf("/api/discussions/%d/toggle-visibility", discussion.ID)

	t.Run("non-admin forbidden", func(t *testing.T) {
		resp := put(t, toggleTop, authHeader(t, author.ID))
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin pins and unpins", func(t *testing.T) {
		resp := put(t, toggleTop, authHeader(t, admin.ID))
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got models.Discussion
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, models.DiscussionTop, got.State)

		resp2 := put(t, toggleTop, authHeader(t, admin.ID))
		defer func() { _ = resp2.Body.Close() }()
		require.Equal(t, http.StatusOK, resp2.StatusCode)
		require.NoError(t, json.NewDecoder(resp2.Body).Decode(&got))
		assert.Equal(t, models.DiscussionNormal, got.State)
	})

	t.Run("admin hides and restores", func(t *testing.T) {
		resp := put(t, toggleVisibility, authHeader(t, admin.ID))
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got models.Discussion
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, models.DiscussionHidden, got.State)

		resp2 := put(t, toggleVisibility, authHeader(t, admin.ID))
		defer func() { _ = resp2.Body.Close() }()
		require.Equal(t, http.StatusOK, resp2.StatusCode)
		require.NoError(t, json.NewDecoder(resp2.Body).Decode(&got))
		assert.Equal(t, models.DiscussionNormal, got.State)
	})
}

func TestUpdateAndDeleteDiscussionEndpoints(t *testing.T) {
	t.Parallel()

	app, _, db := newTestApp(t)
	author := seedUser(t, db, "author", false)
	stranger := seedUser(t, db, "stranger", false)
	category := seedCategory(t, db, "General", "general")
	discussion := seedDiscussion(t, db, author.ID, category.ID, models.DiscussionNormal)

	t.Run("stranger cannot edit", func(t *testing.T) {
		body := []byte(`{"title":"New","content":"Edited"}`)
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/discussions/%d", discussion.ID), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", authHeader(t, stranger.ID))
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("author edits", func(t *testing.T) {
		body := []byte(`{"title":"New title","content":"Edited content"}`)
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/discussions/%d", discussion.ID), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", authHeader(t, author.ID))
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var detail service.DiscussionDetail
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
		assert.Equal(t, "New title", detail.Discussion.Title)
	})

	t.Run("author deletes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/discussions/%d", discussion.ID), nil)
		req.Header.Set("Authorization", authHeader(t, author.ID))
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got models.Discussion
		require.NoError(t, db.First(&got, discussion.ID).Error)
		assert.Equal(t, models.DiscussionDeleted, got.State)

		// Deleted discussions vanish from public reads.
		req2 := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/discussions/%d", discussion.ID), nil)
		resp2, err := app.Test(req2)
		require.NoError(t, err)
		defer func() { _ = resp2.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
	})
}

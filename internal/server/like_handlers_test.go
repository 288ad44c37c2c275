package server

import (
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

func TestLikeDiscussionEndpoint(t *testing.T) {
	t.Parallel()

	app, _, db := newTestApp(t)
	author := seedUser(t, db, "author", false)
	fan := seedUser(t, db, "fan", false)
	admin := seedUser(t, db, "mod", true)
	category := seedCategory(t, db, "General", "general")
	discussion := seedDiscussion(t, db, author.ID, category.ID, models.DiscussionNormal)

	like := func(t *testing.T, header string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/discussions/%d/like", discussion.ID), nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("requires auth", func(t *testing.T) {
		resp := like(t, "")
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("author cannot like own discussion", func(t *testing.T) {
		resp := like(t, authHeader(t, author.ID))
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("first like succeeds", func(t *testing.T) {
		resp := like(t, authHeader(t, fan.ID))
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.LikeResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.EqualValues(t, 1, result.LikeCount)
		assert.True(t, result.HasUserLiked)
		assert.False(t, result.CanUserLike)
	})

	t.Run("second like conflicts", func(t *testing.T) {
		resp := like(t, authHeader(t, fan.ID))
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("admin likes repeatedly", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			resp := like(t, authHeader(t, admin.ID))
			require.Equal(t, http.StatusOK, resp.StatusCode)
			_ = resp.Body.Close()
		}

		var count int64
		require.NoError(t, db.Model(&models.DiscussionLike{}).
			Where("discussion_id = ? AND user_id = ?", discussion.ID, admin.ID).
			Count(&count).Error)
		assert.EqualValues(t, 3, count)
	})
}

func TestLikeCommentEndpoint(t *testing.T) {
	t.Parallel()

	app, _, db := newTestApp(t)
	author := seedUser(t, db, "author", false)
	fan := seedUser(t, db, "fan", false)
	category := seedCategory(t, db, "General", "general")
	discussion := seedDiscussion(t, db, author.ID, category.ID, models.DiscussionNormal)
	comment := seedComment(t, db, discussion.ID, author.ID, nil)

	path := fmt.Sprintf("/api/discussions/%d/comments/%d/like", discussion.ID, comment.ID)
	like := func(t *testing.T, header string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("Authorization", header)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("first like succeeds", func(t *testing.T) {
		resp := like(t, authHeader(t, fan.ID))
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.LikeResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.EqualValues(t, 1, result.LikeCount)
		assert.True(t, result.HasUserLiked)
	})

	t.Run("repeat conflicts", func(t *testing.T) {
		resp := like(t, authHeader(t, fan.ID))
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("own comment forbidden", func(t *testing.T) {
		resp := like(t, authHeader(t, author.ID))
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"agora/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedComment(t *testing.T, db *gorm.DB, discussionID, userID uint, parentID *uint) models.Comment {
	t.Helper()

	comment := models.Comment{
		DiscussionID:    discussionID,
		UserID:          userID,
		Content:         "a comment",
		State:           models.CommentNormal,
		ParentCommentID: parentID,
	}
	require.NoError(t, db.Create(&comment).Error)
	return comment
}

func TestCommentEndpoints(t *testing.T) {
	t.Parallel()

	app, _, db := newTestApp(t)
	author := seedUser(t, db, "author", false)
	replier := seedUser(t, db, "replier", false)
	category := seedCategory(t, db, "General", "general")
	discussion := seedDiscussion(t, db, author.ID, category.ID, models.DiscussionNormal)

	postJSON := func(t *testing.T, path, header, body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	commentsPath := fmt.Sprintf("/api/discussions/%d/comments", discussion.ID)

	t.Run("requires auth", func(t *testing.T) {
		resp := postJSON(t, commentsPath, "", `{"content":"hi"}`)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	var root models.Comment

	t.Run("creates root comment", func(t *testing.T) {
		resp := postJSON(t, commentsPath, authHeader(t, author.ID), `{"content":"first!"}`)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		require.NoError(t, json.NewDecoder(resp.Body).Decode(&root))
		assert.Equal(t, "first!", root.Content)
		assert.Nil(t, root.ParentCommentID)
	})

	t.Run("creates reply", func(t *testing.T) {
		path := fmt.Sprintf("%s/%d/replies", commentsPath, root.ID)
		resp := postJSON(t, path, authHeader(t, replier.ID), `{"content":"agreed"}`)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var reply models.Comment
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
		require.NotNil(t, reply.ParentCommentID)
		assert.Equal(t, root.ID, *reply.ParentCommentID)

		t.Run("reply to a reply is rejected", func(t *testing.T) {
			path := fmt.Sprintf("%s/%d/replies", commentsPath, reply.ID)
			resp := postJSON(t, path, authHeader(t, author.ID), `{"content":"nested"}`)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusConflict, resp.StatusCode)
		})
	})

	t.Run("empty content rejected", func(t *testing.T) {
		resp := postJSON(t, commentsPath, authHeader(t, author.ID), `{"content":"<script></script>"}`)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("author deletes own comment", func(t *testing.T) {
		target := seedComment(t, db, discussion.ID, author.ID, nil)

		path := fmt.Sprintf("%s/%d", commentsPath, target.ID)
		req := httptest.NewRequest(http.MethodDelete, path, nil)
		req.Header.Set("Authorization", authHeader(t, author.ID))
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got models.Comment
		require.NoError(t, db.First(&got, target.ID).Error)
		assert.Equal(t, models.CommentDeleted, got.State)
	})

	t.Run("stranger cannot delete", func(t *testing.T) {
		target := seedComment(t, db, discussion.ID, author.ID, nil)

		path := fmt.Sprintf("%s/%d", commentsPath, target.ID)
		req := httptest.NewRequest(http.MethodDelete, path, nil)
		req.Header.Set("Authorization", authHeader(t, replier.ID))
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

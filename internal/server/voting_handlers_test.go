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

func TestVotingEndpoints(t *testing.T) {
	t.Parallel()

	app, _, db := newTestApp(t)
	owner := seedUser(t, db, "owner", false)
	voter := seedUser(t, db, "voter", false)
	category := seedCategory(t, db, "General", "general")
	discussion := seedDiscussion(t, db, owner.ID, category.ID, models.DiscussionNormal)

	postJSON := func(t *testing.T, path, header string, payload any) *http.Response {
		body, err := json.Marshal(payload)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	getVoting := func(t *testing.T, header string) (*http.Response, service.VotingDetail) {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/votings/discussion/%d", discussion.ID), nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)

		var detail service.VotingDetail
		if resp.StatusCode == http.StatusOK {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
		}
		return resp, detail
	}

	t.Run("no poll yet", func(t *testing.T) {
		resp, _ := getVoting(t, "")
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	var questionIDs []uint

	t.Run("owner creates poll", func(t *testing.T) {
		payload := map[string]any{
			"discussion_id": discussion.ID,
			"state":         "Visible",
			"questions": []map[string]any{
				{"text": "Ship it now?", "display_order": 1},
				{"text": "Delay a week?", "display_order": 2},
			},
		}
		resp := postJSON(t, "/api/votings", authHeader(t, owner.ID), payload)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var detail service.VotingDetail
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
		require.Len(t, detail.Questions, 2)
		assert.Equal(t, models.PollVisible, detail.State)
		assert.Equal(t, "Ship it now?", detail.Questions[0].Text)
		for _, q := range detail.Questions {
			questionIDs = append(questionIDs, q.ID)
		}
	})

	t.Run("non-owner cannot edit poll", func(t *testing.T) {
		payload := map[string]any{
			"discussion_id": discussion.ID,
			"state":         "Visible",
			"questions":     []map[string]any{{"text": "Hijacked?", "display_order": 1}},
		}
		resp := postJSON(t, "/api/votings", authHeader(t, voter.ID), payload)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("submit requires auth", func(t *testing.T) {
		payload := map[string]any{"discussion_id": discussion.ID, "answers": map[string]bool{}}
		resp := postJSON(t, "/api/votings/submit", "", payload)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("voter submits answers", func(t *testing.T) {
		payload := map[string]any{
			"discussion_id": discussion.ID,
			"answers": map[string]bool{
				fmt.Sprint(questionIDs[0]): true,
				fmt.Sprint(questionIDs[1]): false,
			},
		}
		resp := postJSON(t, "/api/votings/submit", authHeader(t, voter.ID), payload)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var detail service.VotingDetail
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
		assert.Equal(t, 1, detail.Questions[0].YesVotes)
		assert.Equal(t, 0, detail.Questions[0].NoVotes)
		assert.Equal(t, 1, detail.Questions[1].NoVotes)
	})

	t.Run("voter sees own answers", func(t *testing.T) {
		resp, detail := getVoting(t, authHeader(t, voter.ID))
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		require.NotNil(t, detail.Questions[0].UserVote)
		assert.True(t, *detail.Questions[0].UserVote)
		require.NotNil(t, detail.Questions[1].UserVote)
		assert.False(t, *detail.Questions[1].UserVote)
	})

	t.Run("anonymous sees tallies without answers", func(t *testing.T) {
		resp, detail := getVoting(t, "")
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		assert.Equal(t, 1, detail.Questions[0].YesVotes)
		assert.Nil(t, detail.Questions[0].UserVote)
	})

	t.Run("owner closes poll via status endpoint", func(t *testing.T) {
		path := fmt.Sprintf("/api/votings/discussion/%d/status?voteType=Closed", discussion.ID)
		req := httptest.NewRequest(http.MethodPut, path, nil)
		req.Header.Set("Authorization", authHeader(t, owner.ID))
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var detail service.VotingDetail
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
		assert.Equal(t, models.PollClosed, detail.State)
	})

	t.Run("closed poll rejects votes", func(t *testing.T) {
		payload := map[string]any{
			"discussion_id": discussion.ID,
			"answers":       map[string]bool{fmt.Sprint(questionIDs[0]): false},
		}
		resp := postJSON(t, "/api/votings/submit", authHeader(t, voter.ID), payload)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("invalid voteType query", func(t *testing.T) {
		path := fmt.Sprintf("/api/votings/discussion/%d/status?voteType=Bogus", discussion.ID)
		req := httptest.NewRequest(http.MethodPut, path, nil)
		req.Header.Set("Authorization", authHeader(t, owner.ID))
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

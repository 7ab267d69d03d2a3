package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tallyBody struct {
	Yes     int `json:"yes"`
	No      int `json:"no"`
	Abstain int `json:"abstain"`
	Total   int `json:"total"`
}

func TestVoteHandler_CastAndUpdate(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createProposal(t, "Tree planting")
	path := "/api/v1/proposals/" + itoa(id) + "/votes"

	w := env.do(t, http.MethodPost, path, env.citizenToken, map[string]string{"choice": "yes"})
	assert.Equal(t, http.StatusForbidden, w.Code, "unverified")

	env.verifyCitizen(t)

	w = env.do(t, http.MethodPost, path, env.citizenToken, map[string]string{"choice": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, path, env.citizenToken, map[string]string{"choice": "YES", "reason": "shade"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var cast struct {
		Vote struct {
			ID     uint   `json:"id"`
			Choice string `json:"choice"`
		} `json:"vote"`
		Tally tallyBody `json:"tally"`
	}
	decode(t, w, &cast)
	assert.Equal(t, "yes", cast.Vote.Choice)
	assert.Equal(t, tallyBody{Yes: 1, Total: 1}, cast.Tally)

	w = env.do(t, http.MethodPost, path, env.citizenToken, map[string]string{"choice": "no"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, path, env.adminToken, map[string]string{"choice": "abstain"})
	require.Equal(t, http.StatusCreated, w.Code)

	votePath := "/api/v1/votes/" + itoa(cast.Vote.ID)
	w = env.do(t, http.MethodPut, votePath, env.adminToken, map[string]string{"choice": "no"})
	assert.Equal(t, http.StatusForbidden, w.Code, "only the voter may change a ballot")

	w = env.do(t, http.MethodPut, votePath, env.citizenToken, map[string]string{"choice": "no"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Tally tallyBody                `json:"tally"`
		Votes []map[string]interface{} `json:"votes"`
	}
	decode(t, w, &listed)
	assert.Equal(t, tallyBody{No: 1, Abstain: 1, Total: 2}, listed.Tally)
	assert.Len(t, listed.Votes, 2)

	w = env.do(t, http.MethodGet, "/api/v1/proposals/404/votes", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVoteHandler_ClosedVoting(t *testing.T) {
	env := newAPIEnv(t)
	env.verifyCitizen(t)
	id := env.createProposal(t, "Pool renovation")

	w := env.do(t, http.MethodPut, "/api/v1/proposals/"+itoa(id)+"/status", env.adminToken, map[string]string{"status": "rejected"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/v1/proposals/"+itoa(id)+"/votes", env.citizenToken, map[string]string{"choice": "yes"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestVoteHandler_Mine(t *testing.T) {
	env := newAPIEnv(t)
	env.verifyCitizen(t)
	id := env.createProposal(t, "Playground shade")
	path := "/api/v1/proposals/" + itoa(id) + "/votes/me"

	w := env.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, path, env.citizenToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/proposals/"+itoa(id)+"/votes", env.citizenToken, map[string]string{"choice": "abstain"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, path, env.citizenToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var vote map[string]interface{}
	decode(t, w, &vote)
	assert.Equal(t, "abstain", vote["choice"])
	assert.EqualValues(t, env.citizenID, vote["voter_id"])

	w = env.do(t, http.MethodGet, path, env.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseHandler(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createProposal(t, "Market square")
	path := "/api/v1/proposals/" + itoa(id) + "/response"

	w := env.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	body := map[string]string{"body": "The council will study this.", "document_ref": "QmMinutes"}
	w = env.do(t, http.MethodPost, path, env.citizenToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, path, env.adminToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, path, env.adminToken, body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	decode(t, w, &resp)
	assert.Equal(t, "QmMinutes", resp["document_ref"])
}

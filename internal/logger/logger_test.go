package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSONInProduction(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(false, buf)

	WithProposal(42).Info("closed")
	Log().Debug("hidden")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "closed", entry["msg"])
	assert.Equal(t, float64(42), entry["proposal_id"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestInit_TextInDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(true, buf)
	defer Init(false, nil)

	WithFields(logrus.Fields{"actor": "user:1"}).Debug("vote cast")
	assert.Contains(t, buf.String(), "vote cast")
	assert.Contains(t, buf.String(), "actor=\"user:1\"")
}

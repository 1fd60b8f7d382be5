package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpsList(t *testing.T) {
	stdout, _, err := execute(NewOpsCommand(testRoot(t, "text")), "")
	require.NoError(t, err)
	assert.Contains(t, stdout, "NAME")
	assert.Contains(t, stdout, "From Base64")
	assert.Contains(t, stdout, "Reverse")
	assert.Contains(t, stdout, "Fork")
}

func TestOpsListModule(t *testing.T) {
	stdout, _, err := execute(NewOpsCommand(testRoot(t, "json")), "", "--module", "crypto")
	require.NoError(t, err)

	var resp struct {
		Status string   `json:"status"`
		Data   []OpInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.NotEmpty(t, resp.Data)
	for _, info := range resp.Data {
		assert.Equal(t, "Crypto", info.Module)
	}
}

func TestOpsDescribe(t *testing.T) {
	stdout, _, err := execute(NewOpsCommand(testRoot(t, "text")), "", "To Upper case")
	require.NoError(t, err)
	assert.Contains(t, stdout, "To Upper case (Default)")
	assert.Contains(t, stdout, "input: string  output: string")
	assert.Contains(t, stdout, "[0] Scope (option) default All options: All, Word, Sentence, Paragraph")
}

func TestOpsDescribeJSON(t *testing.T) {
	stdout, _, err := execute(NewOpsCommand(testRoot(t, "json")), "", "Fork")
	require.NoError(t, err)

	var resp struct {
		Data OpInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "Fork", resp.Data.Name)
	assert.True(t, resp.Data.FlowControl)
	assert.NotEmpty(t, resp.Data.Args)
}

func TestOpsDescribeUnknown(t *testing.T) {
	_, _, err := execute(NewOpsCommand(testRoot(t, "text")), "", "Frobnicate")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fllscore/ddzledger/internal/remote"
)

func TestExitErrorCodes(t *testing.T) {
	err := NewExitError(ExitCommandError, "bad config")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, "bad config", err.Error())

	wrapped := WrapExitError(ExitFailure, "sync failed", errors.New("boom"))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.Equal(t, "sync failed: boom", wrapped.Error())
	assert.Equal(t, "boom", errors.Unwrap(wrapped).Error())

	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestExitCodeSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("context: %w", NewExitError(ExitCommandError, "inner"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFormatterJSONSuccess(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]int{"synced": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}

func TestFormatterJSONError(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Error("TIMEOUT", "deadline exceeded", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TIMEOUT", resp.Error.Code)
}

func TestFormatterTextError(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Error("NETWORK_ERROR", "connection refused", nil))
	assert.Contains(t, buf.String(), "Error [NETWORK_ERROR]: connection refused")
}

func TestErrorCodeOf(t *testing.T) {
	apiErr := &remote.APIError{Code: remote.CodeTimeout, Message: "deadline"}
	assert.Equal(t, "TIMEOUT", ErrorCodeOf(apiErr))
	assert.Equal(t, "TIMEOUT", ErrorCodeOf(fmt.Errorf("wrapped: %w", apiErr)))
	assert.Equal(t, "ERROR", ErrorCodeOf(errors.New("plain")))
}

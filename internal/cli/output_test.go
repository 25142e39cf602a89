package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftbooks/recordstore/internal/store"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitFailure, GetExitCode(WrapExitError(ExitFailure, "op", errors.New("boom"))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestErrorCode(t *testing.T) {
	constraintErr := &store.Error{Kind: store.KindConstraint, Collection: "customers"}

	assert.Equal(t, "CONSTRAINT_VIOLATION", ErrorCode(constraintErr))
	assert.Equal(t, "NOT_FOUND", ErrorCode(&store.Error{Kind: store.KindNotFound}))
	assert.Equal(t, "COMMAND_ERROR", ErrorCode(errors.New("plain")))

	// The kind surfaces through wrapping.
	assert.Equal(t, "CONSTRAINT_VIOLATION", ErrorCode(fmt.Errorf("seed: %w", constraintErr)))
}

func TestFail_RendersStoreKind(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	err := f.Fail(ExitFailure, "seed collection", &store.Error{Kind: store.KindConstraint})
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, Rendered(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CONSTRAINT_VIOLATION", resp.Error.Code)
}

func TestRendered(t *testing.T) {
	assert.False(t, Rendered(errors.New("plain")))
	assert.False(t, Rendered(NewExitError(ExitCommandError, "not rendered")))
}

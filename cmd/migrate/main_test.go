package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	command, args, err := parseCommand(nil)
	require.NoError(t, err)
	assert.Equal(t, "up", command)
	assert.Empty(t, args)

	command, args, err = parseCommand([]string{"down-to", "20240101000000"})
	require.NoError(t, err)
	assert.Equal(t, "down-to", command)
	assert.Equal(t, []string{"20240101000000"}, args)

	for _, bad := range []string{"create", "fix", "drop", ""} {
		_, _, err := parseCommand([]string{bad})
		assert.Error(t, err, bad)
	}
}

package main

import (
	"bytes"
	"errors"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs_DefaultDir(t *testing.T) {
	opts, err := parseArgs([]string{"up"}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, options{dir: "./migrations", command: "up"}, opts)
}

func TestParseArgs_CustomDir(t *testing.T) {
	opts, err := parseArgs([]string{"-dir", "/srv/procurement/migrations", "create", "add_bid_notes"}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, options{dir: "/srv/procurement/migrations", command: "create", name: "add_bid_notes"}, opts)
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing command", nil, "missing command"},
		{"unknown command", []string{"redo"}, "unknown command: redo"},
		{"create without name", []string{"create"}, "create requires a migration name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(tt.args, &bytes.Buffer{})
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestParseArgs_UsageNamesFlagsAndCommands(t *testing.T) {
	var out bytes.Buffer

	_, err := parseArgs([]string{"-h"}, &out)

	assert.True(t, errors.Is(err, flag.ErrHelp))
	assert.Contains(t, out.String(), "usage: migrate [-dir DIR] COMMAND")
	assert.Contains(t, out.String(), "create NAME")
	assert.Contains(t, out.String(), "-dir")
	assert.Contains(t, out.String(), "./migrations")
}

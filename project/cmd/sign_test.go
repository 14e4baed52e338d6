package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := signCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--secret", "SECxxxx", "--timestamp", "1700000000000"})

	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "timestamp: 1700000000000", lines[0])
	assert.Equal(t, "sign: LReYwot3QanuU+gyLj4pdQ1iIDJFDFXY6qpWq1daJt8=", lines[1])
}

func TestSignCmd_RequiresSecret(t *testing.T) {
	t.Setenv("DINGTALK_WEBHOOK_SECRET", "")

	cmd := signCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	assert.Error(t, cmd.Execute())
}

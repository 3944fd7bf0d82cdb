package main

import (
	"bytes"
	"strings"
	"testing"

	"formassist/internal/common/errors"
	"formassist/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"full_name=Asha Rao", " district =Pune", "note=a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{
		{"full_name", "Asha Rao"},
		{"district", "Pune"},
		{"note", "a=b"},
		{"empty", ""},
	}, got)

	for _, bad := range []string{"novalue", "=x"} {
		_, err := parseAssignments([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestConsole_Confirm(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		assumeYes bool
		want      bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "full word", input: "YES\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty line", input: "\n", want: false},
		{name: "eof", input: "", want: false},
		{name: "assume yes", input: "", assumeYes: true, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := newConsole(strings.NewReader(tt.input), &out, tt.assumeYes, logger.NewTestLogger(t))
			assert.Equal(t, tt.want, c.Confirm("Proceed?"))
		})
	}
}

func TestConsole_NotifyTracksFailures(t *testing.T) {
	var out bytes.Buffer
	c := newConsole(strings.NewReader(""), &out, false, logger.NewTestLogger(t))

	c.Notify(errors.Notice{Severity: errors.SeveritySuccess, Message: "Saved"})
	assert.False(t, c.reported())

	c.Notify(errors.Notice{Severity: errors.SeverityError, Message: "Microphone blocked", Blocking: true})
	assert.True(t, c.reported())
	assert.Equal(t, "ok: Saved\n!! Microphone blocked\n", out.String())
}

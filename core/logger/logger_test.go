package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRecorder(t *testing.T) {
	buf := &bytes.Buffer{}
	clock := func() time.Time { return time.Date(2006, 1, 2, 3, 4, 5, 0, time.UTC) }
	recorder := NewJSONRecorder(buf, clock)

	require.NoError(t, recorder.Record(Event{
		Kind:      KindCommand,
		SessionID: "abc",
		Command:   &CommandEvent{Name: "echo", Argv: []string{"echo", "hi"}, ExitCode: 0},
	}))
	require.NoError(t, recorder.Record(Event{
		Kind:  KindError,
		Error: &ErrorEvent{Class: "syntax", Message: "unbalanced single quote"},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first Event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, KindCommand, first.Kind)
	assert.Equal(t, "abc", first.SessionID)
	require.NotNil(t, first.Command)
	assert.Equal(t, []string{"echo", "hi"}, first.Command.Argv)
	assert.Equal(t, 2006, first.Time.Year())
	assert.Nil(t, first.Job)

	var second Event
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, KindError, second.Kind)
	require.NotNil(t, second.Error)
	assert.Equal(t, "syntax", second.Error.Class)
}

func TestJSONRecorder_keepsExplicitTime(t *testing.T) {
	buf := &bytes.Buffer{}
	recorder := NewJSONRecorder(buf, nil)

	when := time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC)
	require.NoError(t, recorder.Record(Event{Time: when, Kind: KindSessionStart}))

	var got Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.True(t, got.Time.Equal(when))
}

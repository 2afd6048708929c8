package focus_test

import (
	"testing"

	"github.com/keebtools/dygma/focus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	type testCase struct {
		name     string
		data     string
		resp     string
		consumed int
	}
	cases := []testCase{
		{"crlf lines", "this.is a test\r\nto test the parser\r\n.\r\n", "this.is a test\nto test the parser", 39},
		{"terminator at end of buffer", "this.is a test\r\nto test the parser\r\n.", "this.is a test\nto test the parser", 37},
		{"lf lines", "a\nb\n.\n", "a\nb", 6},
		{"empty response", ".\r\n", "", 3},
		{"empty line kept", "a\r\n\r\nb\r\n.\r\n", "a\n\nb", 11},
		{"dot inside line", ".5 x\r\n.\r\n", ".5 x", 9},
		{"stops at first response", "a\r\n.\r\nb\r\n.\r\n", "a", 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, n, err := focus.ParseResponse(tc.data)
			require.NoError(t, err)
			assert.Equal(t, tc.resp, resp)
			assert.Equal(t, tc.consumed, n)
		})
	}
}

func TestParseResponseIncomplete(t *testing.T) {
	for _, data := range []string{
		"",
		"This is a test\r\nto test the parser\r\n",
		"partial line",
		"a\r\n.\r",
		"a\r",
	} {
		_, _, err := focus.ParseResponse(data)
		assert.ErrorIs(t, err, focus.ErrIncomplete, "%q", data)
	}
}

func TestParseResponseMalformed(t *testing.T) {
	_, _, err := focus.ParseResponse("a\rb\r\n.\r\n")
	var merr *focus.MalformedResponseError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, 1, merr.Line)
	assert.Equal(t, 1, merr.Offset)

	_, _, err = focus.ParseResponse("ok\r\nx\ry")
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, 2, merr.Line)
}

func TestFramerChunks(t *testing.T) {
	var f focus.Framer
	chunks := []string{"0 1 ", "2\r", "\n.", "\r\nleft"}
	var got []string
	for _, c := range chunks {
		resp, done, err := f.Feed([]byte(c))
		require.NoError(t, err)
		if done {
			got = append(got, resp)
		}
	}
	assert.Equal(t, []string{"0 1 2"}, got)
	assert.Equal(t, 4, f.Buffered())

	f.Reset()
	assert.Zero(t, f.Buffered())
}

func TestFramerSplitRune(t *testing.T) {
	var f focus.Framer
	data := []byte("café\r\n.\r\n")
	split := 4 // inside the two-byte é
	_, done, err := f.Feed(data[:split])
	require.NoError(t, err)
	assert.False(t, done)

	resp, done, err := f.Feed(data[split:])
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "café", resp)
}

func TestFramerMalformed(t *testing.T) {
	var f focus.Framer
	_, done, err := f.Feed([]byte("bad\rline\n"))
	assert.False(t, done)
	var merr *focus.MalformedResponseError
	assert.ErrorAs(t, err, &merr)
	assert.Zero(t, f.Buffered())

	resp, done, err := f.Feed([]byte("ok\r\n.\r\n"))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "ok", resp)
}

func TestFramerBareTerminatorEndings(t *testing.T) {
	type testCase struct {
		name string
		next string
	}
	cases := []testCase{
		{"lf", "\nnext\r\n.\r\n"},
		{"crlf", "\r\nnext\r\n.\r\n"},
		{"lone cr", "\rnext\r\n.\r\n"},
		{"no line ending", "next\r\n.\r\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var f focus.Framer
			resp, done, err := f.Feed([]byte("first\r\n."))
			require.NoError(t, err)
			require.True(t, done)
			assert.Equal(t, "first", resp)

			resp, done, err = f.Feed([]byte(tc.next))
			require.NoError(t, err)
			assert.True(t, done)
			assert.Equal(t, "next", resp)
		})
	}
}

func TestSerializeCommand(t *testing.T) {
	assert.Equal(t, "help\n", focus.SerializeCommand("help", ""))
	assert.Equal(t, "keymap.custom 1 2 3\n", focus.SerializeCommand("keymap.custom", "1 2 3"))
}

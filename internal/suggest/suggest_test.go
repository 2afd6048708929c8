package suggest_test

import (
	"testing"

	"github.com/keebtools/dygma/internal/suggest"
	"github.com/stretchr/testify/assert"
)

var commands = []string{
	"help",
	"version",
	"keymap.custom",
	"keymap.default",
	"keymap.onlyCustom",
	"superkeys.map",
	"macros.map",
	"led.brightness",
}

func TestCommands(t *testing.T) {
	type testCase struct {
		input string
		first string
	}
	cases := []testCase{
		{"keymap.custon", "keymap.custom"},
		{"verison", "version"},
		{"superkey.map", "superkeys.map"},
		{"MACROS.MAP", "macros.map"},
	}
	for _, tc := range cases {
		got := suggest.Commands(commands, tc.input, suggest.Limit)
		assert.Len(t, got, suggest.Limit)
		assert.Equal(t, tc.first, got[0], tc.input)
	}
}

func TestCommandsFewCandidates(t *testing.T) {
	assert.Equal(t, []string{"help"}, suggest.Commands([]string{"help"}, "x", 5))
	assert.Empty(t, suggest.Commands(nil, "x", 5))
}

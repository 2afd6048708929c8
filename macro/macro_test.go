package macro_test

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/keebtools/dygma/keycode"
	"github.com/keebtools/dygma/macro"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func readFixture(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("testdata/macros_map.txt")
	require.NoError(t, err)
	return strings.TrimSpace(string(b))
}

func TestFixture(t *testing.T) {
	raw := readFixture(t)
	l, trailer, err := macro.ParseVariant(raw, macro.Extended)
	require.NoError(t, err)

	require.Len(t, l, 16)
	assert.Empty(t, l[2].Actions)
	assert.Empty(t, l[12].Actions)
	assert.Empty(t, l[15].Actions)
	assert.Equal(t, 16, l[15].Number)
	for _, b := range trailer {
		assert.Equal(t, byte(255), b)
	}

	first := l[0].Actions
	require.Len(t, first, 18)
	assert.Equal(t, macro.Press, first[0].Type)
	assert.Equal(t, keycode.MustParse("Space"), *first[0].Key)
	assert.Equal(t, macro.KeyDown, first[1].Type)
	assert.Equal(t, keycode.MustParse("Left Shift"), *first[1].Key)

	var delays []macro.Action
	for _, m := range l {
		for _, a := range m.Actions {
			if a.Type == macro.Delay {
				delays = append(delays, a)
			}
		}
	}
	require.Len(t, delays, 1)
	assert.Equal(t, uint16(200), delays[0].Millis)
}

func TestFixtureRoundTrip(t *testing.T) {
	raw := readFixture(t)
	l, err := macro.Parse(raw)
	require.NoError(t, err)

	data, err := l.CommandData(macro.MemorySize)
	require.NoError(t, err)
	assert.Equal(t, raw, data)
}

func TestParseActions(t *testing.T) {
	type testCase struct {
		name string
		raw  string
		want []macro.Action
	}
	space := keycode.MustParse("Space")
	cases := []testCase{
		{"press", "8 44 0", []macro.Action{macro.PressAction(space)}},
		{"delay high byte first", "2 1 0 0", []macro.Action{macro.DelayAction(256)}},
		{"random delay", "1 0 10 0 20 0", []macro.Action{{Type: macro.RandomDelay, Min: 10, Max: 20}}},
		{"special press", "5 210 92 0", []macro.Action{{Type: macro.SpecialPress, Key: keyPtr(keycode.Decode(53852))}}},
		{"stray byte skipped", "8 44 9 8 44 0", []macro.Action{macro.PressAction(space), macro.PressAction(space)}},
		{"filler at macro start ends the list", "255 8 44 0", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l, err := macro.Parse(tc.raw)
			require.NoError(t, err)
			if tc.want == nil {
				assert.Empty(t, l)
				return
			}
			require.Len(t, l, 1)
			assert.Equal(t, tc.want, l[0].Actions)
		})
	}
}

func keyPtr(k keycode.Key) *keycode.Key { return &k }

func TestStrayByteMatchesCleanInput(t *testing.T) {
	clean, err := macro.Parse("6 225 8 4 7 225 0 8 5 0")
	require.NoError(t, err)
	dirty, err := macro.Parse("6 225 200 8 4 7 225 0 8 5 0")
	require.NoError(t, err)
	assert.Equal(t, clean, dirty)
}

func TestRawVariant(t *testing.T) {
	l, _, err := macro.ParseVariant("2 0 200 1 0 1 0 2 3 1 2 8 4 0 255", macro.Raw)
	require.NoError(t, err)
	require.Len(t, l, 1)
	acts := l[0].Actions
	require.Len(t, acts, 4)
	assert.Equal(t, macro.Action{Type: macro.Unknown, Op: 2, Data: []uint16{200}}, acts[0])
	assert.Equal(t, macro.Action{Type: macro.Unknown, Op: 1, Data: []uint16{1, 2}}, acts[1])
	assert.Equal(t, macro.Action{Type: macro.Unknown, Op: 3, Data: []uint16{258}}, acts[2])
	assert.Equal(t, macro.Press, acts[3].Type)

	b, err := l.Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 0, 200, 1, 0, 1, 0, 2, 3, 1, 2, 8, 4, 0}, b)
}

func TestParseErrors(t *testing.T) {
	type testCase struct {
		name   string
		raw    string
		reason string
	}
	cases := []testCase{
		{"two invalid kinds", "8 44 9 10 0", "action type out of range"},
		{"terminator after stray byte", "9 0", "action type out of range"},
		{"unterminated macro", "8 44", "unexpected end"},
		{"truncated payload", "2 0", "unexpected end"},
		{"value above a byte", "8 300 0", "invalid byte"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := macro.Parse(tc.raw)
			var perr *macro.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Contains(t, perr.Error(), tc.reason)
		})
	}
}

func TestSerialize(t *testing.T) {
	l := macro.List{
		{Actions: []macro.Action{macro.PressAction(keycode.MustParse("A")), macro.DelayAction(300)}},
		{},
	}
	b, err := l.Serialize(10)
	require.NoError(t, err)
	assert.Equal(t, []byte{8, 4, 2, 1, 44, 0, 0, 255, 255, 255}, b)

	_, err = l.Serialize(6)
	assert.ErrorIs(t, err, macro.ErrTooManyMacroBytes)

	back, _, err := macro.Decode(b, macro.Extended)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Empty(t, back[1].Actions)
}

func TestSerializeRejectsWideKeys(t *testing.T) {
	l := macro.List{{Actions: []macro.Action{macro.PressAction(keycode.MustParse("Ctrl+A"))}}}
	_, err := l.Serialize(macro.MemorySize)
	assert.ErrorContains(t, err, "does not fit in a byte")

	l[0].Actions[0].Type = macro.SpecialPress
	b, err := l.Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 1, 4, 0}, b)
}

func TestFileEncodings(t *testing.T) {
	l := macro.List{{Actions: []macro.Action{
		macro.PressAction(keycode.MustParse("A")),
		{Type: macro.RandomDelay, Min: 5, Max: 50},
	}}}.Renumber()

	js, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"macro_number":1,"actions":[{"type":"press","key":"A"},{"type":"random_delay","min":5,"max":50}]}]`, string(js))

	var fromJSON macro.List
	require.NoError(t, json.Unmarshal(js, &fromJSON))
	assert.Equal(t, l, fromJSON)

	ym, err := yaml.Marshal(l)
	require.NoError(t, err)
	var fromYAML macro.List
	require.NoError(t, yaml.Unmarshal(ym, &fromYAML))
	assert.Equal(t, l, fromYAML)

	assert.Error(t, json.Unmarshal([]byte(`[{"actions":[{"type":"explode"}]}]`), &fromJSON))
}

package superkey_test

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/keebtools/dygma/internal/wire"
	"github.com/keebtools/dygma/keycode"
	"github.com/keebtools/dygma/superkey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return strings.TrimSpace(string(b))
}

func key(s string) *keycode.Key {
	k := keycode.MustParse(s)
	return &k
}

func TestFixtureRoundTrip(t *testing.T) {
	for _, name := range []string{"superkeys_map.txt", "superkeys_short.txt"} {
		t.Run(name, func(t *testing.T) {
			raw := readFixture(t, name)
			m, err := superkey.Parse(raw)
			require.NoError(t, err)

			data, err := m.CommandData(superkey.MemorySize)
			require.NoError(t, err)
			assert.Equal(t, raw, data)
		})
	}
}

func TestParse(t *testing.T) {
	m, err := superkey.Parse(readFixture(t, "superkeys_map.txt"))
	require.NoError(t, err)
	require.Len(t, m, 12)

	assert.Equal(t, 1, m[0].Number)
	assert.Equal(t, 12, m[11].Number)
	assert.Equal(t, key("Space"), m[0].Tap)
	assert.Equal(t, key("F10"), m[11].Hold)
	assert.Nil(t, m[0].TapHold)
	assert.Nil(t, m[0].DoubleTap)
	assert.Nil(t, m[0].DoubleTapHold)
}

func TestParseNoKeyIsNoAction(t *testing.T) {
	m, err := superkey.Parse("4 0 1 5 1 0 0")
	require.NoError(t, err)
	require.Len(t, m, 1)
	assert.Equal(t, key("A"), m[0].Tap)
	assert.Nil(t, m[0].Hold)
	assert.Nil(t, m[0].TapHold)
	assert.Equal(t, key("B"), m[0].DoubleTap)

	// NoKey is written back as 1.
	values, err := m.Serialize(8)
	require.NoError(t, err)
	assert.Equal(t, []uint16{4, 1, 1, 5, 1, 0, 0, 65535}, values)
}

func TestParseEndings(t *testing.T) {
	type testCase struct {
		name string
		raw  string
		want int
	}
	cases := []testCase{
		{"empty input", "", 0},
		{"terminator only", "0 65535 65535", 0},
		{"filler only", "65535 65535", 0},
		{"trailing garbage ignored", "4 5 6 7 8 0 0 12 13", 1},
		{"filler run after key", "4 5 6 7 8 0 65535 65535", 1},
		{"transparent tap", "65535 4 1 1 1 0 0", 1},
		{"end of input after key", "4 5 6 7 8 0", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := superkey.Parse(tc.raw)
			require.NoError(t, err)
			assert.Len(t, m, tc.want)
		})
	}
}

func TestParseErrors(t *testing.T) {
	type testCase struct {
		name string
		raw  string
	}
	cases := []testCase{
		{"truncated group", "4 5 6"},
		{"missing group terminator", "4 5 6 7 8 9 0"},
		{"filler before data", "4 5 6 7 8 0 65535 0"},
		{"not a number", "4 x 6 7 8 0 0"},
		{"out of range", "4 70000 6 7 8 0 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := superkey.Parse(tc.raw)
			var perr *superkey.ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestTransparentActionsRoundTrip(t *testing.T) {
	m := superkey.Map{
		{Tap: key("Transparent"), Hold: key("A")},
		{Tap: key("A"), DoubleTapHold: key("Transparent")},
	}
	values, err := m.Serialize(superkey.MemorySize)
	require.NoError(t, err)
	assert.Equal(t, []uint16{65535, 4, 1, 1, 1, 0, 4, 1, 1, 1, 65535, 0, 0}, values[:13])

	back, err := superkey.Decode(values)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, key("Transparent"), back[0].Tap)
	assert.Equal(t, key("A"), back[0].Hold)
	assert.Equal(t, key("Transparent"), back[1].DoubleTapHold)
	assert.Equal(t, 2, back[1].Number)
}

func TestSerializeCapacity(t *testing.T) {
	full := make(superkey.Map, superkey.Capacity(superkey.MemorySize))
	values, err := full.Serialize(superkey.MemorySize)
	require.NoError(t, err)
	assert.Len(t, values, superkey.MemorySize)

	over := make(superkey.Map, len(full)+1)
	_, err = over.Serialize(superkey.MemorySize)
	assert.ErrorIs(t, err, superkey.ErrTooManySuperkeys)
	var cerr *superkey.CapacityError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, len(over)*6+1, cerr.Needed)
}

func TestSerializeEmpty(t *testing.T) {
	values, err := superkey.Map(nil).Serialize(4)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0, 65535, 65535, 65535}, values)

	back, err := superkey.Decode(values)
	require.NoError(t, err)
	assert.Empty(t, back)
}

func TestJSONIgnoresNumber(t *testing.T) {
	m := superkey.Map{{Tap: key("A"), Hold: key("Left Ctrl")}}.Renumber()
	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"superkey_number":1`)
	assert.Contains(t, string(b), `"hold":"Left Ctrl"`)
	assert.Contains(t, string(b), `"tap_hold":null`)

	var back superkey.Map
	require.NoError(t, json.Unmarshal(b, &back))
	values, err := back.Serialize(7)
	require.NoError(t, err)
	assert.Equal(t, "4 224 1 1 1 0 0", wire.Join(values))
}

package focus

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHIDChunks(t *testing.T) {
	data := bytes.Repeat([]byte{'x'}, 450)
	chunks := hidChunks(data)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], HIDMaxSendSize+1)
	assert.Len(t, chunks[1], HIDMaxSendSize+1)
	assert.Len(t, chunks[2], 51)
	for _, c := range chunks {
		assert.Equal(t, byte(HIDReportID), c[0])
	}
	assert.Empty(t, hidChunks(nil))
}

func TestHasUsagePage(t *testing.T) {
	type testCase struct {
		name string
		desc []byte
		want bool
	}
	cases := []testCase{
		// Usage Page (Vendor 0xFF00), Usage (1), Collection (Application)
		{"vendor page", []byte{0x06, 0x00, 0xFF, 0x09, 0x01, 0xA1, 0x01, 0xC0}, true},
		// Usage Page (Generic Desktop), Usage (Keyboard)
		{"keyboard", []byte{0x05, 0x01, 0x09, 0x06, 0xA1, 0x01, 0xC0}, false},
		{"long item skipped", []byte{0xFE, 0x01, 0x00, 0xAA, 0x06, 0x00, 0xFF}, true},
		{"truncated", []byte{0x06, 0x00}, false},
		{"empty", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, hasUsagePage(tc.desc, HIDUsagePage))
		})
	}
}

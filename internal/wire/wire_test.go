package wire_test

import (
	"testing"

	"github.com/keebtools/dygma/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint16s(t *testing.T) {
	got, err := wire.Uint16s(" 1 65535\r\n0\t42 ")
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 65535, 0, 42}, got)

	_, err = wire.Uint16s("1 65536")
	assert.ErrorContains(t, err, `token 1 "65536"`)
	_, err = wire.Uint16s("1 -2")
	assert.Error(t, err)

	empty, err := wire.Uint16s("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBytes(t *testing.T) {
	got, err := wire.Bytes("8 44 0 255")
	require.NoError(t, err)
	assert.Equal(t, []byte{8, 44, 0, 255}, got)

	_, err = wire.Bytes("256")
	assert.Error(t, err)
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "1 2 65535", wire.Join([]uint16{1, 2, 65535}))
	assert.Equal(t, "0 255", wire.Join([]byte{0, 255}))
	assert.Equal(t, "", wire.Join([]uint16(nil)))
}

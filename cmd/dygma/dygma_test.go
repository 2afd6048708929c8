package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/keebtools/dygma/internal/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFlag(t *testing.T) {
	type testCase struct {
		name string
		args []string
		env  string
		want string
	}
	cases := []testCase{
		{"equals form", []string{"--config=a.yaml", "commands"}, "", "a.yaml"},
		{"separate value", []string{"keymap", "--config", "b.toml", "get"}, "", "b.toml"},
		{"flag wins over env", []string{"--config=a.json"}, "env.json", "a.json"},
		{"env fallback", []string{"commands"}, "env.json", "env.json"},
		{"after double dash", []string{"run", "--", "--config=x.json"}, "", ""},
		{"missing value", []string{"--config"}, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			getenv := func(key string) string {
				if key == "DYGMA_CONFIG" {
					return tc.env
				}
				return ""
			}
			assert.Equal(t, tc.want, configFlag(tc.args, getenv))
		})
	}
}

func TestConfigLoaders(t *testing.T) {
	assert.Len(t, configLoaders(""), 3)
}

func TestRawLogger(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "raw.log")
		raw, closer, err := rawLogger(cmd.LogOptions{Level: "info", RawFile: path}, nil)
		require.NoError(t, err)
		require.NotNil(t, closer)
		raw.Log(true, []byte("version\n"))
		require.NoError(t, closer.Close())

		b, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(b), `text: "version\n"`)
	})

	t.Run("trace goes to stderr", func(t *testing.T) {
		var stderr bytes.Buffer
		raw, closer, err := rawLogger(cmd.LogOptions{Level: "trace"}, &stderr)
		require.NoError(t, err)
		assert.Nil(t, closer)
		raw.Log(false, []byte(".\r\n"))
		assert.Contains(t, stderr.String(), "D->H")
	})

	t.Run("disabled", func(t *testing.T) {
		var stderr bytes.Buffer
		raw, closer, err := rawLogger(cmd.LogOptions{Level: "debug"}, &stderr)
		require.NoError(t, err)
		assert.Nil(t, closer)
		raw.Log(true, []byte("help\n"))
		assert.Empty(t, stderr.String())
	})
}

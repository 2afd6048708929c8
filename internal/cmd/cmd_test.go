package cmd

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/keebtools/dygma/bazecore"
	"github.com/keebtools/dygma/device/defy"
	dtesting "github.com/keebtools/dygma/internal/testing"
	"github.com/keebtools/dygma/keycode"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func fixture(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.TrimSpace(string(b))
}

func fakeDevice(t *testing.T, values map[string]string) (*Device, *dtesting.FakeDevice) {
	t.Helper()
	d := dtesting.NewFakeDevice(values)
	dev := &Device{
		Options: DeviceOptions{Timeout: 5 * time.Second},
		Logger:  discard,
		Dial: func(ctx context.Context) (*defy.Keyboard, error) {
			return d.Dial(t), nil
		},
	}
	return dev, d
}

func TestRunCommand(t *testing.T) {
	dev, _ := fakeDevice(t, map[string]string{"version": "v1.2.3", "keymap.custom": "0 1"})

	var out bytes.Buffer
	require.NoError(t, (&RunCommand{Command: "version"}).Run(dev, &out, discard))
	assert.Equal(t, "v1.2.3\n", out.String())

	err := (&RunCommand{Command: "verison"}).Run(dev, &out, discard)
	var unknown *UnknownCommandError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "version", unknown.Suggestions[0])
	assert.LessOrEqual(t, len(unknown.Suggestions), 5)
	assert.Contains(t, err.Error(), "`verison` is not a valid command")
}

func TestCommands(t *testing.T) {
	dev, _ := fakeDevice(t, map[string]string{"version": "1", "led.brightness": "100"})
	var out bytes.Buffer
	require.NoError(t, (&Commands{}).Run(dev, &out))
	assert.Equal(t, "help\nled.brightness\nversion\n", out.String())
}

func TestKeymapGetAndApply(t *testing.T) {
	raw := fixture(t, "../../keymap/testdata/keymap_custom.txt")
	dev, d := fakeDevice(t, map[string]string{defy.CmdKeymapCustom: raw})
	dir := t.TempDir()

	for _, name := range []string{"keymap.json", "keymap.yaml", "keymap.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			get := &KeymapGet{OutputFlags{Output: path}}
			require.NoError(t, get.Run(dev, io.Discard))

			before := len(d.Writes())
			apply := &KeymapApply{InputFlags{File: path}}
			require.NoError(t, apply.Run(dev, discard))
			assert.Len(t, d.Writes(), before+1)
		})
	}
}

func TestApplyRejectsInvalidFile(t *testing.T) {
	dev, d := fakeDevice(t, map[string]string{defy.CmdSuperkeys: "0"})
	path := filepath.Join(t.TempDir(), "superkeys.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"tapp":"A"}]`), 0o644))

	err := (&SuperkeysApply{InputFlags{File: path}}).Run(dev, discard)
	var verr *jsonschema.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, d.Writes())
}

func TestSuperkeysApply(t *testing.T) {
	dev, d := fakeDevice(t, map[string]string{defy.CmdSuperkeys: "0"})
	path := filepath.Join(t.TempDir(), "superkeys.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- tap: A\n  hold: B\n"), 0o644))

	require.NoError(t, (&SuperkeysApply{InputFlags{File: path}}).Run(dev, discard))
	values := strings.Fields(d.Value(defy.CmdSuperkeys))
	require.Greater(t, len(values), 6)
	assert.Equal(t, "0", values[6])

	var out bytes.Buffer
	require.NoError(t, (&SuperkeysGet{OutputFlags{Output: "-"}}).Run(dev, &out))
	assert.Contains(t, out.String(), `"superkey_number": 1`)
	assert.Contains(t, out.String(), `"tap": "A"`)
}

func TestKeymapClearLayer(t *testing.T) {
	raw := fixture(t, "../../keymap/testdata/keymap_custom.txt")
	dev, _ := fakeDevice(t, map[string]string{defy.CmdKeymapCustom: raw})

	require.NoError(t, (&KeymapClearLayer{Layer: 3, Key: "Transparent"}).Run(dev, discard))

	var out bytes.Buffer
	require.NoError(t, (&KeymapShow{Layer: 3}).Run(dev, &out))
	assert.True(t, strings.HasPrefix(out.String(), "Layer 3\n"))
	assert.Equal(t, 70, strings.Count(out.String(), "Transparent"))

	assert.Error(t, (&KeymapClearLayer{Layer: 11, Key: "Transparent"}).Run(dev, discard))
	assert.Error(t, (&KeymapClearLayer{Layer: 1, Key: "NotAKey"}).Run(dev, discard))
}

func TestKeymapShowFromBazecore(t *testing.T) {
	var out bytes.Buffer
	show := &KeymapShow{Layer: 2, From: "../../bazecore/testdata/backup.json"}
	require.NoError(t, show.Run(nil, &out))
	assert.True(t, strings.HasPrefix(out.String(), "Layer 2 (Symbols)\n"), out.String())
	assert.NotContains(t, out.String(), "Layer 1")

	assert.Error(t, (&KeymapShow{Layer: 12, From: show.From}).Run(nil, &out))
}

func TestRawCommands(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, (&RawKeycodeString{Keys: " 4  5 65535 "}).Run(&out))
	want := keycode.Decode(4).String() + " " + keycode.Decode(5).String() + " Transparent\n"
	assert.Equal(t, want, out.String())

	assert.Error(t, (&RawKeycodeString{Keys: "4 x"}).Run(io.Discard))

	out.Reset()
	require.NoError(t, (&RawKeycode{Code: 65535}).Run(&out))
	assert.Equal(t, "Transparent\n", out.String())

	out.Reset()
	require.NoError(t, (&RawSymbol{Name: "Transparent"}).Run(&out))
	assert.True(t, strings.HasPrefix(out.String(), "65535\tTransparent\t"))
	assert.Error(t, (&RawSymbol{Name: "NotAKey"}).Run(io.Discard))

	out.Reset()
	raw := fixture(t, "../../superkey/testdata/superkeys_short.txt")
	require.NoError(t, (&RawSuperkeys{Data: raw, Format: "yaml"}).Run(&out))
	assert.Contains(t, out.String(), "superkey_number: 1")

	assert.Error(t, (&RawKeymap{Data: "1 2 3", Format: "json"}).Run(io.Discard))

	out.Reset()
	raw = fixture(t, "../../macro/testdata/macros_map.txt")
	require.NoError(t, (&RawMacros{Data: raw, Format: "toml", Variant: "extended"}).Run(&out))
	assert.Contains(t, out.String(), "[[macros]]")
}

func TestBazecoreKeymap(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, (&BazecoreKeymap{Path: "../../bazecore/testdata/backup.json"}).Run(&out))
	assert.Contains(t, out.String(), `"layer_number": 10`)
}

func TestBackupLifecycle(t *testing.T) {
	dev, d := fakeDevice(t, map[string]string{
		"settings.defaultLayer": "2",
		"led.brightness":        "180",
	})
	opts := StoreOptions{DB: filepath.Join(t.TempDir(), "backups.db")}

	var out bytes.Buffer
	require.NoError(t, (&BackupCreate{Label: "first"}).Run(dev, opts, &out, discard))
	assert.True(t, strings.HasPrefix(out.String(), "1\t"))

	// Unchanged keyboard state is not stored twice.
	out.Reset()
	require.NoError(t, (&BackupCreate{Label: "again", Commands: []string{}}).Run(dev, opts, &out, discard))
	assert.True(t, strings.HasPrefix(out.String(), "1\t"))

	out.Reset()
	require.NoError(t, (&BackupList{}).Run(opts, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "serial")
	assert.Contains(t, lines[1], "first")

	path := filepath.Join(t.TempDir(), "export", "backup.json")
	require.NoError(t, (&BackupExport{Backup: "latest", Output: path}).Run(opts, io.Discard))
	cfg, err := bazecore.Load(path)
	require.NoError(t, err)
	data, err := cfg.CommandData("led.brightness")
	require.NoError(t, err)
	assert.Equal(t, "180", data)

	require.NoError(t, (&BackupRestore{Backup: "1"}).Run(dev, opts, discard))
	assert.Equal(t, []string{"settings.defaultLayer", "led.brightness"}, d.Writes())

	assert.Error(t, (&BackupRestore{Backup: "one"}).Run(dev, opts, discard))
	require.NoError(t, (&BackupDelete{ID: 1}).Run(opts))
	assert.Error(t, (&BackupRestore{Backup: "latest"}).Run(dev, opts, discard))
}

func TestBackupImport(t *testing.T) {
	opts := StoreOptions{DB: filepath.Join(t.TempDir(), "backups.db")}
	var out bytes.Buffer
	require.NoError(t, (&BackupImport{Path: "../../bazecore/testdata/backup.json"}).Run(opts, &out))

	out.Reset()
	require.NoError(t, (&BackupList{}).Run(opts, &out))
	assert.Contains(t, out.String(), "bazecore")
	assert.Contains(t, out.String(), "backup.json")
}

func TestShellSession(t *testing.T) {
	dev, d := fakeDevice(t, map[string]string{"version": "v1", "led.brightness": "100"})
	kb, err := dev.Open(context.Background())
	require.NoError(t, err)
	defer kb.Close()

	script := "version\n\n  led.brightness   50 \nverison\nexit\nversion\n"
	in := scannerReader{bufio.NewScanner(strings.NewReader(script))}
	available := []string{"help", "version", "led.brightness"}

	var out bytes.Buffer
	require.NoError(t, (&Shell{}).session(context.Background(), dev, kb, available, in, &out, discard))
	assert.Equal(t, "50", d.Value("led.brightness"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "v1", lines[0])
	assert.Contains(t, lines[1], "did you mean one of these? version")
}

func TestCompleter(t *testing.T) {
	complete := completer([]string{"keymap.custom", "keymap.default", "help"})

	type testCase struct {
		line    string
		pos     int
		key     rune
		newLine string
		newPos  int
		ok      bool
	}
	cases := []testCase{
		{"key", 3, '\t', "keymap.", 7, true},
		{"keymap.c", 8, '\t', "keymap.custom", 13, true},
		{"he", 2, '\t', "help", 4, true},
		{"zz", 2, '\t', "", 0, false},
		{"he", 2, 'x', "", 0, false},
		{"help x", 6, '\t', "", 0, false},
	}
	for _, tc := range cases {
		line, pos, ok := complete(tc.line, tc.pos, tc.key)
		assert.Equal(t, tc.ok, ok, tc.line)
		assert.Equal(t, tc.newLine, line, tc.line)
		assert.Equal(t, tc.newPos, pos, tc.line)
	}
}

func TestWatchAppliesOnSave(t *testing.T) {
	dev, d := fakeDevice(t, map[string]string{defy.CmdSuperkeys: "0"})
	path := filepath.Join(t.TempDir(), "my-superkeys.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	w := &Watch{InputFlags: InputFlags{File: path}, Debounce: 20 * time.Millisecond}
	go func() { done <- w.watch(ctx, dev, discard) }()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(`[{"tap":"B"}]`), 0o644)
		return len(d.Writes()) > 0
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
	assert.Equal(t, defy.CmdSuperkeys, d.Writes()[0])
}

func TestGuessKind(t *testing.T) {
	assert.Equal(t, "superkeys", guessKind("/tmp/SuperKeys.yaml"))
	assert.Equal(t, "macros", guessKind("macros.toml"))
	assert.Equal(t, "keymap", guessKind("layers.json"))
}

func TestConfigTemplate(t *testing.T) {
	root := buildMapFromStruct(reflect.TypeOf(Settings{}))
	require.Contains(t, root, "log")
	require.Contains(t, root, "device")
	require.Contains(t, root, "backup")

	logOpts := root["log"].(map[string]any)
	assert.Equal(t, "info", logOpts["level"])
	assert.Contains(t, logOpts, "raw_file")

	device := root["device"].(map[string]any)
	assert.Equal(t, "auto", device["transport"])
	assert.Equal(t, int64(115200), device["baud"])
	assert.Equal(t, "30s", device["timeout"])
	assert.Equal(t, uint64(0), device["placeholder"])

	assert.Equal(t, map[string]any{"db": ""}, root["backup"])
}

func TestConfigInit(t *testing.T) {
	for _, format := range []string{"json", "yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "config."+format)
			c := &ConfigInit{Format: format, Output: dest}
			require.NoError(t, c.Run(discard))

			data, err := os.ReadFile(dest)
			require.NoError(t, err)
			assert.Contains(t, string(data), "transport")
			assert.Contains(t, string(data), "raw_file")

			assert.ErrorContains(t, c.Run(discard), "--force")
			c.Force = true
			assert.NoError(t, c.Run(discard))
		})
	}
}

func TestSchemaCommand(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, (&SchemaCommand{Kind: "macros"}).Run(&out))
	assert.Contains(t, out.String(), `"$schema"`)
}

package main

import (
	"io"
	"os"
	"strings"

	"github.com/keebtools/dygma/internal/cmd"
	"github.com/keebtools/dygma/internal/config"
	"github.com/keebtools/dygma/internal/configpaths"
	"github.com/keebtools/dygma/internal/log"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
)

func main() {
	var cli config.CLI
	opts := append([]kong.Option{
		kong.Name("dygma"),
		kong.Description("Command line tools for Dygma keyboards"),
		kong.UsageOnError(),
	}, configLoaders(configFlag(os.Args[1:], os.Getenv))...)
	ctx := kong.Parse(&cli, opts...)

	logger, closers, err := log.SetupLogger(cli.Log.Level, cli.Log.File)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	raw, rawFile, err := rawLogger(cli.Log, os.Stderr)
	if err != nil {
		logger.Error("failed to open raw log file", "file", cli.Log.RawFile, "error", err)
	}
	if rawFile != nil {
		closers = append(closers, rawFile)
	}

	ctx.Bind(logger, cli.Store)
	ctx.BindTo(raw, (*log.RawLogger)(nil))
	ctx.BindTo(os.Stdout, (*io.Writer)(nil))
	ctx.Bind(&cmd.Device{Options: cli.Device, Logger: logger, Raw: raw})

	err = ctx.Run()
	for _, c := range closers {
		_ = c.Close()
	}
	ctx.FatalIfErrorf(err)
}

// configLoaders reads global options from JSON, YAML and TOML files, in that
// priority order. Flags and environment variables override file values.
func configLoaders(userPath string) []kong.Option {
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userPath)
	return []kong.Option{
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	}
}

// configFlag finds --config before kong runs, since the loaders must be
// known up front. Arguments after "--" are never flags.
func configFlag(args []string, getenv func(string) string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return getenv("DYGMA_CONFIG")
}

// rawLogger picks the destination of the protocol dump: the raw log file,
// stderr at trace level, or nowhere. Stdout is left to command output. The
// returned file, if any, must be closed by the caller.
func rawLogger(opts cmd.LogOptions, stderr io.Writer) (log.RawLogger, io.Closer, error) {
	switch {
	case opts.RawFile != "":
		if err := configpaths.EnsureDir(opts.RawFile); err != nil {
			return log.NewRaw(nil), nil, err
		}
		f, err := os.OpenFile(opts.RawFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return log.NewRaw(nil), nil, err
		}
		return log.NewRaw(f), f, nil
	case opts.Level == "trace":
		return log.NewRaw(stderr), nil, nil
	default:
		return log.NewRaw(nil), nil, nil
	}
}

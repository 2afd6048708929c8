// Package config defines the dygma command line.
package config

import "github.com/keebtools/dygma/internal/cmd"

// CLI is the root of the command tree. Global options can also come from a
// JSON, YAML or TOML configuration file.
type CLI struct {
	Config string `help:"Configuration file to load" type:"path" env:"DYGMA_CONFIG"`

	cmd.Settings `embed:""`

	Run       cmd.RunCommand       `cmd:"" help:"Execute a low level Focus command on the keyboard"`
	Commands  cmd.Commands         `cmd:"" help:"List the Focus commands the keyboard supports"`
	Shell     cmd.Shell            `cmd:"" help:"Interactive Focus prompt"`
	Keymap    cmd.KeymapCommand    `cmd:"" help:"Read and write the custom keymap"`
	Superkeys cmd.SuperkeysCommand `cmd:"" help:"Read and write superkeys"`
	Macros    cmd.MacrosCommand    `cmd:"" help:"Read and write macros"`
	Watch     cmd.Watch            `cmd:"" help:"Upload a keymap, superkey or macro file whenever it changes"`
	Backup    cmd.BackupCommand    `cmd:"" help:"Keep a local history of keyboard backups"`
	Bazecore  cmd.BazecoreCommand  `cmd:"" help:"Work with Bazecore backup files"`
	Raw       cmd.RawCommand       `cmd:"" help:"Decode raw Focus values without a keyboard"`
	Schema    cmd.SchemaCommand    `cmd:"" help:"Print the JSON schema of a document kind"`
	ConfigCmd cmd.ConfigCommand    `cmd:"" name:"config" help:"Configuration file helpers"`
}

package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/keebtools/dygma/bazecore"
	"github.com/keebtools/dygma/device/defy"
	"github.com/keebtools/dygma/internal/configpaths"
	"github.com/keebtools/dygma/internal/store"
)

// BazecoreCommand groups commands for Bazecore backup files.
type BazecoreCommand struct {
	Keymap BazecoreKeymap `cmd:"" help:"Extract the custom keymap from a Bazecore backup file"`
}

type BazecoreKeymap struct {
	Path string `arg:"" type:"existingfile" help:"Path to the Bazecore JSON backup"`
	OutputFlags
}

// Run is called by Kong when the bazecore keymap command is executed.
func (c *BazecoreKeymap) Run(out io.Writer) error {
	cfg, err := bazecore.Load(c.Path)
	if err != nil {
		return err
	}
	km, err := cfg.Keymap()
	if err != nil {
		return fmt.Errorf("%s: %w", c.Path, err)
	}
	return writeDocument(out, c.Output, c.Format, keymapDoc, km.Renumber())
}

// BackupCommand groups the backup history subcommands.
type BackupCommand struct {
	Create  BackupCreate  `cmd:"" help:"Read the keyboard configuration into the backup history"`
	List    BackupList    `cmd:"" help:"List stored backups"`
	Restore BackupRestore `cmd:"" help:"Write a stored backup to the keyboard"`
	Export  BackupExport  `cmd:"" help:"Write a stored backup as a Bazecore backup file"`
	Import  BackupImport  `cmd:"" help:"Add a Bazecore backup file to the history"`
	Delete  BackupDelete  `cmd:"" help:"Remove a stored backup"`
}

func openStore(opts StoreOptions) (*store.Store, error) {
	path := opts.DB
	if path == "" {
		path = configpaths.DefaultBackupDB()
	}
	return store.Open(path)
}

// resolveBackup turns "latest" or a numeric id into a backup id.
func resolveBackup(ctx context.Context, s *store.Store, ref string) (int64, error) {
	if ref == "" || ref == "latest" {
		b, err := s.Latest(ctx)
		if err != nil {
			return 0, err
		}
		return b.ID, nil
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("backup %q: expected an id or \"latest\"", ref)
	}
	return id, nil
}

func shortDigest(b store.Backup) string {
	return hex.EncodeToString(b.Digest[:6])
}

type BackupCreate struct {
	Label    string   `short:"l" help:"Free-form note stored with the backup"`
	Commands []string `help:"Commands to back up instead of the default set"`
}

// Run is called by Kong when the backup create command is executed.
func (c *BackupCreate) Run(dev *Device, opts StoreOptions, out io.Writer, logger *slog.Logger) error {
	ctx, stop := signalContext()
	defer stop()

	s, err := openStore(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	var commands []string
	if len(c.Commands) > 0 {
		commands = c.Commands
	}
	var (
		entries   []bazecore.Command
		transport string
	)
	err = dev.Do(ctx, func(ctx context.Context, kb *defy.Keyboard) error {
		transport = kb.Kind().String()
		var err error
		entries, err = kb.Backup(ctx, commands)
		return err
	})
	if err != nil {
		return err
	}

	b, created, err := s.Save(ctx, c.Label, transport, entries)
	if err != nil {
		return err
	}
	if !created {
		logger.Info("Keyboard configuration unchanged since an earlier backup", "id", b.ID)
	} else {
		logger.Info("Stored backup", "id", b.ID, "entries", b.Entries)
	}
	_, err = fmt.Fprintf(out, "%d\t%s\n", b.ID, shortDigest(b))
	return err
}

type BackupList struct{}

// Run is called by Kong when the backup list command is executed.
func (c *BackupList) Run(opts StoreOptions, out io.Writer) error {
	ctx, stop := signalContext()
	defer stop()

	s, err := openStore(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	backups, err := s.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tTRANSPORT\tENTRIES\tDIGEST\tLABEL")
	for _, b := range backups {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			b.ID, b.CreatedAt.Local().Format(time.DateTime), b.Transport, b.Entries, shortDigest(b), b.Label)
	}
	return tw.Flush()
}

type BackupRestore struct {
	Backup string `arg:"" optional:"" help:"Backup id or \"latest\"" default:"latest"`
}

// Run is called by Kong when the backup restore command is executed.
func (c *BackupRestore) Run(dev *Device, opts StoreOptions, logger *slog.Logger) error {
	ctx, stop := signalContext()
	defer stop()

	s, err := openStore(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := resolveBackup(ctx, s, c.Backup)
	if err != nil {
		return err
	}
	entries, err := s.Entries(ctx, id)
	if err != nil {
		return err
	}
	err = dev.Do(ctx, func(ctx context.Context, kb *defy.Keyboard) error {
		return kb.Restore(ctx, entries)
	})
	if err != nil {
		return err
	}
	logger.Info("Restored backup", "id", id, "entries", len(entries))
	return nil
}

type BackupExport struct {
	Backup string `arg:"" help:"Backup id or \"latest\""`
	Output string `short:"o" help:"Destination file; stdout when empty or -" default:"-"`
}

// Run is called by Kong when the backup export command is executed.
func (c *BackupExport) Run(opts StoreOptions, out io.Writer) error {
	ctx, stop := signalContext()
	defer stop()

	s, err := openStore(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := resolveBackup(ctx, s, c.Backup)
	if err != nil {
		return err
	}
	entries, err := s.Entries(ctx, id)
	if err != nil {
		return err
	}
	cfg := bazecore.FromEntries(entries)
	if toStdout(c.Output) {
		return bazecore.Write(out, cfg)
	}

	if err := configpaths.EnsureDir(c.Output); err != nil {
		return err
	}
	f, err := os.Create(c.Output)
	if err != nil {
		return err
	}
	if err := bazecore.Write(f, cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type BackupImport struct {
	Path  string `arg:"" type:"existingfile" help:"Path to the Bazecore JSON backup"`
	Label string `short:"l" help:"Free-form note stored with the backup"`
}

// Run is called by Kong when the backup import command is executed.
func (c *BackupImport) Run(opts StoreOptions, out io.Writer) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := bazecore.Load(c.Path)
	if err != nil {
		return err
	}
	s, err := openStore(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	label := c.Label
	if label == "" {
		label = c.Path
	}
	b, _, err := s.Save(ctx, label, "bazecore", cfg.Backup)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%d\t%s\n", b.ID, shortDigest(b))
	return err
}

type BackupDelete struct {
	ID int64 `arg:"" help:"Backup id"`
}

// Run is called by Kong when the backup delete command is executed.
func (c *BackupDelete) Run(opts StoreOptions) error {
	ctx, stop := signalContext()
	defer stop()

	s, err := openStore(opts)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Delete(ctx, c.ID)
}

package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/marmos91/dittostore/pkg/console"
	"github.com/marmos91/dittostore/pkg/storage"
)

// printLines prints each line in order, stopping at the first failure.
func printLines(c console.Console, lines ...string) error {
	for _, line := range lines {
		if err := c.Print(line); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// CD
// ============================================================================

// CdCommand changes the current drive.
type CdCommand struct {
	storage *storage.Storage
}

func NewCdCommand(s *storage.Storage) *CdCommand { return &CdCommand{storage: s} }

func (c *CdCommand) Name() string        { return "CD" }
func (c *CdCommand) Syntax() string      { return "path$" }
func (c *CdCommand) Description() string { return "Changes the current drive." }

func (c *CdCommand) Exec(_ context.Context, args []Arg) error {
	path, err := singleString(args, "CD requires a string as the path")
	if err != nil {
		return err
	}
	return c.storage.Cd(path)
}

// ============================================================================
// PWD
// ============================================================================

// PwdCommand prints the current drive.
type PwdCommand struct {
	storage *storage.Storage
	console console.Console
}

func NewPwdCommand(s *storage.Storage, c console.Console) *PwdCommand {
	return &PwdCommand{storage: s, console: c}
}

func (c *PwdCommand) Name() string        { return "PWD" }
func (c *PwdCommand) Syntax() string      { return "" }
func (c *PwdCommand) Description() string { return "Prints the current working location." }

func (c *PwdCommand) Exec(_ context.Context, args []Arg) error {
	if len(args) != 0 {
		return argumentError("PWD takes no arguments")
	}

	cwd := c.storage.Cwd()
	if cwd == "" {
		cwd = "(none)"
	}
	return printLines(c.console, "", "    Working directory: "+cwd, "")
}

// ============================================================================
// DIR
// ============================================================================

// DirCommand lists the contents of a drive.
type DirCommand struct {
	storage  *storage.Storage
	console  console.Console
	location *time.Location
}

func NewDirCommand(s *storage.Storage, c console.Console) *DirCommand {
	return &DirCommand{storage: s, console: c, location: time.Local}
}

// WithLocation sets the time zone modification times are shown in.
func (c *DirCommand) WithLocation(loc *time.Location) *DirCommand {
	c.location = loc
	return c
}

func (c *DirCommand) Name() string   { return "DIR" }
func (c *DirCommand) Syntax() string { return "[path$]" }

func (c *DirCommand) Description() string {
	return "Displays the list of files on the current or given drive."
}

func (c *DirCommand) Exec(ctx context.Context, args []Arg) error {
	path := ""
	if len(args) != 0 {
		var err error
		if path, err = singleString(args, "DIR requires a string as the path"); err != nil {
			return err
		}
	}

	entries, err := c.storage.Enumerate(ctx, path)
	if err != nil {
		return err
	}

	location := c.storage.Cwd()
	if name, _, found := strings.Cut(path, ":"); found {
		location = name + ":/"
	}

	lines := []string{
		"",
		"    Directory of " + location,
		"",
		"    Modified              Size    Name",
	}
	var total uint64
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("    %s  %10d    %s",
			e.ModTime.In(c.location).Format("2006-01-02 15:04"), e.Length, e.Name))
		total += e.Length
	}
	lines = append(lines, "", fmt.Sprintf("    %d file(s), %d bytes", len(entries), total), "")

	return printLines(c.console, lines...)
}

// ============================================================================
// MOUNT / UNMOUNT
// ============================================================================

// MountCommand lists the mount table or mounts a new drive.
type MountCommand struct {
	storage *storage.Storage
	console console.Console
}

func NewMountCommand(s *storage.Storage, c console.Console) *MountCommand {
	return &MountCommand{storage: s, console: c}
}

func (c *MountCommand) Name() string   { return "MOUNT" }
func (c *MountCommand) Syntax() string { return "[drive_name$, target$]" }

func (c *MountCommand) Description() string {
	return "Lists the mounted drives or mounts a new drive.\n" +
		"With no arguments, prints the list of mounted drives and their targets.\n" +
		"With two arguments, mounts target$ under drive_name$. The target is a URI of the " +
		"form scheme://path such as memory:// or file:///tmp/programs, or cloud://username " +
		"after LOGIN to access the files another user shared with you."
}

func (c *MountCommand) Exec(ctx context.Context, args []Arg) error {
	switch {
	case len(args) == 0:
		return c.list()

	case len(args) == 2 &&
		args[0].Value != nil && args[0].Sep == ArgSepLong &&
		args[1].Value != nil && args[1].Sep == ArgSepEnd:
		name, ok := args[0].Value.(string)
		if !ok {
			return argumentError("MOUNT requires a string as the drive name")
		}
		target, ok := args[1].Value.(string)
		if !ok {
			return argumentError("MOUNT requires a string as the target")
		}
		return c.storage.Mount(ctx, name, target)

	default:
		return argumentError("MOUNT requires zero or two arguments")
	}
}

func (c *MountCommand) list() error {
	mounts := c.storage.Mounted()

	lines := []string{""}
	for _, m := range mounts {
		lines = append(lines, fmt.Sprintf("    %-16s %s", m.Name, m.Target))
	}
	lines = append(lines, "", fmt.Sprintf("    %d drive(s)", len(mounts)), "")
	return printLines(c.console, lines...)
}

// UnmountCommand removes a drive from the mount table.
type UnmountCommand struct {
	storage *storage.Storage
}

func NewUnmountCommand(s *storage.Storage) *UnmountCommand { return &UnmountCommand{storage: s} }

func (c *UnmountCommand) Name() string   { return "UNMOUNT" }
func (c *UnmountCommand) Syntax() string { return "drive_name$" }

func (c *UnmountCommand) Description() string {
	return "Unmounts a drive. The current drive cannot be unmounted."
}

func (c *UnmountCommand) Exec(_ context.Context, args []Arg) error {
	name, err := singleString(args, "UNMOUNT requires a string as the drive name")
	if err != nil {
		return err
	}
	return c.storage.Unmount(strings.TrimSuffix(name, ":"))
}

// ============================================================================
// KILL / TYPE
// ============================================================================

// KillCommand deletes a file.
type KillCommand struct {
	storage *storage.Storage
}

func NewKillCommand(s *storage.Storage) *KillCommand { return &KillCommand{storage: s} }

func (c *KillCommand) Name() string        { return "KILL" }
func (c *KillCommand) Syntax() string      { return "filename$" }
func (c *KillCommand) Description() string { return "Deletes the given file." }

func (c *KillCommand) Exec(ctx context.Context, args []Arg) error {
	filename, err := singleString(args, "KILL requires a string as the filename")
	if err != nil {
		return err
	}
	return c.storage.Delete(ctx, filename)
}

// TypeCommand prints the contents of a file.
type TypeCommand struct {
	storage *storage.Storage
	console console.Console
}

func NewTypeCommand(s *storage.Storage, c console.Console) *TypeCommand {
	return &TypeCommand{storage: s, console: c}
}

func (c *TypeCommand) Name() string        { return "TYPE" }
func (c *TypeCommand) Syntax() string      { return "filename$" }
func (c *TypeCommand) Description() string { return "Prints the contents of the given file." }

func (c *TypeCommand) Exec(ctx context.Context, args []Arg) error {
	filename, err := singleString(args, "TYPE requires a string as the filename")
	if err != nil {
		return err
	}

	content, err := c.storage.Get(ctx, filename)
	if err != nil {
		return err
	}
	if content == "" {
		return nil
	}
	return printLines(c.console, strings.Split(strings.TrimSuffix(content, "\n"), "\n")...)
}

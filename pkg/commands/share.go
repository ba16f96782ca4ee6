package commands

import (
	"context"
	"fmt"

	"github.com/marmos91/dittostore/pkg/console"
	"github.com/marmos91/dittostore/pkg/drive"
	"github.com/marmos91/dittostore/pkg/storage"
)

// ParseAcl parses one ACL change of the form "username+r" or "username-r"
// and records it in add or remove.
//
// The trailing two characters are the change; tokens shorter than three
// characters have no change and are rejected. The r flag is
// case-insensitive, the username is not. On error neither set is modified.
func ParseAcl(token string, add, remove *drive.FileAcls) error {
	username, change := token, ""
	if len(token) >= 3 {
		username, change = token[:len(token)-2], token[len(token)-2:]
	}

	switch change {
	case "+r", "+R":
		add.AddReader(username)
	case "-r", "-R":
		remove.AddReader(username)
	default:
		return argumentError(`Invalid ACL '%s%s': must be of the form "username+r" or "username-r"`,
			username, change)
	}
	return nil
}

// ShareCommand shows or changes the readers of a file.
type ShareCommand struct {
	storage *storage.Storage
	console console.Console
}

// NewShareCommand creates a SHARE command.
func NewShareCommand(s *storage.Storage, c console.Console) *ShareCommand {
	return &ShareCommand{storage: s, console: c}
}

func (c *ShareCommand) Name() string   { return "SHARE" }
func (c *ShareCommand) Syntax() string { return "filename$ [, acl1$, .., aclN$]" }

func (c *ShareCommand) Description() string {
	return "Displays or modifies the ACLs of a file.\n" +
		"If only filename$ is provided, this command prints out the ACLs of the file.\n" +
		"Otherwise, when any acl$ arguments are specified, this command modifies the ACLs of " +
		"the file to add or remove readers. Each change is of the form \"username+r\" to grant " +
		"read access to a user or \"username-r\" to revoke it.\n" +
		"The special username \"public\" makes the file readable by everyone."
}

func (c *ShareCommand) Exec(ctx context.Context, args []Arg) error {
	if len(args) == 0 {
		return argumentError("SHARE requires one or more arguments")
	}

	if args[0].Value == nil {
		return argumentError("SHARE requires a string as the filename")
	}
	filename, ok := args[0].Value.(string)
	if !ok {
		return argumentError("SHARE requires a string as the filename")
	}

	if args[0].Sep == ArgSepEnd {
		return c.show(ctx, filename)
	}
	if args[0].Sep != ArgSepLong {
		return argumentError("SHARE requires arguments to be separated by commas")
	}

	var add, remove drive.FileAcls
	for _, arg := range args[1:] {
		if arg.Value == nil {
			return argumentError("SHARE arguments cannot be empty")
		}
		if arg.Sep == ArgSepShort || arg.Sep == ArgSepAs {
			return argumentError("SHARE requires arguments to be separated by commas")
		}
		token, ok := arg.Value.(string)
		if !ok {
			return argumentError("SHARE requires strings as ACL changes")
		}
		if err := ParseAcl(token, &add, &remove); err != nil {
			return err
		}
	}

	return c.storage.UpdateAcls(ctx, filename, add, remove)
}

func (c *ShareCommand) show(ctx context.Context, filename string) error {
	acls, err := c.storage.GetAcls(ctx, filename)
	if err != nil {
		return err
	}

	lines := []string{""}
	if acls.IsEmpty() {
		lines = append(lines, fmt.Sprintf("    No ACLs on %s", filename))
	} else {
		lines = append(lines, fmt.Sprintf("    Reader ACLs on %s:", filename))
		for _, reader := range acls.Readers() {
			lines = append(lines, "    "+reader)
		}
	}
	lines = append(lines, "")

	for _, line := range lines {
		if err := c.console.Print(line); err != nil {
			return err
		}
	}
	return nil
}

package commands

import (
	"context"
	"errors"

	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/pkg/cloud"
	"github.com/marmos91/dittostore/pkg/console"
	"github.com/marmos91/dittostore/pkg/drive"
	"github.com/marmos91/dittostore/pkg/storage"
)

const (
	// CloudScheme is the scheme registered by a successful LOGIN.
	CloudScheme = "cloud"

	// CloudDrive is the drive name the user's own cloud drive is mounted as.
	CloudDrive = "CLOUD"
)

// LoginCommand authenticates against the cloud service and mounts the
// user's drive as CLOUD.
type LoginCommand struct {
	service cloud.Service
	storage *storage.Storage
	console console.Console
}

// NewLoginCommand creates a LOGIN command.
func NewLoginCommand(service cloud.Service, s *storage.Storage, c console.Console) *LoginCommand {
	return &LoginCommand{service: service, storage: s, console: c}
}

func (c *LoginCommand) Name() string   { return "LOGIN" }
func (c *LoginCommand) Syntax() string { return "username$ [, password$]" }

func (c *LoginCommand) Description() string {
	return "Logs into the user's account.\n" +
		"On a successful login, this mounts your personal drive under the CLOUD:/ location, " +
		"which you can access with any other file-related commands. " +
		"Using the cloud:// file system scheme, you can mount other people's drives with " +
		"the MOUNT command.\n" +
		"To create an account, use the service's sign-up page.\n" +
		"If password$ is not provided, it is asked interactively."
}

func (c *LoginCommand) Exec(ctx context.Context, args []Arg) error {
	if c.storage.HasScheme(CloudScheme) {
		return drive.NewInternalError("Support for calling LOGIN twice in the same session is not implemented")
	}

	username, password, err := c.credentials(ctx, args)
	if err != nil {
		return err
	}

	resp, err := c.service.Login(ctx, username, password)
	if err != nil {
		return classifyServiceError(err)
	}
	logger.Info("Logged in to cloud service: user=%s", username)

	if len(resp.Motd) > 0 {
		if err := c.printMotd(resp.Motd); err != nil {
			return err
		}
	}

	return c.storage.RegisterSchemeAndMount(ctx, CloudScheme,
		cloud.NewDriveFactory(c.service, resp.AccessToken),
		CloudDrive, CloudScheme+"://"+username)
}

// credentials extracts the username and password, prompting for the
// password when only the username was given.
func (c *LoginCommand) credentials(ctx context.Context, args []Arg) (string, string, error) {
	switch {
	case len(args) == 1 && args[0].Value != nil && args[0].Sep == ArgSepEnd:
		username, ok := args[0].Value.(string)
		if !ok {
			return "", "", argumentError("LOGIN requires a string as the username")
		}
		password, err := c.console.ReadLineSecure(ctx, "Password: ")
		if err != nil {
			return "", "", err
		}
		return username, password, nil

	case len(args) == 2 &&
		args[0].Value != nil && args[0].Sep == ArgSepLong &&
		args[1].Value != nil && args[1].Sep == ArgSepEnd:
		username, ok := args[0].Value.(string)
		if !ok {
			return "", "", argumentError("LOGIN requires a string as the username")
		}
		password, ok := args[1].Value.(string)
		if !ok {
			return "", "", argumentError("LOGIN requires a string as the password")
		}
		return username, password, nil

	default:
		return "", "", argumentError("LOGIN requires one or two arguments")
	}
}

func (c *LoginCommand) printMotd(motd []string) error {
	width := console.WidthOf(c.console)

	lines := []string{"", "----- BEGIN SERVER MOTD -----"}
	for _, line := range motd {
		lines = append(lines, console.Refill(line, width)...)
	}
	lines = append(lines, "-----  END SERVER MOTD  -----", "")

	for _, line := range lines {
		if err := c.console.Print(line); err != nil {
			return err
		}
	}
	return nil
}

// classifyServiceError keeps StoreErrors and context errors as they are and
// turns anything else into a RemoteFailure carrying its text.
func classifyServiceError(err error) error {
	var se *drive.StoreError
	if errors.As(err, &se) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return drive.NewRemoteFailureError(err.Error())
}

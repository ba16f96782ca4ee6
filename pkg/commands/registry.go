// Package commands implements the session commands that drive storage and
// the cloud service: LOGIN, SHARE and the drive management commands.
//
// Commands receive already-evaluated arguments (see Arg) and report
// failures as drive.StoreError values so callers can tell argument errors
// from storage and service failures.
package commands

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/marmos91/dittostore/pkg/cloud"
	"github.com/marmos91/dittostore/pkg/console"
	"github.com/marmos91/dittostore/pkg/drive"
	"github.com/marmos91/dittostore/pkg/storage"
)

// Command is one session command.
type Command interface {
	// Name is the upper-case command name, e.g. "SHARE"
	Name() string

	// Syntax is a one-line argument summary for help output
	Syntax() string

	// Description is a short paragraph for help output
	Description() string

	// Exec runs the command
	Exec(ctx context.Context, args []Arg) error
}

// Registry holds commands by name.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Add registers cmd, replacing any command with the same name.
func (r *Registry) Add(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[strings.ToUpper(cmd.Name())] = cmd
}

// AddAll registers every command in cmds.
func (r *Registry) AddAll(cmds ...Command) {
	for _, cmd := range cmds {
		r.Add(cmd)
	}
}

// Lookup finds a command by name, ignoring case.
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[strings.ToUpper(name)]
	return cmd, ok
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Exec runs the named command.
func (r *Registry) Exec(ctx context.Context, name string, args []Arg) error {
	cmd, ok := r.Lookup(name)
	if !ok {
		return drive.NewNotFoundError("Unknown command", strings.ToUpper(name))
	}
	return cmd.Exec(ctx, args)
}

// Env is what commands operate on.
type Env struct {
	Storage *storage.Storage
	Console console.Console

	// Service is the cloud service. LOGIN is only available when set.
	Service cloud.Service
}

// All returns every command that env supports.
func All(env Env) []Command {
	cmds := []Command{
		NewCdCommand(env.Storage),
		NewDirCommand(env.Storage, env.Console),
		NewKillCommand(env.Storage),
		NewMountCommand(env.Storage, env.Console),
		NewPwdCommand(env.Storage, env.Console),
		NewShareCommand(env.Storage, env.Console),
		NewTypeCommand(env.Storage, env.Console),
		NewUnmountCommand(env.Storage),
	}
	if env.Service != nil {
		cmds = append(cmds, NewLoginCommand(env.Service, env.Storage, env.Console))
	}
	return cmds
}

// singleString extracts the only argument of a command taking one string.
func singleString(args []Arg, errMsg string) (string, error) {
	if len(args) != 1 || args[0].Value == nil || args[0].Sep != ArgSepEnd {
		return "", argumentError("%s", errMsg)
	}
	s, ok := args[0].Value.(string)
	if !ok {
		return "", argumentError("%s", errMsg)
	}
	return s, nil
}

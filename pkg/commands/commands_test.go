package commands

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/dittostore/pkg/cloud"
	"github.com/marmos91/dittostore/pkg/cloud/cloudtest"
	"github.com/marmos91/dittostore/pkg/console"
	"github.com/marmos91/dittostore/pkg/drive"
	"github.com/marmos91/dittostore/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tester is a session with a MEMORY drive mounted and current, a captured
// console and an in-memory cloud service.
type tester struct {
	t        *testing.T
	storage  *storage.Storage
	console  *console.Capture
	service  *cloudtest.Service
	registry *Registry
}

func newTester(t *testing.T) *tester {
	t.Helper()

	s := storage.NewStorage(nil)
	require.NoError(t, s.Mount(context.Background(), "MEMORY", "memory://"))
	t.Cleanup(func() { _ = s.Close() })

	c := console.NewCapture()
	svc := cloudtest.NewService()

	registry := NewRegistry()
	registry.AddAll(All(Env{Storage: s, Console: c, Service: svc})...)
	dir, _ := registry.Lookup("DIR")
	dir.(*DirCommand).WithLocation(time.UTC)

	return &tester{t: t, storage: s, console: c, service: svc, registry: registry}
}

// run parses and executes one command line.
func (tt *tester) run(line string) error {
	tt.t.Helper()
	name, args, err := ParseLine(line)
	require.NoError(tt.t, err, line)
	return tt.registry.Exec(context.Background(), name, args)
}

func (tt *tester) mockLogin(username, password string, motd ...string) {
	tt.service.AddMockLogin(username, password, &cloud.LoginResponse{
		AccessToken: cloud.NewAccessToken("random token"),
		Motd:        motd,
	}, nil)
}

// ============================================================================
// LOGIN
// ============================================================================

func TestLogin_WithPassword(t *testing.T) {
	tt := newTester(t)
	tt.mockLogin("the-username", "the-password")
	assert.False(t, tt.storage.IsMounted(CloudDrive))

	require.NoError(t, tt.run(`LOGIN "the-username", "the-password"`))

	assert.True(t, tt.storage.IsMounted(CloudDrive))
	assert.True(t, tt.storage.HasScheme(CloudScheme))
	assert.Empty(t, tt.console.Lines())
	assert.Contains(t, tt.storage.Mounted(), storage.MountInfo{Name: "CLOUD", Target: "cloud://the-username"})
}

func TestLogin_AsksPassword(t *testing.T) {
	tt := newTester(t)
	tt.mockLogin("the-username", "the-password")
	tt.console.AddInput("the-password")

	require.NoError(t, tt.run(`LOGIN "the-username"`))

	assert.Equal(t, []string{"Password: "}, tt.console.Prompts())
	assert.Equal(t, 0, tt.console.PendingInput())
	assert.True(t, tt.storage.IsMounted(CloudDrive))
}

func TestLogin_ShowsMotd(t *testing.T) {
	tt := newTester(t)
	tt.mockLogin("the-username", "the-password", "first line", "second line")

	require.NoError(t, tt.run(`LOGIN "the-username", "the-password"`))

	assert.Equal(t, []string{
		"",
		"----- BEGIN SERVER MOTD -----",
		"first line",
		"second line",
		"-----  END SERVER MOTD  -----",
		"",
	}, tt.console.Lines())
}

func TestLogin_MotdIsWrapped(t *testing.T) {
	tt := newTester(t)
	tt.console.SetWidth(12)
	tt.mockLogin("u", "p", "a message that is long")

	require.NoError(t, tt.run(`LOGIN "u", "p"`))

	assert.Equal(t, []string{
		"",
		"----- BEGIN SERVER MOTD -----",
		"a message",
		"that is long",
		"-----  END SERVER MOTD  -----",
		"",
	}, tt.console.Lines())
}

func TestLogin_BadCredentials(t *testing.T) {
	tt := newTester(t)
	tt.service.AddMockLogin("bad-user", "the-password", nil, drive.NewRemoteFailureError("Unknown user"))
	tt.service.AddMockLogin("the-username", "bad-password", nil, drive.NewRemoteFailureError("Invalid password"))

	assert.EqualError(t, tt.run(`LOGIN "bad-user", "the-password"`), "Unknown user")
	assert.EqualError(t, tt.run(`LOGIN "the-username", "bad-password"`), "Invalid password")

	assert.False(t, tt.storage.IsMounted(CloudDrive))
	assert.False(t, tt.storage.HasScheme(CloudScheme))
}

func TestLogin_TwiceNotSupported(t *testing.T) {
	tt := newTester(t)
	tt.mockLogin("the-username", "the-password")

	require.NoError(t, tt.run(`LOGIN "the-username", "the-password"`))
	err := tt.run(`LOGIN "a", "b"`)

	assert.EqualError(t, err, "Support for calling LOGIN twice in the same session is not implemented")
	assert.True(t, drive.HasCode(err, drive.ErrInternal))
	assert.True(t, tt.storage.IsMounted(CloudDrive))
	assert.Equal(t, 1, tt.service.LoginCalls())
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`LOGIN`, "LOGIN requires one or two arguments"},
		{`LOGIN "a", "b", "c"`, "LOGIN requires one or two arguments"},
		{`LOGIN "a"; "b"`, "LOGIN requires one or two arguments"},
		{`LOGIN 3`, "LOGIN requires a string as the username"},
		{`LOGIN 3, "a"`, "LOGIN requires a string as the username"},
		{`LOGIN "a", 3`, "LOGIN requires a string as the password"},
	}

	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			tt := newTester(t)
			err := tt.run(tc.line)
			assert.EqualError(t, err, tc.want)
			assert.True(t, drive.IsInvalidArgument(err))
			assert.Equal(t, 0, tt.service.LoginCalls())
		})
	}
}

func TestLogin_CancelledWhilePrompting(t *testing.T) {
	tt := newTester(t)
	tt.mockLogin("u", "p")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	name, args, err := ParseLine(`LOGIN "u"`)
	require.NoError(t, err)
	err = tt.registry.Exec(ctx, name, args)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, tt.storage.HasScheme(CloudScheme))
	assert.Equal(t, 0, tt.service.LoginCalls())
}

func TestLogin_MountsOtherUsersShares(t *testing.T) {
	tt := newTester(t)
	ctx := context.Background()

	ownerToken := tt.service.AddUser("user-123", "pw")
	owner := cloud.NewDrive(tt.service, ownerToken, "user-123")
	require.NoError(t, owner.Put(ctx, "demo.bas", "PRINT 1"))
	require.NoError(t, owner.UpdateAcls(ctx, "demo.bas", drive.NewFileAcls("me"), drive.FileAcls{}))
	tt.service.AddUser("me", "secret")

	require.NoError(t, tt.run(`LOGIN "me", "secret"`))
	require.NoError(t, tt.run(`MOUNT "X", "cloud://user-123"`))
	require.NoError(t, tt.run(`TYPE "X:/demo.bas"`))

	assert.Equal(t, []string{"PRINT 1"}, tt.console.Lines())
}

func TestLogin_NotRegisteredWithoutService(t *testing.T) {
	s := storage.NewStorage(nil)
	registry := NewRegistry()
	registry.AddAll(All(Env{Storage: s, Console: console.NewCapture()})...)

	_, ok := registry.Lookup("LOGIN")
	assert.False(t, ok)
	_, ok = registry.Lookup("share")
	assert.True(t, ok)
}

// ============================================================================
// SHARE
// ============================================================================

func TestParseAcl_Ok(t *testing.T) {
	var add, remove drive.FileAcls

	require.NoError(t, ParseAcl("user1+r", &add, &remove))
	require.NoError(t, ParseAcl("user2+R", &add, &remove))
	require.NoError(t, ParseAcl("X-r", &add, &remove))
	require.NoError(t, ParseAcl("Y-R", &add, &remove))

	assert.Equal(t, []string{"user1", "user2"}, add.Readers())
	assert.Equal(t, []string{"X", "Y"}, remove.Readers())
}

func TestParseAcl_Errors(t *testing.T) {
	add := drive.NewFileAcls("before1")
	remove := drive.NewFileAcls("before2")

	for _, token := range []string{"", "r", "+r", "-r", "foo+", "bar-", "foobar", "x+w"} {
		err := ParseAcl(token, &add, &remove)
		require.Error(t, err, token)
		assert.Contains(t, err.Error(), "Invalid ACL")
		assert.Contains(t, err.Error(), "'"+token+"'")
		assert.True(t, drive.IsInvalidArgument(err))
	}

	assert.Equal(t, []string{"before1"}, add.Readers())
	assert.Equal(t, []string{"before2"}, remove.Readers())
}

func TestShare_PrintNoAcls(t *testing.T) {
	tt := newTester(t)
	require.NoError(t, tt.storage.Put(context.Background(), "MEMORY:/FOO", ""))

	require.NoError(t, tt.run(`SHARE "MEMORY:/FOO"`))

	assert.Equal(t, []string{"", "    No ACLs on MEMORY:/FOO", ""}, tt.console.Lines())
	content, err := tt.storage.Get(context.Background(), "MEMORY:/FOO")
	require.NoError(t, err)
	assert.Equal(t, "", content)
}

func TestShare_PrintSomeAcls(t *testing.T) {
	tt := newTester(t)
	ctx := context.Background()
	require.NoError(t, tt.storage.Put(ctx, "MEMORY:/FOO", ""))
	require.NoError(t, tt.storage.UpdateAcls(ctx, "MEMORY:/FOO", drive.NewFileAcls("some", "person"), drive.FileAcls{}))

	require.NoError(t, tt.run(`SHARE "MEMORY:/FOO"`))

	assert.Equal(t, []string{"", "    Reader ACLs on MEMORY:/FOO:", "    person", "    some", ""}, tt.console.Lines())
}

func TestShare_UpdatesAcls(t *testing.T) {
	tt := newTester(t)
	ctx := context.Background()
	require.NoError(t, tt.storage.Put(ctx, "MEMORY:/FOO", "x"))
	require.NoError(t, tt.storage.UpdateAcls(ctx, "MEMORY:/FOO", drive.NewFileAcls("old"), drive.FileAcls{}))

	require.NoError(t, tt.run(`SHARE "FOO", "alice+r", "public+R", "old-r"`))

	acls, err := tt.storage.GetAcls(ctx, "MEMORY:/FOO")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "public"}, acls.Readers())
	assert.Empty(t, tt.console.Lines())
}

func TestShare_BadTokenLeavesAclsUntouched(t *testing.T) {
	tt := newTester(t)
	ctx := context.Background()
	require.NoError(t, tt.storage.Put(ctx, "MEMORY:/FOO", "x"))

	err := tt.run(`SHARE "FOO", "alice+r", "bogus"`)
	require.Error(t, err)

	acls, err := tt.storage.GetAcls(ctx, "MEMORY:/FOO")
	require.NoError(t, err)
	assert.True(t, acls.IsEmpty())
}

func TestShare_UnsupportedDrive(t *testing.T) {
	tt := newTester(t)
	ctx := context.Background()
	require.NoError(t, tt.storage.Mount(ctx, "LOCAL", "file://"+t.TempDir()))
	require.NoError(t, tt.storage.Put(ctx, "LOCAL:/FOO", "x"))

	err := tt.run(`SHARE "LOCAL:/FOO"`)
	assert.True(t, drive.IsNotSupported(err))
}

func TestShare_Errors(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`SHARE`, "SHARE requires one or more arguments"},
		{`SHARE 1`, "SHARE requires a string as the filename"},
		{`SHARE , "a"`, "SHARE requires a string as the filename"},
		{`SHARE "a"; "b"`, "SHARE requires arguments to be separated by commas"},
		{`SHARE "a", "b"; "c"`, "SHARE requires arguments to be separated by commas"},
		{`SHARE "a", , "b"`, "SHARE arguments cannot be empty"},
		{`SHARE "a", 3, "b"`, "SHARE requires strings as ACL changes"},
		{`SHARE "a", "foobar"`, `Invalid ACL 'foobar': must be of the form "username+r" or "username-r"`},
	}

	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			tt := newTester(t)
			assert.EqualError(t, tt.run(tc.line), tc.want)
		})
	}
}

// ============================================================================
// Drive commands
// ============================================================================

func TestDir(t *testing.T) {
	tt := newTester(t)
	ctx := context.Background()
	require.NoError(t, tt.storage.Put(ctx, "MEMORY:/some file.bas", "this is not empty\n"))
	require.NoError(t, tt.storage.Put(ctx, "MEMORY:/empty.bas", ""))

	require.NoError(t, tt.run(`DIR`))

	assert.Equal(t, []string{
		"",
		"    Directory of MEMORY:/",
		"",
		"    Modified              Size    Name",
		"    2020-05-06 09:37           0    empty.bas",
		"    2020-05-06 09:37          18    some file.bas",
		"",
		"    2 file(s), 18 bytes",
		"",
	}, tt.console.Lines())
}

func TestDir_OtherDrive(t *testing.T) {
	tt := newTester(t)
	require.NoError(t, tt.run(`MOUNT "OTHER", "memory://"`))

	require.NoError(t, tt.run(`DIR "OTHER:"`))

	lines := tt.console.Lines()
	require.Len(t, lines, 7)
	assert.Equal(t, "    Directory of OTHER:/", lines[1])
	assert.Equal(t, "    0 file(s), 0 bytes", lines[5])
}

func TestDir_Errors(t *testing.T) {
	tt := newTester(t)
	assert.True(t, drive.IsNotFound(tt.run(`DIR "NOPE:"`)))
	assert.EqualError(t, tt.run(`DIR 1`), "DIR requires a string as the path")
}

func TestCdAndPwd(t *testing.T) {
	tt := newTester(t)
	require.NoError(t, tt.run(`MOUNT "OTHER", "memory://"`))

	require.NoError(t, tt.run(`PWD`))
	require.NoError(t, tt.run(`CD "OTHER:"`))
	require.NoError(t, tt.run(`PWD`))

	assert.Equal(t, []string{
		"", "    Working directory: MEMORY:/", "",
		"", "    Working directory: OTHER:/", "",
	}, tt.console.Lines())

	assert.True(t, drive.IsNotFound(tt.run(`CD "MISSING:"`)))
	assert.EqualError(t, tt.run(`PWD "x"`), "PWD takes no arguments")
}

func TestMount_ListAndUnmount(t *testing.T) {
	tt := newTester(t)
	require.NoError(t, tt.run(`MOUNT "OTHER", "memory://"`))

	require.NoError(t, tt.run(`MOUNT`))
	assert.Equal(t, []string{
		"",
		"    MEMORY           memory://",
		"    OTHER            memory://",
		"",
		"    2 drive(s)",
		"",
	}, tt.console.Lines())

	require.NoError(t, tt.run(`UNMOUNT "OTHER:"`))
	assert.False(t, tt.storage.IsMounted("OTHER"))

	assert.True(t, drive.IsInvalidArgument(tt.run(`UNMOUNT "MEMORY"`)))
	assert.EqualError(t, tt.run(`MOUNT "X"`), "MOUNT requires zero or two arguments")
	assert.EqualError(t, tt.run(`MOUNT 1, "memory://"`), "MOUNT requires a string as the drive name")
	assert.True(t, drive.IsNotFound(tt.run(`MOUNT "X", "nope://"`)))
}

func TestKillAndType(t *testing.T) {
	tt := newTester(t)
	ctx := context.Background()
	require.NoError(t, tt.storage.Put(ctx, "MEMORY:/prog.bas", "10 PRINT 1\n20 END\n"))

	require.NoError(t, tt.run(`TYPE "prog.bas"`))
	assert.Equal(t, []string{"10 PRINT 1", "20 END"}, tt.console.Lines())

	require.NoError(t, tt.run(`KILL "MEMORY:/prog.bas"`))
	assert.True(t, drive.IsNotFound(tt.run(`TYPE "prog.bas"`)))
	assert.True(t, drive.IsNotFound(tt.run(`KILL "prog.bas"`)))
}

func TestRegistry_UnknownCommand(t *testing.T) {
	tt := newTester(t)
	err := tt.run(`FROB "x"`)
	assert.True(t, drive.IsNotFound(err))
}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/dittostore/pkg/drive"
	drivetesting "github.com/marmos91/dittostore/pkg/drive/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryDrive runs the complete drive conformance suite against Drive.
func TestMemoryDrive(t *testing.T) {
	suite := &drivetesting.DriveTestSuite{
		NewDrive: func(t *testing.T) drive.Drive {
			return New()
		},
	}

	suite.Run(t)
}

func TestEnumerate_FixedModTime(t *testing.T) {
	ctx := context.Background()
	d := New()
	require.NoError(t, d.Put(ctx, "some file.bas", "this is not empty\n"))
	require.NoError(t, d.Put(ctx, "empty.bas", ""))

	entries, err := d.Enumerate(ctx)
	require.NoError(t, err)

	want := time.Date(2020, time.May, 6, 9, 37, 55, 0, time.UTC)
	require.Len(t, entries, 2)
	assert.Equal(t, "empty.bas", entries[0].Name)
	assert.Equal(t, uint64(0), entries[0].Length)
	assert.True(t, want.Equal(entries[0].ModTime))
	assert.Equal(t, "some file.bas", entries[1].Name)
	assert.Equal(t, uint64(18), entries[1].Length)
	assert.Equal(t, int64(1_588_757_875), entries[1].ModTime.Unix())
}

func TestDelete_DropsAcls(t *testing.T) {
	ctx := context.Background()
	d := New()
	require.NoError(t, d.Put(ctx, "f", "x"))
	require.NoError(t, d.UpdateAcls(ctx, "f", drive.NewFileAcls("bob"), drive.FileAcls{}))

	require.NoError(t, d.Delete(ctx, "f"))
	require.NoError(t, d.Put(ctx, "f", "y"))

	acls, err := d.GetAcls(ctx, "f")
	require.NoError(t, err)
	assert.True(t, acls.IsEmpty())
}

func TestContents_Snapshot(t *testing.T) {
	ctx := context.Background()
	d := New()
	require.NoError(t, d.Put(ctx, "a", "1"))

	snapshot := d.Contents()
	require.NoError(t, d.Put(ctx, "b", "2"))

	assert.Equal(t, map[string]string{"a": "1"}, snapshot)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New().Put(ctx, "a", "1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFactory_FreshDrivePerMount(t *testing.T) {
	ctx := context.Background()
	first, err := Factory{}.Create(ctx, drive.MountTarget{Scheme: "memory"})
	require.NoError(t, err)
	require.NoError(t, first.Put(ctx, "a", "1"))

	second, err := Factory{}.Create(ctx, drive.MountTarget{Scheme: "memory"})
	require.NoError(t, err)

	entries, err := second.Enumerate(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

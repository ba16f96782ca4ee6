package testing

import (
	"testing"

	"github.com/marmos91/dittostore/pkg/drive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustPut writes an entry and fails the test on error.
func mustPut(t *testing.T, d drive.Drive, name, content string) {
	t.Helper()
	require.NoError(t, d.Put(testContext(), name, content), "Put(%q)", name)
}

// mustGet reads an entry and fails the test on error.
func mustGet(t *testing.T, d drive.Drive, name string) string {
	t.Helper()
	content, err := d.Get(testContext(), name)
	require.NoError(t, err, "Get(%q)", name)
	return content
}

// mustEnumerate lists a drive and fails the test on error.
func mustEnumerate(t *testing.T, d drive.Drive) []drive.DirEntry {
	t.Helper()
	entries, err := d.Enumerate(testContext())
	require.NoError(t, err)
	return entries
}

// entryNames extracts the names of entries in order.
func entryNames(entries []drive.DirEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// asAclDrive skips the test if d does not support ACLs.
func asAclDrive(t *testing.T, d drive.Drive) drive.AclDrive {
	t.Helper()
	aclDrive, ok := d.(drive.AclDrive)
	if !ok {
		t.Skip("Drive does not implement AclDrive")
	}
	return aclDrive
}

// AssertNotFound asserts err is a drive.ErrNotFound StoreError.
func AssertNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, drive.IsNotFound(err), "expected NotFound, got %v", err)
}

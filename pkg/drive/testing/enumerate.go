package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunEnumerateTests executes the Enumerate contract tests.
func (suite *DriveTestSuite) RunEnumerateTests(t *testing.T) {
	t.Run("Empty", suite.testEnumerateEmpty)
	t.Run("SortedWithLengths", suite.testEnumerateSorted)
	t.Run("AfterDelete", suite.testEnumerateAfterDelete)
}

func (suite *DriveTestSuite) testEnumerateEmpty(t *testing.T) {
	d := suite.NewDrive(t)

	entries, err := d.Enumerate(testContext())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func (suite *DriveTestSuite) testEnumerateSorted(t *testing.T) {
	d := suite.NewDrive(t)

	mustPut(t, d, "some file.bas", "this is not empty\n")
	mustPut(t, d, "empty.bas", "")
	mustPut(t, d, "another.txt", "abc")

	entries := mustEnumerate(t, d)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"another.txt", "empty.bas", "some file.bas"}, entryNames(entries))
	assert.Equal(t, uint64(3), entries[0].Length)
	assert.Equal(t, uint64(0), entries[1].Length)
	assert.Equal(t, uint64(18), entries[2].Length)
	for _, e := range entries {
		assert.False(t, e.ModTime.IsZero(), "entry %q has zero mtime", e.Name)
	}
}

func (suite *DriveTestSuite) testEnumerateAfterDelete(t *testing.T) {
	d := suite.NewDrive(t)

	mustPut(t, d, "a", "1")
	mustPut(t, d, "b", "22")
	require.NoError(t, d.Delete(testContext(), "a"))

	entries := mustEnumerate(t, d)
	assert.Equal(t, []string{"b"}, entryNames(entries))
}

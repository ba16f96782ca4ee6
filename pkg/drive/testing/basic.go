package testing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunBasicTests executes the Get/Put/Delete contract tests.
func (suite *DriveTestSuite) RunBasicTests(t *testing.T) {
	t.Run("Get_NotFound", suite.testGetNotFound)
	t.Run("Put_Get_RoundTrip", suite.testPutGetRoundTrip)
	t.Run("Put_Overwrite", suite.testPutOverwrite)
	t.Run("Put_EmptyContent", suite.testPutEmptyContent)
	t.Run("Put_MultilineContent", suite.testPutMultiline)
	t.Run("Delete_NotFound", suite.testDeleteNotFound)
	t.Run("Delete_ThenGet", suite.testDeleteThenGet)
	t.Run("Delete_Twice", suite.testDeleteTwice)
}

// ============================================================================
// Get / Put
// ============================================================================

func (suite *DriveTestSuite) testGetNotFound(t *testing.T) {
	d := suite.NewDrive(t)

	_, err := d.Get(testContext(), "missing.bas")
	AssertNotFound(t, err)
}

func (suite *DriveTestSuite) testPutGetRoundTrip(t *testing.T) {
	d := suite.NewDrive(t)

	mustPut(t, d, "hello.bas", "PRINT \"hello\"")

	assert.Equal(t, "PRINT \"hello\"", mustGet(t, d, "hello.bas"))
}

func (suite *DriveTestSuite) testPutOverwrite(t *testing.T) {
	d := suite.NewDrive(t)

	mustPut(t, d, "file", "first version")
	mustPut(t, d, "file", "v2")

	assert.Equal(t, "v2", mustGet(t, d, "file"))

	entries := mustEnumerate(t, d)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(2), entries[0].Length)
}

func (suite *DriveTestSuite) testPutEmptyContent(t *testing.T) {
	d := suite.NewDrive(t)

	mustPut(t, d, "empty", "")

	assert.Equal(t, "", mustGet(t, d, "empty"))
}

func (suite *DriveTestSuite) testPutMultiline(t *testing.T) {
	d := suite.NewDrive(t)
	content := strings.Repeat("10 PRINT \"x\"\n", 100)

	mustPut(t, d, "long", content)

	assert.Equal(t, content, mustGet(t, d, "long"))
}

// ============================================================================
// Delete
// ============================================================================

func (suite *DriveTestSuite) testDeleteNotFound(t *testing.T) {
	d := suite.NewDrive(t)

	AssertNotFound(t, d.Delete(testContext(), "missing"))
}

func (suite *DriveTestSuite) testDeleteThenGet(t *testing.T) {
	d := suite.NewDrive(t)

	mustPut(t, d, "a", "1")
	mustPut(t, d, "b", "2")
	require.NoError(t, d.Delete(testContext(), "a"))

	_, err := d.Get(testContext(), "a")
	AssertNotFound(t, err)
	assert.Equal(t, "2", mustGet(t, d, "b"))
}

func (suite *DriveTestSuite) testDeleteTwice(t *testing.T) {
	d := suite.NewDrive(t)

	mustPut(t, d, "a", "1")
	require.NoError(t, d.Delete(testContext(), "a"))

	AssertNotFound(t, d.Delete(testContext(), "a"))
}

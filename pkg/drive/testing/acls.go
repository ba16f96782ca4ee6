package testing

import (
	"testing"

	"github.com/marmos91/dittostore/pkg/drive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunAclTests executes the AclDrive contract tests.
//
// Every test is skipped when the drive does not implement drive.AclDrive.
func (suite *DriveTestSuite) RunAclTests(t *testing.T) {
	t.Run("GetAcls_NotFound", suite.testGetAclsNotFound)
	t.Run("GetAcls_EmptyByDefault", suite.testGetAclsEmpty)
	t.Run("UpdateAcls_Add", suite.testUpdateAclsAdd)
	t.Run("UpdateAcls_AddAndRemove", suite.testUpdateAclsAddAndRemove)
	t.Run("UpdateAcls_RemoveWins", suite.testUpdateAclsRemoveWins)
	t.Run("UpdateAcls_NotFound", suite.testUpdateAclsNotFound)
	t.Run("Put_KeepsAcls", suite.testPutKeepsAcls)
}

func (suite *DriveTestSuite) testGetAclsNotFound(t *testing.T) {
	d := asAclDrive(t, suite.NewDrive(t))

	_, err := d.GetAcls(testContext(), "missing")
	AssertNotFound(t, err)
}

func (suite *DriveTestSuite) testGetAclsEmpty(t *testing.T) {
	d := asAclDrive(t, suite.NewDrive(t))
	mustPut(t, d, "file", "content")

	acls, err := d.GetAcls(testContext(), "file")
	require.NoError(t, err)
	assert.True(t, acls.IsEmpty())
}

func (suite *DriveTestSuite) testUpdateAclsAdd(t *testing.T) {
	d := asAclDrive(t, suite.NewDrive(t))
	mustPut(t, d, "file", "content")

	err := d.UpdateAcls(testContext(), "file", drive.NewFileAcls("some", "person"), drive.FileAcls{})
	require.NoError(t, err)

	acls, err := d.GetAcls(testContext(), "file")
	require.NoError(t, err)
	assert.Equal(t, []string{"person", "some"}, acls.Readers())
}

func (suite *DriveTestSuite) testUpdateAclsAddAndRemove(t *testing.T) {
	d := asAclDrive(t, suite.NewDrive(t))
	mustPut(t, d, "file", "content")
	require.NoError(t, d.UpdateAcls(testContext(), "file", drive.NewFileAcls("a", "b"), drive.FileAcls{}))

	err := d.UpdateAcls(testContext(), "file", drive.NewFileAcls("c"), drive.NewFileAcls("a"))
	require.NoError(t, err)

	acls, err := d.GetAcls(testContext(), "file")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, acls.Readers())
}

func (suite *DriveTestSuite) testUpdateAclsRemoveWins(t *testing.T) {
	d := asAclDrive(t, suite.NewDrive(t))
	mustPut(t, d, "file", "content")

	err := d.UpdateAcls(testContext(), "file", drive.NewFileAcls("x", "y"), drive.NewFileAcls("x"))
	require.NoError(t, err)

	acls, err := d.GetAcls(testContext(), "file")
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, acls.Readers())
}

func (suite *DriveTestSuite) testUpdateAclsNotFound(t *testing.T) {
	d := asAclDrive(t, suite.NewDrive(t))

	err := d.UpdateAcls(testContext(), "missing", drive.NewFileAcls("x"), drive.FileAcls{})
	AssertNotFound(t, err)
}

func (suite *DriveTestSuite) testPutKeepsAcls(t *testing.T) {
	d := asAclDrive(t, suite.NewDrive(t))
	mustPut(t, d, "file", "v1")
	require.NoError(t, d.UpdateAcls(testContext(), "file", drive.NewFileAcls("r"), drive.FileAcls{}))

	mustPut(t, d, "file", "v2")

	acls, err := d.GetAcls(testContext(), "file")
	require.NoError(t, err)
	assert.Equal(t, []string{"r"}, acls.Readers())
}

package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittostore/pkg/drive"
)

// DriveTestSuite is a conformance test suite for drive.Drive implementations.
// It tests the contract, not implementation details, making it reusable
// across backends (memory, directory, badger, S3, cloud).
//
// Usage:
//
//	func TestMyDrive(t *testing.T) {
//	    suite := &drivetesting.DriveTestSuite{
//	        NewDrive: func(t *testing.T) drive.Drive {
//	            return mydrive.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type DriveTestSuite struct {
	// NewDrive creates a fresh, empty drive for each test.
	NewDrive func(t *testing.T) drive.Drive
}

// Run executes all tests in the suite.
//
// ACL tests are skipped for drives that do not implement drive.AclDrive.
func (suite *DriveTestSuite) Run(t *testing.T) {
	t.Run("BasicOperations", suite.RunBasicTests)
	t.Run("Enumerate", suite.RunEnumerateTests)
	t.Run("Acls", suite.RunAclTests)
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}

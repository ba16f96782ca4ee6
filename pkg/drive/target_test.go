package drive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMountTarget(t *testing.T) {
	tests := []struct {
		uri  string
		want MountTarget
	}{
		{"memory://", MountTarget{Scheme: "memory"}},
		{"cloud://alice", MountTarget{Scheme: "cloud", Authority: "alice"}},
		{"file:///tmp/x", MountTarget{Scheme: "file", Path: "/tmp/x"}},
		{"file://rel/dir", MountTarget{Scheme: "file", Authority: "rel", Path: "/dir"}},
		{"s3://bucket/some/prefix", MountTarget{Scheme: "s3", Authority: "bucket", Path: "/some/prefix"}},
		{"/var/data", MountTarget{Path: "/var/data"}},
		{"relative/dir", MountTarget{Path: "relative/dir"}},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := ParseMountTarget(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.uri, got.String())
		})
	}
}

func TestParseMountTarget_Invalid(t *testing.T) {
	for _, uri := range []string{"", "://nothing"} {
		_, err := ParseMountTarget(uri)
		assert.True(t, IsInvalidArgument(err), "uri %q: %v", uri, err)
	}
}

func TestMountTarget_Location(t *testing.T) {
	target, err := ParseMountTarget("file://rel/dir")
	require.NoError(t, err)
	assert.Equal(t, "rel/dir", target.Location())
	assert.False(t, target.IsDirect())
}

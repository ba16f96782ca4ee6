package drive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileAcls_ZeroValueIsEmpty(t *testing.T) {
	var acls FileAcls

	assert.True(t, acls.IsEmpty())
	assert.Empty(t, acls.Readers())
	assert.Equal(t, NewFileAcls(), acls)
}

func TestFileAcls_AddReaderSortsAndDedups(t *testing.T) {
	var acls FileAcls
	acls.AddReader("mallory")
	acls.AddReader("alice")
	acls.AddReader("bob")
	acls.AddReader("alice")

	assert.Equal(t, []string{"alice", "bob", "mallory"}, acls.Readers())
	assert.Equal(t, 3, acls.Len())
	assert.True(t, acls.Contains("bob"))
	assert.False(t, acls.Contains("eve"))
}

func TestFileAcls_WithReadersDoesNotAlias(t *testing.T) {
	base := NewFileAcls("a")
	extended := base.WithReaders("b", "c")

	assert.Equal(t, []string{"a"}, base.Readers())
	assert.Equal(t, []string{"a", "b", "c"}, extended.Readers())
}

func TestFileAcls_ReadersReturnsCopy(t *testing.T) {
	acls := NewFileAcls("a", "b")
	readers := acls.Readers()
	readers[0] = "zzz"

	assert.Equal(t, []string{"a", "b"}, acls.Readers())
}

func TestFileAcls_PublicIsOrdinary(t *testing.T) {
	acls := NewFileAcls("public", "Bob")

	assert.Equal(t, []string{"Bob", "public"}, acls.Readers())
}

func TestFileAcls_Merge(t *testing.T) {
	tests := []struct {
		name   string
		base   FileAcls
		add    FileAcls
		remove FileAcls
		want   []string
	}{
		{
			name: "empty delta",
			base: NewFileAcls("a"),
			want: []string{"a"},
		},
		{
			name: "add only",
			base: NewFileAcls("a"),
			add:  NewFileAcls("c", "b"),
			want: []string{"a", "b", "c"},
		},
		{
			name:   "remove only",
			base:   NewFileAcls("a", "b"),
			remove: NewFileAcls("a"),
			want:   []string{"b"},
		},
		{
			name:   "remove missing is ignored",
			base:   NewFileAcls("a"),
			remove: NewFileAcls("x"),
			want:   []string{"a"},
		},
		{
			name:   "remove wins over add",
			base:   NewFileAcls(),
			add:    NewFileAcls("x", "y"),
			remove: NewFileAcls("x"),
			want:   []string{"y"},
		},
		{
			name:   "remove everything",
			base:   NewFileAcls("a", "b"),
			remove: NewFileAcls("a", "b"),
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.base.Merge(tt.add, tt.remove)
			assert.Equal(t, tt.want, got.Readers())
		})
	}
}

func TestFileAcls_MergeLeavesReceiverUntouched(t *testing.T) {
	base := NewFileAcls("a", "b")
	_ = base.Merge(NewFileAcls("c"), NewFileAcls("a"))

	assert.Equal(t, []string{"a", "b"}, base.Readers())
}

func TestFileAcls_RemoveAllEqualsEmpty(t *testing.T) {
	acls := NewFileAcls("a")
	acls.RemoveReader("a")

	assert.Equal(t, FileAcls{}, acls)
}

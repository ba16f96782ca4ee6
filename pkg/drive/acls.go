package drive

import "sort"

// FileAcls is the set of users allowed to read a file.
//
// The zero value is an empty set and is ready to use. Readers are kept
// sorted and free of duplicates, so two FileAcls with the same readers
// compare equal with reflect.DeepEqual.
//
// FileAcls is also used to describe ACL deltas: an "add" set and a "remove"
// set passed together to UpdateAcls.
type FileAcls struct {
	readers []string
}

// NewFileAcls returns a FileAcls seeded with the given readers.
func NewFileAcls(readers ...string) FileAcls {
	return FileAcls{}.WithReaders(readers...)
}

// WithReaders returns a copy of the set with the given readers added.
func (a FileAcls) WithReaders(readers ...string) FileAcls {
	out := FileAcls{readers: append([]string(nil), a.readers...)}
	for _, r := range readers {
		out.AddReader(r)
	}
	return out
}

// AddReader adds a reader to the set. Adding an existing reader is a no-op.
func (a *FileAcls) AddReader(name string) {
	i := sort.SearchStrings(a.readers, name)
	if i < len(a.readers) && a.readers[i] == name {
		return
	}
	a.readers = append(a.readers, "")
	copy(a.readers[i+1:], a.readers[i:])
	a.readers[i] = name
}

// RemoveReader removes a reader from the set, if present.
func (a *FileAcls) RemoveReader(name string) {
	i := sort.SearchStrings(a.readers, name)
	if i < len(a.readers) && a.readers[i] == name {
		a.readers = append(a.readers[:i], a.readers[i+1:]...)
	}
	if len(a.readers) == 0 {
		a.readers = nil
	}
}

// Readers returns the readers in ascending order. The slice is a copy.
func (a FileAcls) Readers() []string {
	out := make([]string, len(a.readers))
	copy(out, a.readers)
	return out
}

// Contains reports whether name is a reader.
func (a FileAcls) Contains(name string) bool {
	i := sort.SearchStrings(a.readers, name)
	return i < len(a.readers) && a.readers[i] == name
}

// IsEmpty reports whether the set has no readers.
func (a FileAcls) IsEmpty() bool {
	return len(a.readers) == 0
}

// Len returns the number of readers.
func (a FileAcls) Len() int {
	return len(a.readers)
}

// Merge applies an ACL delta to a copy of the set: every reader in add is
// added, then every reader in remove is dropped. A reader named in both
// ends up removed.
func (a FileAcls) Merge(add, remove FileAcls) FileAcls {
	out := a.WithReaders(add.readers...)
	for _, r := range remove.readers {
		out.RemoveReader(r)
	}
	return out
}

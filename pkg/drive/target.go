package drive

import "strings"

// MountTarget is a parsed mount descriptor.
//
// Scheme-routed targets look like scheme://authority[/path]; anything
// without "://" is a direct target (a bare filesystem path) and has an
// empty Scheme with the whole descriptor in Path.
type MountTarget struct {
	Scheme    string
	Authority string
	Path      string
}

// ParseMountTarget parses a mount descriptor.
//
// Returns ErrInvalidArgument for an empty descriptor or an empty scheme.
func ParseMountTarget(uri string) (MountTarget, error) {
	if uri == "" {
		return MountTarget{}, NewInvalidArgumentError("Mount target cannot be empty")
	}

	scheme, rest, found := strings.Cut(uri, "://")
	if !found {
		return MountTarget{Path: uri}, nil
	}
	if scheme == "" {
		return MountTarget{}, &StoreError{
			Code:    ErrInvalidArgument,
			Message: "Mount target has an empty scheme",
			Path:    uri,
		}
	}

	target := MountTarget{Scheme: scheme}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		target.Authority = rest[:i]
		target.Path = rest[i:]
	} else {
		target.Authority = rest
	}
	return target, nil
}

// IsDirect reports whether the target is a bare path with no scheme.
func (t MountTarget) IsDirect() bool {
	return t.Scheme == ""
}

// String reassembles the descriptor.
func (t MountTarget) String() string {
	if t.IsDirect() {
		return t.Path
	}
	return t.Scheme + "://" + t.Authority + t.Path
}

// Location returns authority and path joined, which is what filesystem-like
// schemes (file://, badger://) treat as their on-disk location.
func (t MountTarget) Location() string {
	return t.Authority + t.Path
}

package badger

import "strings"

// Key Namespace
// =============
//
// Data Type   Prefix   Key Format     Value Type
// =================================================
// Entries     "e:"     e:<name>       entryRecord (JSON)
//
// A single prefix keeps Enumerate a plain prefix scan; Badger iterates in
// key order, so entries come back sorted by name. Content and readers live
// in the same record so UpdateAcls is one read-modify-write transaction.

const prefixEntry = "e:"

// keyEntry returns the key for an entry.
func keyEntry(name string) []byte {
	return []byte(prefixEntry + name)
}

// nameFromKey extracts the entry name from an entry key.
func nameFromKey(key []byte) string {
	return strings.TrimPrefix(string(key), prefixEntry)
}

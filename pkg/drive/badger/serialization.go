package badger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/marmos91/dittostore/pkg/drive"
)

// entryRecord is the persisted form of an entry.
type entryRecord struct {
	Content string    `json:"content"`
	ModTime time.Time `json:"mod_time"`
	Readers []string  `json:"readers,omitempty"`
}

func encodeEntry(rec *entryRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry: %w", err)
	}
	return data, nil
}

func decodeEntry(data []byte) (*entryRecord, error) {
	var rec entryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return &rec, nil
}

// acls returns the record's readers as a FileAcls.
func (r *entryRecord) acls() drive.FileAcls {
	return drive.NewFileAcls(r.Readers...)
}

// setAcls replaces the record's readers.
func (r *entryRecord) setAcls(acls drive.FileAcls) {
	if acls.IsEmpty() {
		r.Readers = nil
		return
	}
	r.Readers = acls.Readers()
}

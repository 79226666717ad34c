// Package staging implements the crash-safe write-ahead log that moves file
// content from the filesystem into the vaults and metadata store: a staged
// copy and operation record survive a crash between any two steps, and
// the backup service's commit loop resumes exactly where the previous run
// left off.
package staging

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/btvault/bt/internal/model"
)

// FormatVersion is the leading byte of every encoded Record, bumped when the
// on-disk shape changes so a future reader can reject or migrate old queues.
const FormatVersion byte = 1

// Record is one pending backup operation: the staged copy of FileID's bytes
// under a precomputed digest, waiting to be uploaded and committed.
type Record struct {
	OpUUID      string          `json:"op_uuid"`
	Seq         uint64          `json:"seq"`
	FileID      string          `json:"file_id"`
	DirectoryID string          `json:"directory_id"`
	Name        string          `json:"name"`
	Digest      string          `json:"digest"`
	Stats       model.FileStats `json:"stats"`
	SourcePath  string          `json:"source_path"`
}

// encode serializes r as a leading format-version byte followed by JSON. No
// CBOR encoder is carried by the teacher or the rest of the example pack, so
// the WAL uses encoding/json (see DESIGN.md).
func (r Record) encode() ([]byte, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("staging: encode record: %w", err)
	}
	return append([]byte{FormatVersion}, body...), nil
}

func decodeRecord(data []byte) (Record, error) {
	var r Record
	if len(data) == 0 {
		return r, fmt.Errorf("staging: empty record")
	}
	if data[0] != FormatVersion {
		return r, fmt.Errorf("staging: unsupported record format version %d", data[0])
	}
	if err := json.Unmarshal(data[1:], &r); err != nil {
		return r, fmt.Errorf("staging: decode record: %w", err)
	}
	return r, nil
}

func writeRecordAtomic(path string, r Record) error {
	encoded, err := r.encode()
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0600); err != nil {
		return fmt.Errorf("staging: write temp record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("staging: commit record: %w", err)
	}
	return nil
}

func readRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	return decodeRecord(data)
}

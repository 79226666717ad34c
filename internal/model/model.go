// Package model defines the persisted entities of the backup engine:
// content-addressed blobs, tracked directories, files, and file snapshots.
package model

import "time"

// AllModels returns all GORM models for auto-migration.
func AllModels() []any {
	return []any{
		&Content{},
		&Directory{},
		&File{},
		&FileSnapshot{},
	}
}

// Content is an immutable blob reference keyed by its digest. Rows are
// created only after the payload has been durably stored in every vault it
// was promised to, and are never updated.
type Content struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"` // hex SHA-256 digest
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Content.
func (Content) TableName() string { return "content" }

// Directory is a tracked root on this host. The set of Directory.Path values
// forms an antichain under the filesystem prefix order.
type Directory struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Path      string    `gorm:"uniqueIndex;not null" json:"path"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Files []File `gorm:"foreignKey:DirectoryID" json:"-"`
}

// TableName returns the table name for Directory.
func (Directory) TableName() string { return "directories" }

// File is a filesystem entry inside some tracked directory, identified by a
// path relative to the directory root.
type File struct {
	ID                string  `gorm:"primaryKey;size:36" json:"id"`
	DirectoryID       string  `gorm:"not null;uniqueIndex:idx_dir_name" json:"directory_id"`
	Name              string  `gorm:"not null;uniqueIndex:idx_dir_name" json:"name"`
	CurrentSnapshotID *string `gorm:"size:36" json:"current_snapshot_id,omitempty"`
	Deleted           bool    `gorm:"default:false" json:"deleted"`

	Directory       *Directory    `gorm:"foreignKey:DirectoryID" json:"-"`
	CurrentSnapshot *FileSnapshot `gorm:"foreignKey:CurrentSnapshotID" json:"-"`
}

// TableName returns the table name for File.
func (File) TableName() string { return "files" }

// FileSnapshot is an append-only point-in-time record of a file's content
// and filesystem metadata. Snapshots are never mutated after insert.
type FileSnapshot struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	FileID     string     `gorm:"not null;index" json:"file_id"`
	ContentID  string     `gorm:"not null;size:64;index" json:"content_id"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	Size       int64      `json:"size"`
	Mode       uint32     `json:"permissions"`
	UID        uint32     `json:"uid"`
	GID        uint32     `json:"gid"`
	AccessedAt time.Time  `json:"accessed_at"`
	ModifiedAt time.Time  `json:"modified_at"`
	ChangedAt  time.Time  `json:"changed_at"`
	BornAt     *time.Time `json:"born_at,omitempty"`

	File    *File    `gorm:"foreignKey:FileID" json:"-"`
	Content *Content `gorm:"foreignKey:ContentID" json:"-"`
}

// TableName returns the table name for FileSnapshot.
func (FileSnapshot) TableName() string { return "file_snapshots" }

// Stats projects a FileSnapshot's recorded filesystem fields back into a
// FileStats, for comparison against a fresh Stat() during status checks and
// crash recovery.
func (s FileSnapshot) Stats() FileStats {
	return FileStats{
		Size:       s.Size,
		Mode:       s.Mode,
		UID:        s.UID,
		GID:        s.GID,
		AccessedAt: s.AccessedAt,
		ModifiedAt: s.ModifiedAt,
		ChangedAt:  s.ChangedAt,
		BornAt:     s.BornAt,
	}
}

// FileStats is the set of filesystem metadata fields compared across a
// staging operation and recorded on a FileSnapshot. Birthtime is nil on
// platforms that do not report file creation time.
type FileStats struct {
	Size       int64
	Mode       uint32
	UID        uint32
	GID        uint32
	AccessedAt time.Time
	ModifiedAt time.Time
	ChangedAt  time.Time
	BornAt     *time.Time
}

// Equal reports whether two FileStats are identical in every field except
// AccessedAt, the comparison mandated by the staging mutation check (a file
// being read during staging legitimately updates atime).
func (s FileStats) Equal(o FileStats) bool {
	if s.Size != o.Size || s.Mode != o.Mode || s.UID != o.UID || s.GID != o.GID {
		return false
	}
	if !s.ModifiedAt.Equal(o.ModifiedAt) || !s.ChangedAt.Equal(o.ChangedAt) {
		return false
	}
	if (s.BornAt == nil) != (o.BornAt == nil) {
		return false
	}
	if s.BornAt != nil && !s.BornAt.Equal(*o.BornAt) {
		return false
	}
	return true
}

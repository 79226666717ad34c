// Package metadatastore is the single-writer, transactional local database
// of tracked directories, files, and file snapshots.
package metadatastore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/btvault/bt/internal/model"
)

// Store is the GORM-backed implementation of the metadata store, opened
// against a single SQLite file with WAL journaling for concurrent readers.
type Store struct {
	db   *gorm.DB
	path string
}

// Open opens (and migrates) the metadata database at path. The DSN enables
// WAL journal mode and a 5s busy timeout, the same pragmas the control-plane
// store this is grounded on uses for single-writer/many-reader access.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("metadatastore: create data dir: %w", err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("metadatastore: open database: %w", err)
	}

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		return nil, fmt.Errorf("metadatastore: migrate: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// OpenReadOnly opens the metadata database for read-only access. The CLI
// commands, `bt status` and `bt log` included, do not use it: they open the
// store read-write through Open.
func OpenReadOnly(path string) (*Store, error) {
	dsn := path + "?mode=ro&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("metadatastore: open database read-only: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Path returns the filesystem path of the database file.
func (s *Store) Path() string {
	return s.path
}

// BackupTo writes a consistent snapshot of the database to dst using
// SQLite's VACUUM INTO, so uploads to a vault never read a file mid-write.
func (s *Store) BackupTo(dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("metadatastore: create backup dir: %w", err)
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("metadatastore: remove stale backup: %w", err)
	}
	if err := s.db.Exec("VACUUM INTO ?", dst).Error; err != nil {
		return fmt.Errorf("metadatastore: vacuum into: %w", err)
	}
	return nil
}

// ============================================================================
// Directories
// ============================================================================

// FindDirectoryByPath returns the Directory with an exact path match.
func (s *Store) FindDirectoryByPath(ctx context.Context, path string) (*model.Directory, error) {
	return getByField[model.Directory](s.db, ctx, "path", path, ErrDirectoryNotFound)
}

// SearchDirectoryForPath returns the tracked directory that is path or an
// ancestor of path, else ErrNotTracked. Because tracked directories form an
// antichain, at most one row can match.
func (s *Store) SearchDirectoryForPath(ctx context.Context, path string) (*model.Directory, error) {
	var dirs []model.Directory
	if err := s.db.WithContext(ctx).Find(&dirs).Error; err != nil {
		return nil, NewError("search_directory_for_path", path, err)
	}
	for _, d := range dirs {
		if d.Path == path || isAncestor(d.Path, path) {
			dir := d
			return &dir, nil
		}
	}
	return nil, NewError("search_directory_for_path", path, ErrNotTracked)
}

// FindDirectoriesByPathPrefix returns tracked directories strictly under p.
func (s *Store) FindDirectoriesByPathPrefix(ctx context.Context, p string) ([]*model.Directory, error) {
	var dirs []*model.Directory
	if err := s.db.WithContext(ctx).Find(&dirs).Error; err != nil {
		return nil, NewError("find_directories_by_path_prefix", p, err)
	}
	var out []*model.Directory
	for _, d := range dirs {
		if isAncestor(p, d.Path) {
			out = append(out, d)
		}
	}
	return out, nil
}

// CreateDirectory transactionally inserts a new Directory at p, consolidating
// any previously tracked directories strictly beneath p: their File rows are
// reparented (name prefixed with the old directory's relative suffix) and
// the child Directory rows are deleted.
func (s *Store) CreateDirectory(ctx context.Context, p string) (*model.Directory, error) {
	var created model.Directory

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created = model.Directory{ID: uuid.New().String(), Path: p}
		if err := tx.Create(&created).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrDirectoryExists
			}
			return err
		}

		var children []model.Directory
		if err := tx.Find(&children).Error; err != nil {
			return err
		}

		for _, child := range children {
			if child.ID == created.ID || !isAncestor(p, child.Path) {
				continue
			}

			suffix := strings.TrimPrefix(strings.TrimPrefix(child.Path, p), "/")

			var files []model.File
			if err := tx.Where("directory_id = ?", child.ID).Find(&files).Error; err != nil {
				return err
			}
			for _, f := range files {
				newName := f.Name
				if suffix != "" {
					newName = suffix + "/" + f.Name
				}
				if err := tx.Model(&model.File{}).Where("id = ?", f.ID).
					Updates(map[string]any{"directory_id": created.ID, "name": newName}).Error; err != nil {
					return err
				}
			}

			if err := tx.Delete(&model.Directory{}, "id = ?", child.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, NewError("create_directory", p, err)
	}
	return &created, nil
}

// isAncestor reports whether ancestor is a proper ancestor directory of p
// under the filesystem prefix order (slash-boundary aware).
func isAncestor(ancestor, p string) bool {
	if ancestor == p {
		return false
	}
	return strings.HasPrefix(p, strings.TrimSuffix(ancestor, "/")+"/")
}

// ============================================================================
// Files
// ============================================================================

// FindOrCreateFile returns the existing File in directoryID named
// relativeName, or inserts a fresh one with a nil current snapshot.
func (s *Store) FindOrCreateFile(ctx context.Context, directoryID, relativeName string) (*model.File, error) {
	var file model.File
	err := s.db.WithContext(ctx).
		Where("directory_id = ? AND name = ?", directoryID, relativeName).
		Attrs(model.File{ID: uuid.New().String(), DirectoryID: directoryID, Name: relativeName}).
		FirstOrCreate(&file).Error
	if err != nil {
		return nil, NewError("find_or_create_file", relativeName, err)
	}
	return &file, nil
}

// MarkFileDeleted sets the Deleted flag on the File row identified by
// fileID; it does not stat the filesystem, callers decide when the flag
// applies.
func (s *Store) MarkFileDeleted(ctx context.Context, fileID string, deleted bool) error {
	if err := s.db.WithContext(ctx).Model(&model.File{}).Where("id = ?", fileID).
		Update("deleted", deleted).Error; err != nil {
		return NewError("mark_file_deleted", fileID, err)
	}
	return nil
}

// GetFile returns a File by ID.
func (s *Store) GetFile(ctx context.Context, fileID string) (*model.File, error) {
	return getByField[model.File](s.db, ctx, "id", fileID, ErrFileNotFound)
}

// ListFilesByDirectory returns every File row tracked under directoryID.
func (s *Store) ListFilesByDirectory(ctx context.Context, directoryID string) ([]*model.File, error) {
	var files []*model.File
	if err := s.db.WithContext(ctx).Where("directory_id = ?", directoryID).Find(&files).Error; err != nil {
		return nil, NewError("list_files_by_directory", directoryID, err)
	}
	return files, nil
}

// ============================================================================
// Content & Snapshots
// ============================================================================

// GetOrCreateContent idempotently inserts a Content row for digest.
func (s *Store) GetOrCreateContent(ctx context.Context, digest string, createdAt time.Time) (*model.Content, error) {
	content := &model.Content{ID: digest, CreatedAt: createdAt}
	if err := s.db.WithContext(ctx).Where("id = ?", digest).FirstOrCreate(content).Error; err != nil {
		return nil, NewError("get_or_create_content", digest, err)
	}
	return content, nil
}

// AppendSnapshot inserts a FileSnapshot and atomically updates
// File.current_snapshot_id to point at it.
func (s *Store) AppendSnapshot(ctx context.Context, fileID, contentID string, stats model.FileStats) (*model.FileSnapshot, error) {
	snap := &model.FileSnapshot{
		ID:         uuid.New().String(),
		FileID:     fileID,
		ContentID:  contentID,
		Size:       stats.Size,
		Mode:       stats.Mode,
		UID:        stats.UID,
		GID:        stats.GID,
		AccessedAt: stats.AccessedAt,
		ModifiedAt: stats.ModifiedAt,
		ChangedAt:  stats.ChangedAt,
		BornAt:     stats.BornAt,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(snap).Error; err != nil {
			return err
		}
		return tx.Model(&model.File{}).Where("id = ?", fileID).
			Update("current_snapshot_id", snap.ID).Error
	})
	if err != nil {
		return nil, NewError("append_snapshot", fileID, err)
	}
	return snap, nil
}

// ListSnapshots returns every snapshot for fileID, newest first.
func (s *Store) ListSnapshots(ctx context.Context, fileID string) ([]*model.FileSnapshot, error) {
	var snaps []*model.FileSnapshot
	if err := s.db.WithContext(ctx).Where("file_id = ?", fileID).
		Order("created_at DESC").Find(&snaps).Error; err != nil {
		return nil, NewError("list_snapshots", fileID, err)
	}
	return snaps, nil
}

// FindSnapshotByDigest returns the snapshot of fileID whose content digest
// equals digest, used by restore-by-version.
func (s *Store) FindSnapshotByDigest(ctx context.Context, fileID, digest string) (*model.FileSnapshot, error) {
	var snap model.FileSnapshot
	err := s.db.WithContext(ctx).
		Where("file_id = ? AND content_id = ?", fileID, digest).
		Order("created_at DESC").First(&snap).Error
	if err != nil {
		return nil, NewError("find_snapshot_by_digest", fileID+"@"+digest, convertNotFoundError(err, ErrSnapshotNotFound))
	}
	return &snap, nil
}

// LatestSnapshot returns the current snapshot for fileID, per
// File.current_snapshot_id.
func (s *Store) LatestSnapshot(ctx context.Context, fileID string) (*model.FileSnapshot, error) {
	file, err := s.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.CurrentSnapshotID == nil {
		return nil, NewError("latest_snapshot", fileID, ErrSnapshotNotFound)
	}
	return getByField[model.FileSnapshot](s.db, ctx, "id", *file.CurrentSnapshotID, ErrSnapshotNotFound)
}

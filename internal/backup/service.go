package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/btvault/bt/internal/fsmanager"
	"github.com/btvault/bt/internal/logger"
	"github.com/btvault/bt/internal/metadatastore"
	"github.com/btvault/bt/internal/model"
	"github.com/btvault/bt/internal/staging"
	"github.com/btvault/bt/internal/vault"
)

// Service orchestrates the backup engine's logical verbs over a metadata
// store, a staging area, and one or more vaults.
type Service struct {
	store       *metadatastore.Store
	area        *staging.Area
	vaults      []vault.Vault
	hostID      string
	ignoreList  []string
	concurrency int
}

// Config configures a Service.
type Config struct {
	HostID      string
	IgnoreList  []string
	Concurrency int // 0 defaults to runtime.NumCPU()
}

// New builds a Service over an already-opened metadata store, staging area,
// and the set of configured vaults.
func New(store *metadatastore.Store, area *staging.Area, vaults []vault.Vault, cfg Config) *Service {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Service{
		store:       store,
		area:        area,
		vaults:      vaults,
		hostID:      cfg.HostID,
		ignoreList:  cfg.IgnoreList,
		concurrency: concurrency,
	}
}

// AddDirectory tracks path, consolidating any previously tracked descendant
// directories. Tracking a path that is already tracked, or that lies under a
// tracked directory, is a no-op success returning that tracked directory.
func (s *Service) AddDirectory(ctx context.Context, path string) (*model.Directory, error) {
	resolved, err := fsmanager.ResolveAndValidate(path)
	if err != nil {
		return nil, NewError("add_directory", path, err)
	}

	if existing, err := s.store.SearchDirectoryForPath(ctx, resolved); err == nil {
		return existing, nil
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, NewError("add_directory", resolved, err)
	}
	if !info.IsDir() {
		return nil, NewError("add_directory", resolved, fmt.Errorf("backup: %s is not a directory", resolved))
	}

	dir, err := s.store.CreateDirectory(ctx, resolved)
	if err != nil {
		return nil, NewError("add_directory", resolved, err)
	}

	logger.Info("directory tracked", logger.Directory(resolved))
	return dir, nil
}

// StageFile resolves path to its tracked directory, expands directories via
// Walk, and stages every regular file not matched by ignore rules.
func (s *Service) StageFile(ctx context.Context, path string) (int, error) {
	resolved, err := fsmanager.ResolveAndValidate(path)
	if err != nil {
		return 0, NewError("stage_file", path, err)
	}

	dir, err := s.store.SearchDirectoryForPath(ctx, resolved)
	if err != nil {
		return 0, NewError("stage_file", resolved, ErrNotTracked)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return 0, NewError("stage_file", resolved, err)
	}

	ignores, err := fsmanager.NewIgnoreSet(dir.Path, s.ignoreList)
	if err != nil {
		return 0, NewError("stage_file", resolved, err)
	}

	var targets []string
	if info.IsDir() {
		for p, walkErr := range fsmanager.Walk(resolved, dir.Path, ignores) {
			if walkErr != nil {
				return 0, NewError("stage_file", resolved, walkErr)
			}
			targets = append(targets, p)
		}
	} else {
		rel, relErr := filepath.Rel(dir.Path, resolved)
		if relErr != nil {
			return 0, NewError("stage_file", resolved, relErr)
		}
		if !ignores.Match(filepath.ToSlash(rel), false) {
			targets = append(targets, resolved)
		}
	}

	staged, err := s.stageTargets(ctx, dir, targets)
	if err != nil {
		return staged, NewError("stage_file", resolved, err)
	}
	return staged, nil
}

// stageTargets fans out Stat+StageForBackup over a bounded worker pool,
// since checksum computation and staging copies of independent files may
// overlap while the directory walk itself stays single-threaded.
func (s *Service) stageTargets(ctx context.Context, dir *model.Directory, targets []string) (int, error) {
	jobs := make(chan string)
	results := make(chan error, len(targets))
	var staged int32Counter

	var wg sync.WaitGroup
	workers := s.concurrency
	if workers > len(targets) && len(targets) > 0 {
		workers = len(targets)
	}
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range jobs {
				if err := ctx.Err(); err != nil {
					results <- err
					continue
				}
				rel, err := filepath.Rel(dir.Path, src)
				if err != nil {
					results <- err
					continue
				}
				rel = filepath.ToSlash(rel)

				file, err := s.store.FindOrCreateFile(ctx, dir.ID, rel)
				if err != nil {
					results <- err
					continue
				}
				if _, err := s.area.StageForBackup(dir.ID, file.ID, rel, src); err != nil {
					results <- err
					continue
				}
				staged.inc()
				results <- nil
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, t := range targets {
			select {
			case jobs <- t:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)

	var firstErr error
	for err := range results {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return staged.value(), firstErr
}

// int32Counter is a tiny concurrency-safe counter for the worker pool above.
type int32Counter struct {
	mu sync.Mutex
	n  int
}

func (c *int32Counter) inc()      { c.mu.Lock(); c.n++; c.mu.Unlock() }
func (c *int32Counter) value() int { c.mu.Lock(); defer c.mu.Unlock(); return c.n }

// Backup drains the write-ahead log, running the commit protocol for each
// queued operation in seq order, then uploads the metadata database to
// every vault. A failing operation halts the drain; the next invocation
// resumes at the same head.
func (s *Service) Backup(ctx context.Context) error {
	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := s.area.Head()
		if errors.Is(err, staging.ErrQueueEmpty) {
			break
		}
		if err != nil {
			return NewError("backup", "", err)
		}

		if err := s.processNext(ctx, record); err != nil {
			return NewError("backup", record.Name, err)
		}
		processed++
	}

	if processed > 0 {
		if err := s.uploadMetadata(ctx); err != nil {
			return NewError("backup", "", err)
		}
	}

	logger.Info("backup cycle complete", logger.Count(processed))
	return nil
}

// processNext runs the WAL commit protocol for one operation: upload
// content to every vault, append the metadata row transactionally, fsync
// the database, then resolve the queue entry and staged blob.
func (s *Service) processNext(ctx context.Context, record staging.Record) error {
	blobPath := s.area.BlobPath(record)

	if skip, err := s.alreadyCommitted(ctx, record); err != nil {
		return err
	} else if !skip {
		for _, v := range s.vaults {
			err := vault.WithRetry(ctx, v.Name(), "put_content", func() error {
				return v.PutContent(ctx, record.Digest, blobPath)
			})
			if err != nil {
				return err
			}
		}

		_, err := s.store.GetOrCreateContent(ctx, record.Digest, time.Now())
		if err != nil {
			return err
		}
		if _, err := s.store.AppendSnapshot(ctx, record.FileID, record.Digest, record.Stats); err != nil {
			return err
		}
	}

	return s.area.Resolve(record)
}

// alreadyCommitted implements the crash-recovery skip rule: if the head
// op's digest already matches the file's current snapshot and the stats
// agree, steps 1-3 already completed before the crash and only cleanup
// (step 4) remains.
func (s *Service) alreadyCommitted(ctx context.Context, record staging.Record) (bool, error) {
	latest, err := s.store.LatestSnapshot(ctx, record.FileID)
	if err != nil {
		return false, nil
	}
	return latest.ContentID == record.Digest && latest.Stats().Equal(record.Stats), nil
}

// uploadMetadata snapshots the metadata database via VACUUM INTO and
// uploads it to every vault's metadata slot under this host's ID.
func (s *Service) uploadMetadata(ctx context.Context) error {
	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("bt-metadata-%s.db", s.hostID))
	defer os.Remove(tmp)

	if err := s.store.BackupTo(tmp); err != nil {
		return err
	}

	for _, v := range s.vaults {
		err := vault.WithRetry(ctx, v.Name(), "put_metadata", func() error {
			return v.PutMetadata(ctx, s.hostID, tmp)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// GetStatus computes the per-file status report for every on-disk entry
// under path, per the precedence order in the system design.
func (s *Service) GetStatus(ctx context.Context, path string, includeDeleted bool) ([]FileReport, error) {
	resolved, err := fsmanager.ResolveAndValidate(path)
	if err != nil {
		return nil, NewError("status", path, err)
	}

	dir, err := s.store.SearchDirectoryForPath(ctx, resolved)
	if err != nil {
		return nil, NewError("status", resolved, ErrNotTracked)
	}

	ignores, err := fsmanager.NewIgnoreSet(dir.Path, s.ignoreList)
	if err != nil {
		return nil, NewError("status", resolved, err)
	}

	seen := map[string]bool{}
	var reports []FileReport

	for p, walkErr := range fsmanager.Walk(resolved, resolved, nil) {
		if walkErr != nil {
			return nil, NewError("status", resolved, walkErr)
		}
		rel, err := filepath.Rel(dir.Path, p)
		if err != nil {
			return nil, NewError("status", resolved, err)
		}
		rel = filepath.ToSlash(rel)
		seen[rel] = true

		status, err := s.statusOf(ctx, dir, rel, p, ignores)
		if err != nil {
			return nil, NewError("status", p, err)
		}
		reports = append(reports, FileReport{Path: rel, Status: status.String()})
	}

	if includeDeleted {
		files, err := s.store.ListFilesByDirectory(ctx, dir.ID)
		if err != nil {
			return nil, NewError("status", resolved, err)
		}
		for _, f := range files {
			if seen[f.Name] {
				continue
			}
			reports = append(reports, FileReport{Path: f.Name, Status: StatusDeleted.String()})
		}
	}

	return reports, nil
}

func (s *Service) statusOf(ctx context.Context, dir *model.Directory, rel, absPath string, ignores *fsmanager.IgnoreSet) (FileStatus, error) {
	if ignores.Match(rel, false) {
		return StatusIgnored, nil
	}

	onDisk, err := fsmanager.Stat(absPath)
	if err != nil {
		return StatusUnknown, err
	}

	file, err := findFile(ctx, s.store, dir.ID, rel)
	if err != nil {
		return StatusUnknown, err
	}
	if file == nil || file.CurrentSnapshotID == nil {
		if staged, err := s.area.IsStaged(fileIDOrEmpty(file)); err == nil && staged {
			return StatusStaged, nil
		}
		return StatusUntracked, nil
	}

	snap, err := s.store.LatestSnapshot(ctx, file.ID)
	if err == nil && !onDisk.Equal(snap.Stats()) {
		return StatusModified, nil
	}

	if staged, err := s.area.IsStaged(file.ID); err == nil && staged {
		return StatusStaged, nil
	}

	return StatusBackedUp, nil
}

func fileIDOrEmpty(f *model.File) string {
	if f == nil {
		return ""
	}
	return f.ID
}

func findFile(ctx context.Context, store *metadatastore.Store, directoryID, rel string) (*model.File, error) {
	files, err := store.ListFilesByDirectory(ctx, directoryID)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.Name == rel {
			return f, nil
		}
	}
	return nil, nil
}

// GetFileHistory returns the snapshot history of path, newest first.
func (s *Service) GetFileHistory(ctx context.Context, path string) ([]*model.FileSnapshot, error) {
	resolved, err := fsmanager.ResolveAndValidate(path)
	if err != nil {
		return nil, NewError("log", path, err)
	}
	dir, err := s.store.SearchDirectoryForPath(ctx, filepath.Dir(resolved))
	if err != nil {
		return nil, NewError("log", resolved, ErrNotTracked)
	}
	rel, err := filepath.Rel(dir.Path, resolved)
	if err != nil {
		return nil, NewError("log", resolved, err)
	}
	file, err := findFile(ctx, s.store, dir.ID, filepath.ToSlash(rel))
	if err != nil {
		return nil, NewError("log", resolved, err)
	}
	if file == nil {
		return nil, NewError("log", resolved, ErrNotTracked)
	}
	snaps, err := s.store.ListSnapshots(ctx, file.ID)
	if err != nil {
		return nil, NewError("log", resolved, err)
	}
	return snaps, nil
}

// RestoreFile downloads the snapshot of path matching digest from the first
// vault that succeeds, writing it to "<path>.<digest>", then applies the
// snapshot's filesystem metadata. Metadata-application failures (commonly
// permission denied for uid/gid) are logged as warnings, not returned.
func (s *Service) RestoreFile(ctx context.Context, path, digest string) (string, error) {
	resolved, err := fsmanager.ResolveAndValidate(filepath.Dir(path))
	if err != nil {
		return "", NewError("restore", path, err)
	}
	resolved = filepath.Join(resolved, filepath.Base(path))

	dir, err := s.store.SearchDirectoryForPath(ctx, filepath.Dir(resolved))
	if err != nil {
		return "", NewError("restore", resolved, ErrNotTracked)
	}
	rel, err := filepath.Rel(dir.Path, resolved)
	if err != nil {
		return "", NewError("restore", resolved, err)
	}
	file, err := findFile(ctx, s.store, dir.ID, filepath.ToSlash(rel))
	if err != nil || file == nil {
		return "", NewError("restore", resolved, ErrNotTracked)
	}

	snap, err := s.store.FindSnapshotByDigest(ctx, file.ID, digest)
	if err != nil {
		return "", NewError("restore", resolved, ErrSnapshotNotFound)
	}

	outputPath := fmt.Sprintf("%s.%s", resolved, digest)

	var lastErr error
	for _, v := range s.vaults {
		err := vault.WithRetry(ctx, v.Name(), "get_content", func() error {
			return v.GetContent(ctx, digest, outputPath)
		})
		if err == nil {
			if applyErr := applyMetadata(outputPath, snap); applyErr != nil {
				logger.Warn("failed to apply restored file metadata", logger.Path(outputPath), logger.Err(applyErr))
			}
			return outputPath, nil
		}
		lastErr = err
	}

	return "", NewError("restore", resolved, fmt.Errorf("%w: %v", ErrNoVaultSucceeded, lastErr))
}

package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/btvault/bt/internal/fsmanager"
)

// Area is the write-ahead staging area rooted at a single directory,
// exclusive to one process via ProcessLock.
type Area struct {
	root    string
	lock    *ProcessLock
	nextSeq atomic.Uint64
}

func stagingDir(root string) string { return filepath.Join(root, "staging") }
func queueDir(root string) string   { return filepath.Join(root, "queue") }
func lockPath(root string) string   { return filepath.Join(root, "bt.lock") }

// Open creates the staging/queue subdirectories if needed, acquires the
// process lock, and primes the sequence counter from the highest-numbered
// entry already in the queue.
func Open(root string) (*Area, error) {
	for _, d := range []string{stagingDir(root), queueDir(root)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return nil, fmt.Errorf("staging: create %q: %w", d, err)
		}
	}

	lock, err := AcquireLock(lockPath(root))
	if err != nil {
		return nil, err
	}

	area := &Area{root: root, lock: lock}
	if err := area.primeSeq(); err != nil {
		lock.Release()
		return nil, err
	}
	return area, nil
}

// Close releases the process lock.
func (a *Area) Close() error {
	return a.lock.Release()
}

func (a *Area) primeSeq() error {
	entries, err := os.ReadDir(queueDir(a.root))
	if err != nil {
		return fmt.Errorf("staging: list queue: %w", err)
	}
	var max uint64
	for _, e := range entries {
		seq, _, ok := parseQueueName(e.Name())
		if ok && seq > max {
			max = seq
		}
	}
	a.nextSeq.Store(max)
	return nil
}

func parseQueueName(name string) (seq uint64, opUUID string, ok bool) {
	base := strings.TrimSuffix(name, ".op")
	if base == name {
		return 0, "", false
	}
	parts := strings.SplitN(base, "-", 2)
	if len(parts) != 2 {
		return 0, "", false
	}
	n, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, "", false
	}
	return n, parts[1], true
}

func queueEntryName(seq uint64, opUUID string) string {
	return fmt.Sprintf("%020d-%s.op", seq, opUUID)
}

// StageForBackup copies sourcePath into the staging area and writes its
// operation record into the queue. It returns ErrFileMutatedDuringStage
// (with no queue entry written) if the source changes mid-copy.
func (a *Area) StageForBackup(directoryID, fileID, relativeName, sourcePath string) (Record, error) {
	opUUID := uuid.New().String()
	blobPath := filepath.Join(stagingDir(a.root), opUUID+".blob")

	statBefore, err := fsmanager.Stat(sourcePath)
	if err != nil {
		return Record{}, NewError("stage", opUUID, err)
	}

	digest, _, err := fsmanager.CopyToStaging(sourcePath, blobPath)
	if err != nil {
		return Record{}, NewError("stage", opUUID, err)
	}

	statAfter, err := fsmanager.Stat(sourcePath)
	if err != nil {
		os.Remove(blobPath)
		return Record{}, NewError("stage", opUUID, err)
	}

	if !statBefore.Equal(statAfter) {
		os.Remove(blobPath)
		return Record{}, NewError("stage", opUUID, ErrFileMutatedDuringStage)
	}

	seq := a.nextSeq.Add(1)
	record := Record{
		OpUUID:      opUUID,
		Seq:         seq,
		FileID:      fileID,
		DirectoryID: directoryID,
		Name:        relativeName,
		Digest:      digest,
		Stats:       statAfter,
		SourcePath:  sourcePath,
	}

	opPath := filepath.Join(queueDir(a.root), queueEntryName(seq, opUUID))
	if err := writeRecordAtomic(opPath, record); err != nil {
		os.Remove(blobPath)
		return Record{}, NewError("stage", opUUID, err)
	}

	return record, nil
}

// Head returns the lowest-seq queued operation, or ErrQueueEmpty.
func (a *Area) Head() (Record, error) {
	entries, err := os.ReadDir(queueDir(a.root))
	if err != nil {
		return Record{}, NewError("head", "", fmt.Errorf("staging: list queue: %w", err))
	}

	type queued struct {
		seq  uint64
		name string
	}
	var ops []queued
	for _, e := range entries {
		if seq, _, ok := parseQueueName(e.Name()); ok {
			ops = append(ops, queued{seq: seq, name: e.Name()})
		}
	}
	if len(ops) == 0 {
		return Record{}, NewError("head", "", ErrQueueEmpty)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].seq < ops[j].seq })

	return readRecord(filepath.Join(queueDir(a.root), ops[0].name))
}

// Resolve is invoked by the caller after a head op's side effects (vault
// upload + metadata commit) have succeeded, cleaning up its queue entry and
// staged blob: the commit point of the operation.
func (a *Area) Resolve(r Record) error {
	opPath := filepath.Join(queueDir(a.root), queueEntryName(r.Seq, r.OpUUID))
	if err := os.Remove(opPath); err != nil && !os.IsNotExist(err) {
		return NewError("resolve", r.OpUUID, err)
	}
	blobPath := filepath.Join(stagingDir(a.root), r.OpUUID+".blob")
	if err := os.Remove(blobPath); err != nil && !os.IsNotExist(err) {
		return NewError("resolve", r.OpUUID, err)
	}
	return nil
}

// BlobPath returns the path of r's staged content copy.
func (a *Area) BlobPath(r Record) string {
	return filepath.Join(stagingDir(a.root), r.OpUUID+".blob")
}

// IsStaged reports whether any queued operation references fileID.
func (a *Area) IsStaged(fileID string) (bool, error) {
	entries, err := os.ReadDir(queueDir(a.root))
	if err != nil {
		return false, fmt.Errorf("staging: list queue: %w", err)
	}
	for _, e := range entries {
		if _, _, ok := parseQueueName(e.Name()); !ok {
			continue
		}
		r, err := readRecord(filepath.Join(queueDir(a.root), e.Name()))
		if err != nil {
			continue
		}
		if r.FileID == fileID {
			return true, nil
		}
	}
	return false, nil
}

// Depth returns the number of operations currently queued.
func (a *Area) Depth() (int, error) {
	entries, err := os.ReadDir(queueDir(a.root))
	if err != nil {
		return 0, fmt.Errorf("staging: list queue: %w", err)
	}
	n := 0
	for _, e := range entries {
		if _, _, ok := parseQueueName(e.Name()); ok {
			n++
		}
	}
	return n, nil
}


// Package checkpoint persists a job's per-rank state to disk so an
// aborted or interrupted run can resume instead of restarting from
// scratch.
package checkpoint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/vikramkhatri/pcircle/internal/circle"
)

// FileSink writes checkpoint snapshots to `.<job>_workq.<id>.<rank>`
// files under Dir, guarding each write with an advisory lock and a
// temp-file-then-rename so a concurrent reader (or a crash mid-write)
// never observes a partial file.
type FileSink struct {
	Dir   string
	JobID string
}

var _ circle.CheckpointSink = (*FileSink)(nil)

// NewFileSink builds a FileSink, generating a random job ID when the
// caller does not have one from a prior run to resume.
func NewFileSink(dir, jobID string) *FileSink {
	if jobID == "" {
		jobID = uuid.NewString()
	}
	return &FileSink{Dir: dir, JobID: jobID}
}

func (s *FileSink) path(rank int) string {
	return filepath.Join(s.Dir, fmt.Sprintf(".%s_workq.%s.%d", "pcircle", s.JobID, rank))
}

func (s *FileSink) lockPath(rank int) string {
	return s.path(rank) + ".lock"
}

// Save implements circle.CheckpointSink.
func (s *FileSink) Save(rank int, snapshot []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	lock := flock.New(s.lockPath(rank))
	locked, err := lock.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		return err
	}
	if !locked {
		return fmt.Errorf("checkpoint: could not acquire lock for rank %d", rank)
	}
	defer lock.Unlock()

	final := s.path(rank)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, snapshot, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}

// Load reads a previously saved snapshot for rank, or returns
// os.ErrNotExist if this job has no checkpoint for it yet.
func (s *FileSink) Load(rank int) ([]byte, error) {
	return os.ReadFile(s.path(rank))
}

// Remove deletes a rank's checkpoint file after a job completes
// normally; an aborted job leaves it in place for a future resume.
func (s *FileSink) Remove(rank int) error {
	err := os.Remove(s.path(rank))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

package memindex

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	"github.com/lexintel/LexTriage/pkg/errors"
)

// snapshotVersion guards against loading snapshots written by an
// incompatible layout.
const snapshotVersion = 1

// Snapshot is the on-disk form of a built index.  Checksum covers the
// JSON-encoded payload so truncated or hand-edited files are rejected
// rather than silently loaded.
type Snapshot struct {
	Version  int      `json:"version"`
	Checksum string   `json:"checksum"`
	Payload  *payload `json:"payload"`
}

type payload struct {
	IDs     []string    `json:"ids"`
	Vectors [][]float32 `json:"vectors"`
}

// SaveSnapshot writes the index contents to path atomically: the snapshot is
// written to a temp file in the same directory and renamed into place, so a
// crash mid-write never leaves a partial snapshot at path.
func (m *MemoryIndex) SaveSnapshot(_ context.Context, path string) error {
	m.mu.RLock()
	if !m.ready {
		m.mu.RUnlock()
		return errors.New(errors.ErrCodeIndexNotInitialized, "memindex: nothing to snapshot")
	}
	p := &payload{
		IDs:     append([]string(nil), m.ids...),
		Vectors: make([][]float32, len(m.vectors)),
	}
	for i, v := range m.vectors {
		p.Vectors[i] = append([]float32(nil), v...)
	}
	m.mu.RUnlock()

	body, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "memindex: failed to encode snapshot payload")
	}

	snap := Snapshot{Version: snapshotVersion, Checksum: checksum(body), Payload: p}
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "memindex: failed to encode snapshot")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "memindex: failed to create snapshot directory")
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "memindex: failed to create temp snapshot")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrCodeStorageError, "memindex: failed to write snapshot")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrCodeStorageError, "memindex: failed to close snapshot")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrCodeStorageError, "memindex: failed to publish snapshot")
	}
	return nil
}

// LoadSnapshot restores the index from a snapshot file previously written by
// SaveSnapshot.  Returns errors.ErrCodeSnapshotCorrupt when the file fails
// the version or checksum check; callers fall back to rebuilding from the
// corpus in that case.
func (m *MemoryIndex) LoadSnapshot(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(err, errors.ErrCodeNotFound, "memindex: snapshot not found")
		}
		return errors.Wrap(err, errors.ErrCodeStorageError, "memindex: failed to read snapshot")
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return errors.Wrap(err, errors.ErrCodeSnapshotCorrupt, "memindex: snapshot is not valid JSON")
	}
	if snap.Version != snapshotVersion {
		return errors.Newf(errors.ErrCodeSnapshotCorrupt,
			"memindex: snapshot version %d, want %d", snap.Version, snapshotVersion)
	}
	if snap.Payload == nil {
		return errors.New(errors.ErrCodeSnapshotCorrupt, "memindex: snapshot has no payload")
	}

	body, err := json.Marshal(snap.Payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "memindex: failed to re-encode payload")
	}
	if checksum(body) != snap.Checksum {
		return errors.New(errors.ErrCodeSnapshotCorrupt, "memindex: snapshot checksum mismatch")
	}

	return m.Build(ctx, snap.Payload.IDs, snap.Payload.Vectors)
}

// RestoreOrBuild loads the snapshot at path; when it is missing or corrupt
// it rebuilds from the supplied ids and vectors and writes a fresh snapshot.
func (m *MemoryIndex) RestoreOrBuild(ctx context.Context, path string, logger logging.Logger,
	build func(ctx context.Context) (ids []string, vectors [][]float32, err error)) error {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	if path != "" {
		err := m.LoadSnapshot(ctx, path)
		if err == nil {
			n, _ := m.Size(ctx)
			logger.Info("index restored from snapshot",
				logging.String("path", path), logging.Int("vectors", n))
			return nil
		}
		if errors.IsCode(err, errors.ErrCodeSnapshotCorrupt) {
			logger.Warn("snapshot corrupt, rebuilding index",
				logging.String("path", path), logging.Err(err))
		} else if !errors.IsNotFound(err) {
			return err
		}
	}

	ids, vectors, err := build(ctx)
	if err != nil {
		return err
	}
	if err := m.Build(ctx, ids, vectors); err != nil {
		return err
	}
	if path != "" {
		if err := m.SaveSnapshot(ctx, path); err != nil {
			logger.Warn("failed to persist snapshot", logging.String("path", path), logging.Err(err))
		}
	}
	return nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Package emitter persists compiled artifacts into a scenario's build
// directory in the formats the backing simulator and the runtime loader
// consume. Every artifact is written atomically (temp file, then rename),
// and the fingerprint file is written last: its presence is the commit
// marker for a completed compilation.
package emitter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/scenc/scenc/internal/model"
)

const (
	// BuildDirName is the artifact directory under a scenario's output dir.
	BuildDirName = "build"

	// FingerprintFileName is the commit marker inside the build directory.
	FingerprintFileName = "fingerprint"

	trafficDirName  = "traffic"
	lockFileName    = ".lock"
	mapSpecFileName = "map_spec.json"
	missionFileName = "missions.json"
)

// CacheWriteError reports a filesystem failure while purging or emitting
// artifacts. It is fatal for the scenario build.
type CacheWriteError struct {
	Path string
	Err  error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("cache write failed at %s: %v", e.Path, e.Err)
}

func (e *CacheWriteError) Unwrap() error { return e.Err }

// Emitter writes artifact sets.
type Emitter struct {
	log *slog.Logger
}

// New creates an emitter.
func New(log *slog.Logger) *Emitter {
	return &Emitter{log: log}
}

// BuildDir returns the build directory for a scenario output dir.
func BuildDir(outputDir string) string {
	return filepath.Join(outputDir, BuildDirName)
}

// Lock takes the advisory file lock serializing concurrent compilation
// attempts on one scenario directory. The caller must Unlock it.
func Lock(outputDir string) (*flock.Flock, error) {
	dir := BuildDir(outputDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &CacheWriteError{Path: dir, Err: err}
	}
	l := flock.New(filepath.Join(dir, lockFileName))
	if err := l.Lock(); err != nil {
		return nil, fmt.Errorf("error locking scenario build dir: %w", err)
	}
	return l, nil
}

// ReadFingerprint returns the committed fingerprint of a build directory,
// or ok=false when no complete artifact set is present.
func ReadFingerprint(outputDir string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(BuildDir(outputDir), FingerprintFileName))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Purge removes all generated artifacts from the build directory, so stale
// output from a previous specification cannot coexist with new output. The
// lock file survives; the caller is holding it.
func (e *Emitter) Purge(outputDir string) error {
	dir := BuildDir(outputDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &CacheWriteError{Path: dir, Err: err}
	}
	for _, entry := range entries {
		if entry.Name() == lockFileName {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return &CacheWriteError{Path: path, Err: err}
		}
	}
	e.log.Debug("Purged stale artifacts", "dir", dir)
	return nil
}

// Emit writes a complete artifact set. All artifacts land before the
// fingerprint file, so a reader that sees the fingerprint sees a consistent
// set.
func (e *Emitter) Emit(outputDir string, art *model.Artifacts) error {
	dir := BuildDir(outputDir)

	if err := e.writeJSON(filepath.Join(dir, mapSpecFileName), art.Map); err != nil {
		return err
	}
	if err := e.writeJSON(filepath.Join(dir, missionFileName), art.Missions); err != nil {
		return err
	}

	trafficDir := filepath.Join(dir, trafficDirName)
	if len(art.Traffic) > 0 {
		if err := os.MkdirAll(trafficDir, 0755); err != nil {
			return &CacheWriteError{Path: trafficDir, Err: err}
		}
	}
	for i := range art.Traffic {
		t := &art.Traffic[i]
		data, err := marshalRoutes(t)
		if err != nil {
			return fmt.Errorf("error serializing traffic %q: %w", t.Name, err)
		}
		path := filepath.Join(trafficDir, t.Name+".rou.xml")
		if err := e.writeAtomic(path, data); err != nil {
			return err
		}
	}

	// Commit marker goes last.
	fpPath := filepath.Join(dir, FingerprintFileName)
	if err := e.writeAtomic(fpPath, []byte(art.Fingerprint)); err != nil {
		return err
	}

	e.log.Info("Emitted artifact set",
		"dir", dir,
		"missions", len(art.Missions),
		"variants", len(art.Traffic),
		"fingerprint", art.Fingerprint)
	return nil
}

func (e *Emitter) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error serializing %s: %w", filepath.Base(path), err)
	}
	return e.writeAtomic(path, append(data, '\n'))
}

// writeAtomic writes to a temp file in the target directory and renames it
// into place, so a concurrent reader never observes a half-written file.
func (e *Emitter) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return &CacheWriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &CacheWriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &CacheWriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &CacheWriteError{Path: path, Err: err}
	}
	return nil
}

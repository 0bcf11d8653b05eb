package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/surveyclust/internal/utils"
)

const manifestFileName = "run.json"

// Run is the manifest of one command invocation that produced artifacts.
type Run struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Input     string         `json:"input"`
	Params    map[string]any `json:"params,omitempty"`
	Summary   map[string]any `json:"summary,omitempty"`
	Artifacts []Artifact     `json:"artifacts"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	rootDir string
}

// Artifact is a file written by a run.
type Artifact struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
}

// NewRun constructs a run rooted at <outputDir>/<kind>-<short id>. Call
// Save to persist.
func NewRun(kind, input, outputDir string) *Run {
	id := uuid.NewString()
	now := time.Now()
	return &Run{
		ID:        id,
		Kind:      kind,
		Input:     input,
		Params:    map[string]any{},
		Summary:   map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
		rootDir:   filepath.Join(outputDir, fmt.Sprintf("%s-%s", kind, id[:8])),
	}
}

// LoadRun reads run.json from dir.
func LoadRun(dir string) (*Run, error) {
	path := filepath.Join(dir, manifestFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("run not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read run: %w", err)
	}
	var r Run
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse run: %w", err)
	}
	r.rootDir = dir
	return &r, nil
}

// Dir returns the on-disk run directory, creating it if needed.
func (r *Run) Dir() (string, error) {
	if r.rootDir == "" {
		return "", errors.New("run directory not set")
	}
	if err := utils.EnsureDir(r.rootDir); err != nil {
		return "", err
	}
	return r.rootDir, nil
}

// Path returns name joined onto the run directory.
func (r *Run) Path(name string) string { return filepath.Join(r.rootDir, name) }

// AddArtifact records a written file.
func (r *Run) AddArtifact(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}
	r.Artifacts = append(r.Artifacts, Artifact{Name: filepath.Base(path), Path: path, Bytes: info.Size()})
	r.UpdatedAt = time.Now()
	return nil
}

// Save writes run.json using atomic write.
func (r *Run) Save() error {
	dir, err := r.Dir()
	if err != nil {
		return err
	}
	r.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(r)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(dir, manifestFileName), data)
}

// ListRuns loads every run under outputDir, newest first. Directories
// without a manifest are skipped.
func ListRuns(outputDir string) ([]*Run, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list runs: %w", err)
	}
	var runs []*Run
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(outputDir, e.Name())
		if _, err := os.Stat(filepath.Join(dir, manifestFileName)); err != nil {
			continue
		}
		r, err := LoadRun(dir)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	return runs, nil
}

package ledger

import (
	"os"
	"path/filepath"

	"hypolab/domain/core"
	"hypolab/domain/experiment"
	"hypolab/domain/hypothesis"
	"hypolab/domain/run"
	"hypolab/domain/verdict"
)

// Bundle file names inside a run's output directory
const (
	ManifestFile     = "manifest.json"
	HypothesesFile   = "hypotheses.json"
	ExperimentsFile  = "experiments.json"
	ScoresFile       = "scores.json"
	InstructionsFile = "RUN_INSTRUCTIONS.md"
)

// Bundle is the human-readable output of one run
type Bundle struct {
	Manifest     run.Manifest
	Hypotheses   []hypothesis.Hypothesis
	Experiments  []experiment.Experiment
	Scores       []verdict.ScoreRecord
	Instructions string
}

// BundleDir returns the output directory for a run
func (l *Ledger) BundleDir(id core.RunID) string {
	return filepath.Join(l.root, BundleRelDir(id))
}

// BundleRelDir returns a run's output directory relative to the data root,
// so recorded paths stay valid when the root moves.
func BundleRelDir(id core.RunID) string {
	return filepath.Join(bundlesDir, id.String())
}

// WriteBundle emits the output bundle for a run. The manifest is written
// last so its presence marks a fully completed bundle.
func (l *Ledger) WriteBundle(b Bundle) error {
	if err := b.Manifest.Validate(); err != nil {
		return err
	}
	dir := l.BundleDir(b.Manifest.RunID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return core.NewStorageError(dir, err)
	}

	files := []struct {
		name    string
		payload interface{}
	}{
		{HypothesesFile, b.Hypotheses},
		{ExperimentsFile, b.Experiments},
		{ScoresFile, b.Scores},
	}
	for _, f := range files {
		if err := writeCanonicalFile(filepath.Join(dir, f.name), f.payload); err != nil {
			return err
		}
	}
	if err := os.WriteFile(filepath.Join(dir, InstructionsFile), []byte(b.Instructions), 0644); err != nil {
		return core.NewStorageError(filepath.Join(dir, InstructionsFile), err)
	}
	return writeCanonicalFile(filepath.Join(dir, ManifestFile), b.Manifest)
}

// ReadBundleFile returns the raw contents of one bundle file for a run
func (l *Ledger) ReadBundleFile(id core.RunID, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.BundleDir(id), name))
	if os.IsNotExist(err) {
		return nil, core.NewNotFoundError("bundle file", name)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func writeCanonicalFile(path string, payload interface{}) error {
	data, err := core.CanonicalJSON(payload)
	if err != nil {
		return core.NewStorageError(path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return core.NewStorageError(path, err)
	}
	return nil
}

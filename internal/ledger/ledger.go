// Package ledger is the append-only storage layer. Every entity kind lives in
// one line-delimited JSON file under the data root; malformed lines are
// quarantined into a sidecar file rather than failing the read.
//
// The ledger has no cross-process locking. Exactly one writer at a time is a
// caller obligation, not an internal guarantee.
package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"hypolab/domain/core"
	"hypolab/domain/experiment"
	"hypolab/domain/hypothesis"
	"hypolab/domain/pack"
	"hypolab/domain/run"
	"hypolab/domain/verdict"
	hl "hypolab/internal"
)

// Store file names under the data root
const (
	runsFile        = "runs.jsonl"
	hypothesesFile  = "hypotheses.jsonl"
	experimentsFile = "experiments.jsonl"
	scoresFile      = "scores.jsonl"
	priorsFile      = "priors_cache.jsonl"

	packsDir   = "domainPacks"
	bundlesDir = "runs"

	quarantineLineLimit = 200
)

// ReadStats reports what a store read skipped or quarantined
type ReadStats struct {
	SkippedBlank int `json:"skipped_blank"`
	Quarantined  int `json:"quarantined"`
}

// QuarantineRow is one malformed line moved to a _bad_rows sidecar
type QuarantineRow struct {
	ID            string         `json:"id"`
	SourceFile    string         `json:"source_file"`
	LineNumber    int            `json:"line_number"`
	ParseError    string         `json:"parse_error"`
	Line          string         `json:"line"`
	QuarantinedAt core.Timestamp `json:"quarantined_at"`
}

// Ledger owns the data root directory
type Ledger struct {
	root   string
	logger *hl.Logger
}

// New opens (creating if needed) a ledger at root
func New(root string, logger *hl.Logger) (*Ledger, error) {
	if logger == nil {
		logger = hl.NewDefaultLogger()
	}
	for _, dir := range []string{root, filepath.Join(root, packsDir), filepath.Join(root, bundlesDir)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, core.NewStorageError(dir, err)
		}
	}
	return &Ledger{root: root, logger: logger}, nil
}

// Root returns the data root directory
func (l *Ledger) Root() string { return l.root }

func (l *Ledger) path(name string) string { return filepath.Join(l.root, name) }

func sidecarName(name string) string {
	base := name[:len(name)-len(filepath.Ext(name))]
	return base + "_bad_rows.jsonl"
}

// appendLine writes one canonical JSON line and flushes it to disk. A write
// failure here is fatal to the caller's run.
func (l *Ledger) appendLine(name string, record interface{}) error {
	data, err := core.CanonicalJSON(record)
	if err != nil {
		return core.NewStorageError(name, err)
	}

	f, err := os.OpenFile(l.path(name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return core.NewStorageError(name, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return core.NewStorageError(name, err)
	}
	if err := f.Sync(); err != nil {
		return core.NewStorageError(name, err)
	}
	return nil
}

// quarantine appends a bad row to the sidecar. Sidecar write failures are
// logged and swallowed; they must never abort the read that found them.
func (l *Ledger) quarantine(name string, lineNo int, line string, parseErr error) {
	if len(line) > quarantineLineLimit {
		line = line[:quarantineLineLimit]
	}
	row := QuarantineRow{
		ID:            uuid.NewString(),
		SourceFile:    name,
		LineNumber:    lineNo,
		ParseError:    parseErr.Error(),
		Line:          line,
		QuarantinedAt: core.NewTimestamp(time.Now()),
	}

	data, err := json.Marshal(row)
	if err != nil {
		l.logger.Warn("quarantine marshal failed for %s line %d: %v", name, lineNo, err)
		return
	}
	f, err := os.OpenFile(l.path(sidecarName(name)), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		l.logger.Warn("quarantine open failed for %s: %v", name, err)
		return
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		l.logger.Warn("quarantine write failed for %s: %v", name, err)
	}
}

// readStore reads every parseable record from a JSONL store. Blank lines are
// counted and skipped; unparseable lines are counted and quarantined.
func readStore[T any](l *Ledger, name string) ([]T, ReadStats, error) {
	var stats ReadStats

	f, err := os.Open(l.path(name))
	if os.IsNotExist(err) {
		return nil, stats, nil
	}
	if err != nil {
		return nil, stats, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	var records []T
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if isBlank(line) {
			stats.SkippedBlank++
			continue
		}
		var record T
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			stats.Quarantined++
			l.quarantine(name, lineNo, line, err)
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return records, stats, fmt.Errorf("scan %s: %w", name, err)
	}
	return records, stats, nil
}

func isBlank(line string) bool {
	for _, r := range line {
		if r != ' ' && r != '\t' && r != '\r' {
			return false
		}
	}
	return true
}

// AppendRun persists a run record
func (l *Ledger) AppendRun(record run.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	return l.appendLine(runsFile, record)
}

// AppendHypothesis persists a hypothesis snapshot. The file keeps full
// history; reads collapse to the last write per identifier.
func (l *Ledger) AppendHypothesis(h hypothesis.Hypothesis) error {
	if err := h.Validate(); err != nil {
		return err
	}
	return l.appendLine(hypothesesFile, h)
}

// AppendExperiment persists an experiment record
func (l *Ledger) AppendExperiment(e experiment.Experiment) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return l.appendLine(experimentsFile, e)
}

// AppendScore persists a score record
func (l *Ledger) AppendScore(s verdict.ScoreRecord) error {
	return l.appendLine(scoresFile, s)
}

// Runs reads all run records
func (l *Ledger) Runs() ([]run.Record, ReadStats, error) {
	return readStore[run.Record](l, runsFile)
}

// Hypotheses reads the current view of every hypothesis: the last line
// written under an identifier wins, in order of first appearance. The
// append-only file itself remains the full history.
func (l *Ledger) Hypotheses() ([]hypothesis.Hypothesis, ReadStats, error) {
	all, stats, err := readStore[hypothesis.Hypothesis](l, hypothesesFile)
	if err != nil {
		return nil, stats, err
	}

	latest := make(map[core.HypothesisID]int, len(all))
	var order []core.HypothesisID
	for i, h := range all {
		if _, seen := latest[h.ID]; !seen {
			order = append(order, h.ID)
		}
		latest[h.ID] = i
	}

	current := make([]hypothesis.Hypothesis, 0, len(order))
	for _, id := range order {
		current = append(current, all[latest[id]])
	}
	return current, stats, nil
}

// Experiments reads all experiment records
func (l *Ledger) Experiments() ([]experiment.Experiment, ReadStats, error) {
	return readStore[experiment.Experiment](l, experimentsFile)
}

// Scores reads all score records
func (l *Ledger) Scores() ([]verdict.ScoreRecord, ReadStats, error) {
	return readStore[verdict.ScoreRecord](l, scoresFile)
}

// Priors reads the priors cache. The pipeline never writes this store.
func (l *Ledger) Priors() ([]pack.Prior, ReadStats, error) {
	return readStore[pack.Prior](l, priorsFile)
}

// FindRun returns the run record with the given ID
func (l *Ledger) FindRun(id core.RunID) (run.Record, error) {
	records, _, err := l.Runs()
	if err != nil {
		return run.Record{}, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return run.Record{}, core.NewNotFoundError("run", id.String())
}

// FilterHypothesesByDomain is a pure filter over the current hypothesis view
func FilterHypothesesByDomain(all []hypothesis.Hypothesis, domain string) []hypothesis.Hypothesis {
	if domain == "" {
		return all
	}
	var out []hypothesis.Hypothesis
	for _, h := range all {
		if h.Domain == domain {
			out = append(out, h)
		}
	}
	return out
}

// FilterHypothesesByStatus is a pure filter over the current hypothesis view
func FilterHypothesesByStatus(all []hypothesis.Hypothesis, status hypothesis.Status) []hypothesis.Hypothesis {
	if status == "" {
		return all
	}
	var out []hypothesis.Hypothesis
	for _, h := range all {
		if h.Status == status {
			out = append(out, h)
		}
	}
	return out
}

// FilterPriorsByDomain is a pure filter over the priors cache
func FilterPriorsByDomain(all []pack.Prior, domain string) []pack.Prior {
	if domain == "" {
		return all
	}
	var out []pack.Prior
	for _, p := range all {
		if p.Domain == domain {
			out = append(out, p)
		}
	}
	return out
}

// FilterExperimentsByStatus is a pure filter over experiment records
func FilterExperimentsByStatus(all []experiment.Experiment, status experiment.Status) []experiment.Experiment {
	if status == "" {
		return all
	}
	var out []experiment.Experiment
	for _, e := range all {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

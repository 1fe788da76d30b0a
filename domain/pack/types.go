package pack

import (
	"hypolab/domain/core"
)

// DomainPack is per-domain configuration. Created with safe defaults on first
// reference to an unknown domain, then persisted; never silently mutated.
type DomainPack struct {
	Domain              string   `json:"domain"`
	AllowedMethods      []string `json:"allowed_methods"`
	Signals             []string `json:"signals"`
	Datasets            []string `json:"datasets"`
	SyntheticGenerators []string `json:"synthetic_generators"`
	Metrics             []string `json:"metrics"`
	Constraints         []string `json:"constraints"`
}

// Default returns the safe default pack for a domain
func Default(domain string) DomainPack {
	return DomainPack{
		Domain:              domain,
		AllowedMethods:      []string{"simulation", "ablation"},
		Signals:             []string{"outcome_metric"},
		Datasets:            []string{},
		SyntheticGenerators: []string{"synthetic_default"},
		Metrics:             []string{"accuracy", "error_rate", "latency_ms"},
		Constraints:         []string{"local compute only"},
	}
}

// Digest is the canonical fingerprint of the pack, used in the run inputs digest
func (p DomainPack) Digest() (core.Hash, error) {
	return core.CanonicalHash(p)
}

// Prior is a domain-scoped reference claim used only for novelty comparison.
// Priors are externally supplied or cached; the pipeline never writes them.
type Prior struct {
	Domain string `json:"domain"`
	Title  string `json:"title"`
	Claim  string `json:"claim"`
	Source string `json:"source,omitempty"`
}

// ComparisonText is the text used for similarity: claim, falling back to title
func (p Prior) ComparisonText() string {
	if p.Claim != "" {
		return p.Claim
	}
	return p.Title
}

// PriorsVersion fingerprints a priors corpus so it participates in the run
// inputs digest. An empty corpus has a stable version.
func PriorsVersion(priors []Prior) (string, error) {
	h, err := core.CanonicalHash(priors)
	if err != nil {
		return "", err
	}
	return h.Short8(), nil
}

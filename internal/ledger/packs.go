package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"hypolab/domain/core"
	"hypolab/domain/pack"
)

func (l *Ledger) packPath(domain string) string {
	return filepath.Join(l.root, packsDir, domain+".json")
}

// DomainPack loads the configuration pack for a domain. An unknown domain
// gets the safe default pack, persisted immediately so later runs see the
// same configuration.
func (l *Ledger) DomainPack(domain string) (pack.DomainPack, error) {
	data, err := os.ReadFile(l.packPath(domain))
	if os.IsNotExist(err) {
		p := pack.Default(domain)
		if err := l.SaveDomainPack(p); err != nil {
			return pack.DomainPack{}, err
		}
		l.logger.Info("created default domain pack for %q", domain)
		return p, nil
	}
	if err != nil {
		return pack.DomainPack{}, fmt.Errorf("read domain pack %q: %w", domain, err)
	}

	var p pack.DomainPack
	if err := json.Unmarshal(data, &p); err != nil {
		return pack.DomainPack{}, fmt.Errorf("parse domain pack %q: %w", domain, err)
	}
	return p, nil
}

// SaveDomainPack persists a pack. This is the only way a pack changes after
// creation; nothing in the pipeline mutates packs implicitly.
func (l *Ledger) SaveDomainPack(p pack.DomainPack) error {
	if p.Domain == "" {
		return core.NewValidationError("domain_pack", "domain cannot be empty")
	}
	data, err := core.CanonicalJSON(p)
	if err != nil {
		return core.NewStorageError(l.packPath(p.Domain), err)
	}
	if err := os.WriteFile(l.packPath(p.Domain), data, 0644); err != nil {
		return core.NewStorageError(l.packPath(p.Domain), err)
	}
	return nil
}

package reimbursement

import (
	"github.com/google/uuid"

	"github.com/psyconnect/backend/internal/domain"
)

// CoverageLookup resolves the percentage (in basis points) an insurer
// reimburses for therapy invoices. The per-Isapre formula is owned by the
// insurers, not by this system: implementations are injected, typically
// backed by a configured table, and the values are never derived here.
type CoverageLookup interface {
	CoverageBps(healthSystem domain.HealthSystem, isapreID *uuid.UUID) (int64, error)
}

// StaticCoverage is a table-backed CoverageLookup. ByIsapre overrides
// DefaultBps for specific insurers. Fonasa and particular patients have no
// private reimbursement, so their coverage is zero.
type StaticCoverage struct {
	DefaultBps int64
	ByIsapre   map[uuid.UUID]int64
}

func (c *StaticCoverage) CoverageBps(healthSystem domain.HealthSystem, isapreID *uuid.UUID) (int64, error) {
	if healthSystem != domain.HealthSystemIsapre {
		return 0, nil
	}
	if isapreID != nil {
		if bps, ok := c.ByIsapre[*isapreID]; ok {
			return bps, nil
		}
	}
	if c.DefaultBps <= 0 {
		return 0, ErrCoverageUnknown
	}
	return c.DefaultBps, nil
}

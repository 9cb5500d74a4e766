package audit

import (
	"context"

	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
	"github.com/lcalzada-xor/cvewatch/internal/core/ports"
)

type AuditService struct {
	repo ports.AuditRepository
}

func NewAuditService(repo ports.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Log records a system-initiated action (scheduled runs, reprocessing).
func (s *AuditService) Log(ctx context.Context, action domain.AuditAction, target, details string) error {
	return s.LogFor(ctx, "", action, target, details)
}

// LogFor records an action attributed to a subscriber. An empty subscriberID
// falls back to system attribution.
func (s *AuditService) LogFor(ctx context.Context, subscriberID string, action domain.AuditAction, target, details string) error {
	// Use Domain Factory to ensure business rules
	entry, err := domain.NewAuditLog(subscriberID, action, target, details)
	if err != nil {
		return err
	}

	return s.repo.SaveAuditLog(ctx, *entry)
}

func (s *AuditService) GetLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	return s.repo.ListAuditLogs(ctx, limit)
}

var _ ports.AuditService = (*AuditService)(nil)

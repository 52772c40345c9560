package plans

import (
	"context"
	"strings"

	"arcana-app/internal/domain/plans"
	"arcana-app/internal/infra/stripe"
	"arcana-app/internal/pkg/apperr"
	"arcana-app/internal/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PriceSource fetches provider prices by id.
type PriceSource interface {
	GetPrice(ctx context.Context, id string) (*stripe.Price, error)
}

type SyncReport struct {
	Synced  int `json:"synced"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// PriceSync refreshes stored regional prices from their provider price objects.
type PriceSync struct {
	db     *gorm.DB
	source PriceSource
	logger *zap.Logger
}

func NewPriceSync(db *gorm.DB, source PriceSource, l *zap.Logger) *PriceSync {
	return &PriceSync{db: db, source: source, logger: logger.OrNop(l)}
}

func (s *PriceSync) Sync(ctx context.Context) (*SyncReport, error) {
	var rows []plans.RegionalPrice
	if err := s.db.WithContext(ctx).Where("stripe_price_id <> ''").Find(&rows).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load regional prices", err)
	}

	report := &SyncReport{}
	for _, row := range rows {
		p, err := s.source.GetPrice(ctx, row.StripePriceID)
		if err != nil {
			report.Failed++
			s.logger.Warn("price sync: fetch failed",
				zap.String("price_id", row.ID),
				zap.String("stripe_price_id", row.StripePriceID),
				zap.Error(err),
			)
			continue
		}
		report.Synced++

		updates := map[string]interface{}{}
		if p.Amount != row.Amount {
			updates["amount"] = p.Amount
		}
		if p.Active != row.Active {
			updates["active"] = p.Active
		}
		if iv := normalizeInterval(p.Interval); iv != "" && iv != row.Interval {
			updates["interval"] = iv
		}
		if len(updates) == 0 {
			report.Skipped++
			continue
		}

		if err := s.db.WithContext(ctx).Model(&plans.RegionalPrice{}).Where("id = ?", row.ID).Updates(updates).Error; err != nil {
			return report, apperr.Wrap(apperr.KindInternal, "update regional price", err)
		}
		report.Updated++
	}
	return report, nil
}

func normalizeInterval(iv string) string {
	switch strings.ToLower(iv) {
	case plans.IntervalMonth, plans.IntervalQuarter, plans.IntervalYear:
		return strings.ToLower(iv)
	default:
		return ""
	}
}

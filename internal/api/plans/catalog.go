package plans

import (
	"context"
	"errors"
	"sort"
	"strings"

	"arcana-app/internal/domain/plans"
	"arcana-app/internal/domain/regions"
	"arcana-app/internal/pkg/apperr"

	"gorm.io/gorm"
)

// RegionResolver derives a region id from a caller IP.
type RegionResolver interface {
	Resolve(ctx context.Context, ip string) string
}

// Query selects part of the catalog. PlanID requires RegionID.
type Query struct {
	IP       string
	RegionID string
	PlanID   string
}

type RegionView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CurrencyCode string `json:"currencyCode"`
	Locale       string `json:"locale"`
}

type PriceView struct {
	ID            string `json:"id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Interval      string `json:"interval"`
	StripePriceID string `json:"stripePriceId"`
	Formatted     string `json:"formatted"`
}

type PlanView struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Popular     bool        `json:"popular"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Features    []string    `json:"features"`
	Prices      []PriceView `json:"prices"`
}

// Result is the catalog for one region. Price is set only for a single plan
// with exactly one price in the region.
type Result struct {
	Region RegionView `json:"region"`
	Plans  []PlanView `json:"plans"`
	Price  *int64     `json:"price,omitempty"`
}

type Catalog struct {
	db       *gorm.DB
	resolver RegionResolver
}

func NewCatalog(db *gorm.DB, resolver RegionResolver) *Catalog {
	return &Catalog{db: db, resolver: resolver}
}

func (c *Catalog) GetPlans(ctx context.Context, q Query) (*Result, error) {
	regionID := strings.ToUpper(strings.TrimSpace(q.RegionID))
	planID := strings.TrimSpace(q.PlanID)

	if planID != "" && regionID == "" {
		return nil, apperr.Validation("regionId is required when planId is given")
	}
	if regionID == "" {
		regionID = c.resolver.Resolve(ctx, q.IP)
	}

	db := c.db.WithContext(ctx)

	var region regions.Region
	if err := db.Where("id = ? AND active = ?", regionID, true).First(&region).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Region not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "load region", err)
	}

	planQuery := db.Where("active = ?", true)
	if planID != "" {
		planQuery = planQuery.Where("id = ?", planID)
	}
	var planRows []plans.Plan
	if err := planQuery.Find(&planRows).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load plans", err)
	}
	if planID != "" && len(planRows) == 0 {
		return nil, apperr.NotFound("Plan not found")
	}
	sort.SliceStable(planRows, func(i, j int) bool {
		return plans.TierRank(&planRows[i]) < plans.TierRank(&planRows[j])
	})

	ids := make([]string, 0, len(planRows))
	for _, p := range planRows {
		ids = append(ids, p.ID)
	}

	var priceRows []plans.RegionalPrice
	var contentRows []plans.RegionalPlanContent
	if len(ids) > 0 {
		err := db.Where("plan_id IN ? AND region_id = ? AND active = ?", ids, region.ID, true).
			Order("amount ASC").
			Find(&priceRows).Error
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "load prices", err)
		}

		err = db.Where("plan_id IN ? AND active = ?", ids, true).
			Order("id ASC").
			Find(&contentRows).Error
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "load plan content", err)
		}
	}

	res := &Result{
		Region: RegionView{
			ID:           region.ID,
			Name:         region.Name,
			CurrencyCode: region.CurrencyCode,
			Locale:       region.Locale,
		},
		Plans: make([]PlanView, 0, len(planRows)),
	}

	for i := range planRows {
		p := &planRows[i]
		content := resolveContent(p, region.ID, contentRows)

		view := PlanView{
			ID:          p.ID,
			Type:        plans.PlanType(p),
			Popular:     p.Popular,
			Title:       content.Title,
			Description: content.Description,
			Features:    content.Features,
			Prices:      []PriceView{},
		}
		for _, pr := range priceRows {
			if pr.PlanID != p.ID {
				continue
			}
			view.Prices = append(view.Prices, PriceView{
				ID:            pr.ID,
				Amount:        pr.Amount,
				Currency:      region.CurrencyCode,
				Interval:      pr.Interval,
				StripePriceID: pr.StripePriceID,
				Formatted:     plans.FormatAmount(pr.Amount, region.CurrencyCode),
			})
		}
		res.Plans = append(res.Plans, view)
	}

	if planID != "" && len(res.Plans) == 1 && len(res.Plans[0].Prices) == 1 {
		amount := res.Plans[0].Prices[0].Amount
		res.Price = &amount
	}
	return res, nil
}

// resolveContent applies the fallback chain: exact region, then US, then the
// first stored row for the plan, then copy derived from the plan type.
func resolveContent(p *plans.Plan, regionID string, rows []plans.RegionalPlanContent) plans.Content {
	var us, first *plans.RegionalPlanContent
	for i := range rows {
		row := &rows[i]
		if row.PlanID != p.ID {
			continue
		}
		if row.RegionID == regionID {
			return plans.ContentFrom(row)
		}
		if row.RegionID == regions.RegionUS && us == nil {
			us = row
		}
		if first == nil {
			first = row
		}
	}
	switch {
	case us != nil:
		return plans.ContentFrom(us)
	case first != nil:
		return plans.ContentFrom(first)
	default:
		return plans.DefaultContent(p)
	}
}

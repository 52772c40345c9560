package database

import (
	"arcana-app/internal/domain/plans"
	"arcana-app/internal/domain/regions"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferenceRegions, ReferencePlans, ReferencePrices and ReferenceContent form
// the single seeded catalog. EU has no content rows on purpose: it is served
// through the US fallback.
var ReferenceRegions = []regions.Region{
	{ID: regions.RegionBR, Name: "Brasil", CurrencyCode: "BRL", Locale: "pt-BR", Active: true},
	{ID: regions.RegionUS, Name: "United States", CurrencyCode: "USD", Locale: "en-US", Active: true},
	{ID: regions.RegionEU, Name: "Europe", CurrencyCode: "EUR", Locale: "en-GB", Active: true},
}

var ReferencePlans = []plans.Plan{
	{ID: plans.TypeBasic, Type: plans.TypeBasic, Active: true},
	{ID: plans.TypeIntermediate, Type: plans.TypeIntermediate, Popular: true, Active: true},
	{ID: plans.TypePremium, Type: plans.TypePremium, Active: true},
}

var ReferencePrices = []plans.RegionalPrice{
	{ID: "basic-br", PlanID: plans.TypeBasic, RegionID: regions.RegionBR, Amount: 990, Interval: plans.IntervalMonth, StripePriceID: "price_basic_br", Active: true},
	{ID: "intermediate-br", PlanID: plans.TypeIntermediate, RegionID: regions.RegionBR, Amount: 1990, Interval: plans.IntervalMonth, StripePriceID: "price_intermediate_br", Active: true},
	{ID: "premium-br", PlanID: plans.TypePremium, RegionID: regions.RegionBR, Amount: 2990, Interval: plans.IntervalMonth, StripePriceID: "price_premium_br", Active: true},

	{ID: "basic-us", PlanID: plans.TypeBasic, RegionID: regions.RegionUS, Amount: 499, Interval: plans.IntervalMonth, StripePriceID: "price_basic_us", Active: true},
	{ID: "intermediate-us", PlanID: plans.TypeIntermediate, RegionID: regions.RegionUS, Amount: 999, Interval: plans.IntervalMonth, StripePriceID: "price_intermediate_us", Active: true},
	{ID: "premium-us", PlanID: plans.TypePremium, RegionID: regions.RegionUS, Amount: 1499, Interval: plans.IntervalMonth, StripePriceID: "price_premium_us", Active: true},

	{ID: "basic-eu", PlanID: plans.TypeBasic, RegionID: regions.RegionEU, Amount: 499, Interval: plans.IntervalMonth, StripePriceID: "price_basic_eu", Active: true},
	{ID: "intermediate-eu", PlanID: plans.TypeIntermediate, RegionID: regions.RegionEU, Amount: 899, Interval: plans.IntervalMonth, StripePriceID: "price_intermediate_eu", Active: true},
	{ID: "premium-eu", PlanID: plans.TypePremium, RegionID: regions.RegionEU, Amount: 1399, Interval: plans.IntervalMonth, StripePriceID: "price_premium_eu", Active: true},
}

var ReferenceContent = []plans.RegionalPlanContent{
	{PlanID: plans.TypeBasic, RegionID: regions.RegionBR, Title: "Básico", Description: "Tiragens diárias e seu signo solar.",
		Features: []string{"1 tiragem por dia", "Signo solar"}, Active: true},
	{PlanID: plans.TypeIntermediate, RegionID: regions.RegionBR, Title: "Intermediário", Description: "Mais tiragens e mapa astral estendido.",
		Features: []string{"5 tiragens por dia", "Signo solar e lunar", "Histórico de leituras"}, Active: true},
	{PlanID: plans.TypePremium, RegionID: regions.RegionBR, Title: "Premium", Description: "Tiragens ilimitadas e perfil astrológico completo.",
		Features: []string{"Tiragens ilimitadas", "Mapa astral completo", "Histórico de leituras", "Suporte prioritário"}, Active: true},

	{PlanID: plans.TypeBasic, RegionID: regions.RegionUS, Title: "Basic", Description: "Daily readings and your sun sign.",
		Features: []string{"1 reading per day", "Sun sign"}, Active: true},
	{PlanID: plans.TypeIntermediate, RegionID: regions.RegionUS, Title: "Intermediate", Description: "More readings and an extended chart.",
		Features: []string{"5 readings per day", "Sun and moon sign", "Reading history"}, Active: true},
	{PlanID: plans.TypePremium, RegionID: regions.RegionUS, Title: "Premium", Description: "Unlimited readings and the complete astrology profile.",
		Features: []string{"Unlimited readings", "Full birth chart", "Reading history", "Priority support"}, Active: true},
}

// Seed upserts the reference catalog. Running it twice leaves the same rows.
func Seed(db *gorm.DB) error {
	// copies, so Create never writes generated keys into the shared slices
	regionRows := append([]regions.Region(nil), ReferenceRegions...)
	planRows := append([]plans.Plan(nil), ReferencePlans...)
	priceRows := append([]plans.RegionalPrice(nil), ReferencePrices...)
	contentRows := append([]plans.RegionalPlanContent(nil), ReferenceContent...)

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&regionRows).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&planRows).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&priceRows).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "plan_id"}, {Name: "region_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description", "features", "active"}),
		}).Create(&contentRows).Error
	})
}

package access

import (
	"arcana-app/internal/domain/plans"
)

func CapabilitiesFor(state AccessState, plan *plans.Plan) []string {
	// limited/locked: nothing beyond the public catalog
	if state != AccessFull {
		return []string{}
	}

	switch plans.PlanType(plan) {
	case plans.TypePremium:
		return []string{CapDailyReading, CapSunSign, CapMoonSign, CapExtendedSpreads, CapUnlimitedReading, CapFullChart}
	case plans.TypeIntermediate:
		return []string{CapDailyReading, CapSunSign, CapMoonSign, CapExtendedSpreads}
	default:
		return []string{CapDailyReading, CapSunSign}
	}
}

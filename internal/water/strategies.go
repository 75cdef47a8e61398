// Concrete allocation strategies. Each one decides how much groundwater to
// request; the shared constraint step clips the request and whatever is
// clipped off falls back to municipal supply.

package water

// alwaysGroundwater requests 100% of demand as groundwater. Constraint
// clipping is the only source of municipal use.
type alwaysGroundwater struct{}

func (alwaysGroundwater) Name() string { return PolicyAlwaysGroundwater }

func (alwaysGroundwater) Allocate(ctx PolicyContext) Allocation {
	gw, binding := constrainGroundwater(ctx.DemandM3, ctx)
	reason := "groundwater preferred"
	if binding != BindNone {
		reason = "groundwater capped, municipal fallback"
	}
	return finalize(gw, ctx.DemandM3-gw, ctx, reason, binding)
}

// alwaysMunicipal sources everything from the municipal network: zero
// treatment energy, zero aquifer extraction.
type alwaysMunicipal struct{}

func (alwaysMunicipal) Name() string { return PolicyAlwaysMunicipal }

func (alwaysMunicipal) Allocate(ctx PolicyContext) Allocation {
	return finalize(0, ctx.DemandM3, ctx, "municipal only", BindNone)
}

// cheapestSource compares groundwater unit cost to the municipal price each
// day and takes the cheaper source for the whole demand.
//
// When includeEnergy is false the comparison weighs only the fixed
// maintenance cost, but the charged cost still includes energy. The
// asymmetry is intentional: it models an operator who treats already-built
// renewable energy as sunk when deciding, while the books record the full
// cost.
type cheapestSource struct {
	includeEnergy bool
}

func (cheapestSource) Name() string { return PolicyCheapestSource }

func (p cheapestSource) Allocate(ctx PolicyContext) Allocation {
	decisionCost := ctx.GroundwaterUnitCost()
	if !p.includeEnergy {
		decisionCost = ctx.MaintenancePerM3
	}
	if decisionCost >= ctx.MunicipalPrice {
		return finalize(0, ctx.DemandM3, ctx, "municipal cheaper", BindNone)
	}
	gw, binding := constrainGroundwater(ctx.DemandM3, ctx)
	return finalize(gw, ctx.DemandM3-gw, ctx, "groundwater cheaper", binding)
}

// conserveGroundwater holds the aquifer in reserve: municipal by default,
// with a capped fraction of groundwater only when municipal pricing becomes
// punitive relative to groundwater cost.
type conserveGroundwater struct {
	trigger     float64 // municipal price must exceed trigger x gw cost
	maxFraction float64 // cap on groundwater share of demand
}

func (conserveGroundwater) Name() string { return PolicyConserveGroundwater }

func (p conserveGroundwater) Allocate(ctx PolicyContext) Allocation {
	gwCost := ctx.GroundwaterUnitCost()
	if gwCost <= 0 || ctx.MunicipalPrice <= p.trigger*gwCost {
		return finalize(0, ctx.DemandM3, ctx, "conserving aquifer", BindNone)
	}
	requested := ctx.DemandM3 * p.maxFraction
	gw, binding := constrainGroundwater(requested, ctx)
	return finalize(gw, ctx.DemandM3-gw, ctx, "municipal price trigger, capped groundwater", binding)
}

// quotaEnforced enforces a hard annual extraction ceiling with an even
// monthly allowance widened by a variance band. Once either period's
// allowance is exhausted the farm runs 100% municipal until the period
// rolls over.
type quotaEnforced struct {
	annualM3 float64
	variance float64
}

func (quotaEnforced) Name() string { return PolicyQuotaEnforced }

func (p quotaEnforced) Allocate(ctx PolicyContext) Allocation {
	monthlyAllowance := p.annualM3 / 12 * (1 + p.variance)

	annualLeft := p.annualM3 - ctx.UsedYearM3
	if annualLeft <= 0 {
		return finalize(0, ctx.DemandM3, ctx, "annual quota exhausted", BindQuotaYear)
	}
	monthLeft := monthlyAllowance - ctx.UsedMonthM3
	if monthLeft <= 0 {
		return finalize(0, ctx.DemandM3, ctx, "monthly allowance exhausted", BindQuotaMonth)
	}

	requested := ctx.DemandM3
	binding := BindNone
	if requested > annualLeft {
		requested = annualLeft
		binding = BindQuotaYear
	}
	if requested > monthLeft {
		requested = monthLeft
		binding = BindQuotaMonth
	}

	gw, physical := constrainGroundwater(requested, ctx)
	if physical != BindNone {
		binding = physical
	}
	reason := "within quota"
	if binding != BindNone {
		reason = "quota or capacity limited"
	}
	return finalize(gw, ctx.DemandM3-gw, ctx, reason, binding)
}

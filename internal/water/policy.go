// Package water implements the shared water infrastructure: allocation
// policies, capacity constraints, aquifer depletion, and storage bookkeeping.
package water

import (
	"fmt"
	"time"
)

// Policy names accepted by NewPolicy.
const (
	PolicyAlwaysGroundwater   = "always_groundwater"
	PolicyAlwaysMunicipal     = "always_municipal"
	PolicyCheapestSource      = "cheapest_source"
	PolicyConserveGroundwater = "conserve_groundwater"
	PolicyQuotaEnforced       = "quota_enforced"
)

// Binding identifies which constraint clipped a groundwater request.
type Binding string

const (
	BindNone       Binding = ""
	BindEnergy     Binding = "energy"
	BindWell       Binding = "well"
	BindTreatment  Binding = "treatment"
	BindQuotaYear  Binding = "quota_year"
	BindQuotaMonth Binding = "quota_month"
)

// PolicyContext carries everything a policy may consult for one day's
// decision. It is built fresh each day so the pumping energy term reflects
// the aquifer's current drawdown.
type PolicyContext struct {
	Date     time.Time
	DemandM3 float64

	EnergyPrice    float64 // $/kWh
	MunicipalPrice float64 // $/m3

	PumpingKWhPerM3    float64
	TreatmentKWhPerM3  float64
	ConveyanceKWhPerM3 float64
	MaintenancePerM3   float64 // fixed O&M, $/m3

	// Physical ceilings for this farm's slice of shared infrastructure.
	// Non-positive values mean unconstrained.
	AvailableEnergyKWh  float64
	WellCapacityM3      float64
	TreatmentCapacityM3 float64

	// Cumulative groundwater already drawn by this farm.
	UsedTodayM3 float64
	UsedMonthM3 float64
	UsedYearM3  float64
}

// EnergyPerM3 returns the total electrical energy needed per m3 of treated
// groundwater delivered to the field.
func (c PolicyContext) EnergyPerM3() float64 {
	return c.PumpingKWhPerM3 + c.TreatmentKWhPerM3 + c.ConveyanceKWhPerM3
}

// GroundwaterUnitCost returns the full per-m3 cost of groundwater,
// energy plus fixed maintenance.
func (c PolicyContext) GroundwaterUnitCost() float64 {
	return c.EnergyPerM3()*c.EnergyPrice + c.MaintenancePerM3
}

// Allocation is the outcome of one policy call: how today's demand is split
// between treated groundwater and municipal supply.
type Allocation struct {
	GroundwaterM3 float64
	MunicipalM3   float64
	EnergyKWh     float64
	Cost          float64
	Reason        string
	Binding       Binding
}

// TotalM3 returns the total volume delivered.
func (a Allocation) TotalM3() float64 {
	return a.GroundwaterM3 + a.MunicipalM3
}

// Policy decides, once per farm per day, how irrigation demand is sourced.
type Policy interface {
	Name() string
	Allocate(ctx PolicyContext) Allocation
}

// PolicyParams holds the tunables for the parameterized strategies. Zero
// values fall back to each strategy's defaults.
type PolicyParams struct {
	// CheapestSource: when false, the source comparison ignores the energy
	// component and weighs only fixed maintenance cost. The charged cost
	// always includes energy regardless.
	IncludeEnergyCost bool

	// ConserveGroundwater: groundwater is used only when the municipal price
	// exceeds PriceRatioTrigger times the groundwater unit cost, and then
	// only up to MaxGroundwaterFraction of demand.
	PriceRatioTrigger      float64
	MaxGroundwaterFraction float64

	// QuotaEnforced: hard annual extraction ceiling with an even monthly
	// allowance widened by MonthlyVariance.
	AnnualQuotaM3   float64
	MonthlyVariance float64
}

// NewPolicy maps a configuration name to a constructed policy. Unknown names
// are a configuration error and must be rejected before any day is simulated.
func NewPolicy(name string, p PolicyParams) (Policy, error) {
	switch name {
	case PolicyAlwaysGroundwater:
		return alwaysGroundwater{}, nil
	case PolicyAlwaysMunicipal:
		return alwaysMunicipal{}, nil
	case PolicyCheapestSource:
		return cheapestSource{includeEnergy: p.IncludeEnergyCost}, nil
	case PolicyConserveGroundwater:
		trigger := p.PriceRatioTrigger
		if trigger <= 0 {
			trigger = 1.5
		}
		frac := p.MaxGroundwaterFraction
		if frac <= 0 || frac > 1 {
			frac = 0.3
		}
		return conserveGroundwater{trigger: trigger, maxFraction: frac}, nil
	case PolicyQuotaEnforced:
		if p.AnnualQuotaM3 <= 0 {
			return nil, fmt.Errorf("policy %q requires a positive annual quota", name)
		}
		return quotaEnforced{annualM3: p.AnnualQuotaM3, variance: p.MonthlyVariance}, nil
	default:
		return nil, fmt.Errorf("unknown water policy %q", name)
	}
}

// constrainGroundwater clips a requested groundwater volume to the physical
// ceilings and reports which bound was active. A non-positive energy budget
// or energy-per-m3 disables the energy limit (degenerate "unlimited" case).
func constrainGroundwater(requested float64, ctx PolicyContext) (float64, Binding) {
	v := requested
	binding := BindNone

	if e := ctx.EnergyPerM3(); e > 0 && ctx.AvailableEnergyKWh > 0 {
		if limit := ctx.AvailableEnergyKWh / e; v > limit {
			v = limit
			binding = BindEnergy
		}
	}
	if ctx.WellCapacityM3 > 0 && v > ctx.WellCapacityM3 {
		v = ctx.WellCapacityM3
		binding = BindWell
	}
	if ctx.TreatmentCapacityM3 > 0 && v > ctx.TreatmentCapacityM3 {
		v = ctx.TreatmentCapacityM3
		binding = BindTreatment
	}
	if v < 0 {
		v = 0
	}
	return v, binding
}

// finalize fills in the energy and cost figures for a groundwater/municipal
// split. The charged groundwater cost always includes the energy component.
func finalize(gwM3, municipalM3 float64, ctx PolicyContext, reason string, binding Binding) Allocation {
	if gwM3 < 0 {
		gwM3 = 0
	}
	if municipalM3 < 0 {
		municipalM3 = 0
	}
	return Allocation{
		GroundwaterM3: gwM3,
		MunicipalM3:   municipalM3,
		EnergyKWh:     gwM3 * ctx.EnergyPerM3(),
		Cost:          gwM3*ctx.GroundwaterUnitCost() + municipalM3*ctx.MunicipalPrice,
		Reason:        reason,
		Binding:       binding,
	}
}

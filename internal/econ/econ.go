// Package econ tracks community-level cash flow and the annualized financing
// cost of the shared infrastructure.
package econ

import "math"

// FinancingConfig holds the capital cost of each subsystem and the loan
// terms used to annualize it.
type FinancingConfig struct {
	DebtTermYears int
	InterestRate  float64

	CapexWells     float64
	CapexTreatment float64
	CapexPV        float64
	CapexWind      float64
	CapexBattery   float64
	CapexGenerator float64
	CapexStorage   float64
}

// DebtBreakdown is the annual debt service per subsystem, computed once at
// simulation start.
type DebtBreakdown struct {
	Wells     float64
	Treatment float64
	PV        float64
	Wind      float64
	Battery   float64
	Generator float64
	Storage   float64
	Total     float64
}

// State is the community's running financial position.
type State struct {
	CashReserves float64

	CumulativeRevenue       float64
	CumulativeOperatingCost float64
	CumulativeDebtService   float64

	AnnualDebtService DebtBreakdown
}

// NewState precomputes annual debt service and seeds the cash reserve.
func NewState(initialCash float64, f FinancingConfig) *State {
	b := DebtBreakdown{
		Wells:     annuity(f.CapexWells, f.InterestRate, f.DebtTermYears),
		Treatment: annuity(f.CapexTreatment, f.InterestRate, f.DebtTermYears),
		PV:        annuity(f.CapexPV, f.InterestRate, f.DebtTermYears),
		Wind:      annuity(f.CapexWind, f.InterestRate, f.DebtTermYears),
		Battery:   annuity(f.CapexBattery, f.InterestRate, f.DebtTermYears),
		Generator: annuity(f.CapexGenerator, f.InterestRate, f.DebtTermYears),
		Storage:   annuity(f.CapexStorage, f.InterestRate, f.DebtTermYears),
	}
	b.Total = b.Wells + b.Treatment + b.PV + b.Wind + b.Battery + b.Generator + b.Storage
	return &State{CashReserves: initialCash, AnnualDebtService: b}
}

// annuity converts a capital cost to a level annual payment. Zero interest
// degrades to straight-line repayment.
func annuity(capex, rate float64, years int) float64 {
	if capex <= 0 || years <= 0 {
		return 0
	}
	if rate <= 0 {
		return capex / float64(years)
	}
	return capex * rate / (1 - math.Pow(1+rate, -float64(years)))
}

// CloseYear rolls one year's revenue and operating cost into the cumulative
// totals and the cash reserve, charging a full year of debt service.
func (s *State) CloseYear(revenue, operatingCost float64) {
	s.CumulativeRevenue += revenue
	s.CumulativeOperatingCost += operatingCost
	s.CumulativeDebtService += s.AnnualDebtService.Total
	s.CashReserves += revenue - operatingCost - s.AnnualDebtService.Total
}

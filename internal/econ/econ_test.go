package econ

import (
	"math"
	"testing"
)

func TestAnnuity(t *testing.T) {
	cases := []struct {
		name  string
		capex float64
		rate  float64
		years int
		want  float64
	}{
		{"zero capex", 0, 0.05, 20, 0},
		{"zero term", 1000, 0.05, 0, 0},
		{"zero rate straight line", 100000, 0, 20, 5000},
		{"one year", 1000, 0.05, 1, 1050},
		// 100k at 4.5% over 20 years: standard level-payment result.
		{"typical loan", 100000, 0.045, 20, 7687.614432},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := annuity(tc.capex, tc.rate, tc.years)
			if math.Abs(got-tc.want) > 1e-4 {
				t.Fatalf("annuity(%v, %v, %d) = %v, want %v", tc.capex, tc.rate, tc.years, got, tc.want)
			}
		})
	}
}

func TestAnnuityRepaysPrincipal(t *testing.T) {
	// Discounting the payment stream at the loan rate recovers the principal.
	capex, rate, years := 250000.0, 0.06, 15
	pay := annuity(capex, rate, years)

	pv := 0.0
	for y := 1; y <= years; y++ {
		pv += pay / math.Pow(1+rate, float64(y))
	}
	if math.Abs(pv-capex) > 1e-6 {
		t.Fatalf("present value of payments = %v, want %v", pv, capex)
	}
}

func TestNewStateBreakdown(t *testing.T) {
	s := NewState(50000, FinancingConfig{
		DebtTermYears: 10,
		CapexWells:    10000,
		CapexPV:       20000,
	})

	if s.CashReserves != 50000 {
		t.Fatalf("cash = %v, want initial 50000", s.CashReserves)
	}
	if s.AnnualDebtService.Wells != 1000 {
		t.Fatalf("wells debt = %v, want 1000 straight-line", s.AnnualDebtService.Wells)
	}
	if s.AnnualDebtService.PV != 2000 {
		t.Fatalf("pv debt = %v, want 2000", s.AnnualDebtService.PV)
	}
	if s.AnnualDebtService.Total != 3000 {
		t.Fatalf("total debt = %v, want 3000", s.AnnualDebtService.Total)
	}
}

func TestCloseYear(t *testing.T) {
	s := NewState(10000, FinancingConfig{DebtTermYears: 10, CapexWells: 10000})

	s.CloseYear(8000, 3000)
	if s.CashReserves != 10000+8000-3000-1000 {
		t.Fatalf("cash after year 1 = %v", s.CashReserves)
	}

	s.CloseYear(2000, 5000) // loss year: cash may go negative
	if s.CashReserves != 14000+2000-5000-1000 {
		t.Fatalf("cash after year 2 = %v", s.CashReserves)
	}
	if s.CumulativeRevenue != 10000 || s.CumulativeOperatingCost != 8000 || s.CumulativeDebtService != 2000 {
		t.Fatalf("cumulative totals: %+v", s)
	}
}

package energy

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		PVCapacityKW:        100,
		WindCapacityKW:      50,
		PVShadingFactor:     1,
		BatteryCapacityKWh:  200,
		SOCMin:              0.1,
		SOCMax:              0.9,
		ChargeEfficiency:    0.95,
		DischargeEfficiency: 0.95,
		GeneratorCapacityKW: 40,
		FuelCurveA:          0.08,
		FuelCurveB:          0.25,
	}
}

func day(offset int) time.Time {
	return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

// TestSOCBounds throws random demand/generation at the dispatcher and checks
// state of charge never leaves its band.
func TestSOCBounds(t *testing.T) {
	s := NewState(testConfig())
	rng := rand.New(rand.NewSource(99))

	for i := 0; i < 10000; i++ {
		demand := rng.Float64() * 3000
		pv := rng.Float64() * 8
		wind := rng.Float64() * 10
		rec := s.Dispatch(day(i), demand, pv, wind, 0)

		if s.SOC < s.SOCMin-1e-12 || s.SOC > s.SOCMax+1e-12 {
			t.Fatalf("day %d: SOC %v outside [%v, %v]", i, s.SOC, s.SOCMin, s.SOCMax)
		}
		if rec.SOC != s.SOC {
			t.Fatalf("record SOC %v != state SOC %v", rec.SOC, s.SOC)
		}
	}
}

// TestSurplusChargesFirst is the canonical surplus day: 100 kWh demand
// against 150 kWh of PV with a 50 kWh battery at SOC_min. The battery fills
// to SOC_max, the rest exports, and nothing is curtailed.
func TestSurplusChargesFirst(t *testing.T) {
	cfg := testConfig()
	cfg.PVCapacityKW = 150
	cfg.WindCapacityKW = 0
	cfg.BatteryCapacityKWh = 50
	s := NewState(cfg)

	rec := s.Dispatch(day(0), 100, 1.0, 0, 0) // 150 kW * 1.0 kWh/kW = 150 kWh

	if math.Abs(s.SOC-cfg.SOCMax) > 1e-9 {
		t.Fatalf("SOC = %v, want charged to SOCMax %v", s.SOC, cfg.SOCMax)
	}
	// Room = (0.9-0.1)*50 = 40 kWh stored, 40/0.95 drawn from the bus.
	wantCharge := 40 / 0.95
	if math.Abs(rec.BatteryChargeKWh-wantCharge) > 1e-9 {
		t.Fatalf("battery charge = %v, want %v", rec.BatteryChargeKWh, wantCharge)
	}
	wantExport := 50 - wantCharge
	if math.Abs(rec.GridExportKWh-wantExport) > 1e-9 {
		t.Fatalf("export = %v, want %v", rec.GridExportKWh, wantExport)
	}
	if rec.CurtailedKWh != 0 {
		t.Fatalf("curtailment = %v, want 0 with unconstrained export", rec.CurtailedKWh)
	}
}

// TestRoundTripEfficiency alternates surplus and deficit days and checks the
// discharge/charge ratio converges to the round-trip efficiency.
func TestRoundTripEfficiency(t *testing.T) {
	cfg := testConfig()
	cfg.PVCapacityKW = 100
	cfg.WindCapacityKW = 0
	cfg.GeneratorCapacityKW = 0
	s := NewState(cfg)

	for i := 0; i < 2000; i++ {
		if i%2 == 0 {
			s.Dispatch(day(i), 0, 1.5, 0, 0) // 150 kWh surplus
		} else {
			s.Dispatch(day(i), 150, 0, 0, 0) // 150 kWh deficit
		}
	}

	charge := s.Year.BatteryChargeKWh
	discharge := s.Year.BatteryDischargeKWh
	if charge <= 0 || discharge <= 0 {
		t.Fatalf("battery never cycled: charge %v discharge %v", charge, discharge)
	}
	if discharge > charge {
		t.Fatalf("discharged %v more than charged %v", discharge, charge)
	}
	wantRatio := cfg.ChargeEfficiency * cfg.DischargeEfficiency
	if got := discharge / charge; math.Abs(got-wantRatio) > 0.01 {
		t.Fatalf("round-trip ratio = %v, want ~%v", got, wantRatio)
	}
}

func TestDeficitMeritOrder(t *testing.T) {
	cfg := testConfig()
	cfg.PVCapacityKW = 0
	cfg.WindCapacityKW = 0
	s := NewState(cfg)
	s.SOC = 0.9 // pre-charged

	rec := s.Dispatch(day(0), 300, 0, 0, 0)

	// Battery delivers (0.9-0.1)*200*0.95 = 152 kWh, grid covers the rest.
	wantBattery := 152.0
	if math.Abs(rec.BatteryDischargeKWh-wantBattery) > 1e-9 {
		t.Fatalf("battery discharge = %v, want %v", rec.BatteryDischargeKWh, wantBattery)
	}
	if math.Abs(rec.GridImportKWh-(300-wantBattery)) > 1e-9 {
		t.Fatalf("grid import = %v, want %v", rec.GridImportKWh, 300-wantBattery)
	}
	if rec.GeneratorKWh != 0 {
		t.Fatalf("generator ran with grid available: %+v", rec)
	}
}

func TestIslandedGeneratorFuel(t *testing.T) {
	cfg := testConfig()
	cfg.PVCapacityKW = 0
	cfg.WindCapacityKW = 0
	cfg.BatteryCapacityKWh = 0
	cfg.Islanded = true
	s := NewState(cfg)

	rec := s.Dispatch(day(0), 100, 0, 0, 0)

	// 100 kWh at 40 kW rated = 2.5 hours flat out.
	if math.Abs(rec.GeneratorHours-2.5) > 1e-9 {
		t.Fatalf("generator hours = %v, want 2.5", rec.GeneratorHours)
	}
	if math.Abs(rec.GeneratorKWh-100) > 1e-9 {
		t.Fatalf("generator energy = %v, want 100", rec.GeneratorKWh)
	}
	// Willans line at rated load: (a+b) * P_rated * hours.
	wantFuel := (0.08 + 0.25) * 40 * 2.5
	if math.Abs(rec.FuelL-wantFuel) > 1e-9 {
		t.Fatalf("fuel = %v, want %v", rec.FuelL, wantFuel)
	}
	if rec.UnmetKWh != 0 {
		t.Fatalf("unmet = %v, want 0", rec.UnmetKWh)
	}
}

func TestIslandedUnmetDeficit(t *testing.T) {
	cfg := testConfig()
	cfg.PVCapacityKW = 0
	cfg.WindCapacityKW = 0
	cfg.BatteryCapacityKWh = 0
	cfg.GeneratorCapacityKW = 0
	cfg.Islanded = true
	s := NewState(cfg)

	rec := s.Dispatch(day(0), 75, 0, 0, 0)
	if rec.UnmetKWh != 75 {
		t.Fatalf("unmet = %v, want full deficit recorded, not an error", rec.UnmetKWh)
	}
}

func TestGeneratorCapsAt24RatedHours(t *testing.T) {
	cfg := testConfig()
	cfg.PVCapacityKW = 0
	cfg.WindCapacityKW = 0
	cfg.BatteryCapacityKWh = 0
	cfg.Islanded = true
	s := NewState(cfg)

	rec := s.Dispatch(day(0), 2000, 0, 0, 0) // 40 kW * 24 h = 960 max

	if rec.GeneratorHours != 24 {
		t.Fatalf("generator hours = %v, want capped at 24", rec.GeneratorHours)
	}
	if math.Abs(rec.GeneratorKWh-960) > 1e-9 {
		t.Fatalf("generator energy = %v, want 960", rec.GeneratorKWh)
	}
	if math.Abs(rec.UnmetKWh-1040) > 1e-9 {
		t.Fatalf("unmet = %v, want 1040", rec.UnmetKWh)
	}
}

func TestPVDegradationAndShading(t *testing.T) {
	cfg := testConfig()
	cfg.WindCapacityKW = 0
	cfg.BatteryCapacityKWh = 0
	cfg.PVDegradationRate = 0.01
	cfg.PVShadingFactor = 0.9
	s := NewState(cfg)

	rec := s.Dispatch(day(0), 0, 5, 0, 2)

	want := 100 * 5 * 0.9 * 0.99 * 0.99
	if math.Abs(rec.PVKWh-want) > 1e-9 {
		t.Fatalf("PV output = %v, want %v after 2 years degradation", rec.PVKWh, want)
	}
}

func TestZeroCapacityShortCircuits(t *testing.T) {
	s := NewState(Config{SOCMax: 1})

	rec := s.Dispatch(day(0), 50, 5, 5, 0)
	if rec.PVKWh != 0 || rec.WindKWh != 0 {
		t.Fatalf("zero nameplate capacity should produce nothing: %+v", rec)
	}
	if rec.BatteryChargeKWh != 0 || rec.BatteryDischargeKWh != 0 {
		t.Fatalf("zero battery capacity should not cycle: %+v", rec)
	}
	if rec.GridImportKWh != 50 {
		t.Fatalf("grid import = %v, want full demand", rec.GridImportKWh)
	}
}

func TestResetYearPreservesSOC(t *testing.T) {
	s := NewState(testConfig())
	s.Dispatch(day(0), 0, 8, 0, 0)
	soc := s.SOC
	if soc <= s.SOCMin {
		t.Fatal("setup: battery should have charged")
	}

	snap := s.ResetYear()
	if snap.PVKWh == 0 {
		t.Fatal("snapshot lost the year's PV generation")
	}
	if s.Year.PVKWh != 0 {
		t.Fatal("year accumulators not reset")
	}
	if s.SOC != soc {
		t.Fatalf("SOC changed across year reset: %v -> %v", soc, s.SOC)
	}
}

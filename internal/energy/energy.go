// Package energy implements merit-order dispatch of the community's daily
// electrical demand across PV, wind, battery, grid, and a backup diesel
// generator.
package energy

import "time"

// Config holds the nameplate parameters of the shared energy plant. Static
// for the whole run.
type Config struct {
	PVCapacityKW      float64
	WindCapacityKW    float64
	PVDegradationRate float64 // fractional output loss per year
	PVShadingFactor   float64 // density-dependent multiplier; <=0 means 1

	BatteryCapacityKWh  float64
	SOCMin              float64
	SOCMax              float64
	ChargeEfficiency    float64
	DischargeEfficiency float64

	GeneratorCapacityKW float64
	// Willans-line fuel curve: fuel_L = (A*P_rated + B*P_gen) * hours.
	FuelCurveA float64 // L/kWh against rated power
	FuelCurveB float64 // L/kWh against delivered power

	// Islanded disables the grid tie; deficits beyond the battery fall to
	// the generator, and surplus beyond the battery is curtailed.
	Islanded bool
}

// State is the persistent electrical state of the community. Battery SOC
// survives year boundaries; the year accumulators do not.
type State struct {
	Config

	SOC float64 // fraction of battery capacity, in [SOCMin, SOCMax]

	Year    YearTotals
	Records []DailyRecord
}

// YearTotals accumulates dispatch volumes for the current simulation year.
type YearTotals struct {
	DemandKWh           float64
	PVKWh               float64
	WindKWh             float64
	BatteryChargeKWh    float64
	BatteryDischargeKWh float64
	GridImportKWh       float64
	GridExportKWh       float64
	GeneratorKWh        float64
	FuelL               float64
	CurtailedKWh        float64
	UnmetKWh            float64
}

// DailyRecord is one day's immutable dispatch audit row.
type DailyRecord struct {
	Date                time.Time
	DemandKWh           float64
	PVKWh               float64
	WindKWh             float64
	BatteryChargeKWh    float64 // energy drawn from the bus into the battery
	BatteryDischargeKWh float64 // energy delivered from the battery to the bus
	GridImportKWh       float64
	GridExportKWh       float64
	GeneratorKWh        float64
	GeneratorHours      float64
	FuelL               float64
	CurtailedKWh        float64
	UnmetKWh            float64
	SOC                 float64
}

// NewState builds the plant state with the battery at its minimum usable
// charge.
func NewState(cfg Config) *State {
	if cfg.SOCMax <= 0 {
		cfg.SOCMax = 1
	}
	if cfg.ChargeEfficiency <= 0 || cfg.ChargeEfficiency > 1 {
		cfg.ChargeEfficiency = 1
	}
	if cfg.DischargeEfficiency <= 0 || cfg.DischargeEfficiency > 1 {
		cfg.DischargeEfficiency = 1
	}
	if cfg.PVShadingFactor <= 0 {
		cfg.PVShadingFactor = 1
	}
	return &State{Config: cfg, SOC: cfg.SOCMin}
}

// ResetYear zeroes the per-year accumulators. Battery SOC persists.
func (s *State) ResetYear() YearTotals {
	snap := s.Year
	s.Year = YearTotals{}
	return snap
}

// Dispatch balances one day's community demand against available generation
// in merit order: renewables, battery, grid, generator. pvYield and
// windYield are daily output per installed kW (kWh/kW).
func (s *State) Dispatch(date time.Time, demandKWh, pvYield, windYield float64, yearsSinceStart int) DailyRecord {
	rec := DailyRecord{Date: date, DemandKWh: demandKWh}

	if s.PVCapacityKW > 0 {
		derate := s.PVShadingFactor
		for i := 0; i < yearsSinceStart; i++ {
			derate *= 1 - s.PVDegradationRate
		}
		rec.PVKWh = s.PVCapacityKW * pvYield * derate
	}
	if s.WindCapacityKW > 0 {
		rec.WindKWh = s.WindCapacityKW * windYield
	}

	net := rec.PVKWh + rec.WindKWh - demandKWh
	if net >= 0 {
		s.charge(net, &rec)
	} else {
		s.discharge(-net, &rec)
	}

	// Clamp SOC after every update to absorb floating-point drift.
	if s.SOC < s.SOCMin {
		s.SOC = s.SOCMin
	}
	if s.SOC > s.SOCMax {
		s.SOC = s.SOCMax
	}
	rec.SOC = s.SOC

	s.accumulate(rec)
	s.Records = append(s.Records, rec)
	return rec
}

// charge absorbs a surplus: battery first, then grid export, then
// curtailment. Export is unconstrained in this model, so curtailment stays
// zero, but the step is kept for future capacity limits.
func (s *State) charge(surplusKWh float64, rec *DailyRecord) {
	remaining := surplusKWh

	if s.BatteryCapacityKWh > 0 {
		roomKWh := (s.SOCMax - s.SOC) * s.BatteryCapacityKWh
		storable := remaining * s.ChargeEfficiency
		if storable > roomKWh {
			storable = roomKWh
		}
		if storable > 0 {
			chargeIn := storable / s.ChargeEfficiency
			s.SOC += storable / s.BatteryCapacityKWh
			rec.BatteryChargeKWh = chargeIn
			remaining -= chargeIn
		}
	}

	if remaining > 0 && s.GridConnected() {
		rec.GridExportKWh = remaining
		remaining = 0
	}
	rec.CurtailedKWh = remaining
}

// discharge covers a deficit: battery first, then grid import, then the
// generator run at full rated load for the minimum hours needed. With an
// unconstrained grid the generator only runs when no grid is configured.
func (s *State) discharge(deficitKWh float64, rec *DailyRecord) {
	remaining := deficitKWh

	if s.BatteryCapacityKWh > 0 {
		storedKWh := (s.SOC - s.SOCMin) * s.BatteryCapacityKWh
		deliverable := storedKWh * s.DischargeEfficiency
		out := remaining
		if out > deliverable {
			out = deliverable
		}
		if out > 0 {
			s.SOC -= out / s.DischargeEfficiency / s.BatteryCapacityKWh
			rec.BatteryDischargeKWh = out
			remaining -= out
		}
	}

	if remaining > 0 && s.GridConnected() {
		rec.GridImportKWh = remaining
		remaining = 0
	}

	if remaining > 0 && s.GeneratorCapacityKW > 0 {
		// Full rated load is the fuel-efficient operating point of the
		// Willans-line model, so run flat out for the minimum hours.
		hours := remaining / s.GeneratorCapacityKW
		if hours > 24 {
			hours = 24
		}
		genKWh := s.GeneratorCapacityKW * hours
		if genKWh > remaining {
			genKWh = remaining
		}
		rec.GeneratorHours = hours
		rec.GeneratorKWh = genKWh
		rec.FuelL = (s.FuelCurveA*s.GeneratorCapacityKW + s.FuelCurveB*s.GeneratorCapacityKW) * hours
		remaining -= genKWh
	}

	// No grid and no generator headroom: the deficit goes unserved. Not an
	// error; downstream metrics count uncovered days.
	rec.UnmetKWh = remaining
}

// GridConnected reports whether grid import/export is modeled. The current
// model always has a grid tie; kept as a seam for island scenarios.
func (s *State) GridConnected() bool { return !s.Islanded }

func (s *State) accumulate(rec DailyRecord) {
	s.Year.DemandKWh += rec.DemandKWh
	s.Year.PVKWh += rec.PVKWh
	s.Year.WindKWh += rec.WindKWh
	s.Year.BatteryChargeKWh += rec.BatteryChargeKWh
	s.Year.BatteryDischargeKWh += rec.BatteryDischargeKWh
	s.Year.GridImportKWh += rec.GridImportKWh
	s.Year.GridExportKWh += rec.GridExportKWh
	s.Year.GeneratorKWh += rec.GeneratorKWh
	s.Year.FuelL += rec.FuelL
	s.Year.CurtailedKWh += rec.CurtailedKWh
	s.Year.UnmetKWh += rec.UnmetKWh
}

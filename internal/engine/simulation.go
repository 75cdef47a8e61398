// Package engine ties the water, energy, crop, and economic subsystems
// together and advances them one calendar day at a time.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/oasis-sim/internal/econ"
	"github.com/talgya/oasis-sim/internal/energy"
	"github.com/talgya/oasis-sim/internal/farm"
	"github.com/talgya/oasis-sim/internal/lookup"
	"github.com/talgya/oasis-sim/internal/scenario"
	"github.com/talgya/oasis-sim/internal/water"
)

// Simulation owns all mutable state for one run. Strictly sequential: each
// day's decisions feed the next day's state.
type Simulation struct {
	RunID    uuid.UUID
	Scenario *scenario.Scenario
	Data     lookup.Provider

	Farms   []*farm.State
	Aquifer *water.AquiferState
	Storage *water.StorageState
	Energy  *energy.State
	Econ    *econ.State

	shares      map[string]water.CapacityShare
	shareFrac   map[string]float64 // area fraction, for the energy budget
	domestic    water.Policy
	currentYear int

	communityYear CommunityYearTotals
	result        Result
}

// CommunityYearTotals accumulates community-level (non-farm) flows for the
// current year.
type CommunityYearTotals struct {
	DomesticWaterM3   float64
	DomesticEnergyKWh float64
	DomesticWaterCost float64
	GridImportCost    float64
	FuelCost          float64
	ExportRevenue     float64
}

// New builds a run from a validated scenario and pre-loaded lookup tables.
// All configuration errors, including plantings of the same crop that would
// overlap in any simulated year, surface here before day one.
func New(scn *scenario.Scenario, data lookup.Provider) (*Simulation, error) {
	if err := scn.Validate(); err != nil {
		return nil, err
	}
	if err := validateSchedule(scn, data); err != nil {
		return nil, err
	}

	areas := make(map[string]float64, len(scn.Farms))
	for _, fc := range scn.Farms {
		areas[fc.ID] = fc.AreaHa
	}
	totalHa := 0.0
	for _, a := range areas {
		totalHa += a
	}
	shareFrac := make(map[string]float64, len(areas))
	for id, a := range areas {
		if totalHa > 0 {
			shareFrac[id] = a / totalHa
		}
	}

	// Domestic water runs groundwater-first against the full community
	// capacity; farms draw on area-proportional shares, so the two never
	// contend within a day.
	domestic, err := water.NewPolicy(water.PolicyAlwaysGroundwater, water.PolicyParams{})
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		RunID:    uuid.New(),
		Scenario: scn,
		Data:     data,
		Aquifer: &water.AquiferState{
			ExploitableM3:     scn.Aquifer.ExploitableM3,
			RechargeM3PerYear: scn.Aquifer.RechargeM3PerYear,
			MaxDrawdownM:      scn.Aquifer.MaxDrawdownM,
		},
		Storage:     &water.StorageState{CapacityM3: scn.Water.StorageCapacityM3},
		Energy:      energy.NewState(scn.Energy),
		Econ:        econ.NewState(scn.InitialCash, scn.Finance),
		shares:      water.AreaShares(areas, scn.Water.WellCapacityM3PerDay(), scn.Water.TreatmentCapacityM3PerDay),
		shareFrac:   shareFrac,
		domestic:    domestic,
		currentYear: scn.Start.Year(),
	}

	for _, fc := range scn.Farms {
		policy, err := water.NewPolicy(fc.Policy, fc.PolicyParams)
		if err != nil {
			return nil, err
		}
		processing, err := farm.NewProcessingPolicy(fc.ProcessingPolicy)
		if err != nil {
			return nil, err
		}
		s.Farms = append(s.Farms, farm.New(fc.ID, fc.Name, fc.AreaHa, policy, processing))
	}

	if err := s.plantYear(scn.Start.Year()); err != nil {
		return nil, err
	}
	return s, nil
}

// validateSchedule dry-runs every farm's planting schedule across the whole
// horizon and rejects overlapping seasons of the same crop up front, so a
// year-boundary planting can never fail mid-run.
func validateSchedule(scn *scenario.Scenario, data lookup.Provider) error {
	end := scn.Start.AddDate(scn.Years, 0, 0)
	for _, fc := range scn.Farms {
		type interval struct{ start, stop time.Time }
		byCrop := make(map[string][]interval)
		for year := scn.Start.Year(); year <= end.Year(); year++ {
			for _, pc := range fc.Plantings {
				season, ok := data.Season(pc.Crop, pc.Month, pc.Day)
				if !ok {
					continue // not plantable, skipped at init too
				}
				plant := time.Date(year, pc.Month, pc.Day, 0, 0, 0, 0, time.UTC)
				if plant.Before(scn.Start) || !plant.Before(end) {
					continue
				}
				byCrop[pc.Crop] = append(byCrop[pc.Crop], interval{plant, plant.AddDate(0, 0, season.LengthDays)})
			}
		}
		for crop, ivs := range byCrop {
			sort.Slice(ivs, func(i, j int) bool { return ivs[i].start.Before(ivs[j].start) })
			for i := 1; i < len(ivs); i++ {
				if ivs[i].start.Before(ivs[i-1].stop) {
					return fmt.Errorf("farm %s: overlapping %s plantings (%s and %s)",
						fc.ID, crop,
						ivs[i-1].start.Format("2006-01-02"), ivs[i].start.Format("2006-01-02"))
				}
			}
		}
	}
	return nil
}

// plantYear creates the plantings whose plant date falls inside the horizon
// for one calendar year.
func (s *Simulation) plantYear(year int) error {
	end := s.Scenario.Start.AddDate(s.Scenario.Years, 0, 0)
	for i, fc := range s.Scenario.Farms {
		for _, pc := range fc.Plantings {
			plant := time.Date(year, pc.Month, pc.Day, 0, 0, 0, 0, time.UTC)
			if plant.Before(s.Scenario.Start) || !plant.Before(end) {
				continue
			}
			if err := s.Farms[i].Plant(s.Data, year, pc.Crop, pc.Month, pc.Day, fc.AreaHa); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run advances the simulation one calendar day at a time until the horizon
// ends, then takes the final partial-year snapshot.
func (s *Simulation) Run() (*Result, error) {
	start := s.Scenario.Start
	end := start.AddDate(s.Scenario.Years, 0, 0)

	slog.Info("simulation started",
		"run", s.RunID, "scenario", s.Scenario.Name,
		"start", start.Format("2006-01-02"), "years", s.Scenario.Years,
		"farms", len(s.Farms))

	for date := start; date.Before(end); date = date.AddDate(0, 0, 1) {
		if date.Year() != s.currentYear {
			s.closeYear(s.currentYear)
			if err := s.plantYear(date.Year()); err != nil {
				return nil, err
			}
			s.currentYear = date.Year()
		}
		if err := s.step(date); err != nil {
			return nil, fmt.Errorf("day %s: %w", date.Format("2006-01-02"), err)
		}
	}
	s.closeYear(s.currentYear)

	res := s.buildResult(start, end)
	slog.Info("simulation finished",
		"run", s.RunID,
		"aquifer_extracted_m3", s.Aquifer.CumulativeExtractionM3,
		"cash_reserves", s.Econ.CashReserves)
	return res, nil
}

// step runs one simulated day: domestic demand, per-farm allocation,
// harvests, and the single community-wide energy dispatch.
func (s *Simulation) step(date time.Time) error {
	w := s.Scenario.Water

	elecPrice, ok := s.Data.ElectricityPrice(date)
	if !ok {
		return fmt.Errorf("no electricity price")
	}
	municipalPrice, ok := s.Data.MunicipalWaterPrice(date)
	if !ok {
		return fmt.Errorf("no municipal water price")
	}
	dieselPrice, ok := s.Data.DieselPrice(date)
	if !ok {
		return fmt.Errorf("no diesel price")
	}
	domWater, ok := s.Data.DomesticWaterM3(date)
	if !ok {
		return fmt.Errorf("no domestic water demand")
	}
	domEnergy, ok := s.Data.DomesticEnergyKWh(date)
	if !ok {
		return fmt.Errorf("no domestic energy demand")
	}

	// Pumping cost is re-derived daily from the aquifer's current drawdown:
	// extraction deepens the effective well, which raises tomorrow's cost.
	head := s.Aquifer.EffectiveHead(w.BaseWellDepthM)
	pumpingKWh := water.PumpingEnergyKWhPerM3(head, w.PumpEfficiency)
	recovery := w.Recovery()

	// Community domestic water goes through the same constraint and aquifer
	// accounting as irrigation.
	domCtx := water.PolicyContext{
		Date:                date,
		DemandM3:            domWater,
		EnergyPrice:         elecPrice,
		MunicipalPrice:      municipalPrice,
		PumpingKWhPerM3:     pumpingKWh,
		TreatmentKWhPerM3:   w.TreatmentKWhPerM3,
		ConveyanceKWhPerM3:  w.ConveyanceKWhPerM3,
		MaintenancePerM3:    w.MaintenancePerM3,
		AvailableEnergyKWh:  w.WaterEnergyBudgetKWh,
		WellCapacityM3:      w.WellCapacityM3PerDay(),
		TreatmentCapacityM3: w.TreatmentCapacityM3PerDay,
	}
	domAlloc := s.domestic.Allocate(domCtx)
	s.Aquifer.RecordExtraction(domAlloc.GroundwaterM3 / recovery)
	s.communityYear.DomesticWaterM3 += domAlloc.TotalM3()
	s.communityYear.DomesticEnergyKWh += domEnergy
	s.communityYear.DomesticWaterCost += domAlloc.Cost

	waterEnergyKWh := domAlloc.EnergyKWh
	deliveredM3 := domAlloc.TotalM3()

	for _, f := range s.Farms {
		demand := f.DemandM3(s.Data, date)
		if demand > 0 {
			share := s.shares[f.ID]
			ctx := water.PolicyContext{
				Date:                date,
				DemandM3:            demand,
				EnergyPrice:         elecPrice,
				MunicipalPrice:      municipalPrice,
				PumpingKWhPerM3:     pumpingKWh,
				TreatmentKWhPerM3:   w.TreatmentKWhPerM3,
				ConveyanceKWhPerM3:  w.ConveyanceKWhPerM3,
				MaintenancePerM3:    w.MaintenancePerM3,
				AvailableEnergyKWh:  w.WaterEnergyBudgetKWh * s.shareFrac[f.ID],
				WellCapacityM3:      share.WellM3PerDay,
				TreatmentCapacityM3: share.TreatmentM3PerDay,
				UsedMonthM3:         f.UsedThisMonth(date.Month()),
				UsedYearM3:          f.Year.GroundwaterM3,
			}
			alloc := f.Policy.Allocate(ctx)
			f.ApplyAllocation(s.Data, date, demand, alloc)
			s.Aquifer.RecordExtraction(alloc.GroundwaterM3 / recovery)
			waterEnergyKWh += alloc.EnergyKWh
			deliveredM3 += alloc.TotalM3()
		}

		for _, p := range f.HarvestDue(date) {
			res, err := f.Harvest(s.Data, p, date)
			if err != nil {
				return err
			}
			slog.Debug("harvest",
				"farm", f.ID, "crop", p.Crop,
				"stress", res.StressFactor, "yield_kg", res.YieldKg,
				"revenue", res.Revenue())
		}
	}

	pvYield, ok := s.Data.PVYieldKWhPerKW(date)
	if !ok {
		return fmt.Errorf("no PV capacity factor")
	}
	windYield, ok := s.Data.WindYieldKWhPerKW(date)
	if !ok {
		return fmt.Errorf("no wind capacity factor")
	}
	rec := s.Energy.Dispatch(date, waterEnergyKWh+domEnergy, pvYield, windYield,
		date.Year()-s.Scenario.Start.Year())
	s.communityYear.GridImportCost += rec.GridImportKWh * elecPrice
	s.communityYear.FuelCost += rec.FuelL * dieselPrice
	s.communityYear.ExportRevenue += rec.GridExportKWh * elecPrice

	// Same-day pass-through: the tank sees the full delivered volume in and
	// out, which is what the utilization metric measures.
	s.Storage.RecordFlow(date, deliveredM3, deliveredM3)
	return nil
}

// closeYear snapshots farm and community totals, rolls the economics
// forward, and resets the per-year accumulators. Battery SOC, aquifer
// extraction, and planting history persist.
func (s *Simulation) closeYear(year int) {
	revenue := 0.0
	opCost := 0.0
	for _, f := range s.Farms {
		snap := f.CloseYear()
		s.result.FarmYears = append(s.result.FarmYears, FarmYearMetrics{
			FarmID: f.ID, Year: year, Totals: snap,
		})
		revenue += snap.Revenue()
		opCost += snap.WaterCost + snap.FertilizerCost
	}

	energySnap := s.Energy.ResetYear()
	community := s.communityYear
	s.communityYear = CommunityYearTotals{}

	opCost += community.DomesticWaterCost + community.GridImportCost + community.FuelCost
	revenue += community.ExportRevenue
	s.Econ.CloseYear(revenue, opCost)

	elapsed := float64(year-s.Scenario.Start.Year()) + 1
	yearsRemaining := s.Aquifer.YearsRemaining(elapsed)

	s.result.CommunityYears = append(s.result.CommunityYears, CommunityYearMetrics{
		Year:           year,
		Energy:         energySnap,
		Community:      community,
		Revenue:        revenue,
		OperatingCost:  opCost,
		YearsRemaining: yearsRemaining,
		CashReserves:   s.Econ.CashReserves,
	})

	slog.Info("year closed",
		"run", s.RunID, "year", year,
		"revenue", revenue, "operating_cost", opCost,
		"aquifer_years_remaining", yearsRemaining,
		"battery_soc", s.Energy.SOC)
}

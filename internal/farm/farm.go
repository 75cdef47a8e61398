// Package farm holds per-farm state: crop plantings, water accounting, and
// harvest economics.
package farm

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/oasis-sim/internal/lookup"
	"github.com/talgya/oasis-sim/internal/water"
)

// CropPlanting is one crop season on one farm. Created at initialization and
// at year boundaries, retained for history after harvest.
type CropPlanting struct {
	Crop         string
	PlantDate    time.Time
	HarvestDate  time.Time
	AreaHa       float64
	YieldKgPerHa float64
	Ky           float64

	ExpectedYieldKg float64
	ExpectedWaterM3 float64
	ReceivedWaterM3 float64

	Harvested bool
	Result    HarvestResult
}

// Active reports whether the planting is in-season and unharvested on the
// given day.
func (p *CropPlanting) Active(date time.Time) bool {
	return !p.Harvested && !date.Before(p.PlantDate) && date.Before(p.HarvestDate)
}

// YearTotals accumulates one farm's volumes, costs, and revenue for the
// current simulation year. Reset at year boundaries; planting history is not.
type YearTotals struct {
	GroundwaterM3  float64
	MunicipalM3    float64
	WaterCost      float64
	FertilizerCost float64
	EnergyKWh      float64

	YieldKg           float64
	FreshRevenue      float64
	ProcessedRevenue  float64
	ProcessedKg       float64
	PostHarvestLossKg float64
}

// Revenue is the farm's total revenue for the year.
func (y YearTotals) Revenue() float64 { return y.FreshRevenue + y.ProcessedRevenue }

// State is the mutable per-farm simulation state.
type State struct {
	ID     string
	Name   string
	AreaHa float64

	Policy     water.Policy
	Processing ProcessingPolicy

	Plantings []*CropPlanting // append-only across years

	Year YearTotals
	// Groundwater drawn per calendar month of the current year, for quota
	// and tiered-pricing policies.
	MonthlyGroundwaterM3 map[time.Month]float64

	Records []water.DailyRecord
}

// New builds an empty farm with its configured policies.
func New(id, name string, areaHa float64, policy water.Policy, processing ProcessingPolicy) *State {
	return &State{
		ID:                   id,
		Name:                 name,
		AreaHa:               areaHa,
		Policy:               policy,
		Processing:           processing,
		MonthlyGroundwaterM3: make(map[time.Month]float64),
	}
}

// Plant creates a planting for a crop on a calendar date in the given year.
// A crop with no season data for that date is skipped with a warning rather
// than failing the scenario: "cannot plant here then" is data, not an error.
// Overlapping seasons of the same crop are a configuration error.
func (f *State) Plant(data lookup.Provider, year int, crop string, month time.Month, day int, areaHa float64) error {
	season, ok := data.Season(crop, month, day)
	if !ok {
		slog.Warn("no yield curve for planting, skipping",
			"farm", f.ID, "crop", crop, "month", int(month), "day", day)
		return nil
	}

	plantDate := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	harvestDate := plantDate.AddDate(0, 0, season.LengthDays)

	for _, existing := range f.Plantings {
		if existing.Crop != crop {
			continue
		}
		if plantDate.Before(existing.HarvestDate) && existing.PlantDate.Before(harvestDate) {
			return fmt.Errorf("farm %s: overlapping %s plantings (%s and %s)",
				f.ID, crop, existing.PlantDate.Format("2006-01-02"), plantDate.Format("2006-01-02"))
		}
	}

	// Seasonal fertilizer is bought up front, booked against the planting
	// year.
	if season.FertilizerKgPerHa > 0 {
		price, ok := data.FertilizerPrice(plantDate)
		if !ok {
			return fmt.Errorf("farm %s: no fertilizer price on %s", f.ID, plantDate.Format("2006-01-02"))
		}
		f.Year.FertilizerCost += season.FertilizerKgPerHa * areaHa * price
	}

	f.Plantings = append(f.Plantings, &CropPlanting{
		Crop:            crop,
		PlantDate:       plantDate,
		HarvestDate:     harvestDate,
		AreaHa:          areaHa,
		YieldKgPerHa:    season.YieldKgPerHa,
		Ky:              season.Ky,
		ExpectedYieldKg: season.YieldKgPerHa * areaHa,
		ExpectedWaterM3: season.ExpectedWaterM3PerHa() * areaHa,
	})
	return nil
}

// DemandM3 aggregates today's irrigation demand across active plantings.
func (f *State) DemandM3(data lookup.Provider, date time.Time) float64 {
	total := 0.0
	for _, p := range f.Plantings {
		if p.Active(date) {
			total += data.IrrigationDemandM3PerHa(p.Crop, p.PlantDate, date) * p.AreaHa
		}
	}
	return total
}

// ApplyAllocation books one day's delivery against the farm totals, the
// monthly tracker, and the audit trail, then credits each active planting in
// proportion to its share of demand scaled by the day's delivery ratio, so a
// partially met day never over-credits any one crop.
func (f *State) ApplyAllocation(data lookup.Provider, date time.Time, demandM3 float64, alloc water.Allocation) {
	f.Year.GroundwaterM3 += alloc.GroundwaterM3
	f.Year.MunicipalM3 += alloc.MunicipalM3
	f.Year.WaterCost += alloc.Cost
	f.Year.EnergyKWh += alloc.EnergyKWh
	f.MonthlyGroundwaterM3[date.Month()] += alloc.GroundwaterM3

	f.Records = append(f.Records, water.DailyRecord{
		Date:          date,
		FarmID:        f.ID,
		DemandM3:      demandM3,
		GroundwaterM3: alloc.GroundwaterM3,
		MunicipalM3:   alloc.MunicipalM3,
		EnergyKWh:     alloc.EnergyKWh,
		Cost:          alloc.Cost,
		Reason:        alloc.Reason,
		Binding:       alloc.Binding,
	})

	ratio := 1.0
	if demandM3 > 0 {
		ratio = alloc.TotalM3() / demandM3
	}
	for _, p := range f.Plantings {
		if !p.Active(date) {
			continue
		}
		pDemand := data.IrrigationDemandM3PerHa(p.Crop, p.PlantDate, date) * p.AreaHa
		p.ReceivedWaterM3 += pDemand * ratio
	}
}

// UsedThisMonth returns groundwater drawn in the given calendar month of the
// current year.
func (f *State) UsedThisMonth(month time.Month) float64 {
	return f.MonthlyGroundwaterM3[month]
}

// CloseYear snapshots and resets the yearly accumulators and the monthly
// tracker. Plantings and daily records persist across years.
func (f *State) CloseYear() YearTotals {
	snap := f.Year
	f.Year = YearTotals{}
	f.MonthlyGroundwaterM3 = make(map[time.Month]float64)
	return snap
}

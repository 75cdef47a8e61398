package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/talgya/oasis-sim/internal/econ"
	"github.com/talgya/oasis-sim/internal/energy"
	"github.com/talgya/oasis-sim/internal/farm"
	"github.com/talgya/oasis-sim/internal/water"
)

// FarmYearMetrics is one farm's immutable yearly snapshot.
type FarmYearMetrics struct {
	FarmID string
	Year   int
	Totals farm.YearTotals
}

// CommunityYearMetrics is the community-level yearly snapshot.
type CommunityYearMetrics struct {
	Year           int
	Energy         energy.YearTotals
	Community      CommunityYearTotals
	Revenue        float64
	OperatingCost  float64
	YearsRemaining float64 // aquifer life at the observed extraction rate
	CashReserves   float64
}

// Result is everything a finished run hands to downstream consumers.
type Result struct {
	RunID    uuid.UUID
	Scenario string
	Start    time.Time
	End      time.Time

	FarmYears      []FarmYearMetrics
	CommunityYears []CommunityYearMetrics

	WaterRecords  []water.DailyRecord
	EnergyRecords []energy.DailyRecord

	Aquifer water.AquiferState
	Storage StorageSummary
	Econ    econ.State
}

// StorageSummary condenses the tank bookkeeping for reporting.
type StorageSummary struct {
	CapacityM3      float64
	FinalLevelM3    float64
	MeanUtilization float64
}

func (s *Simulation) buildResult(start, end time.Time) *Result {
	res := s.result
	res.RunID = s.RunID
	res.Scenario = s.Scenario.Name
	res.Start = start
	res.End = end

	for _, f := range s.Farms {
		res.WaterRecords = append(res.WaterRecords, f.Records...)
	}
	res.EnergyRecords = s.Energy.Records
	res.Aquifer = *s.Aquifer
	res.Storage = StorageSummary{
		CapacityM3:      s.Storage.CapacityM3,
		FinalLevelM3:    s.Storage.LevelM3,
		MeanUtilization: s.Storage.MeanUtilization(),
	}
	res.Econ = *s.Econ
	return &res
}

// TotalRevenue sums farm revenue across all snapshotted years.
func (r *Result) TotalRevenue() float64 {
	total := 0.0
	for _, fy := range r.FarmYears {
		total += fy.Totals.Revenue()
	}
	return total
}

// TotalGroundwaterM3 sums delivered groundwater across all farm years.
func (r *Result) TotalGroundwaterM3() float64 {
	total := 0.0
	for _, fy := range r.FarmYears {
		total += fy.Totals.GroundwaterM3
	}
	return total
}

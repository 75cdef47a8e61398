// Package scenario defines the static configuration of a simulation run and
// its fail-fast validation. Scenarios are plain Go values; file formats are
// a concern of the callers that build them.
package scenario

import (
	"fmt"
	"time"

	"github.com/talgya/oasis-sim/internal/econ"
	"github.com/talgya/oasis-sim/internal/energy"
	"github.com/talgya/oasis-sim/internal/farm"
	"github.com/talgya/oasis-sim/internal/water"
)

// Scenario is everything a run needs besides the lookup tables.
type Scenario struct {
	Name  string
	Start time.Time
	Years int

	Water   WaterConfig
	Aquifer AquiferConfig
	Energy  energy.Config
	Farms   []FarmConfig

	Finance     econ.FinancingConfig
	InitialCash float64
}

// WaterConfig holds the shared water infrastructure parameters.
type WaterConfig struct {
	WellCount        int
	WellFlowM3PerDay float64 // per well
	BaseWellDepthM   float64
	PumpEfficiency   float64

	TreatmentCapacityM3PerDay float64
	TreatmentKWhPerM3         float64
	TreatmentRecovery         float64 // delivered/raw fraction; <=0 treated as 1
	ConveyanceKWhPerM3        float64
	MaintenancePerM3          float64

	// Daily energy budget for pumping and treatment. Non-positive means
	// unconstrained.
	WaterEnergyBudgetKWh float64

	StorageCapacityM3 float64
}

// WellCapacityM3PerDay is the community's total extraction ceiling.
func (w WaterConfig) WellCapacityM3PerDay() float64 {
	return float64(w.WellCount) * w.WellFlowM3PerDay
}

// Recovery returns the treatment recovery fraction with the degenerate
// zero-value guard applied.
func (w WaterConfig) Recovery() float64 {
	if w.TreatmentRecovery <= 0 || w.TreatmentRecovery > 1 {
		return 1
	}
	return w.TreatmentRecovery
}

// AquiferConfig parameterizes the shared aquifer.
type AquiferConfig struct {
	ExploitableM3     float64
	RechargeM3PerYear float64
	MaxDrawdownM      float64
}

// PlantingConfig is one recurring planting in a farm's yearly schedule.
type PlantingConfig struct {
	Crop  string
	Month time.Month
	Day   int
}

// FarmConfig describes one farm.
type FarmConfig struct {
	ID     string
	Name   string
	AreaHa float64

	Policy           string
	PolicyParams     water.PolicyParams
	ProcessingPolicy string

	Plantings []PlantingConfig
}

// Validate checks the scenario for configuration errors. All failures here
// are fatal and must surface before any day is simulated.
func (s *Scenario) Validate() error {
	if s.Years <= 0 {
		return fmt.Errorf("scenario %q: years must be positive, got %d", s.Name, s.Years)
	}
	if s.Start.IsZero() {
		return fmt.Errorf("scenario %q: start date is required", s.Name)
	}
	if len(s.Farms) == 0 {
		return fmt.Errorf("scenario %q: at least one farm is required", s.Name)
	}
	if s.Energy.SOCMin < 0 || s.Energy.SOCMax > 1 || s.Energy.SOCMin >= s.Energy.SOCMax {
		return fmt.Errorf("scenario %q: battery SOC bounds [%v, %v] invalid",
			s.Name, s.Energy.SOCMin, s.Energy.SOCMax)
	}

	seen := make(map[string]bool, len(s.Farms))
	for _, fc := range s.Farms {
		if fc.ID == "" {
			return fmt.Errorf("scenario %q: farm with empty ID", s.Name)
		}
		if seen[fc.ID] {
			return fmt.Errorf("scenario %q: duplicate farm ID %q", s.Name, fc.ID)
		}
		seen[fc.ID] = true
		if fc.AreaHa <= 0 {
			return fmt.Errorf("farm %s: area must be positive, got %v", fc.ID, fc.AreaHa)
		}
		if _, err := water.NewPolicy(fc.Policy, fc.PolicyParams); err != nil {
			return fmt.Errorf("farm %s: %w", fc.ID, err)
		}
		if _, err := farm.NewProcessingPolicy(fc.ProcessingPolicy); err != nil {
			return fmt.Errorf("farm %s: %w", fc.ID, err)
		}

		dates := make(map[PlantingConfig]bool, len(fc.Plantings))
		for _, pc := range fc.Plantings {
			if pc.Crop == "" {
				return fmt.Errorf("farm %s: planting with empty crop", fc.ID)
			}
			if dates[pc] {
				return fmt.Errorf("farm %s: duplicate planting of %s on %d-%02d",
					fc.ID, pc.Crop, int(pc.Month), pc.Day)
			}
			dates[pc] = true
		}
	}
	return nil
}

// Clone deep-copies the scenario so Monte Carlo workers can perturb their
// own copy without sharing state.
func (s *Scenario) Clone() *Scenario {
	out := *s
	out.Farms = make([]FarmConfig, len(s.Farms))
	for i, fc := range s.Farms {
		out.Farms[i] = fc
		out.Farms[i].Plantings = append([]PlantingConfig(nil), fc.Plantings...)
	}
	return &out
}

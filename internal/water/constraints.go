package water

import "time"

// CapacityShare is one farm's slice of shared extraction and treatment
// capacity, computed once per run from static configuration.
type CapacityShare struct {
	WellM3PerDay      float64
	TreatmentM3PerDay float64
}

// AreaShares splits community well and treatment capacity across farms in
// proportion to planted area.
func AreaShares(farmAreasHa map[string]float64, wellM3PerDay, treatmentM3PerDay float64) map[string]CapacityShare {
	totalHa := 0.0
	for _, a := range farmAreasHa {
		totalHa += a
	}
	shares := make(map[string]CapacityShare, len(farmAreasHa))
	for id, a := range farmAreasHa {
		frac := 0.0
		if totalHa > 0 {
			frac = a / totalHa
		}
		shares[id] = CapacityShare{
			WellM3PerDay:      wellM3PerDay * frac,
			TreatmentM3PerDay: treatmentM3PerDay * frac,
		}
	}
	return shares
}

// DailyRecord is one farm's immutable water-allocation audit row for one day.
type DailyRecord struct {
	Date          time.Time
	FarmID        string
	DemandM3      float64
	GroundwaterM3 float64
	MunicipalM3   float64
	EnergyKWh     float64
	Cost          float64
	Reason        string
	Binding       Binding
}

package water

import "time"

// StorageState models the community treated-water tank. The level is bounded
// in [0, capacity]. In the current model inflow equals outflow on the same
// day, but the bookkeeping supports inter-day buffering.
type StorageState struct {
	CapacityM3 float64
	LevelM3    float64

	Flows []DailyFlow
}

// DailyFlow records one day's tank throughput.
type DailyFlow struct {
	Date      time.Time
	InflowM3  float64
	OutflowM3 float64
}

// RecordFlow applies one day's inflow and outflow, clamping the level to the
// tank's physical bounds.
func (s *StorageState) RecordFlow(date time.Time, inflowM3, outflowM3 float64) {
	if inflowM3 < 0 {
		inflowM3 = 0
	}
	if outflowM3 < 0 {
		outflowM3 = 0
	}
	s.LevelM3 += inflowM3 - outflowM3
	if s.LevelM3 < 0 {
		s.LevelM3 = 0
	}
	if s.LevelM3 > s.CapacityM3 {
		s.LevelM3 = s.CapacityM3
	}
	s.Flows = append(s.Flows, DailyFlow{Date: date, InflowM3: inflowM3, OutflowM3: outflowM3})
}

// MeanUtilization returns average daily throughput as a fraction of capacity.
func (s *StorageState) MeanUtilization() float64 {
	if s.CapacityM3 <= 0 || len(s.Flows) == 0 {
		return 0
	}
	total := 0.0
	for _, f := range s.Flows {
		total += f.InflowM3
	}
	return total / (s.CapacityM3 * float64(len(s.Flows)))
}

// Package lookup provides the in-memory data tables the engine consults:
// crop water-demand and yield curves, processing parameters, renewable
// capacity factors, domestic demand, and prices. All tables are pre-loaded;
// nothing here performs I/O during a run.
package lookup

import "time"

// PlantingKey identifies a crop planted on a recurring calendar date.
type PlantingKey struct {
	Crop  string
	Month time.Month
	Day   int
}

// SeasonInfo describes one crop season: length, expected yield, the FAO
// yield-response coefficient, the daily irrigation demand curve, and the
// seasonal fertilizer application rate.
type SeasonInfo struct {
	LengthDays        int
	YieldKgPerHa      float64
	Ky                float64
	DemandM3PerHa     []float64 // per day of season, len == LengthDays
	FertilizerKgPerHa float64   // applied once, at planting
}

// ExpectedWaterM3PerHa is the season's total irrigation requirement per
// hectare, the sum of the daily demand curve.
func (s SeasonInfo) ExpectedWaterM3PerHa() float64 {
	total := 0.0
	for _, d := range s.DemandM3PerHa {
		total += d
	}
	return total
}

// ProcessingParams describe one crop/pathway combination.
type ProcessingParams struct {
	WeightLossFrac      float64 // dehydration, trimming
	PostHarvestLossFrac float64 // spoilage, rejection
	ValueMultiplier     float64 // applied to the fresh price
}

// Provider is the read-only data surface consumed by the engine. Date-keyed
// accessors return ok=false when no data exists for the date; the engine
// treats that as a fatal run error rather than skipping the day.
type Provider interface {
	// Season returns the season data for a crop planted on the given
	// calendar date, or ok=false when the crop cannot be planted then.
	Season(crop string, month time.Month, day int) (SeasonInfo, bool)

	// IrrigationDemandM3PerHa returns the per-hectare demand for a calendar
	// day within a season; zero outside the season.
	IrrigationDemandM3PerHa(crop string, plantDate, date time.Time) float64

	// Processing returns the pathway parameters for a crop; missing entries
	// fall back to pass-through fresh handling.
	Processing(crop, pathway string) ProcessingParams

	PVYieldKWhPerKW(date time.Time) (float64, bool)
	WindYieldKWhPerKW(date time.Time) (float64, bool)

	DomesticWaterM3(date time.Time) (float64, bool)
	DomesticEnergyKWh(date time.Time) (float64, bool)

	MunicipalWaterPrice(date time.Time) (float64, bool)
	ElectricityPrice(date time.Time) (float64, bool)
	DieselPrice(date time.Time) (float64, bool)
	FertilizerPrice(date time.Time) (float64, bool) // $/kg

	CropPrice(crop string, date time.Time) (float64, bool)
	CropBasePrice(crop string) float64
}

// Tables is the concrete Provider backed by plain maps.
type Tables struct {
	Seasons       map[PlantingKey]SeasonInfo
	ProcessingMap map[string]ProcessingParams // key crop + "/" + pathway

	PV             map[string]float64 // keyed by YYYY-MM-DD
	Wind           map[string]float64
	DomWater       map[string]float64
	DomEnergy      map[string]float64
	MunicipalPrice map[string]float64
	ElecPrice      map[string]float64
	Diesel         map[string]float64
	Fertilizer     map[string]float64

	CropPrices map[string]map[string]float64 // crop -> date -> $/kg
	BasePrices map[string]float64
}

// NewTables returns an empty table set with all maps allocated.
func NewTables() *Tables {
	return &Tables{
		Seasons:        make(map[PlantingKey]SeasonInfo),
		ProcessingMap:  make(map[string]ProcessingParams),
		PV:             make(map[string]float64),
		Wind:           make(map[string]float64),
		DomWater:       make(map[string]float64),
		DomEnergy:      make(map[string]float64),
		MunicipalPrice: make(map[string]float64),
		ElecPrice:      make(map[string]float64),
		Diesel:         make(map[string]float64),
		Fertilizer:     make(map[string]float64),
		CropPrices:     make(map[string]map[string]float64),
		BasePrices:     make(map[string]float64),
	}
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }

func (t *Tables) Season(crop string, month time.Month, day int) (SeasonInfo, bool) {
	s, ok := t.Seasons[PlantingKey{Crop: crop, Month: month, Day: day}]
	return s, ok
}

func (t *Tables) IrrigationDemandM3PerHa(crop string, plantDate, date time.Time) float64 {
	s, ok := t.Season(crop, plantDate.Month(), plantDate.Day())
	if !ok {
		return 0
	}
	idx := int(date.Sub(plantDate).Hours() / 24)
	if idx < 0 || idx >= len(s.DemandM3PerHa) {
		return 0
	}
	return s.DemandM3PerHa[idx]
}

func (t *Tables) Processing(crop, pathway string) ProcessingParams {
	if p, ok := t.ProcessingMap[crop+"/"+pathway]; ok {
		return p
	}
	return ProcessingParams{ValueMultiplier: 1}
}

func (t *Tables) PVYieldKWhPerKW(date time.Time) (float64, bool) {
	v, ok := t.PV[dayKey(date)]
	return v, ok
}

func (t *Tables) WindYieldKWhPerKW(date time.Time) (float64, bool) {
	v, ok := t.Wind[dayKey(date)]
	return v, ok
}

func (t *Tables) DomesticWaterM3(date time.Time) (float64, bool) {
	v, ok := t.DomWater[dayKey(date)]
	return v, ok
}

func (t *Tables) DomesticEnergyKWh(date time.Time) (float64, bool) {
	v, ok := t.DomEnergy[dayKey(date)]
	return v, ok
}

func (t *Tables) MunicipalWaterPrice(date time.Time) (float64, bool) {
	v, ok := t.MunicipalPrice[dayKey(date)]
	return v, ok
}

func (t *Tables) ElectricityPrice(date time.Time) (float64, bool) {
	v, ok := t.ElecPrice[dayKey(date)]
	return v, ok
}

func (t *Tables) DieselPrice(date time.Time) (float64, bool) {
	v, ok := t.Diesel[dayKey(date)]
	return v, ok
}

func (t *Tables) FertilizerPrice(date time.Time) (float64, bool) {
	v, ok := t.Fertilizer[dayKey(date)]
	return v, ok
}

func (t *Tables) CropPrice(crop string, date time.Time) (float64, bool) {
	series, ok := t.CropPrices[crop]
	if !ok {
		return 0, false
	}
	v, ok := series[dayKey(date)]
	return v, ok
}

func (t *Tables) CropBasePrice(crop string) float64 {
	return t.BasePrices[crop]
}

package farm

import (
	"time"

	"github.com/talgya/oasis-sim/internal/lookup"
)

// HarvestResult captures the outcome of one planting's harvest across all
// processing pathways.
type HarvestResult struct {
	Date         time.Time
	StressFactor float64
	YieldKg      float64

	FreshRevenue     float64
	ProcessedRevenue float64
	ProcessedKg      float64
	LossKg           float64
}

// Revenue is the planting's total harvest revenue.
func (r HarvestResult) Revenue() float64 { return r.FreshRevenue + r.ProcessedRevenue }

// StressFactor applies the FAO water-production function:
// stress = clamp(1 - Ky*(1 - ETa/ETc), 0, 1), with ETa/ETc approximated by
// the fraction of the seasonal requirement actually delivered.
func StressFactor(receivedM3, expectedM3, ky float64) float64 {
	ratio := 1.0
	if expectedM3 > 0 {
		ratio = receivedM3 / expectedM3
		if ratio > 1 {
			ratio = 1
		}
	}
	stress := 1 - ky*(1-ratio)
	if stress < 0 {
		return 0
	}
	if stress > 1 {
		return 1
	}
	return stress
}

// Harvest converts a planting's delivered water into yield and revenue,
// splitting the crop across processing pathways, and rolls the results into
// the farm's yearly accumulators. Idempotent per planting.
func (f *State) Harvest(data lookup.Provider, p *CropPlanting, date time.Time) (HarvestResult, error) {
	if p.Harvested {
		return p.Result, nil
	}

	stress := StressFactor(p.ReceivedWaterM3, p.ExpectedWaterM3, p.Ky)
	yieldKg := p.ExpectedYieldKg * stress

	freshPrice, ok := data.CropPrice(p.Crop, date)
	if !ok {
		return HarvestResult{}, errMissingPrice(p.Crop, date)
	}

	res := HarvestResult{Date: date, StressFactor: stress, YieldKg: yieldKg}
	for pathway, frac := range f.Processing.Split(data, p.Crop, date) {
		if frac <= 0 {
			continue
		}
		params := data.Processing(p.Crop, string(pathway))
		inputKg := yieldKg * frac
		afterWeight := inputKg * (1 - params.WeightLossFrac)
		sellableKg := afterWeight * (1 - params.PostHarvestLossFrac)
		revenue := sellableKg * freshPrice * params.ValueMultiplier

		res.LossKg += inputKg - sellableKg
		if pathway == PathwayFresh {
			res.FreshRevenue += revenue
		} else {
			res.ProcessedRevenue += revenue
			res.ProcessedKg += sellableKg
		}
	}

	p.Harvested = true
	p.Result = res

	f.Year.YieldKg += yieldKg
	f.Year.FreshRevenue += res.FreshRevenue
	f.Year.ProcessedRevenue += res.ProcessedRevenue
	f.Year.ProcessedKg += res.ProcessedKg
	f.Year.PostHarvestLossKg += res.LossKg
	return res, nil
}

// HarvestDue returns plantings whose harvest date has arrived.
func (f *State) HarvestDue(date time.Time) []*CropPlanting {
	var due []*CropPlanting
	for _, p := range f.Plantings {
		if !p.Harvested && !date.Before(p.HarvestDate) {
			due = append(due, p)
		}
	}
	return due
}

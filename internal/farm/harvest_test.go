package farm

import (
	"math"
	"testing"
	"time"

	"github.com/talgya/oasis-sim/internal/lookup"
	"github.com/talgya/oasis-sim/internal/water"
)

func testTables() *lookup.Tables {
	t := lookup.NewTables()

	demand := make([]float64, 90)
	for i := range demand {
		demand[i] = 5 // 450 m3/ha over the season
	}
	t.Seasons[lookup.PlantingKey{Crop: "tomato", Month: time.March, Day: 1}] = lookup.SeasonInfo{
		LengthDays:    90,
		YieldKgPerHa:  50000,
		Ky:            1.05,
		DemandM3PerHa: demand,
	}

	t.ProcessingMap["tomato/fresh"] = lookup.ProcessingParams{
		PostHarvestLossFrac: 0.05, ValueMultiplier: 1,
	}
	t.ProcessingMap["tomato/dried"] = lookup.ProcessingParams{
		WeightLossFrac: 0.80, PostHarvestLossFrac: 0.02, ValueMultiplier: 6,
	}
	t.BasePrices["tomato"] = 0.80
	return t
}

func setPrice(tb *lookup.Tables, crop string, date time.Time, price float64) {
	series, ok := tb.CropPrices[crop]
	if !ok {
		series = make(map[string]float64)
		tb.CropPrices[crop] = series
	}
	series[date.Format("2006-01-02")] = price
}

func mustProcessing(t *testing.T, name string) ProcessingPolicy {
	t.Helper()
	p, err := NewProcessingPolicy(name)
	if err != nil {
		t.Fatalf("NewProcessingPolicy(%q): %v", name, err)
	}
	return p
}

func mustWaterPolicy(t *testing.T, name string) water.Policy {
	t.Helper()
	p, err := water.NewPolicy(name, water.PolicyParams{})
	if err != nil {
		t.Fatalf("NewPolicy(%q): %v", name, err)
	}
	return p
}

func TestStressFactor(t *testing.T) {
	cases := []struct {
		name               string
		received, expected float64
		ky                 float64
		want               float64
	}{
		{"full water", 450, 450, 1.05, 1},
		{"surplus does not boost yield", 900, 450, 1.05, 1},
		{"half water", 225, 450, 1.05, 1 - 1.05*0.5},
		{"no water sensitive crop", 0, 450, 1.05, 0},
		{"no water tolerant crop", 0, 450, 0.8, 1 - 0.8},
		{"zero expectation", 0, 0, 1.05, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := StressFactor(tc.received, tc.expected, tc.ky)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Fatalf("StressFactor(%v, %v, %v) = %v, want %v",
					tc.received, tc.expected, tc.ky, got, tc.want)
			}
		})
	}
}

func TestStressFactorMonotone(t *testing.T) {
	prev := -1.0
	for received := 0.0; received <= 500; received += 25 {
		s := StressFactor(received, 450, 1.05)
		if s < prev {
			t.Fatalf("stress decreased as water increased: %v at %v m3", s, received)
		}
		prev = s
	}
}

func TestPlantOverlapRejected(t *testing.T) {
	data := testTables()
	f := New("f1", "test", 10, mustWaterPolicy(t, water.PolicyAlwaysGroundwater), mustProcessing(t, ProcessingAllFresh))

	if err := f.Plant(data, 2025, "tomato", time.March, 1, 10); err != nil {
		t.Fatalf("first planting: %v", err)
	}
	if err := f.Plant(data, 2025, "tomato", time.March, 1, 10); err == nil {
		t.Fatal("expected overlap error for same-crop same-window planting")
	}
}

func TestPlantUnknownSeasonSkipped(t *testing.T) {
	data := testTables()
	f := New("f1", "test", 10, mustWaterPolicy(t, water.PolicyAlwaysGroundwater), mustProcessing(t, ProcessingAllFresh))

	if err := f.Plant(data, 2025, "durian", time.March, 1, 10); err != nil {
		t.Fatalf("unplantable crop should be skipped, got error: %v", err)
	}
	if len(f.Plantings) != 0 {
		t.Fatalf("got %d plantings, want 0", len(f.Plantings))
	}
}

func TestApplyAllocationProRata(t *testing.T) {
	data := testTables()
	f := New("f1", "test", 10, mustWaterPolicy(t, water.PolicyAlwaysGroundwater), mustProcessing(t, ProcessingAllFresh))
	if err := f.Plant(data, 2025, "tomato", time.March, 1, 10); err != nil {
		t.Fatalf("plant: %v", err)
	}

	day := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	demand := f.DemandM3(data, day)
	if demand != 50 {
		t.Fatalf("demand = %v, want 5 m3/ha * 10 ha", demand)
	}

	// Deliver 60% of demand; the planting gets credited 60% of its share.
	f.ApplyAllocation(data, day, demand, water.Allocation{GroundwaterM3: 30, Cost: 9})

	p := f.Plantings[0]
	if math.Abs(p.ReceivedWaterM3-30) > 1e-9 {
		t.Fatalf("planting credited %v m3, want 30", p.ReceivedWaterM3)
	}
	if f.Year.GroundwaterM3 != 30 || f.Year.WaterCost != 9 {
		t.Fatalf("farm totals = %+v", f.Year)
	}
	if got := f.UsedThisMonth(time.March); got != 30 {
		t.Fatalf("monthly tracker = %v, want 30", got)
	}
	if len(f.Records) != 1 {
		t.Fatalf("got %d audit records, want 1", len(f.Records))
	}
}

func TestHarvestFullWater(t *testing.T) {
	data := testTables()
	f := New("f1", "test", 10, mustWaterPolicy(t, water.PolicyAlwaysGroundwater), mustProcessing(t, ProcessingAllFresh))
	if err := f.Plant(data, 2025, "tomato", time.March, 1, 10); err != nil {
		t.Fatalf("plant: %v", err)
	}

	p := f.Plantings[0]
	p.ReceivedWaterM3 = p.ExpectedWaterM3
	setPrice(data, "tomato", p.HarvestDate, 0.80)

	res, err := f.Harvest(data, p, p.HarvestDate)
	if err != nil {
		t.Fatalf("harvest: %v", err)
	}
	if res.StressFactor != 1 {
		t.Fatalf("stress = %v, want 1 at full water", res.StressFactor)
	}
	if res.YieldKg != 500000 {
		t.Fatalf("yield = %v, want 50000 kg/ha * 10 ha", res.YieldKg)
	}
	// All fresh: 5% post-harvest loss at $0.80/kg.
	wantRevenue := 500000 * 0.95 * 0.80
	if math.Abs(res.FreshRevenue-wantRevenue) > 1e-6 {
		t.Fatalf("fresh revenue = %v, want %v", res.FreshRevenue, wantRevenue)
	}
	if res.ProcessedRevenue != 0 || res.ProcessedKg != 0 {
		t.Fatalf("all_fresh produced processed output: %+v", res)
	}

	// Idempotent on repeat calls.
	again, err := f.Harvest(data, p, p.HarvestDate.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("repeat harvest: %v", err)
	}
	if again != res {
		t.Fatal("repeat harvest changed the result")
	}
	if f.Year.YieldKg != 500000 {
		t.Fatalf("year yield double-counted: %v", f.Year.YieldKg)
	}
}

func TestHarvestMissingPrice(t *testing.T) {
	data := testTables()
	f := New("f1", "test", 10, mustWaterPolicy(t, water.PolicyAlwaysGroundwater), mustProcessing(t, ProcessingAllFresh))
	if err := f.Plant(data, 2025, "tomato", time.March, 1, 10); err != nil {
		t.Fatalf("plant: %v", err)
	}
	p := f.Plantings[0]
	if _, err := f.Harvest(data, p, p.HarvestDate); err == nil {
		t.Fatal("expected error when no crop price exists for the harvest date")
	}
	if p.Harvested {
		t.Fatal("failed harvest marked the planting harvested")
	}
}

func TestProcessingSplitsSumToOne(t *testing.T) {
	data := testTables()
	date := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	setPrice(data, "tomato", date, 1.00)

	for _, name := range []string{ProcessingAllFresh, ProcessingMaxStorageLife, ProcessingMarketResponsive} {
		p := mustProcessing(t, name)
		total := 0.0
		for _, frac := range p.Split(data, "tomato", date) {
			if frac < 0 {
				t.Fatalf("%s: negative fraction %v", name, frac)
			}
			total += frac
		}
		if math.Abs(total-1) > 1e-12 {
			t.Fatalf("%s: fractions sum to %v, want 1", name, total)
		}
	}
}

func TestMarketResponsiveTracksPrice(t *testing.T) {
	data := testTables()
	p := mustProcessing(t, ProcessingMarketResponsive)
	date := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		price, wantFresh float64
	}{
		{0.80, 0.5},  // at base price
		{1.20, 0.9},  // +50%, clamped high
		{0.40, 0.2},  // -50%, clamped low
		{0.88, 0.6},  // +10%
	}
	for _, tc := range cases {
		setPrice(data, "tomato", date, tc.price)
		split := p.Split(data, "tomato", date)
		if math.Abs(split[PathwayFresh]-tc.wantFresh) > 1e-9 {
			t.Fatalf("price %v: fresh fraction = %v, want %v", tc.price, split[PathwayFresh], tc.wantFresh)
		}
	}
}

func TestDriedPathwayEconomics(t *testing.T) {
	data := testTables()
	f := New("f1", "test", 10, mustWaterPolicy(t, water.PolicyAlwaysGroundwater), mustProcessing(t, ProcessingMaxStorageLife))
	if err := f.Plant(data, 2025, "tomato", time.March, 1, 10); err != nil {
		t.Fatalf("plant: %v", err)
	}
	p := f.Plantings[0]
	p.ReceivedWaterM3 = p.ExpectedWaterM3
	setPrice(data, "tomato", p.HarvestDate, 0.80)

	res, err := f.Harvest(data, p, p.HarvestDate)
	if err != nil {
		t.Fatalf("harvest: %v", err)
	}

	// Dried takes 30% of 500,000 kg, loses 80% weight and 2% spoilage, sells
	// at 6x the fresh price.
	driedKg := 500000 * 0.30 * 0.20 * 0.98
	driedRevenue := driedKg * 0.80 * 6
	if res.ProcessedKg <= 0 {
		t.Fatal("max_storage_life produced no processed output")
	}
	if res.ProcessedRevenue < driedRevenue-1e-6 {
		t.Fatalf("processed revenue %v below dried pathway alone %v", res.ProcessedRevenue, driedRevenue)
	}
	if res.LossKg <= 0 {
		t.Fatal("processing losses not accounted")
	}
}

func TestFertilizerCostBookedAtPlanting(t *testing.T) {
	data := testTables()
	season := data.Seasons[lookup.PlantingKey{Crop: "tomato", Month: time.March, Day: 1}]
	season.FertilizerKgPerHa = 200
	data.Seasons[lookup.PlantingKey{Crop: "tomato", Month: time.March, Day: 1}] = season

	f := New("f1", "test", 10, mustWaterPolicy(t, water.PolicyAlwaysGroundwater), mustProcessing(t, ProcessingAllFresh))

	// No price on the planting date is a scenario error, not a skip.
	if err := f.Plant(data, 2025, "tomato", time.March, 1, 10); err == nil {
		t.Fatal("expected error without a fertilizer price")
	}

	data.Fertilizer["2025-03-01"] = 0.50
	if err := f.Plant(data, 2025, "tomato", time.March, 1, 10); err != nil {
		t.Fatalf("plant: %v", err)
	}
	if math.Abs(f.Year.FertilizerCost-200*10*0.50) > 1e-9 {
		t.Fatalf("fertilizer cost = %v, want 1000", f.Year.FertilizerCost)
	}
}

func TestCloseYearResets(t *testing.T) {
	data := testTables()
	f := New("f1", "test", 10, mustWaterPolicy(t, water.PolicyAlwaysGroundwater), mustProcessing(t, ProcessingAllFresh))
	if err := f.Plant(data, 2025, "tomato", time.March, 1, 10); err != nil {
		t.Fatalf("plant: %v", err)
	}
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	f.ApplyAllocation(data, day, 50, water.Allocation{GroundwaterM3: 50, Cost: 15})

	snap := f.CloseYear()
	if snap.GroundwaterM3 != 50 || snap.WaterCost != 15 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if f.Year.GroundwaterM3 != 0 {
		t.Fatal("year totals not reset")
	}
	if f.UsedThisMonth(time.March) != 0 {
		t.Fatal("monthly tracker not reset")
	}
	if len(f.Plantings) != 1 {
		t.Fatal("plantings should survive year close")
	}
}

package scenario

import (
	"time"

	"github.com/talgya/oasis-sim/internal/econ"
	"github.com/talgya/oasis-sim/internal/energy"
	"github.com/talgya/oasis-sim/internal/farm"
	"github.com/talgya/oasis-sim/internal/water"
)

// Default returns the demo community: three farms on a shared brackish
// wellfield with desalination, a hybrid PV/wind/battery plant, and a grid
// tie with diesel backup.
func Default() *Scenario {
	return &Scenario{
		Name:  "demo-community",
		Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Years: 5,
		Water: WaterConfig{
			WellCount:                 4,
			WellFlowM3PerDay:          600,
			BaseWellDepthM:            80,
			PumpEfficiency:            0.65,
			TreatmentCapacityM3PerDay: 2000,
			TreatmentKWhPerM3:         1.5,
			TreatmentRecovery:         0.75,
			ConveyanceKWhPerM3:        0.10,
			MaintenancePerM3:          0.08,
			StorageCapacityM3:         3000,
		},
		Aquifer: AquiferConfig{
			ExploitableM3:     25_000_000,
			RechargeM3PerYear: 400_000,
			MaxDrawdownM:      35,
		},
		Energy: energy.Config{
			PVCapacityKW:        1500,
			WindCapacityKW:      500,
			PVDegradationRate:   0.005,
			PVShadingFactor:     0.97,
			BatteryCapacityKWh:  4000,
			SOCMin:              0.10,
			SOCMax:              0.95,
			ChargeEfficiency:    0.95,
			DischargeEfficiency: 0.95,
			GeneratorCapacityKW: 400,
			FuelCurveA:          0.08,
			FuelCurveB:          0.25,
		},
		Farms: []FarmConfig{
			{
				ID: "farm-a", Name: "North Field", AreaHa: 40,
				Policy:           water.PolicyCheapestSource,
				PolicyParams:     water.PolicyParams{IncludeEnergyCost: true},
				ProcessingPolicy: farm.ProcessingMarketResponsive,
				Plantings: []PlantingConfig{
					{Crop: "tomato", Month: time.March, Day: 1},
					{Crop: "wheat", Month: time.November, Day: 15},
				},
			},
			{
				ID: "farm-b", Name: "East Terrace", AreaHa: 25,
				Policy: water.PolicyQuotaEnforced,
				PolicyParams: water.PolicyParams{
					AnnualQuotaM3:   120_000,
					MonthlyVariance: 0.20,
				},
				ProcessingPolicy: farm.ProcessingMaxStorageLife,
				Plantings: []PlantingConfig{
					{Crop: "onion", Month: time.September, Day: 1},
					{Crop: "tomato", Month: time.March, Day: 1},
				},
			},
			{
				ID: "farm-c", Name: "South Sand", AreaHa: 15,
				Policy: water.PolicyConserveGroundwater,
				PolicyParams: water.PolicyParams{
					PriceRatioTrigger:      1.5,
					MaxGroundwaterFraction: 0.30,
				},
				ProcessingPolicy: farm.ProcessingAllFresh,
				Plantings: []PlantingConfig{
					{Crop: "wheat", Month: time.November, Day: 15},
				},
			},
		},
		Finance: econ.FinancingConfig{
			DebtTermYears:  20,
			InterestRate:   0.045,
			CapexWells:     900_000,
			CapexTreatment: 2_400_000,
			CapexPV:        1_200_000,
			CapexWind:      650_000,
			CapexBattery:   1_600_000,
			CapexGenerator: 180_000,
			CapexStorage:   350_000,
		},
		InitialCash: 500_000,
	}
}

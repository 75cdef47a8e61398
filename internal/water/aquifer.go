package water

import "math"

// AquiferState tracks community-wide groundwater depletion. One instance per
// simulation run, mutated daily, never reset. Cumulative extraction is
// monotonically non-decreasing.
type AquiferState struct {
	ExploitableM3     float64
	RechargeM3PerYear float64
	MaxDrawdownM      float64

	CumulativeExtractionM3 float64
}

// RecordExtraction adds a raw extraction volume to the running total.
// Negative volumes are ignored so the accumulator stays monotone.
func (a *AquiferState) RecordExtraction(volumeM3 float64) {
	if volumeM3 > 0 {
		a.CumulativeExtractionM3 += volumeM3
	}
}

// YearsRemaining estimates how many years of exploitable volume remain at
// the observed extraction rate. Returns +Inf when the rolling rate is at or
// below natural recharge (sustainable extraction).
func (a *AquiferState) YearsRemaining(yearsElapsed float64) float64 {
	if yearsElapsed <= 0 {
		return math.Inf(1)
	}
	netAnnual := a.CumulativeExtractionM3/yearsElapsed - a.RechargeM3PerYear
	if netAnnual <= 0 {
		return math.Inf(1)
	}
	remaining := a.ExploitableM3 - a.CumulativeExtractionM3
	if remaining <= 0 {
		return 0
	}
	return remaining / netAnnual
}

// DepletionFraction returns the fraction of exploitable volume extracted so
// far, clamped to [0, 1].
func (a *AquiferState) DepletionFraction() float64 {
	if a.ExploitableM3 <= 0 {
		return 0
	}
	frac := a.CumulativeExtractionM3 / a.ExploitableM3
	if frac > 1 {
		return 1
	}
	return frac
}

// EffectiveHead returns the pumping head after linear drawdown. This feeds
// the day's pumping-energy cost and must be re-derived from the current
// cumulative extraction every day, never cached across days.
func (a *AquiferState) EffectiveHead(baseDepthM float64) float64 {
	return baseDepthM + a.MaxDrawdownM*a.DepletionFraction()
}

// PumpingEnergyKWhPerM3 converts a pumping head to electrical energy per m3
// lifted. 0.002725 kWh/m3/m is rho*g/3.6e6 for water.
func PumpingEnergyKWhPerM3(headM, pumpEfficiency float64) float64 {
	if headM <= 0 {
		return 0
	}
	if pumpEfficiency <= 0 || pumpEfficiency > 1 {
		pumpEfficiency = 1
	}
	return 0.002725 * headM / pumpEfficiency
}

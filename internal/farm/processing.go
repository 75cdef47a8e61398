package farm

import (
	"fmt"
	"time"

	"github.com/talgya/oasis-sim/internal/lookup"
)

// Pathway is a post-harvest processing route.
type Pathway string

const (
	PathwayFresh    Pathway = "fresh"
	PathwayPackaged Pathway = "packaged"
	PathwayCanned   Pathway = "canned"
	PathwayDried    Pathway = "dried"
)

// Processing policy names accepted by NewProcessingPolicy.
const (
	ProcessingAllFresh         = "all_fresh"
	ProcessingMaxStorageLife   = "max_storage_life"
	ProcessingMarketResponsive = "market_responsive"
)

// ProcessingPolicy splits a harvest into pathway fractions summing to 1.
type ProcessingPolicy interface {
	Name() string
	Split(data lookup.Provider, crop string, date time.Time) map[Pathway]float64
}

// NewProcessingPolicy maps a configuration name to a policy. Unknown names
// are a configuration error.
func NewProcessingPolicy(name string) (ProcessingPolicy, error) {
	switch name {
	case "", ProcessingAllFresh:
		return allFresh{}, nil
	case ProcessingMaxStorageLife:
		return maxStorageLife{}, nil
	case ProcessingMarketResponsive:
		return marketResponsive{}, nil
	default:
		return nil, fmt.Errorf("unknown processing policy %q", name)
	}
}

// allFresh sells everything at the farm gate.
type allFresh struct{}

func (allFresh) Name() string { return ProcessingAllFresh }

func (allFresh) Split(lookup.Provider, string, time.Time) map[Pathway]float64 {
	return map[Pathway]float64{PathwayFresh: 1}
}

// maxStorageLife favors shelf-stable pathways over fresh sales.
type maxStorageLife struct{}

func (maxStorageLife) Name() string { return ProcessingMaxStorageLife }

func (maxStorageLife) Split(lookup.Provider, string, time.Time) map[Pathway]float64 {
	return map[Pathway]float64{
		PathwayFresh:    0.20,
		PathwayPackaged: 0.20,
		PathwayCanned:   0.30,
		PathwayDried:    0.30,
	}
}

// marketResponsive shifts volume toward fresh sales when the spot price runs
// above the crop's base price, and toward processing when it runs below.
type marketResponsive struct{}

func (marketResponsive) Name() string { return ProcessingMarketResponsive }

func (marketResponsive) Split(data lookup.Provider, crop string, date time.Time) map[Pathway]float64 {
	freshFrac := 0.5
	base := data.CropBasePrice(crop)
	if price, ok := data.CropPrice(crop, date); ok && base > 0 {
		freshFrac = 0.5 + (price/base - 1)
		if freshFrac < 0.2 {
			freshFrac = 0.2
		}
		if freshFrac > 0.9 {
			freshFrac = 0.9
		}
	}
	rest := 1 - freshFrac
	return map[Pathway]float64{
		PathwayFresh:    freshFrac,
		PathwayPackaged: rest * 0.5,
		PathwayCanned:   rest * 0.3,
		PathwayDried:    rest * 0.2,
	}
}

func errMissingPrice(crop string, date time.Time) error {
	return fmt.Errorf("no price for crop %q on %s", crop, date.Format("2006-01-02"))
}

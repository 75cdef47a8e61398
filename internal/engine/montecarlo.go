// Monte Carlo driver: independent simulation runs are embarrassingly
// parallel because each worker owns a private scenario copy and fresh state,
// sharing only the immutable lookup tables.

package engine

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/talgya/oasis-sim/internal/entropy"
	"github.com/talgya/oasis-sim/internal/lookup"
	"github.com/talgya/oasis-sim/internal/scenario"
)

// Perturb mutates a worker's private scenario copy before its run.
type Perturb func(*scenario.Scenario, *rand.Rand)

// MonteCarlo runs n independent simulations of perturbed copies of the base
// scenario across the given number of workers. Results are returned in run
// order; the first failure cancels nothing but is reported after all
// workers drain.
func MonteCarlo(base *scenario.Scenario, data lookup.Provider, n, workers int, perturb Perturb) ([]*Result, error) {
	if n <= 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	seeds := entropy.Seeds(n)
	results := make([]*Result, n)
	errs := make([]error, n)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				scn := base.Clone()
				if perturb != nil {
					perturb(scn, rand.New(rand.NewSource(seeds[i])))
				}
				sim, err := New(scn, data)
				if err != nil {
					errs[i] = fmt.Errorf("sample %d: %w", i, err)
					continue
				}
				res, err := sim.Run()
				if err != nil {
					errs[i] = fmt.Errorf("sample %d: %w", i, err)
					continue
				}
				results[i] = res
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

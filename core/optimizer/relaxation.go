package optimizer

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/planday/core/model"
)

// ErrRelaxation wraps solver failures of the LP relaxation.
var ErrRelaxation = errors.New("lp relaxation failed")

const simplexTol = 1e-9

// Relaxation is the solution of the linear relaxation of a scheduling problem.
type Relaxation struct {
	// Total is the optimal objective value.
	Total float64
	// Fractions holds the selection level of each job, in input order.
	Fractions []float64
}

// Relax solves the linear relaxation of the weighted interval scheduling
// problem: maximise Σ w·x subject to 0 ≤ x ≤ 1 and, for every start point,
// the jobs running at that point summing to at most 1.
//
// The constraint matrix of an interval graph has the consecutive-ones
// property, so the relaxation is integral and its optimum equals the DP
// optimum. It serves as an independent oracle for Optimize.
func Relax[W Weight](jobs []Job[W]) (Relaxation, error) {
	n := len(jobs)
	if n == 0 {
		return Relaxation{}, nil
	}
	cliques := startCliques(jobs)

	rows := len(cliques) + 2*n
	g := mat.NewDense(rows, n, nil)
	h := make([]float64, rows)
	r := 0
	for _, members := range cliques {
		for _, j := range members {
			g.Set(r, j, 1)
		}
		h[r] = 1
		r++
	}
	for j := 0; j < n; j++ {
		g.Set(r, j, 1)
		h[r] = 1
		r++
		g.Set(r, j, -1)
		r++
	}

	c := make([]float64, n)
	for j, job := range jobs {
		c[j] = -float64(job.Weight)
	}

	cStd, aStd, bStd := lp.Convert(c, g, h, nil, nil)
	opt, sol, err := lp.Simplex(cStd, aStd, bStd, simplexTol, nil)
	if err != nil {
		return Relaxation{}, errors.Join(ErrRelaxation, err)
	}
	frac := make([]float64, n)
	for j := range frac {
		// Convert splits each free variable into positive and negative parts.
		frac[j] = sol[j] - sol[n+j]
	}
	return Relaxation{Total: -opt, Fractions: frac}, nil
}

// startCliques returns, for each distinct start time, the indexes of the jobs
// running at that instant. Every maximal clique of the interval graph is one
// of them.
func startCliques[W Weight](jobs []Job[W]) [][]int {
	starts := make([]model.Clock, 0, len(jobs))
	seen := make(map[model.Clock]struct{}, len(jobs))
	for _, j := range jobs {
		if _, ok := seen[j.Start]; ok {
			continue
		}
		seen[j.Start] = struct{}{}
		starts = append(starts, j.Start)
	}
	sort.Slice(starts, func(a, b int) bool { return starts[a] < starts[b] })

	out := make([][]int, 0, len(starts))
	for _, s := range starts {
		var members []int
		for i, j := range jobs {
			if j.Start <= s && s < j.End {
				members = append(members, i)
			}
		}
		if len(members) > 1 {
			out = append(out, members)
		}
	}
	return out
}

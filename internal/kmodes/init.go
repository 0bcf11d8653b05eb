package kmodes

import (
	"math/rand/v2"
	"sort"

	"github.com/KaramelBytes/surveyclust/internal/categorical"
)

// initHuang draws each attribute of each seed mode with probability
// proportional to its frequency, then snaps every seed to the closest record
// that is not already a seed.
func initHuang(X [][]int, ncats []int, k int, rng *rand.Rand) [][]int {
	n := len(X)
	centroids := make([][]int, k)
	for ik := range centroids {
		centroids[ik] = make([]int, len(ncats))
	}
	for j, nc := range ncats {
		cum := make([]int, nc)
		for _, x := range X {
			cum[x[j]]++
		}
		for c := 1; c < nc; c++ {
			cum[c] += cum[c-1]
		}
		for ik := 0; ik < k; ik++ {
			r := rng.IntN(n)
			centroids[ik][j] = sort.SearchInts(cum, r+1)
		}
	}

	for ik := 0; ik < k; ik++ {
		order := byDistance(X, centroids[ik])
		pick := order[0]
		for p := 0; p < len(order)-1 && isCentroid(X[order[p]], centroids); p++ {
			pick = order[p+1]
		}
		centroids[ik] = append([]int(nil), X[pick]...)
	}
	return centroids
}

// initCao picks the densest record first, then repeatedly the record that
// maximizes density-weighted distance to the modes chosen so far.
func initCao(X [][]int, ncats []int, k int) [][]int {
	n, m := len(X), len(ncats)
	dens := make([]float64, n)
	for j, nc := range ncats {
		freq := make([]int, nc)
		for _, x := range X {
			freq[x[j]]++
		}
		for i, x := range X {
			dens[i] += float64(freq[x[j]]) / float64(n) / float64(m)
		}
	}
	centroids := make([][]int, 0, k)
	centroids = append(centroids, append([]int(nil), X[argmax(dens)]...))
	for len(centroids) < k {
		score := make([]float64, n)
		for i, x := range X {
			closest := -1.0
			for _, c := range centroids {
				d := float64(categorical.Mismatches(x, c)) * dens[i]
				if closest < 0 || d < closest {
					closest = d
				}
			}
			score[i] = closest
		}
		centroids = append(centroids, append([]int(nil), X[argmax(score)]...))
	}
	return centroids
}

// initRandom uses k distinct random records as seeds.
func initRandom(X [][]int, k int, rng *rand.Rand) [][]int {
	perm := rng.Perm(len(X))
	centroids := make([][]int, k)
	for ik := range centroids {
		centroids[ik] = append([]int(nil), X[perm[ik]]...)
	}
	return centroids
}

func byDistance(X [][]int, c []int) []int {
	d := make([]int, len(X))
	order := make([]int, len(X))
	for i, x := range X {
		d[i] = categorical.Mismatches(x, c)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return d[order[a]] < d[order[b]] })
	return order
}

func isCentroid(x []int, centroids [][]int) bool {
	for _, c := range centroids {
		if categorical.Mismatches(x, c) == 0 {
			return true
		}
	}
	return false
}

func argmax(v []float64) int {
	best := 0
	for i, x := range v {
		if x > v[best] {
			best = i
		}
	}
	return best
}

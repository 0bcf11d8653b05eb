package categorical

// Mismatches counts the positions where a and b differ (simple matching
// dissimilarity). Both slices must have equal length.
func Mismatches(a, b []int) int {
	n := 0
	for i := range a {
		if a[i] != b[i] {
			n++
		}
	}
	return n
}

// Hamming returns the fraction of positions where a and b differ.
func Hamming(a, b []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	n := 0
	for i := range a {
		if a[i] != b[i] {
			n++
		}
	}
	return float64(n) / float64(len(a))
}

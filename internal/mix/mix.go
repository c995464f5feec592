package mix

// Color is an RGBA sample with every channel in 0..1.
type Color [4]float32

// Weight holds the per-mask contribution (R mask, G mask, B mask).
type Weight [3]float32

// Sum returns wR+wG+wB.
func (w Weight) Sum() float32 {
	return w[0] + w[1] + w[2]
}

// WeightedAverage returns sum(w[i]*v[i]) / sum(w), or 0 when the weights sum to
// exactly zero. Scaling every weight by the same positive factor does not
// change the result.
func WeightedAverage(w Weight, v [3]float32) float32 {
	sum := w.Sum()
	if sum == 0 {
		return 0
	}
	// explicit conversions keep the products from being fused
	acc := float32(w[0] * v[0])
	acc = float32(acc + float32(w[1]*v[1]))
	acc = float32(acc + float32(w[2]*v[2]))
	return acc / sum
}

// Pixel writes the mixed RGB of the three mask samples into px.
// px[3] is left alone; mask alpha is ignored.
func Pixel(px *Color, w Weight, masks [3]Color) {
	for c := 0; c < 3; c++ {
		px[c] = WeightedAverage(w, [3]float32{masks[0][c], masks[1][c], masks[2][c]})
	}
}

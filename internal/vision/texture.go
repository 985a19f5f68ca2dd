package vision

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// textureMean is the average local standard deviation over a k x k window:
// box(gray), then box((gray - mean)^2), then sqrt.
func textureMean(gray []float64, w, h, k int) float64 {
	local := boxFilter(gray, w, h, k)

	sq := make([]float64, len(gray))
	for i, v := range gray {
		d := v - local[i]
		sq[i] = d * d
	}
	variance := boxFilter(sq, w, h, k)

	std := make([]float64, len(variance))
	for i, v := range variance {
		std[i] = math.Sqrt(math.Max(v, 0))
	}
	return stat.Mean(std, nil)
}

// boxFilter is a normalized separable k x k mean filter with reflect-101 borders.
func boxFilter(src []float64, w, h, k int) []float64 {
	r := k / 2
	norm := float64(2*r + 1)

	tmp := make([]float64, len(src))
	for y := 0; y < h; y++ {
		row := src[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			var sum float64
			for d := -r; d <= r; d++ {
				sum += row[reflect101(x+d, w)]
			}
			tmp[y*w+x] = sum / norm
		}
	}

	dst := make([]float64, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for d := -r; d <= r; d++ {
				sum += tmp[reflect101(y+d, h)*w+x]
			}
			dst[y*w+x] = sum / norm
		}
	}
	return dst
}

// reflect101 mirrors out-of-range indices without repeating the border sample
// (gfedcb|abcdefgh|gfedcba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

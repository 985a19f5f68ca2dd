package vision

import "math"

const (
	tan22 = 0.4142135623730951
	tan67 = 2.414213562373095
)

// edgeDensity runs a Canny-style detector over the luma channel and returns
// the fraction of pixels marked as edges. Gradients use a 3x3 Sobel kernel
// with replicated borders and the L1 magnitude.
func edgeDensity(gray []float64, w, h int, low, high float64) float64 {
	n := w * h
	gx := make([]float64, n)
	gy := make([]float64, n)
	mag := make([]float64, n)

	at := func(x, y int) float64 {
		return gray[clampIndex(y, h)*w+clampIndex(x, w)]
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := (at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))
			dy := (at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))
			i := y*w + x
			gx[i], gy[i] = dx, dy
			mag[i] = math.Abs(dx) + math.Abs(dy)
		}
	}

	magAt := func(x, y int) float64 {
		if x < 0 || x >= w || y < 0 || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	// Non-maximum suppression: 0 = suppressed, 1 = weak, 2 = strong.
	state := make([]uint8, n)
	stack := make([]int, 0, n/16)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if m <= low {
				continue
			}

			ax, ay := math.Abs(gx[i]), math.Abs(gy[i])
			var n1, n2 float64
			switch {
			case ay <= ax*tan22:
				n1, n2 = magAt(x-1, y), magAt(x+1, y)
			case ay > ax*tan67:
				n1, n2 = magAt(x, y-1), magAt(x, y+1)
			case gx[i]*gy[i] > 0:
				n1, n2 = magAt(x-1, y-1), magAt(x+1, y+1)
			default:
				n1, n2 = magAt(x+1, y-1), magAt(x-1, y+1)
			}
			if m <= n1 || m < n2 {
				continue
			}

			if m > high {
				state[i] = 2
				stack = append(stack, i)
			} else {
				state[i] = 1
			}
		}
	}

	// Hysteresis: promote weak pixels connected to a strong one.
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				j := ny*w + nx
				if state[j] == 1 {
					state[j] = 2
					stack = append(stack, j)
				}
			}
		}
	}

	edges := 0
	for _, s := range state {
		if s == 2 {
			edges++
		}
	}
	return float64(edges) / float64(n)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

package app

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

const ellipseSegments = 64

// confidenceEllipse traces the covariance ellipse of a 2D point cloud at the
// given coverage level. Needs at least 3 points; returns ok=false otherwise
// or when the covariance is degenerate.
func confidenceEllipse(points [][]float64, level float64) (xs, ys []float64, ok bool) {
	n := len(points)
	if n < 3 {
		return nil, nil, false
	}

	var mx, my float64
	for _, p := range points {
		mx += p[0]
		my += p[1]
	}
	mx /= float64(n)
	my /= float64(n)

	var sxx, syy, sxy float64
	for _, p := range points {
		dx, dy := p[0]-mx, p[1]-my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	sxx /= float64(n - 1)
	syy /= float64(n - 1)
	sxy /= float64(n - 1)

	// eigendecomposition of the 2x2 covariance
	tr := sxx + syy
	det := sxx*syy - sxy*sxy
	disc := tr*tr/4 - det
	if disc < 0 {
		disc = 0
	}
	l1 := tr/2 + math.Sqrt(disc)
	l2 := tr/2 - math.Sqrt(disc)
	if l1 <= 0 || l2 <= l1*1e-9 {
		// Collinear or constant cloud
		return nil, nil, false
	}

	var theta float64
	if sxy != 0 {
		theta = math.Atan2(l1-sxx, sxy)
	} else if syy > sxx {
		theta = math.Pi / 2
	}

	scale := math.Sqrt(distuv.ChiSquared{K: 2}.Quantile(level))
	a := scale * math.Sqrt(l1)
	b := scale * math.Sqrt(l2)

	xs = make([]float64, ellipseSegments+1)
	ys = make([]float64, ellipseSegments+1)
	cosT, sinT := math.Cos(theta), math.Sin(theta)
	for i := 0; i <= ellipseSegments; i++ {
		t := 2 * math.Pi * float64(i) / float64(ellipseSegments)
		px := a * math.Cos(t)
		py := b * math.Sin(t)
		xs[i] = mx + px*cosT - py*sinT
		ys[i] = my + px*sinT + py*cosT
	}
	return xs, ys, true
}

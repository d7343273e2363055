// Package downsample reduces long metric series to a bounded number of
// points for chart rendering using Largest-Triangle-Three-Buckets, which
// keeps visually significant extrema that uniform decimation would drop.
package downsample

import "time"

// Point is one sample on the chart: a timestamp and the primary metric
// value. A nil value means the provider reported nothing for that sample;
// it is coerced to zero for the geometric selection only.
type Point struct {
	T time.Time
	V *int64
}

// Downsample reduces points to at most target entries. The input is
// returned unchanged when it already fits. The first and last input points
// are always present in the output. The function is pure and never fails:
// inputs LTTB cannot handle fall back to fixed-stride decimation.
func Downsample(points []Point, target int) []Point {
	if target <= 0 || len(points) <= target {
		return points
	}
	if out, ok := lttb(points, target); ok {
		return out
	}
	return decimate(points, target)
}

func yval(p Point) float64 {
	if p.V == nil {
		return 0
	}
	return float64(*p.V)
}

// lttb implements Largest-Triangle-Three-Buckets with the sequence index
// as the x-axis. The interior points are split into target-2 buckets; per
// bucket the point forming the largest triangle with the previously
// selected point and the next bucket's centroid is kept.
func lttb(points []Point, target int) ([]Point, bool) {
	n := len(points)
	if target < 3 || n <= target {
		return nil, false
	}

	out := make([]Point, 0, target)
	out = append(out, points[0])

	// Bucket width over the interior points, excluding the fixed endpoints.
	every := float64(n-2) / float64(target-2)
	prevIdx := 0

	for i := 0; i < target-2; i++ {
		// Current bucket bounds.
		start := int(float64(i)*every) + 1
		end := int(float64(i+1)*every) + 1
		if end >= n-1 {
			end = n - 1
		}
		if start >= end {
			start = end - 1
		}

		// Centroid of the next bucket (or the last point for the final one).
		nextStart := end
		nextEnd := int(float64(i+2)*every) + 1
		if nextEnd >= n {
			nextEnd = n - 1
		}
		var avgX, avgY float64
		if nextStart >= nextEnd {
			avgX = float64(n - 1)
			avgY = yval(points[n-1])
		} else {
			for j := nextStart; j < nextEnd; j++ {
				avgX += float64(j)
				avgY += yval(points[j])
			}
			cnt := float64(nextEnd - nextStart)
			avgX /= cnt
			avgY /= cnt
		}

		px := float64(prevIdx)
		py := yval(points[prevIdx])

		bestIdx := start
		bestArea := -1.0
		for j := start; j < end; j++ {
			// Twice the triangle area; the factor cancels in the comparison.
			area := abs((px-avgX)*(yval(points[j])-py) - (px-float64(j))*(avgY-py))
			if area > bestArea {
				bestArea = area
				bestIdx = j
			}
		}

		out = append(out, points[bestIdx])
		prevIdx = bestIdx
	}

	out = append(out, points[n-1])
	if len(out) != target {
		return nil, false
	}
	return out, true
}

// decimate keeps the first and last point and takes every stride-th point
// in between until target points are collected.
func decimate(points []Point, target int) []Point {
	n := len(points)
	if n <= target {
		return points
	}
	if target == 1 {
		return points[:1]
	}
	if target == 2 {
		return []Point{points[0], points[n-1]}
	}

	stride := (n - 2) / (target - 2)
	if stride < 1 {
		stride = 1
	}

	out := make([]Point, 0, target)
	out = append(out, points[0])
	for i := 1; i < n-1 && len(out) < target-1; i += stride {
		out = append(out, points[i])
	}
	out = append(out, points[n-1])
	return out
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

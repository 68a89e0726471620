package views

// -----------------------------------------------------------------------------

// Downsample reduces a series to at most maxPoints for chart-scale rendering
// of long windows. Points are grouped into equal index buckets and the last
// point of each bucket kept (latest state wins); the first and last points
// always survive so the rendered range matches the data range.
func Downsample(points []HistoryPoint, maxPoints int) []HistoryPoint {
	if maxPoints <= 0 || len(points) <= maxPoints {
		return append([]HistoryPoint(nil), points...)
	}

	bucket := (len(points) + maxPoints - 1) / maxPoints

	out := make([]HistoryPoint, 0, maxPoints+2)
	out = append(out, points[0])
	for i := bucket; i < len(points)-1; i += bucket {
		end := i + bucket - 1
		if end >= len(points)-1 {
			end = len(points) - 2
		}
		out = append(out, points[end])
	}
	out = append(out, points[len(points)-1])
	return out
}

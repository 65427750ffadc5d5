package solar

import "math"

// DefaultLatitude is the site latitude assumed when geolocation is
// unavailable (Mumbai).
const DefaultLatitude = 19.12

// AzimuthDistance returns the shortest angular distance between two compass
// headings, in degrees [0, 180].
func AzimuthDistance(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// OptimalAzimuth returns the ideal panel heading for a latitude: south-facing
// in the northern hemisphere, north-facing in the southern.
func OptimalAzimuth(latitudeDeg float64) float64 {
	if latitudeDeg > 0 {
		return 180
	}
	return 0
}

// OptimalTilt returns the ideal panel tilt for a latitude.
func OptimalTilt(latitudeDeg float64) float64 {
	return math.Abs(latitudeDeg)
}

// Efficiency maps a panel orientation to a dimensionless multiplier in
// [0.3, 1.0]. The azimuth term dominates (60/40 weighting) and the result is
// clamped so even a badly oriented array still produces diffuse output.
//
// This is the single orientation formula used everywhere, including the alert
// evaluator; it must stay pure since the aggregator calls it per-hour.
func Efficiency(azimuthDeg, tiltDeg, latitudeDeg float64) float64 {
	azimuthDiff := AzimuthDistance(azimuthDeg, OptimalAzimuth(latitudeDeg))
	azimuthEff := math.Cos(azimuthDiff * math.Pi / 180)

	tiltDiff := math.Abs(tiltDeg - OptimalTilt(latitudeDeg))
	tiltEff := math.Cos(tiltDiff*math.Pi/180)*0.7 + 0.3

	combined := azimuthEff*0.6 + tiltEff*0.4

	return math.Max(0.3, math.Min(1, combined))
}

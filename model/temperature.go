package model

import "math"

// Temperature band boundaries in degC. Bands are half-open: [lo, hi).
const (
	TempCoolMax     = 28.0
	TempNormalMax   = 40.0
	TempElevatedMax = 45.0
	TempWarningMax  = 55.0
)

// TempBand is the display classification of a temperature reading. It is
// independent of the cell's anomaly Status.
type TempBand int

const (
	BandCool TempBand = iota
	BandNormal
	BandElevated
	BandWarning
	BandCritical
)

func (b TempBand) String() string {
	switch b {
	case BandCool:
		return "cool"
	case BandNormal:
		return "normal"
	case BandElevated:
		return "elevated"
	case BandWarning:
		return "warning"
	default:
		return "critical"
	}
}

// Classify returns the band containing temp.
func Classify(temp float64) TempBand {
	switch {
	case temp < TempCoolMax:
		return BandCool
	case temp < TempNormalMax:
		return BandNormal
	case temp < TempElevatedMax:
		return BandElevated
	case temp < TempWarningMax:
		return BandWarning
	default:
		return BandCritical
	}
}

// RGB is an 8-bit colour triple.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

type colorSegment struct {
	lo, hi   float64
	from, to RGB
}

// One linear segment per band: blue, green, yellow, orange, red.
var colorSegments = []colorSegment{
	{lo: 20, hi: TempCoolMax, from: RGB{30, 80, 255}, to: RGB{0, 170, 220}},
	{lo: TempCoolMax, hi: TempNormalMax, from: RGB{0, 190, 90}, to: RGB{150, 220, 0}},
	{lo: TempNormalMax, hi: TempElevatedMax, from: RGB{240, 230, 0}, to: RGB{255, 200, 0}},
	{lo: TempElevatedMax, hi: TempWarningMax, from: RGB{255, 170, 0}, to: RGB{255, 90, 0}},
	{lo: TempWarningMax, hi: 60, from: RGB{240, 40, 20}, to: RGB{170, 0, 0}},
}

// TemperatureColor maps temp to the heatmap palette. Values outside [20,60]
// take the colour of the nearest end.
func TemperatureColor(temp float64) RGB {
	seg := colorSegments[int(Classify(temp))]
	frac := (temp - seg.lo) / (seg.hi - seg.lo)
	frac = math.Max(0, math.Min(1, frac))
	return RGB{
		R: lerp8(seg.from.R, seg.to.R, frac),
		G: lerp8(seg.from.G, seg.to.G, frac),
		B: lerp8(seg.from.B, seg.to.B, frac),
	}
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

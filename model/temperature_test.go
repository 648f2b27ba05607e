package model

import "testing"

func TestClassifyBandBoundaries(t *testing.T) {
	cases := []struct {
		temp float64
		want TempBand
	}{
		{20, BandCool},
		{27.99, BandCool},
		{28, BandNormal},
		{39.99, BandNormal},
		{40, BandElevated},
		{44.99, BandElevated},
		{45, BandWarning},
		{54.99, BandWarning},
		{55, BandCritical},
		{60, BandCritical},
	}
	for _, tc := range cases {
		if got := Classify(tc.temp); got != tc.want {
			t.Fatalf("Classify(%v) = %v, want %v", tc.temp, got, tc.want)
		}
	}
}

func TestTemperatureColorHueOrder(t *testing.T) {
	cool := TemperatureColor(22)
	if cool.B <= cool.R || cool.B <= cool.G {
		t.Fatalf("cool colour %+v is not predominantly blue", cool)
	}
	normal := TemperatureColor(30)
	if normal.G <= normal.R || normal.G <= normal.B {
		t.Fatalf("normal colour %+v is not predominantly green", normal)
	}
	elevated := TemperatureColor(42)
	if elevated.R < 200 || elevated.G < 180 || elevated.B != 0 {
		t.Fatalf("elevated colour %+v is not yellow", elevated)
	}
	warning := TemperatureColor(50)
	if warning.R != 255 || warning.G >= elevated.G || warning.G < 60 {
		t.Fatalf("warning colour %+v is not orange", warning)
	}
	critical := TemperatureColor(58)
	if critical.R < 150 || critical.G > 40 {
		t.Fatalf("critical colour %+v is not red", critical)
	}
}

func TestTemperatureColorOutOfRangeClampsToEnds(t *testing.T) {
	if got, want := TemperatureColor(-10), TemperatureColor(20); got != want {
		t.Fatalf("TemperatureColor(-10) = %+v, want %+v", got, want)
	}
	if got, want := TemperatureColor(70), TemperatureColor(60); got != want {
		t.Fatalf("TemperatureColor(70) = %+v, want %+v", got, want)
	}
}

func TestCellMetricFollowsViewMode(t *testing.T) {
	c := &Cell{Temperature: 31, Voltage: 3.7, SoC: 80, SoH: 92}
	for mode, want := range map[ViewMode]float64{
		ViewTemperature: 31,
		ViewVoltage:     3.7,
		ViewSoC:         80,
		ViewSoH:         92,
	} {
		if got := c.Metric(mode); got != want {
			t.Fatalf("Metric(%v) = %v, want %v", mode, got, want)
		}
		parsed, ok := ParseViewMode(mode.String())
		if !ok || parsed != mode {
			t.Fatalf("ParseViewMode(%q) = %v, %v", mode.String(), parsed, ok)
		}
	}
	if _, ok := ParseViewMode("current"); ok {
		t.Fatalf("ParseViewMode(current) reported ok")
	}
}

func TestStatusString(t *testing.T) {
	if StatusNormal.String() != "NORMAL" || StatusWarning.String() != "WARNING" || StatusCritical.String() != "CRITICAL" {
		t.Fatalf("unexpected status labels")
	}
}

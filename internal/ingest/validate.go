package ingest

import (
	"github.com/lox/tideline/internal/models"
)

const (
	FlagWaveHeightNegative   = "wave_height_negative"
	FlagWaveHeightUnlikely   = "wave_height_unlikely"
	FlagTideHeightOutOfRange = "tide_height_out_of_range"
	FlagTimeNotIncreasing    = "time_not_increasing"
)

const (
	maxWaveHeight = 30.0 // metres
	maxTideHeight = 15.0 // metres either side of mean sea level
)

func ValidateWeatherSample(s models.WeatherSample) []string {
	var flags []string

	if s.WaveHeight.Valid {
		if s.WaveHeight.Float64 < 0 {
			flags = append(flags, FlagWaveHeightNegative)
		}
		if s.WaveHeight.Float64 > maxWaveHeight {
			flags = append(flags, FlagWaveHeightUnlikely)
		}
	}

	return flags
}

func ValidateTideExtreme(t models.TideExtreme) []string {
	var flags []string

	if t.Height < -maxTideHeight || t.Height > maxTideHeight {
		flags = append(flags, FlagTideHeightOutOfRange)
	}

	return flags
}

// QualityReport counts flagged records per flag.
type QualityReport map[string]int

// Flagged is the total number of flags raised.
func (r QualityReport) Flagged() int {
	n := 0
	for _, c := range r {
		n += c
	}
	return n
}

func ValidateWeather(samples []models.WeatherSample) QualityReport {
	report := QualityReport{}
	for i, s := range samples {
		for _, f := range ValidateWeatherSample(s) {
			report[f]++
		}
		if i > 0 && !s.Time.After(samples[i-1].Time) {
			report[FlagTimeNotIncreasing]++
		}
	}
	return report
}

func ValidateTides(tides []models.TideExtreme) QualityReport {
	report := QualityReport{}
	for i, t := range tides {
		for _, f := range ValidateTideExtreme(t) {
			report[f]++
		}
		if i > 0 && !t.Time.After(tides[i-1].Time) {
			report[FlagTimeNotIncreasing]++
		}
	}
	return report
}

package lunar

import (
	"math"
	"time"
)

// Phase names a segment of the lunar cycle.
type Phase string

const (
	PhaseNew            Phase = "new"
	PhaseWaxingCrescent Phase = "waxing_crescent"
	PhaseFirstQuarter   Phase = "first_quarter"
	PhaseWaxingGibbous  Phase = "waxing_gibbous"
	PhaseFull           Phase = "full"
	PhaseWaningGibbous  Phase = "waning_gibbous"
	PhaseLastQuarter    Phase = "last_quarter"
	PhaseWaningCrescent Phase = "waning_crescent"
)

// Cycle is the mean synodic month in days.
const Cycle = 29.530588853

// referenceNewMoon is the new moon of January 6, 2000 18:14 UTC.
var referenceNewMoon = time.Date(2000, 1, 6, 18, 14, 0, 0, time.UTC)

// Fraction returns the position in the lunar cycle at t:
// 0 new, 0.25 first quarter, 0.5 full, 0.75 last quarter, approaching 1 at the next new moon.
func Fraction(t time.Time) float64 {
	days := t.Sub(referenceNewMoon).Hours() / 24
	pos := math.Mod(days, Cycle)
	if pos < 0 {
		pos += Cycle
	}
	return pos / Cycle
}

// PhaseOf maps a cycle fraction to one of eight segments centred on the
// principal phases.
func PhaseOf(fraction float64) Phase {
	switch int(math.Mod(fraction*8+0.5, 8)) {
	case 0:
		return PhaseNew
	case 1:
		return PhaseWaxingCrescent
	case 2:
		return PhaseFirstQuarter
	case 3:
		return PhaseWaxingGibbous
	case 4:
		return PhaseFull
	case 5:
		return PhaseWaningGibbous
	case 6:
		return PhaseLastQuarter
	default:
		return PhaseWaningCrescent
	}
}

// Illumination returns the lit fraction of the disc (0-1) for a cycle fraction.
func Illumination(fraction float64) float64 {
	return (1 - math.Cos(fraction*2*math.Pi)) / 2
}

// Name returns a display name for the phase.
func (p Phase) Name() string {
	switch p {
	case PhaseNew:
		return "New Moon"
	case PhaseWaxingCrescent:
		return "Waxing Crescent"
	case PhaseFirstQuarter:
		return "First Quarter"
	case PhaseWaxingGibbous:
		return "Waxing Gibbous"
	case PhaseFull:
		return "Full Moon"
	case PhaseWaningGibbous:
		return "Waning Gibbous"
	case PhaseLastQuarter:
		return "Last Quarter"
	case PhaseWaningCrescent:
		return "Waning Crescent"
	default:
		return "Moon"
	}
}

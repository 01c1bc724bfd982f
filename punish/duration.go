package punish

import (
	"fmt"

	"punish-bot/model"
)

// HoursPer returns how many hours one unit spans. Unknown units fall back
// to days, the same default as model.ResolveUnit.
func HoursPer(unit string) float64 {
	switch unit {
	case model.UnitMinutes:
		return 1.0 / 60.0
	case model.UnitHours:
		return 1
	case model.UnitWeeks:
		return 7 * 24
	default:
		return 24
	}
}

// ToHours converts an amount in the given unit to hours. The numeric
// pipeline is always hour-normalized; truncation happens once, at the
// final duration.
func ToHours(amount float64, unit string) float64 {
	return amount * HoursPer(unit)
}

// unitRank orders units for display purposes: weeks > days > hours > minutes.
func unitRank(unit string) int {
	switch unit {
	case model.UnitWeeks:
		return 3
	case model.UnitDays:
		return 2
	case model.UnitHours:
		return 1
	default:
		return 0
	}
}

// LargerUnit returns whichever of the two units ranks higher for display.
func LargerUnit(a, b string) string {
	if unitRank(b) > unitRank(a) {
		return b
	}
	return a
}

// UnitInitial returns the single-letter token suffix the enforcement bot
// understands: m, h, d or w.
func UnitInitial(unit string) string {
	switch unit {
	case model.UnitMinutes:
		return "m"
	case model.UnitHours:
		return "h"
	case model.UnitWeeks:
		return "w"
	default:
		return "d"
	}
}

// FormatCompact renders the machine-readable duration token, e.g. "14d".
func FormatCompact(value int64, unit string) string {
	return fmt.Sprintf("%d%s", value, UnitInitial(unit))
}

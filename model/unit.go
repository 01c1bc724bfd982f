package model

// Duration units accepted in the catalog and on punishment records.
const (
	UnitMinutes = "minutes"
	UnitHours   = "hours"
	UnitDays    = "days"
	UnitWeeks   = "weeks"
)

// ResolveUnit is the canonical fallback chain for the unit of a stored
// punishment record: the record's own unit, then the catalog entry it was
// issued from, then days. Legacy rows predate the unit column, so both
// fallbacks are reachable in practice.
func ResolveUnit(record *PunishmentRecord, catalogFallback *CatalogEntry) string {
	if record != nil && record.Unit != "" {
		return record.Unit
	}
	if catalogFallback != nil && catalogFallback.Unit != "" {
		return catalogFallback.Unit
	}
	return UnitDays
}

package punish

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"punish-bot/model"
	"punish-bot/utils"
)

// Store is the query surface the engine needs from persistent storage.
// Not-found results are returned as nil records, never as errors.
type Store interface {
	GetCatalogEntry(reason string, stage int) (*model.CatalogEntry, error)
	GetCurrentStage(userID, reason string) (int, error)
	GetLatestPunishment(userID, reason string) (*model.PunishmentRecord, error)
	ListInfractions(userID string) ([]model.InfractionRecord, error)
	InsertPunishments(punishments []model.PunishmentRecord, infractions []model.InfractionRecord) error
}

// Result is what an invocation hands back to the caller for display and
// forwarding to the enforcement bot.
type Result struct {
	FinalValue    int64
	BaseValue     float64 // pre-multiplier duration in display units
	DisplayUnit   string
	CompactToken  string
	TotalPoints   float64
	DecayedPoints float64
	Multiplier    float64
	ExpiryEpoch   int64
	Reasons       []string
}

// HumanDuration renders the final duration, e.g. "12 days".
func (r *Result) HumanDuration() string {
	return fmt.Sprintf("%d %s", r.FinalValue, r.DisplayUnit)
}

// Engine scores punishments: it resolves catalog templates per escalation
// stage, aggregates multi-reason durations hour-normalized, applies the
// decayed-points multiplier and persists the outcome. All validation runs
// before any write, so a failed invocation never leaves partial records.
type Engine struct {
	store     Store
	policy    atomic.Value // model.Policy
	userLocks *utils.KeyedLock
	now       func() time.Time
}

func New(store Store, policy model.Policy) *Engine {
	e := &Engine{
		store:     store,
		userLocks: utils.NewKeyedLock(),
		now:       time.Now,
	}
	e.policy.Store(policy)
	return e
}

// SetPolicy swaps the scoring policy in place. Handlers call the engine
// from concurrent goroutines, and the per-user locks must survive a
// policy reload, so the engine itself is never replaced.
func (e *Engine) SetPolicy(policy model.Policy) {
	e.policy.Store(policy)
}

func (e *Engine) currentPolicy() model.Policy {
	return e.policy.Load().(model.Policy)
}

// resolvedReason pairs a reason with the catalog template at the user's
// next escalation stage.
type resolvedReason struct {
	reason string
	stage  int
	tmpl   *model.CatalogEntry
}

// ApplyFresh issues a new punishment for one or more reasons, charging
// points and advancing each reason's escalation stage.
func (e *Engine) ApplyFresh(userID, username, ip, adminID string, reasons []string) (*Result, error) {
	if len(reasons) == 0 {
		return nil, ErrEmptyReasonSet
	}
	policy := e.currentPolicy()
	if policy.SerializePerUser {
		unlock := e.userLocks.Lock(userID)
		defer unlock()
	}

	// COLLECT: resolve every reason before touching anything else. A
	// missing template aborts the whole set.
	resolved := make([]resolvedReason, 0, len(reasons))
	for _, reason := range reasons {
		stage, err := e.store.GetCurrentStage(userID, reason)
		if err != nil {
			return nil, fmt.Errorf("failed to look up stage for reason %q: %w", reason, err)
		}
		tmpl, err := e.store.GetCatalogEntry(reason, stage)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch catalog entry for reason %q: %w", reason, err)
		}
		if tmpl == nil {
			return nil, &TemplateNotFoundError{Reason: reason, Stage: stage}
		}
		resolved = append(resolved, resolvedReason{reason: reason, stage: stage, tmpl: tmpl})
	}

	var totalBaseHours, totalPoints float64
	displayUnit := resolved[0].tmpl.Unit
	for _, r := range resolved {
		totalBaseHours += ToHours(r.tmpl.Amount, r.tmpl.Unit)
		totalPoints += r.tmpl.Points
		displayUnit = LargerUnit(displayUnit, r.tmpl.Unit)
	}

	now := e.now()

	// SCORE: one multiplier per invocation, computed from the history as
	// it stood before this invocation's own points land. The legacy
	// single-reason shortcut skips the history fetch entirely.
	multiplier := 1.0
	decayedTotal := 0.0
	if !(policy.SingleReasonFlatMultiplier && len(resolved) == 1) {
		infractions, err := e.store.ListInfractions(userID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch infractions for user %s: %w", userID, err)
		}
		decayedTotal = e.decayedPoints(infractions, now)
		multiplier = math.Max(math.Log2(decayedTotal+1), 1)
	}

	finalHours := totalBaseHours * multiplier
	finalValue := int64(math.Floor(finalHours / HoursPer(displayUnit)))
	expiry := now.Add(time.Duration(finalHours * float64(time.Hour))).Unix()

	// PERSIST: one punishment and one infraction per reason, sharing the
	// invocation's multiplier and decay snapshot.
	punishments := make([]model.PunishmentRecord, 0, len(resolved))
	infractions := make([]model.InfractionRecord, 0, len(resolved))
	for _, r := range resolved {
		punishments = append(punishments, model.PunishmentRecord{
			UserID:           userID,
			UserUsername:     username,
			IP:               ip,
			Reason:           r.reason,
			BaseAmount:       r.tmpl.Amount,
			Unit:             r.tmpl.Unit,
			Points:           r.tmpl.Points,
			Multiplier:       multiplier,
			FinalDuration:    int64(math.Floor(r.tmpl.Amount * multiplier)),
			Stage:            r.stage,
			TotalPointsAtBan: decayedTotal,
			AdminID:          adminID,
			CreatedAt:        now.Unix(),
		})
		infractions = append(infractions, model.InfractionRecord{
			UserID:    userID,
			Points:    r.tmpl.Points,
			Context:   r.reason,
			Source:    policy.InfractionSource,
			Timestamp: now.Unix(),
		})
	}
	if err := e.store.InsertPunishments(punishments, infractions); err != nil {
		return nil, fmt.Errorf("failed to persist punishment records: %w", err)
	}

	return &Result{
		FinalValue:    finalValue,
		BaseValue:     totalBaseHours / HoursPer(displayUnit),
		DisplayUnit:   displayUnit,
		CompactToken:  FormatCompact(finalValue, displayUnit),
		TotalPoints:   totalPoints,
		DecayedPoints: decayedTotal,
		Multiplier:    multiplier,
		ExpiryEpoch:   expiry,
		Reasons:       reasons,
	}, nil
}

// ApplyReused replays each reason's most recent sentence without charging
// new points: the ban-evasion ("avoid") path. No infraction records are
// written and escalation stages do not advance.
func (e *Engine) ApplyReused(userID, username, ip, adminID string, reasons []string) (*Result, error) {
	if len(reasons) == 0 {
		return nil, ErrEmptyReasonSet
	}
	if e.currentPolicy().SerializePerUser {
		unlock := e.userLocks.Lock(userID)
		defer unlock()
	}

	type reused struct {
		prev *model.PunishmentRecord
		unit string
	}
	priors := make([]reused, 0, len(reasons))
	for _, reason := range reasons {
		prev, err := e.store.GetLatestPunishment(userID, reason)
		if err != nil {
			return nil, fmt.Errorf("failed to look up prior punishment for reason %q: %w", reason, err)
		}
		if prev == nil {
			return nil, &NoPriorPunishmentError{Reason: reason}
		}
		var fallback *model.CatalogEntry
		if prev.Unit == "" {
			fallback, err = e.store.GetCatalogEntry(reason, prev.Stage)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch catalog fallback for reason %q: %w", reason, err)
			}
		}
		priors = append(priors, reused{prev: prev, unit: model.ResolveUnit(prev, fallback)})
	}

	var totalHours float64
	reusedMultiplier := 1.0
	displayUnit := priors[0].unit
	for _, p := range priors {
		totalHours += ToHours(p.prev.BaseAmount, p.unit)
		if p.prev.Multiplier > reusedMultiplier {
			reusedMultiplier = p.prev.Multiplier
		}
		displayUnit = LargerUnit(displayUnit, p.unit)
	}

	now := e.now()

	// The replayed sentence is the sum of the prior base durations. The
	// multiplier is carried for display only, never reapplied.
	finalValue := int64(math.Floor(totalHours / HoursPer(displayUnit)))
	expiry := now.Add(time.Duration(totalHours * float64(time.Hour))).Unix()

	punishments := make([]model.PunishmentRecord, 0, len(priors))
	for _, p := range priors {
		punishments = append(punishments, model.PunishmentRecord{
			UserID:           userID,
			UserUsername:     username,
			IP:               ip,
			Reason:           p.prev.Reason,
			BaseAmount:       p.prev.BaseAmount,
			Unit:             p.unit,
			Points:           0,
			Multiplier:       p.prev.Multiplier,
			FinalDuration:    p.prev.FinalDuration,
			Stage:            p.prev.Stage,
			TotalPointsAtBan: p.prev.TotalPointsAtBan,
			AdminID:          adminID,
			CreatedAt:        now.Unix(),
		})
	}
	if err := e.store.InsertPunishments(punishments, nil); err != nil {
		return nil, fmt.Errorf("failed to persist reused punishment records: %w", err)
	}

	return &Result{
		FinalValue:    finalValue,
		BaseValue:     totalHours / HoursPer(displayUnit),
		DisplayUnit:   displayUnit,
		CompactToken:  FormatCompact(finalValue, displayUnit),
		TotalPoints:   0,
		DecayedPoints: 0,
		Multiplier:    reusedMultiplier,
		ExpiryEpoch:   expiry,
		Reasons:       reasons,
	}, nil
}

// decayedPoints applies discrete exponential decay to each infraction and
// sums the result, rounded to two decimals. Decay steps down once per
// whole elapsed period; age is never interpolated within a period.
func (e *Engine) decayedPoints(infractions []model.InfractionRecord, now time.Time) float64 {
	policy := e.currentPolicy()
	period := policy.DecayPeriod().Seconds()
	if period <= 0 {
		period = (60 * 24 * time.Hour).Seconds()
	}
	factor := policy.DecayFactor
	if factor <= 0 {
		factor = 0.95
	}
	var total float64
	for _, inf := range infractions {
		age := now.Unix() - inf.Timestamp
		if age < 0 {
			age = 0
		}
		periods := math.Floor(float64(age) / period)
		total += inf.Points * math.Pow(factor, periods)
	}
	return math.Round(total*100) / 100
}

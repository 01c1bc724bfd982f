package punish

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"punish-bot/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store double. Keys are "reason#stage" for the
// catalog and "user#reason" for stages and latest punishments.
type fakeStore struct {
	catalog     map[string]model.CatalogEntry
	stages      map[string]int
	latest      map[string]model.PunishmentRecord
	infractions []model.InfractionRecord

	insertedPunishments []model.PunishmentRecord
	insertedInfractions []model.InfractionRecord
	insertErr           error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		catalog: make(map[string]model.CatalogEntry),
		stages:  make(map[string]int),
		latest:  make(map[string]model.PunishmentRecord),
	}
}

func (f *fakeStore) addTemplate(reason string, stage int, amount float64, unit string, points float64) {
	f.catalog[fmt.Sprintf("%s#%d", reason, stage)] = model.CatalogEntry{
		Reason: reason, Stage: stage, Amount: amount, Unit: unit, Points: points,
	}
}

func (f *fakeStore) GetCatalogEntry(reason string, stage int) (*model.CatalogEntry, error) {
	if entry, ok := f.catalog[fmt.Sprintf("%s#%d", reason, stage)]; ok {
		return &entry, nil
	}
	return nil, nil
}

func (f *fakeStore) GetCurrentStage(userID, reason string) (int, error) {
	if stage, ok := f.stages[userID+"#"+reason]; ok {
		return stage, nil
	}
	return 1, nil
}

func (f *fakeStore) GetLatestPunishment(userID, reason string) (*model.PunishmentRecord, error) {
	if rec, ok := f.latest[userID+"#"+reason]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (f *fakeStore) ListInfractions(userID string) ([]model.InfractionRecord, error) {
	return f.infractions, nil
}

func (f *fakeStore) InsertPunishments(punishments []model.PunishmentRecord, infractions []model.InfractionRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.insertedPunishments = append(f.insertedPunishments, punishments...)
	f.insertedInfractions = append(f.insertedInfractions, infractions...)
	return nil
}

func newTestEngine(store *fakeStore, policy model.Policy) *Engine {
	e := New(store, policy)
	e.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return e
}

func TestFreshFirstOffense(t *testing.T) {
	// Catalog: ("spam", 1) → 3 days, 2 points; user has no history.
	store := newFakeStore()
	store.addTemplate("spam", 1, 3, model.UnitDays, 2)
	e := newTestEngine(store, model.DefaultPolicy())

	result, err := e.ApplyFresh("u1", "alice", "1.2.3.4", "mod1", []string{"spam"})
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.FinalValue)
	assert.Equal(t, model.UnitDays, result.DisplayUnit)
	assert.Equal(t, "3d", result.CompactToken)
	assert.Equal(t, 2.0, result.TotalPoints)
	assert.Equal(t, 0.0, result.DecayedPoints)
	assert.Equal(t, 1.0, result.Multiplier)
	assert.Equal(t, int64(1_700_000_000+72*3600), result.ExpiryEpoch)

	require.Len(t, store.insertedPunishments, 1)
	rec := store.insertedPunishments[0]
	assert.Equal(t, 1, rec.Stage)
	assert.Equal(t, int64(3), rec.FinalDuration)
	assert.Equal(t, 0.0, rec.TotalPointsAtBan)

	require.Len(t, store.insertedInfractions, 1)
	assert.Equal(t, 2.0, store.insertedInfractions[0].Points)
	assert.Equal(t, "spam", store.insertedInfractions[0].Context)
}

func TestFreshDecayedHistoryMultiplier(t *testing.T) {
	// Decayed total 15 → multiplier log2(16) = 4; 72 base hours → 288
	// final hours → 12 days.
	store := newFakeStore()
	store.addTemplate("spam", 1, 3, model.UnitDays, 2)
	e := newTestEngine(store, model.DefaultPolicy())
	store.infractions = []model.InfractionRecord{
		{UserID: "u1", Points: 15, Timestamp: e.now().Unix()},
	}

	result, err := e.ApplyFresh("u1", "alice", "1.2.3.4", "mod1", []string{"spam"})
	require.NoError(t, err)

	assert.Equal(t, 15.0, result.DecayedPoints)
	assert.Equal(t, 4.0, result.Multiplier)
	assert.Equal(t, int64(12), result.FinalValue)
	assert.Equal(t, model.UnitDays, result.DisplayUnit)
	assert.Equal(t, "12d", result.CompactToken)
}

func TestFreshMultiReasonAggregation(t *testing.T) {
	// 12 hours + 1 day = 36 hours, displayed in the larger unit: 1 day.
	store := newFakeStore()
	store.addTemplate("spam", 1, 12, model.UnitHours, 1)
	store.addTemplate("harassment", 1, 1, model.UnitDays, 3)
	e := newTestEngine(store, model.DefaultPolicy())

	result, err := e.ApplyFresh("u1", "alice", "", "mod1", []string{"spam", "harassment"})
	require.NoError(t, err)

	assert.Equal(t, model.UnitDays, result.DisplayUnit)
	assert.Equal(t, int64(1), result.FinalValue)
	assert.Equal(t, 4.0, result.TotalPoints)
	assert.InDelta(t, 1.5, result.BaseValue, 1e-9)

	// Every reason shares the invocation multiplier and decay snapshot.
	require.Len(t, store.insertedPunishments, 2)
	assert.Equal(t, store.insertedPunishments[0].Multiplier, store.insertedPunishments[1].Multiplier)
	assert.Equal(t, store.insertedPunishments[0].TotalPointsAtBan, store.insertedPunishments[1].TotalPointsAtBan)
	require.Len(t, store.insertedInfractions, 2)
}

func TestFreshAllOrNothing(t *testing.T) {
	// Reason B has no template: nothing for reason A may be written.
	store := newFakeStore()
	store.addTemplate("spam", 1, 3, model.UnitDays, 2)
	e := newTestEngine(store, model.DefaultPolicy())

	_, err := e.ApplyFresh("u1", "alice", "", "mod1", []string{"spam", "griefing"})

	var tmplErr *TemplateNotFoundError
	require.ErrorAs(t, err, &tmplErr)
	assert.Equal(t, "griefing", tmplErr.Reason)
	assert.Equal(t, 1, tmplErr.Stage)
	assert.Empty(t, store.insertedPunishments)
	assert.Empty(t, store.insertedInfractions)
}

func TestFreshEmptyReasonSet(t *testing.T) {
	e := newTestEngine(newFakeStore(), model.DefaultPolicy())
	_, err := e.ApplyFresh("u1", "alice", "", "mod1", nil)
	assert.ErrorIs(t, err, ErrEmptyReasonSet)

	_, err = e.ApplyReused("u1", "alice", "", "mod1", []string{})
	assert.ErrorIs(t, err, ErrEmptyReasonSet)
}

func TestFreshUsesStoreStageWithoutReincrement(t *testing.T) {
	// The store already returns the next stage to apply.
	store := newFakeStore()
	store.stages["u1#spam"] = 4
	store.addTemplate("spam", 4, 14, model.UnitDays, 8)
	e := newTestEngine(store, model.DefaultPolicy())

	result, err := e.ApplyFresh("u1", "alice", "", "mod1", []string{"spam"})
	require.NoError(t, err)

	assert.Equal(t, int64(14), result.FinalValue)
	require.Len(t, store.insertedPunishments, 1)
	assert.Equal(t, 4, store.insertedPunishments[0].Stage)
}

func TestSingleReasonShortcutFlag(t *testing.T) {
	// With the legacy shortcut on, a single-reason submission skips the
	// history entirely even when decayed points exist.
	store := newFakeStore()
	store.addTemplate("spam", 1, 3, model.UnitDays, 2)
	policy := model.DefaultPolicy()
	policy.SingleReasonFlatMultiplier = true
	e := newTestEngine(store, policy)
	store.infractions = []model.InfractionRecord{
		{UserID: "u1", Points: 100, Timestamp: e.now().Unix()},
	}

	result, err := e.ApplyFresh("u1", "alice", "", "mod1", []string{"spam"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Multiplier)
	assert.Equal(t, 0.0, result.DecayedPoints)
	assert.Equal(t, int64(3), result.FinalValue)

	// Two reasons fall back to the general formula.
	store.addTemplate("harassment", 1, 1, model.UnitDays, 3)
	result, err = e.ApplyFresh("u1", "alice", "", "mod1", []string{"spam", "harassment"})
	require.NoError(t, err)
	assert.Greater(t, result.Multiplier, 1.0)
}

func TestReusedReplaysPriorSentence(t *testing.T) {
	// Prior record: 5 days at multiplier 2.0. The replay is 5 days exactly;
	// the multiplier is informational and never reapplied.
	store := newFakeStore()
	store.latest["u1#spam"] = model.PunishmentRecord{
		UserID: "u1", Reason: "spam", BaseAmount: 5, Unit: model.UnitDays,
		Multiplier: 2.0, Stage: 2, TotalPointsAtBan: 9.5, FinalDuration: 10,
	}
	e := newTestEngine(store, model.DefaultPolicy())

	result, err := e.ApplyReused("u1", "alice", "5.6.7.8", "mod1", []string{"spam"})
	require.NoError(t, err)

	assert.Equal(t, int64(5), result.FinalValue)
	assert.Equal(t, model.UnitDays, result.DisplayUnit)
	assert.Equal(t, "5d", result.CompactToken)
	assert.Equal(t, 2.0, result.Multiplier)
	assert.Equal(t, 0.0, result.TotalPoints)

	require.Len(t, store.insertedPunishments, 1)
	rec := store.insertedPunishments[0]
	assert.Equal(t, 0.0, rec.Points)
	assert.Equal(t, 2.0, rec.Multiplier)
	assert.Equal(t, 9.5, rec.TotalPointsAtBan)
	assert.Equal(t, 2, rec.Stage)
	// The stored duration is copied from the prior row, not recomputed
	// from the base amount.
	assert.Equal(t, int64(10), rec.FinalDuration)

	// Reuse never charges points toward future decay.
	assert.Empty(t, store.insertedInfractions)
}

func TestReusedUnitFallbackChain(t *testing.T) {
	// Legacy prior row without a unit: fall back to the catalog entry at
	// the prior's stage, then to days.
	store := newFakeStore()
	store.latest["u1#spam"] = model.PunishmentRecord{
		UserID: "u1", Reason: "spam", BaseAmount: 2, Stage: 3, Multiplier: 1.0,
	}
	store.addTemplate("spam", 3, 2, model.UnitWeeks, 5)
	e := newTestEngine(store, model.DefaultPolicy())

	result, err := e.ApplyReused("u1", "alice", "", "mod1", []string{"spam"})
	require.NoError(t, err)
	assert.Equal(t, model.UnitWeeks, result.DisplayUnit)
	assert.Equal(t, int64(2), result.FinalValue)

	// No catalog fallback either: default to days.
	store2 := newFakeStore()
	store2.latest["u1#spam"] = model.PunishmentRecord{
		UserID: "u1", Reason: "spam", BaseAmount: 2, Stage: 3, Multiplier: 1.0,
	}
	e2 := newTestEngine(store2, model.DefaultPolicy())
	result, err = e2.ApplyReused("u1", "alice", "", "mod1", []string{"spam"})
	require.NoError(t, err)
	assert.Equal(t, model.UnitDays, result.DisplayUnit)
	assert.Equal(t, int64(2), result.FinalValue)
}

func TestReusedNoPrior(t *testing.T) {
	store := newFakeStore()
	store.latest["u1#spam"] = model.PunishmentRecord{
		UserID: "u1", Reason: "spam", BaseAmount: 5, Unit: model.UnitDays, Multiplier: 1.0,
	}
	e := newTestEngine(store, model.DefaultPolicy())

	_, err := e.ApplyReused("u1", "alice", "", "mod1", []string{"spam", "griefing"})

	var priorErr *NoPriorPunishmentError
	require.ErrorAs(t, err, &priorErr)
	assert.Equal(t, "griefing", priorErr.Reason)
	assert.Empty(t, store.insertedPunishments)
}

func TestSetPolicyAppliesInPlace(t *testing.T) {
	// A policy swap takes effect on the next invocation without building a
	// new engine.
	store := newFakeStore()
	store.addTemplate("spam", 1, 3, model.UnitDays, 2)
	e := newTestEngine(store, model.DefaultPolicy())
	store.infractions = []model.InfractionRecord{
		{UserID: "u1", Points: 15, Timestamp: e.now().Unix()},
	}

	result, err := e.ApplyFresh("u1", "alice", "", "mod1", []string{"spam"})
	require.NoError(t, err)
	assert.Equal(t, 4.0, result.Multiplier)

	shortcut := model.DefaultPolicy()
	shortcut.SingleReasonFlatMultiplier = true
	e.SetPolicy(shortcut)

	result, err = e.ApplyFresh("u1", "alice", "", "mod1", []string{"spam"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Multiplier)
}

func TestSetPolicyConcurrentWithInvocations(t *testing.T) {
	// Policy swaps race against in-flight invocations for the same user;
	// the shared per-user lock keeps the store writes serialized.
	store := newFakeStore()
	store.addTemplate("spam", 1, 3, model.UnitDays, 2)
	e := newTestEngine(store, model.DefaultPolicy())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.ApplyFresh("u1", "alice", "", "mod1", []string{"spam"})
			assert.NoError(t, err)
		}()
	}
	for i := 0; i < 8; i++ {
		policy := model.DefaultPolicy()
		policy.SingleReasonFlatMultiplier = i%2 == 0
		e.SetPolicy(policy)
	}
	wg.Wait()

	assert.Len(t, store.insertedPunishments, 8)
}

func TestDecayZeroValuePolicyDefaults(t *testing.T) {
	// A zero-value policy must not zero out history: period and factor
	// both fall back to their defaults.
	e := newTestEngine(newFakeStore(), model.Policy{})
	now := e.now()

	aged := e.decayedPoints([]model.InfractionRecord{
		{Points: 10, Timestamp: now.Unix() - 60*24*3600},
	}, now)
	assert.Equal(t, 9.5, aged)
}

func TestDecayDiscretePeriods(t *testing.T) {
	policy := model.DefaultPolicy()
	e := newTestEngine(newFakeStore(), policy)
	now := e.now()
	period := int64(policy.DecayPeriod().Seconds())

	// Just under one period: no decay yet.
	fresh := e.decayedPoints([]model.InfractionRecord{
		{Points: 10, Timestamp: now.Unix() - period + 1},
	}, now)
	assert.Equal(t, 10.0, fresh)

	// Exactly one period: one decay step.
	aged := e.decayedPoints([]model.InfractionRecord{
		{Points: 10, Timestamp: now.Unix() - period},
	}, now)
	assert.Equal(t, 9.5, aged)

	// Rounded to two decimals.
	twoPeriods := e.decayedPoints([]model.InfractionRecord{
		{Points: 10, Timestamp: now.Unix() - 2*period},
	}, now)
	assert.Equal(t, 9.03, twoPeriods)
}

func TestDecayMonotonicInAge(t *testing.T) {
	e := newTestEngine(newFakeStore(), model.DefaultPolicy())
	now := e.now()

	prev := e.decayedPoints([]model.InfractionRecord{{Points: 20, Timestamp: now.Unix()}}, now)
	for ageDays := int64(30); ageDays <= 600; ageDays += 30 {
		current := e.decayedPoints([]model.InfractionRecord{
			{Points: 20, Timestamp: now.Unix() - ageDays*24*3600},
		}, now)
		assert.LessOrEqual(t, current, prev, "age %d days", ageDays)
		prev = current
	}
}

func TestMultiplierFloorAtOne(t *testing.T) {
	e := newTestEngine(newFakeStore(), model.DefaultPolicy())
	now := e.now()

	// log2(0+1) = 0 must clamp to 1, and small totals stay clamped until
	// decayed points exceed 1 (log2(2) = 1).
	for _, points := range []float64{0, 0.2, 1} {
		var infractions []model.InfractionRecord
		if points > 0 {
			infractions = []model.InfractionRecord{{Points: points, Timestamp: now.Unix()}}
		}
		store := newFakeStore()
		store.addTemplate("spam", 1, 3, model.UnitDays, 2)
		store.infractions = infractions
		engine := newTestEngine(store, model.DefaultPolicy())

		result, err := engine.ApplyFresh("u1", "alice", "", "mod1", []string{"spam"})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.Multiplier, 1.0, "points %v", points)
	}
}

func TestFreshInsertFailureSurfaces(t *testing.T) {
	store := newFakeStore()
	store.addTemplate("spam", 1, 3, model.UnitDays, 2)
	store.insertErr = errors.New("disk full")
	e := newTestEngine(store, model.DefaultPolicy())

	_, err := e.ApplyFresh("u1", "alice", "", "mod1", []string{"spam"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
}

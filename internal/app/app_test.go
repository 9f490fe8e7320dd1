package app

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdo34/fuel/internal/logging"
	"github.com/rdo34/fuel/internal/model"
	"github.com/rdo34/fuel/internal/store"
)

type flakyKV struct {
	*store.MemStore
	fail bool
}

func (f *flakyKV) Set(key string, value []byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemStore.Set(key, value)
}

func newTestApp(t *testing.T) (*App, *flakyKV) {
	t.Helper()
	return newTestAppWith(t, "")
}

// newTestAppWith seeds the log slot with raw before loading.
func newTestAppWith(t *testing.T, raw string) (*App, *flakyKV) {
	t.Helper()
	kv := &flakyKV{MemStore: store.NewMemStore()}
	if raw != "" {
		require.NoError(t, kv.Set(store.LogKey, []byte(raw)))
	}
	n := 0
	a := New(store.NewLog(kv, logging.Discard()), Options{
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
		Now:    func() time.Time { return time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC) },
		Logger: logging.Discard(),
	})
	a.Load()
	return a, kv
}

func input(date, liters, amount, rate, meter string) Input {
	return Input{Date: date, Liters: liters, Amount: amount, Rate: rate, Meter: meter}
}

func mustSubmit(t *testing.T, a *App, in Input) model.Entry {
	t.Helper()
	res, err := a.Dispatch(Submit{Input: in})
	require.NoError(t, err)
	require.True(t, res.Changed)
	return res.Entry
}

func TestSubmit_CreatesAndRecomputes(t *testing.T) {
	a, _ := newTestApp(t)
	first := mustSubmit(t, a, input("2024-03-01", "4", "400", "100", "1000"))
	assert.Equal(t, "id-1", first.ID)
	assert.Nil(t, first.Mileage)

	second := mustSubmit(t, a, input("2024-03-15", "4", "420", "105", "1200"))
	require.NotNil(t, second.Mileage)
	assert.Equal(t, 50.0, *second.Mileage)
	assert.Equal(t, 2.1, *second.Cost)
	assert.Equal(t, Creating{}, a.Mode())
}

func TestSubmit_PersistsCanonicalOrder(t *testing.T) {
	a, kv := newTestApp(t)
	mustSubmit(t, a, input("2024-03-15", "4", "420", "105", "1200"))
	mustSubmit(t, a, input("2024-03-01", "4", "400", "100", "1000"))

	reloaded := store.NewLog(kv, logging.Discard()).Load()
	require.Len(t, reloaded, 2)
	assert.Equal(t, int64(1000), reloaded[0].Meter)
	assert.Equal(t, int64(1200), reloaded[1].Meter)
	require.NotNil(t, reloaded[1].Mileage)
	assert.Equal(t, 50.0, *reloaded[1].Mileage)
}

func TestSubmit_Validation(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := a.Dispatch(Submit{Input: input("", "abc", "400", "-1", "1.5")})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"date", "liters", "rate", "meter"}, ve.Fields)
	assert.Contains(t, err.Error(), "Please fill in valid values for all fields.")
	assert.Empty(t, a.Entries())
}

func TestSubmit_RejectsBadDateFormat(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := a.Dispatch(Submit{Input: input("03/01/2024", "4", "400", "100", "1000")})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"date"}, ve.Fields)
}

func TestSubmit_CapacityConfirmation(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := a.Dispatch(Submit{Input: input("2024-03-01", "6", "600", "100", "1000")})

	c, ok := IsConfirmation(err)
	require.True(t, ok)
	assert.Contains(t, c.Prompt, "6 L")
	assert.Contains(t, c.Prompt, "tank capacity (5 L)")
	assert.Empty(t, a.Entries(), "declining must not create anything")

	res, err := a.Dispatch(c.Retry)
	require.NoError(t, err)
	assert.Equal(t, 6.0, res.Entry.Liters)
	assert.Len(t, a.Entries(), 1)
}

func TestSubmit_AtCapacityNeedsNoConfirmation(t *testing.T) {
	a, _ := newTestApp(t)
	mustSubmit(t, a, input("2024-03-01", "5", "500", "100", "1000"))
}

func TestEdit_ReplacesInPlace(t *testing.T) {
	a, _ := newTestApp(t)
	e := mustSubmit(t, a, input("2024-03-01", "4", "400", "100", "1000"))
	mustSubmit(t, a, input("2024-03-15", "4", "420", "105", "1200"))

	res, err := a.Dispatch(RequestEdit{ID: e.ID})
	require.NoError(t, err)
	assert.Equal(t, Editing{ID: e.ID}, a.Mode())
	assert.Equal(t, "1000", InputFrom(res.Entry).Meter)

	in := InputFrom(res.Entry)
	in.Meter = "1100"
	updated := mustSubmit(t, a, in)
	assert.Equal(t, e.ID, updated.ID)
	assert.Equal(t, Creating{}, a.Mode())
	require.Len(t, a.Entries(), 2)

	later := a.Entries()[1]
	require.NotNil(t, later.Mileage)
	assert.Equal(t, 25.0, *later.Mileage)
}

func TestRequestEdit_UnknownIsNoop(t *testing.T) {
	a, _ := newTestApp(t)
	res, err := a.Dispatch(RequestEdit{ID: "ghost"})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, Creating{}, a.Mode())
}

func TestCancelEdit(t *testing.T) {
	a, _ := newTestApp(t)
	e := mustSubmit(t, a, input("2024-03-01", "4", "400", "100", "1000"))
	_, _ = a.Dispatch(RequestEdit{ID: e.ID})
	_, err := a.Dispatch(CancelEdit{})
	require.NoError(t, err)
	assert.Equal(t, Creating{}, a.Mode())
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	a, _ := newTestApp(t)
	e := mustSubmit(t, a, input("2024-03-01", "4", "400", "100", "1000"))
	mustSubmit(t, a, input("2024-03-15", "4", "420", "105", "1200"))

	_, err := a.Dispatch(RequestDelete{ID: e.ID})
	c, ok := IsConfirmation(err)
	require.True(t, ok)
	assert.Equal(t, "Are you sure you want to delete this entry?", c.Prompt)
	assert.Len(t, a.Entries(), 2)

	_, err = a.Dispatch(c.Retry)
	require.NoError(t, err)
	require.Len(t, a.Entries(), 1)
	assert.Nil(t, a.Entries()[0].Mileage, "remaining entry is now the first")
}

func TestDelete_EntryBeingEditedLeavesEditMode(t *testing.T) {
	a, _ := newTestApp(t)
	e := mustSubmit(t, a, input("2024-03-01", "4", "400", "100", "1000"))
	_, _ = a.Dispatch(RequestEdit{ID: e.ID})
	_, err := a.Dispatch(RequestDelete{ID: e.ID, Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, Creating{}, a.Mode())
}

func TestDelete_UnknownIsNoop(t *testing.T) {
	a, _ := newTestApp(t)
	res, err := a.Dispatch(RequestDelete{ID: "ghost"})
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestSaveFailureLeavesStateUnchanged(t *testing.T) {
	a, kv := newTestApp(t)
	e := mustSubmit(t, a, input("2024-03-01", "4", "400", "100", "1000"))
	_, _ = a.Dispatch(RequestEdit{ID: e.ID})
	before := a.State()

	kv.fail = true
	_, err := a.Dispatch(Submit{Input: input("2024-03-02", "3", "300", "100", "900")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, before, a.State())

	_, err = a.Dispatch(RequestDelete{ID: e.ID, Confirmed: true})
	require.Error(t, err)
	assert.Equal(t, before, a.State())
}

func TestLoad_RecomputesPersistedEntries(t *testing.T) {
	kv := store.NewMemStore()
	require.NoError(t, kv.Set(store.LogKey, []byte(`[
		{"id":1710000000000,"date":"2024-03-15","liters":"4","amount":"420","rate":"105","meter":"1200","mileage":999},
		{"id":"a","date":"2024-03-01","liters":4,"amount":400,"rate":100,"meter":1000}
	]`)))
	a := New(store.NewLog(kv, logging.Discard()), Options{Logger: logging.Discard()})
	a.Load()

	got := a.Entries()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "1710000000000", got[1].ID)
	require.NotNil(t, got[1].Mileage)
	assert.Equal(t, 50.0, *got[1].Mileage)
}

func TestLoad_RepairsDuplicateAndMissingIDs(t *testing.T) {
	a, kv := newTestAppWith(t, `[
		{"id":1,"date":"2024-03-01","liters":4,"amount":400,"rate":100,"meter":100},
		{"id":1,"date":"2024-03-10","liters":10,"amount":1000,"rate":100,"meter":300},
		{"date":"2024-03-20","liters":5,"amount":500,"rate":100,"meter":500},
		null
	]`)

	got := a.Entries()
	require.Len(t, got, 3)
	assert.Equal(t, "1", got[0].ID)
	assert.Nil(t, got[0].Mileage, "first fill has no mileage")
	assert.Equal(t, "id-1", got[1].ID)
	require.NotNil(t, got[1].Mileage)
	assert.Equal(t, 20.0, *got[1].Mileage)
	assert.Equal(t, "id-2", got[2].ID)

	persisted := store.NewLog(kv, logging.Discard()).Load()
	require.Len(t, persisted, 3)
	assert.Equal(t, []string{"1", "id-1", "id-2"}, []string{persisted[0].ID, persisted[1].ID, persisted[2].ID})

	_, err := a.Dispatch(RequestDelete{ID: "1", Confirmed: true})
	require.NoError(t, err)
	assert.Len(t, a.Entries(), 2)
}

func TestLoad_CleanLogIsNotRewritten(t *testing.T) {
	raw := `[{"id":"a","date":"2024-03-01","liters":4,"amount":400,"rate":100,"meter":1000}]`
	a, kv := newTestAppWith(t, raw)
	require.Len(t, a.Entries(), 1)

	b, err := kv.Get(store.LogKey)
	require.NoError(t, err)
	assert.Equal(t, raw, string(b))
}

func TestSummaryUsesMonth(t *testing.T) {
	a, _ := newTestApp(t)
	mustSubmit(t, a, input("2024-02-25", "4", "380", "95", "800"))
	mustSubmit(t, a, input("2024-03-01", "4", "400", "100", "1000"))
	mustSubmit(t, a, input("2024-03-15", "4", "420", "105", "1200"))

	s := a.Summary(a.CurrentMonth())
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 820.0, s.TotalCost)
	assert.Equal(t, 8.0, s.TotalLiters)
	require.NotNil(t, s.AvgMileage)
	assert.Equal(t, 50.0, *s.AvgMileage)

	feb := a.Summary(model.Month{Year: 2024, Month: time.February})
	assert.Equal(t, 1, feb.Count)
	assert.Nil(t, feb.AvgMileage)
}

func TestImport_AssignsMissingAndDuplicateIDs(t *testing.T) {
	a, _ := newTestApp(t)
	mustSubmit(t, a, input("2024-03-01", "4", "400", "100", "1000"))

	n, err := a.Import([]model.Entry{
		{ID: "id-1", Date: "2024-03-10", Liters: 3, Amount: 300, Rate: 100, Meter: 1150},
		{Date: "2024-03-15", Liters: 4, Amount: 420, Rate: 105, Meter: 1200},
		{ID: "keep", Date: "2024-03-20", Liters: 2, Amount: 210, Rate: 105, Meter: 1300},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var ids []string
	for _, e := range a.Entries() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"id-1", "id-2", "id-3", "keep"}, ids)
}

func TestImport_RejectsInvalidRecords(t *testing.T) {
	a, kv := newTestApp(t)
	mustSubmit(t, a, input("2024-03-01", "4", "400", "100", "1000"))
	before, err := kv.Get(store.LogKey)
	require.NoError(t, err)

	n, err := a.Import([]model.Entry{
		{ID: "ok", Date: "2024-03-10", Liters: 3, Amount: 300, Rate: 100, Meter: 1150},
		{ID: "nodate", Liters: 3, Amount: 300, Rate: 100, Meter: 1200},
		{ID: "neg", Date: "2024-03-12", Liters: -1, Amount: -5, Rate: 100, Meter: 1300},
	})
	assert.Zero(t, n)
	var ie *ImportError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 3, ie.Total)
	assert.Equal(t, []Rejected{
		{Index: 1, Fields: []string{"date"}},
		{Index: 2, Fields: []string{"liters", "amount"}},
	}, ie.Rejected)
	assert.EqualError(t, err, "2 of 3 records invalid: #2 (date); #3 (liters, amount)")

	assert.Len(t, a.Entries(), 1)
	after, err := kv.Get(store.LogKey)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestLookup(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := a.Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownEntry)
}

func TestDefaultIDsAreUnique(t *testing.T) {
	a := New(store.NewLog(store.NewMemStore(), logging.Discard()), Options{})
	x, y := a.newID(), a.newID()
	assert.NotEqual(t, x, y)
	assert.Len(t, x, 36)
}

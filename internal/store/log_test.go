package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdo34/fuel/internal/model"
)

type failingKV struct{ MemStore }

func (f *failingKV) Get(string) ([]byte, error) { return nil, errors.New("disk on fire") }
func (f *failingKV) Set(string, []byte) error   { return errors.New("disk on fire") }

func TestLog_LoadAbsent(t *testing.T) {
	l := NewLog(NewMemStore(), nil)
	got := l.Load()
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLog_LoadCorrupt(t *testing.T) {
	for name, raw := range map[string]string{
		"garbage": "{not json",
		"object":  `{"id":"a"}`,
		"null":    "null",
	} {
		t.Run(name, func(t *testing.T) {
			kv := NewMemStore()
			require.NoError(t, kv.Set(LogKey, []byte(raw)))
			got := NewLog(kv, nil).Load()
			require.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestLog_LoadSkipsNonObjectElements(t *testing.T) {
	kv := NewMemStore()
	require.NoError(t, kv.Set(LogKey, []byte(`[{"id":"a","meter":100}, null, 3, "x", {"id":true,"meter":200}, {"meter":500}]`)))

	got := NewLog(kv, nil).Load()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, int64(100), got[0].Meter)
	assert.Equal(t, "", got[1].ID)
	assert.Equal(t, int64(500), got[1].Meter)
}

func TestLog_LoadReadError(t *testing.T) {
	got := NewLog(&failingKV{}, nil).Load()
	assert.Empty(t, got)
}

func TestLog_SaveLoadRoundTrip(t *testing.T) {
	kv := NewMemStore()
	l := NewLog(kv, nil)
	m := 20.0
	in := []model.Entry{
		{ID: "a", Date: "2024-01-01", Liters: 5, Amount: 500, Rate: 100, Meter: 100},
		{ID: "b", Date: "2024-01-09", Liters: 10, Amount: 1000, Rate: 100, Meter: 300, Mileage: &m},
	}
	require.NoError(t, l.Save(in))
	assert.Equal(t, in, l.Load())
}

func TestLog_SaveNilWritesEmptyArray(t *testing.T) {
	kv := NewMemStore()
	require.NoError(t, NewLog(kv, nil).Save(nil))
	b, err := kv.Get(LogKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestLog_SaveError(t *testing.T) {
	err := NewLog(&failingKV{}, nil).Save([]model.Entry{{ID: "a"}})
	assert.ErrorContains(t, err, "write fuel log")
}

func TestUpsert(t *testing.T) {
	entries := []model.Entry{{ID: "a", Meter: 1}, {ID: "b", Meter: 2}}

	replaced := Upsert(entries, model.Entry{ID: "a", Meter: 10, Liters: 3})
	require.Len(t, replaced, 2)
	assert.Equal(t, model.Entry{ID: "a", Meter: 10, Liters: 3}, replaced[0])
	assert.Equal(t, int64(1), entries[0].Meter, "input untouched")

	appended := Upsert(entries, model.Entry{ID: "c"})
	require.Len(t, appended, 3)
	assert.Equal(t, "c", appended[2].ID)
}

func TestRemove(t *testing.T) {
	entries := []model.Entry{{ID: "a"}, {ID: "b"}}

	assert.Equal(t, entries, Remove(entries, "zzz"))
	assert.Equal(t, []model.Entry{{ID: "b"}}, Remove(entries, "a"))
	assert.Equal(t, []model.Entry{{ID: "a"}, {ID: "b"}}, entries)
}

package store

import (
	"encoding/json"
	"errors"
)

// PrefsKey is the slot holding UI preferences.
const PrefsKey = "fuelPrefs"

type Preferences struct {
	LastMonth  string `json:"last_month"` // YYYY-MM
	TableWidth int    `json:"table_width,omitempty"`
}

// LoadPreferences returns ErrNotFound when nothing has been saved yet.
func LoadPreferences(kv KV) (Preferences, error) {
	var p Preferences
	b, err := kv.Get(PrefsKey)
	if err != nil {
		return p, err
	}
	err = json.Unmarshal(b, &p)
	return p, err
}

func SavePreferences(kv KV, p Preferences) error {
	if kv == nil {
		return errors.New("store: nil kv")
	}
	b, err := json.MarshalIndent(&p, "", "  ")
	if err != nil {
		return err
	}
	return kv.Set(PrefsKey, b)
}

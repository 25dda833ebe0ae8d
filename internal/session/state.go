package session

import (
	"encoding/json"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// State is the portion of the session that must survive a restart: how
// much cash has been committed to each symbol since its last sell.
type State struct {
	CumulativeBuys map[string]decimal.Decimal `json:"cumulative_buys"`
	UpdatedAt      time.Time                  `json:"updated_at"`
}

// LoadState reads the session state from a JSON file. Returns an empty
// state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{CumulativeBuys: map[string]decimal.Decimal{}}, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.CumulativeBuys == nil {
		state.CumulativeBuys = map[string]decimal.Decimal{}
	}
	return &state, nil
}

// SaveState writes the session state to a JSON file.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

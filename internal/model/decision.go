package model

// Action is the outcome of one evaluation cycle.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Decision pairs an action with the reason it fired and, for buy/sell,
// the percentage of available balance to commit. Hold always carries 0.
type Decision struct {
	Action     Action
	Percentage float64
	Reason     string
}

// Hold is the neutral decision returned when no signal fires or the
// series is too short to evaluate.
func Hold() Decision {
	return Decision{Action: ActionHold}
}

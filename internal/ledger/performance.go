package ledger

import "math"

// Performance computes the percentage change in account valuation
// across a window of trades: (final − initial) / initial × 100, where
// initial and final are the valuations of the earliest and latest
// records by timestamp. The window may be in either scan order. An
// empty window is 0%. A zero initial valuation makes the ratio
// undefined, reported as +Inf rather than a misleading 0%.
func Performance(trades []TradeRecord) float64 {
	if len(trades) == 0 {
		return 0
	}
	oldest, newest := &trades[0], &trades[0]
	for i := range trades[1:] {
		r := &trades[i+1]
		if earlier(r, oldest) {
			oldest = r
		}
		// On a full tie slice order decides, so an already-ascending
		// window keeps its boundary records.
		if !earlier(r, newest) {
			newest = r
		}
	}
	initial := oldest.Valuation()
	if initial == 0 {
		return math.Inf(1)
	}
	return (newest.Valuation() - initial) / initial * 100
}

// earlier orders records by timestamp, falling back to insertion order
// for trades written within the same second.
func earlier(a, b *TradeRecord) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.ID < b.ID
}

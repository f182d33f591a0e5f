// Package strategy is the fixed catalog of analysis strategies the backend
// accepts.
package strategy

// Key identifies a strategy on the wire.
type Key string

const (
	Swing    Key = "swing"
	Intraday Key = "intraday"
	Scalping Key = "scalping"
)

// Strategy pairs a wire key with its display texture.
type Strategy struct {
	Key         Key
	Name        string
	Description string
}

var catalog = []Strategy{
	{Key: Swing, Name: "Swing", Description: "position held 8-48 hours"},
	{Key: Intraday, Name: "Intraday", Description: "position held 4-24 hours"},
	{Key: Scalping, Name: "Scalping", Description: "position held 1-8 hours"},
}

// Catalog returns the strategies in presentation order.
func Catalog() []Strategy {
	out := make([]Strategy, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup resolves a wire key to its catalog entry.
func Lookup(key Key) (Strategy, bool) {
	for _, s := range catalog {
		if s.Key == key {
			return s, true
		}
	}
	return Strategy{}, false
}

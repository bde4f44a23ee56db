package entities

// WincasePair holds a wincase and its opposite
type WincasePair struct {
	First  Wincase `json:"first"`
	Second Wincase `json:"second"`
}

// NewWincasePair builds the pair for a wincase and its opposite
func NewWincasePair(w Wincase) WincasePair {
	return WincasePair{First: w, Second: w.CreateOpposite()}
}

// Contains reports whether w is either side of the pair
func (p WincasePair) Contains(w Wincase) bool {
	return p.First == w || p.Second == w
}

// Market is a kind plus the ordered set of wincase pairs offered for it
type Market struct {
	Kind     MarketKind    `json:"kind"`
	Wincases []WincasePair `json:"wincases"`
}

// Contains reports whether w is offered by the market
func (m Market) Contains(w Wincase) bool {
	for _, pair := range m.Wincases {
		if pair.Contains(w) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the market
func (m Market) Clone() Market {
	pairs := make([]WincasePair, len(m.Wincases))
	copy(pairs, m.Wincases)
	return Market{Kind: m.Kind, Wincases: pairs}
}

// CloneMarkets deep copies a market list
func CloneMarkets(markets []Market) []Market {
	if markets == nil {
		return nil
	}
	out := make([]Market, len(markets))
	for i, m := range markets {
		out[i] = m.Clone()
	}
	return out
}

// FindMarket returns the first market offering w
func FindMarket(markets []Market, w Wincase) (Market, bool) {
	for _, m := range markets {
		if m.Contains(w) {
			return m, true
		}
	}
	return Market{}, false
}

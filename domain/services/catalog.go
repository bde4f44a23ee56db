package services

import (
	"oddsmatch/config"
	"oddsmatch/domain/entities"
	"oddsmatch/domain/interfaces"
)

type catalogService struct {
	thresholdFactor int32
}

// NewCatalogService creates a catalog validator using the configured threshold factor
func NewCatalogService() interfaces.CatalogService {
	return &catalogService{thresholdFactor: config.Get().BettingThresholdFactor}
}

// ValidateGame fails unless every market kind is allowed for the sport
func (s *catalogService) ValidateGame(sport entities.Sport, markets []entities.Market) error {
	if !sport.IsValid() {
		return entities.NewValidationError("unknown sport %q", sport)
	}

	var rejected []entities.MarketKind
	for _, m := range markets {
		if !sport.AllowsMarket(m.Kind) {
			rejected = append(rejected, m.Kind)
		}
	}
	if len(rejected) > 0 {
		return entities.NewValidationError("markets %v cannot be used with %s game", rejected, sport)
	}
	return nil
}

// ValidateMarkets fails if the set is empty or any member is invalid
func (s *catalogService) ValidateMarkets(markets []entities.Market) error {
	if len(markets) == 0 {
		return entities.NewValidationError("markets list cannot be empty")
	}
	for _, m := range markets {
		if err := s.ValidateMarket(m); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMarket checks pair completeness and kind consistency
func (s *catalogService) ValidateMarket(market entities.Market) error {
	if len(market.Wincases) == 0 {
		return entities.NewValidationError("wincases list cannot be empty (market %s)", market.Kind)
	}

	for _, pair := range market.Wincases {
		if pair.First.CreateOpposite() != pair.Second {
			return entities.NewValidationError("wincases %s and %s are not opposite (market %s)", pair.First, pair.Second, market.Kind)
		}
		if err := s.ValidateWincase(pair.First, market.Kind); err != nil {
			return err
		}
		if err := s.ValidateWincase(pair.Second, market.Kind); err != nil {
			return err
		}
	}
	return nil
}

// ValidateWincase checks the intrinsic kind and threshold quantization
func (s *catalogService) ValidateWincase(wincase entities.Wincase, kind entities.MarketKind) error {
	if !wincase.Known() {
		return entities.NewValidationError("unknown wincase type %q", wincase.Type)
	}
	if wincase.MarketKind() != kind {
		return entities.NewValidationError("market %s from wincase %s doesn't equal specified market %s", wincase.MarketKind(), wincase, kind)
	}

	if wincase.HasThreshold() {
		half := s.thresholdFactor / 2
		if wincase.Threshold%half != 0 {
			return entities.NewValidationError("threshold %d of %s must be a multiple of %d", wincase.Threshold, wincase, half)
		}
		if requiresPositiveThreshold(kind) && wincase.Threshold <= 0 {
			return entities.NewValidationError("threshold of %s must be positive", wincase)
		}
	} else if wincase.Threshold != 0 {
		return entities.NewValidationError("wincase %s does not take a threshold", wincase)
	}

	if !wincase.HasScore() && (wincase.Home != 0 || wincase.Away != 0) {
		return entities.NewValidationError("wincase %s does not take a score", wincase)
	}
	return nil
}

// ValidateResults checks declared winners: each belongs to a game market, no
// wincase is declared together with its opposite, and every pair that cannot
// push has a winner once all declared results are merged
func (s *catalogService) ValidateResults(game *entities.Game, results []entities.Wincase) error {
	if len(results) == 0 {
		return entities.NewValidationError("results list cannot be empty")
	}

	declared := make(map[entities.Wincase]bool, len(game.Results)+len(results))
	ordered := make([]entities.Wincase, 0, len(game.Results)+len(results))
	for _, w := range game.Results {
		declared[w] = true
		ordered = append(ordered, w)
	}

	for _, w := range results {
		market, ok := game.FindMarket(w)
		if !ok {
			return entities.NewValidationError("wincase %s doesn't belong to game markets", w)
		}
		if err := s.ValidateWincase(w, market.Kind); err != nil {
			return err
		}
		declared[w] = true
		ordered = append(ordered, w)
	}

	for _, w := range ordered {
		if declared[w.CreateOpposite()] {
			return entities.NewValidationError("wincase %s cannot win together with its opposite", w)
		}
	}

	for _, m := range game.Markets {
		for _, pair := range m.Wincases {
			if declared[pair.First] || declared[pair.Second] {
				continue
			}
			if pair.First.HasThirdState(s.thresholdFactor) {
				continue
			}
			return entities.NewValidationError("market %s requires a winner for %s", m.Kind, pair.First)
		}
	}
	return nil
}

func requiresPositiveThreshold(kind entities.MarketKind) bool {
	return kind == entities.MarketKindTotal || kind == entities.MarketKindTotalGoals
}

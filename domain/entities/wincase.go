package entities

import (
	"fmt"
	"sort"
)

// MarketKind groups wincases that are priced and settled together
type MarketKind string

const (
	MarketKindResult       MarketKind = "result"
	MarketKindRound        MarketKind = "round"
	MarketKindHandicap     MarketKind = "handicap"
	MarketKindCorrectScore MarketKind = "correct_score"
	MarketKindGoal         MarketKind = "goal"
	MarketKindTotal        MarketKind = "total"
	MarketKindTotalGoals   MarketKind = "total_goals"
)

// WincaseType is the closed set of bettable outcome variants
type WincaseType string

const (
	WincaseResultHomeYes       WincaseType = "result_home_yes"
	WincaseResultHomeNo        WincaseType = "result_home_no"
	WincaseResultDrawYes       WincaseType = "result_draw_yes"
	WincaseResultDrawNo        WincaseType = "result_draw_no"
	WincaseResultAwayYes       WincaseType = "result_away_yes"
	WincaseResultAwayNo        WincaseType = "result_away_no"
	WincaseRoundHomeYes        WincaseType = "round_home_yes"
	WincaseRoundHomeNo         WincaseType = "round_home_no"
	WincaseHandicapOver        WincaseType = "handicap_over"
	WincaseHandicapUnder       WincaseType = "handicap_under"
	WincaseCorrectScoreHomeYes WincaseType = "correct_score_home_yes"
	WincaseCorrectScoreHomeNo  WincaseType = "correct_score_home_no"
	WincaseCorrectScoreDrawYes WincaseType = "correct_score_draw_yes"
	WincaseCorrectScoreDrawNo  WincaseType = "correct_score_draw_no"
	WincaseCorrectScoreAwayYes WincaseType = "correct_score_away_yes"
	WincaseCorrectScoreAwayNo  WincaseType = "correct_score_away_no"
	WincaseCorrectScoreYes     WincaseType = "correct_score_yes"
	WincaseCorrectScoreNo      WincaseType = "correct_score_no"
	WincaseGoalHomeYes         WincaseType = "goal_home_yes"
	WincaseGoalHomeNo          WincaseType = "goal_home_no"
	WincaseGoalBothYes         WincaseType = "goal_both_yes"
	WincaseGoalBothNo          WincaseType = "goal_both_no"
	WincaseGoalAwayYes         WincaseType = "goal_away_yes"
	WincaseGoalAwayNo          WincaseType = "goal_away_no"
	WincaseTotalOver           WincaseType = "total_over"
	WincaseTotalUnder          WincaseType = "total_under"
	WincaseTotalGoalsHomeOver  WincaseType = "total_goals_home_over"
	WincaseTotalGoalsHomeUnder WincaseType = "total_goals_home_under"
	WincaseTotalGoalsAwayOver  WincaseType = "total_goals_away_over"
	WincaseTotalGoalsAwayUnder WincaseType = "total_goals_away_under"
)

type payloadKind int

const (
	payloadNone payloadKind = iota
	payloadThreshold
	payloadScore
)

type wincaseInfo struct {
	kind     MarketKind
	opposite WincaseType
	payload  payloadKind
	ordinal  int
}

// wincaseCatalog is built once at init and never mutated afterwards
var wincaseCatalog = buildWincaseCatalog()

func buildWincaseCatalog() map[WincaseType]wincaseInfo {
	pairs := []struct {
		first, second WincaseType
		kind          MarketKind
		payload       payloadKind
	}{
		{WincaseResultHomeYes, WincaseResultHomeNo, MarketKindResult, payloadNone},
		{WincaseResultDrawYes, WincaseResultDrawNo, MarketKindResult, payloadNone},
		{WincaseResultAwayYes, WincaseResultAwayNo, MarketKindResult, payloadNone},
		{WincaseRoundHomeYes, WincaseRoundHomeNo, MarketKindRound, payloadNone},
		{WincaseHandicapOver, WincaseHandicapUnder, MarketKindHandicap, payloadThreshold},
		{WincaseCorrectScoreHomeYes, WincaseCorrectScoreHomeNo, MarketKindCorrectScore, payloadNone},
		{WincaseCorrectScoreDrawYes, WincaseCorrectScoreDrawNo, MarketKindCorrectScore, payloadNone},
		{WincaseCorrectScoreAwayYes, WincaseCorrectScoreAwayNo, MarketKindCorrectScore, payloadNone},
		{WincaseCorrectScoreYes, WincaseCorrectScoreNo, MarketKindCorrectScore, payloadScore},
		{WincaseGoalHomeYes, WincaseGoalHomeNo, MarketKindGoal, payloadNone},
		{WincaseGoalBothYes, WincaseGoalBothNo, MarketKindGoal, payloadNone},
		{WincaseGoalAwayYes, WincaseGoalAwayNo, MarketKindGoal, payloadNone},
		{WincaseTotalOver, WincaseTotalUnder, MarketKindTotal, payloadThreshold},
		{WincaseTotalGoalsHomeOver, WincaseTotalGoalsHomeUnder, MarketKindTotalGoals, payloadThreshold},
		{WincaseTotalGoalsAwayOver, WincaseTotalGoalsAwayUnder, MarketKindTotalGoals, payloadThreshold},
	}

	catalog := make(map[WincaseType]wincaseInfo, len(pairs)*2)
	for i, p := range pairs {
		catalog[p.first] = wincaseInfo{kind: p.kind, opposite: p.second, payload: p.payload, ordinal: i * 2}
		catalog[p.second] = wincaseInfo{kind: p.kind, opposite: p.first, payload: p.payload, ordinal: i*2 + 1}
	}
	return catalog
}

// AllWincaseTypes returns every known wincase type in catalog order
func AllWincaseTypes() []WincaseType {
	types := make([]WincaseType, 0, len(wincaseCatalog))
	for t := range wincaseCatalog {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return wincaseCatalog[types[i]].ordinal < wincaseCatalog[types[j]].ordinal
	})
	return types
}

// Wincase is one bettable outcome. Threshold is only meaningful for over/under
// variants and Home/Away only for the correct score variants.
type Wincase struct {
	Type      WincaseType `json:"type"`
	Threshold int32       `json:"threshold,omitempty"`
	Home      uint16      `json:"home,omitempty"`
	Away      uint16      `json:"away,omitempty"`
}

// Known reports whether the wincase type is part of the catalog
func (w Wincase) Known() bool {
	_, ok := wincaseCatalog[w.Type]
	return ok
}

// MarketKind returns the kind of market the wincase belongs to
func (w Wincase) MarketKind() MarketKind {
	return wincaseCatalog[w.Type].kind
}

// HasThreshold reports whether the variant carries a threshold payload
func (w Wincase) HasThreshold() bool {
	return wincaseCatalog[w.Type].payload == payloadThreshold
}

// HasScore reports whether the variant carries a home/away score payload
func (w Wincase) HasScore() bool {
	return wincaseCatalog[w.Type].payload == payloadScore
}

// CreateOpposite returns the complementary wincase with the same payload
func (w Wincase) CreateOpposite() Wincase {
	info, ok := wincaseCatalog[w.Type]
	if !ok {
		return w
	}
	opposite := w
	opposite.Type = info.opposite
	return opposite
}

// HasThirdState reports whether a settled game can resolve neither side of this
// wincase pair, which happens when a threshold sits exactly on a whole unit
func (w Wincase) HasThirdState(thresholdFactor int32) bool {
	if !w.HasThreshold() || thresholdFactor == 0 {
		return false
	}
	return w.Threshold%thresholdFactor == 0
}

// Less orders wincases by catalog position then payload
func (w Wincase) Less(other Wincase) bool {
	wi, oi := wincaseCatalog[w.Type].ordinal, wincaseCatalog[other.Type].ordinal
	if wi != oi {
		return wi < oi
	}
	if w.Type != other.Type {
		return w.Type < other.Type
	}
	if w.Threshold != other.Threshold {
		return w.Threshold < other.Threshold
	}
	if w.Home != other.Home {
		return w.Home < other.Home
	}
	return w.Away < other.Away
}

// Key is a stable string form used as an index column
func (w Wincase) Key() string {
	return fmt.Sprintf("%s:%d:%d:%d", w.Type, w.Threshold, w.Home, w.Away)
}

func (w Wincase) String() string {
	switch {
	case w.HasThreshold():
		return fmt.Sprintf("%s(%d)", w.Type, w.Threshold)
	case w.HasScore():
		return fmt.Sprintf("%s(%d:%d)", w.Type, w.Home, w.Away)
	default:
		return string(w.Type)
	}
}

// SortWincases sorts in place using Wincase.Less
func SortWincases(wincases []Wincase) {
	sort.Slice(wincases, func(i, j int) bool { return wincases[i].Less(wincases[j]) })
}

package memory

import (
	"bytes"
	"sync"

	"oddsmatch/domain/entities"

	"github.com/google/btree"
	"github.com/google/uuid"
)

const btreeDegree = 16

// state is one consistent version of every index. Stored pointers are never
// mutated; writes replace items, so Clone gives an isolated copy cheaply.
type state struct {
	games *btree.BTreeG[*entities.Game]

	pendingByUUID    *btree.BTreeG[*entities.PendingBet]
	pendingByGame    *btree.BTreeG[*entities.PendingBet]
	pendingByWincase *btree.BTreeG[*entities.PendingBet]

	matchedByID   *btree.BTreeG[*entities.MatchedBet]
	matchedByGame *btree.BTreeG[*entities.MatchedBet]

	accounts    *btree.BTreeG[*entities.Account]
	uuidHistory *btree.BTreeG[uuid.UUID]

	balanceHistory []*entities.BalanceHistory
	lastHistoryID  int64

	props entities.GlobalProperties
}

func compareUUID(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

func compareWincase(a, b entities.Wincase) int {
	switch {
	case a == b:
		return 0
	case a.Less(b):
		return -1
	default:
		return 1
	}
}

func gameLess(a, b *entities.Game) bool {
	return compareUUID(a.UUID, b.UUID) < 0
}

func pendingUUIDLess(a, b *entities.PendingBet) bool {
	return compareUUID(a.Data.UUID, b.Data.UUID) < 0
}

// (game, sequence)
func pendingGameLess(a, b *entities.PendingBet) bool {
	if c := compareUUID(a.GameUUID, b.GameUUID); c != 0 {
		return c < 0
	}
	return a.Data.Sequence < b.Data.Sequence
}

// (game, wincase, sequence)
func pendingWincaseLess(a, b *entities.PendingBet) bool {
	if c := compareUUID(a.GameUUID, b.GameUUID); c != 0 {
		return c < 0
	}
	if c := compareWincase(a.Data.Wincase, b.Data.Wincase); c != 0 {
		return c < 0
	}
	return a.Data.Sequence < b.Data.Sequence
}

func matchedIDLess(a, b *entities.MatchedBet) bool {
	return a.ID < b.ID
}

// (game, id)
func matchedGameLess(a, b *entities.MatchedBet) bool {
	if c := compareUUID(a.GameUUID, b.GameUUID); c != 0 {
		return c < 0
	}
	return a.ID < b.ID
}

func accountLess(a, b *entities.Account) bool {
	return a.Name < b.Name
}

func uuidLess(a, b uuid.UUID) bool {
	return compareUUID(a, b) < 0
}

func newState() *state {
	return &state{
		games:            btree.NewG(btreeDegree, gameLess),
		pendingByUUID:    btree.NewG(btreeDegree, pendingUUIDLess),
		pendingByGame:    btree.NewG(btreeDegree, pendingGameLess),
		pendingByWincase: btree.NewG(btreeDegree, pendingWincaseLess),
		matchedByID:      btree.NewG(btreeDegree, matchedIDLess),
		matchedByGame:    btree.NewG(btreeDegree, matchedGameLess),
		accounts:         btree.NewG(btreeDegree, accountLess),
		uuidHistory:      btree.NewG(btreeDegree, uuidLess),
	}
}

func (s *state) clone() *state {
	return &state{
		games:            s.games.Clone(),
		pendingByUUID:    s.pendingByUUID.Clone(),
		pendingByGame:    s.pendingByGame.Clone(),
		pendingByWincase: s.pendingByWincase.Clone(),
		matchedByID:      s.matchedByID.Clone(),
		matchedByGame:    s.matchedByGame.Clone(),
		accounts:         s.accounts.Clone(),
		uuidHistory:      s.uuidHistory.Clone(),
		// clipped so appends inside a transaction never write into the committed array
		balanceHistory: s.balanceHistory[:len(s.balanceHistory):len(s.balanceHistory)],
		lastHistoryID:  s.lastHistoryID,
		props:          s.props,
	}
}

// Store is the in-memory ordered store. Writers work on a private clone that
// replaces the committed state on commit.
type Store struct {
	mu        sync.RWMutex
	committed *state
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{committed: newState()}
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed.clone()
}

func (s *Store) commit(st *state) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = st
}

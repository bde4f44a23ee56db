package services

import (
	"time"

	"oddsmatch/domain/interfaces"
)

// Registry groups the services bound to one unit of work
type Registry struct {
	Catalog    interfaces.CatalogService
	Ledger     interfaces.Ledger
	Betting    interfaces.BettingService
	Matcher    interfaces.MatchingService
	Games      interfaces.GameService
	Settlement interfaces.SettlementService
	Scheduler  interfaces.SchedulerService
}

// NewRegistry wires every service over the repositories of uow.
// now is the head block time and stamps every record written.
func NewRegistry(uow interfaces.UnitOfWork, now time.Time) *Registry {
	publisher := uow.EventBus()
	gameRepo := uow.GameRepository()
	pendingRepo := uow.PendingBetRepository()
	matchedRepo := uow.MatchedBetRepository()
	propsRepo := uow.GlobalPropertiesRepository()

	catalog := NewCatalogService()
	ledger := NewLedgerService(uow.AccountRepository(), uow.BalanceHistoryRepository(), publisher, now)
	betting := NewBettingService(pendingRepo, matchedRepo, propsRepo, ledger, publisher)
	matcher := NewMatchingService(pendingRepo, matchedRepo, propsRepo, publisher)
	settlement := NewSettlementService(gameRepo, matchedRepo, propsRepo, betting, ledger, publisher)

	return &Registry{
		Catalog:    catalog,
		Ledger:     ledger,
		Betting:    betting,
		Matcher:    matcher,
		Games:      NewGameService(gameRepo, pendingRepo, uow.BetUUIDHistoryRepository(), propsRepo, catalog, betting, matcher, ledger, publisher),
		Settlement: settlement,
		Scheduler:  NewSchedulerService(gameRepo, betting, settlement, publisher),
	}
}

package application

import (
	"context"
	"fmt"
	"sort"

	"oddsmatch/domain/entities"
	"oddsmatch/domain/interfaces"
	"oddsmatch/domain/services"

	log "github.com/sirupsen/logrus"
)

// SeedBalances credits the configured initial balances to accounts that do
// not exist yet. Accounts are seeded in name order so every node writes the
// same history.
func SeedBalances(ctx context.Context, uowFactory interfaces.UnitOfWorkFactory, balances map[string]int64) error {
	if len(balances) == 0 {
		return nil
	}

	names := make([]string, 0, len(balances))
	for name := range balances {
		names = append(names, name)
	}
	sort.Strings(names)

	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	props, err := uow.GlobalPropertiesRepository().Get(ctx)
	if err != nil {
		uow.Rollback()
		return err
	}
	reg := services.NewRegistry(uow, props.HeadBlockTime)

	seeded := 0
	for _, name := range names {
		existing, err := uow.AccountRepository().GetByName(ctx, name)
		if err != nil {
			uow.Rollback()
			return err
		}
		if existing != nil || balances[name] == 0 {
			continue
		}
		if err := reg.Ledger.Credit(ctx, name, balances[name], entities.TransactionTypeInitial, nil); err != nil {
			uow.Rollback()
			return fmt.Errorf("failed to seed balance for %s: %w", name, err)
		}
		seeded++
	}

	if err := uow.Commit(); err != nil {
		return err
	}
	log.WithField("accounts", seeded).Info("Seeded initial balances")
	return nil
}

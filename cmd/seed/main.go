// Command seed bootstraps a development or staging environment: asset types,
// the treasury user with its system wallets, genesis mints that fund each
// treasury, and demo users with funded wallets. Every step is re-runnable;
// inserts use ON CONFLICT DO NOTHING and mints carry fixed idempotency keys.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dkrylov/coinledger/internal/application/dtos"
	"github.com/dkrylov/coinledger/internal/config"
	"github.com/dkrylov/coinledger/internal/container"
	"github.com/dkrylov/coinledger/internal/domain/entities"
	domainErrors "github.com/dkrylov/coinledger/internal/domain/errors"
	"github.com/dkrylov/coinledger/internal/domain/valueobjects"
)

var assetCatalog = []struct {
	Code string
	Name string
}{
	{"GOLD_COINS", "Gold Coins"},
	{"DIAMONDS", "Diamonds"},
	{"LOYALTY_POINTS", "Loyalty Points"},
}

var demoUsers = []string{"alice", "bob"}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs", "Path to the directory holding config.yaml")
	flag.Parse()

	cfg, err := config.Load(configPath, "config")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	c, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}
	defer c.Close()

	s := &seeder{c: c, logger: c.Logger}
	if err := s.run(ctx, cfg.Seed); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	c.Logger.Info("seeding complete")
}

type seeder struct {
	c      *container.Container
	logger *slog.Logger
}

func (s *seeder) run(ctx context.Context, cfg config.SeedConfig) error {
	genesisAmount, err := valueobjects.NewAmount(cfg.GenesisAmount)
	if err != nil {
		return fmt.Errorf("invalid genesis amount %q: %w", cfg.GenesisAmount, err)
	}

	if err := s.seedAssetTypes(ctx); err != nil {
		return err
	}

	treasury, err := s.seedTreasuryUser(ctx)
	if err != nil {
		return err
	}

	for _, asset := range assetCatalog {
		if err := s.seedTreasuryWallet(ctx, treasury, asset.Code); err != nil {
			return err
		}
		if err := s.mintGenesis(ctx, asset.Code, genesisAmount); err != nil {
			return err
		}
	}

	return s.seedDemoUsers(ctx, cfg.UserTopUpAmount)
}

func (s *seeder) seedAssetTypes(ctx context.Context) error {
	for _, asset := range assetCatalog {
		assetType := &entities.AssetType{
			ID:   uuid.New(),
			Code: asset.Code,
			Name: asset.Name,
		}
		if err := s.c.AssetTypes.Save(ctx, assetType); err != nil {
			return fmt.Errorf("seed asset type %s: %w", asset.Code, err)
		}
	}
	s.logger.Info("asset types seeded", slog.Int("count", len(assetCatalog)))
	return nil
}

func (s *seeder) seedTreasuryUser(ctx context.Context) (*entities.User, error) {
	if err := s.c.Users.Save(ctx, &entities.User{
		ID:       uuid.New(),
		Username: "treasury",
		Role:     entities.RoleSystem,
	}); err != nil {
		return nil, fmt.Errorf("seed treasury user: %w", err)
	}
	// Re-read: the insert is a no-op when the user already exists.
	treasury, err := s.c.Users.FindSystemUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("load treasury user: %w", err)
	}
	return treasury, nil
}

func (s *seeder) seedTreasuryWallet(ctx context.Context, treasury *entities.User, assetCode string) error {
	assetType, err := s.c.AssetTypes.FindByCode(ctx, assetCode)
	if err != nil {
		return fmt.Errorf("load asset type %s: %w", assetCode, err)
	}
	wallet := entities.NewWallet(treasury.ID, assetType.ID, assetCode, true)
	if err := s.c.Wallets.Save(ctx, wallet); err != nil {
		return fmt.Errorf("seed treasury wallet %s: %w", assetCode, err)
	}
	return nil
}

// mintGenesis funds a treasury with the bootstrap supply. The mint is a
// self-transfer carrying a fixed idempotency key, so rerunning the seeder
// skips treasuries that were already funded.
func (s *seeder) mintGenesis(ctx context.Context, assetCode string, amount valueobjects.Amount) error {
	key := "genesis-treasury-" + assetCode

	if _, err := s.c.Transactions.FindByIdempotencyKey(ctx, key); err == nil {
		s.logger.Info("genesis mint already applied", slog.String("asset", assetCode))
		return nil
	} else if !domainErrors.IsNotFound(err) {
		return fmt.Errorf("check genesis mint %s: %w", assetCode, err)
	}

	return s.c.UnitOfWork.Execute(ctx, func(txCtx context.Context) error {
		treasuryWallet, err := s.c.Wallets.FindTreasuryWallet(txCtx, assetCode)
		if err != nil {
			return fmt.Errorf("load treasury wallet %s: %w", assetCode, err)
		}

		locked, _, err := s.c.Wallets.LockForMovement(txCtx, treasuryWallet.ID(), treasuryWallet.ID())
		if err != nil {
			return fmt.Errorf("lock treasury wallet %s: %w", assetCode, err)
		}

		tx, err := entities.NewTransaction(
			key,
			entities.TransactionTypeTopUp,
			locked.ID(),
			locked.ID(),
			amount,
			"genesis",
			map[string]any{"reason": "genesis_mint"},
		)
		if err != nil {
			return fmt.Errorf("build genesis transaction %s: %w", assetCode, err)
		}
		if err := s.c.Transactions.Create(txCtx, tx); err != nil {
			return fmt.Errorf("insert genesis transaction %s: %w", assetCode, err)
		}

		if err := locked.Credit(amount); err != nil {
			return err
		}
		if err := s.c.Wallets.UpdateBalance(txCtx, locked.ID(), locked.Balance()); err != nil {
			return fmt.Errorf("fund treasury wallet %s: %w", assetCode, err)
		}

		entry, err := entities.NewGenesisCredit(tx.ID(), locked.ID(), amount, locked.Balance())
		if err != nil {
			return err
		}
		if err := tx.MarkCompleted(); err != nil {
			return err
		}
		if err := s.c.Ledger.AppendGenesisCredit(txCtx, tx, entry); err != nil {
			return fmt.Errorf("append genesis credit %s: %w", assetCode, err)
		}
		if err := s.c.Transactions.UpdateStatus(txCtx, tx); err != nil {
			return fmt.Errorf("complete genesis transaction %s: %w", assetCode, err)
		}

		s.logger.Info("genesis mint applied",
			slog.String("asset", assetCode),
			slog.String("amount", amount.String()))
		return nil
	})
}

func (s *seeder) seedDemoUsers(ctx context.Context, topUpAmount string) error {
	for _, username := range demoUsers {
		if err := s.c.Users.Save(ctx, &entities.User{
			ID:       uuid.New(),
			Username: username,
			Role:     entities.RoleUser,
		}); err != nil {
			return fmt.Errorf("seed user %s: %w", username, err)
		}
		user, err := s.c.Users.FindByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("load user %s: %w", username, err)
		}

		for _, asset := range assetCatalog {
			assetType, err := s.c.AssetTypes.FindByCode(ctx, asset.Code)
			if err != nil {
				return fmt.Errorf("load asset type %s: %w", asset.Code, err)
			}
			if err := s.c.Wallets.Save(ctx, entities.NewWallet(user.ID, assetType.ID, asset.Code, false)); err != nil {
				return fmt.Errorf("seed wallet %s/%s: %w", username, asset.Code, err)
			}

			if topUpAmount == "" {
				continue
			}
			// The gate replays this on reruns instead of double-funding.
			key := fmt.Sprintf("seed-%s-%s", username, strings.ToLower(asset.Code))
			_, err = s.c.TopUp.Execute(ctx, dtos.MovementCommand{
				UserID:         user.ID.String(),
				AssetTypeCode:  asset.Code,
				Amount:         topUpAmount,
				ReferenceID:    "seed",
				Metadata:       map[string]any{"reason": "seed"},
				IdempotencyKey: key,
			})
			if err != nil {
				return fmt.Errorf("fund wallet %s/%s: %w", username, asset.Code, err)
			}
		}
		s.logger.Info("demo user seeded", slog.String("username", username))
	}
	return nil
}

package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tradeaudit/internal/models"
	"tradeaudit/internal/repository"
	"tradeaudit/internal/venue/rest"
)

// FillStreamService consumes the live fill feed and keeps the derived state
// current between cron passes. Every streamed fill triggers a rebuild of its
// (account, coin); the rebuild is idempotent so overlap with the cron sync
// is harmless.
type FillStreamService struct {
	Store  repository.AuditRepository
	Stream *rest.FillStream
	Logger *zap.Logger

	// Rebuilder defaults to the full-history rebuild; tests stub it.
	Rebuilder func(ctx context.Context, account, coin string) error
}

func (s *FillStreamService) Run(ctx context.Context) error {
	if s == nil || s.Store == nil || s.Stream == nil {
		return fmt.Errorf("fill stream unavailable")
	}
	return s.Stream.Run(ctx, func(env rest.FillEnvelope, raw []byte) {
		if err := s.handle(ctx, env); err != nil && s.Logger != nil {
			s.Logger.Warn("streamed fill rejected",
				zap.String("account", env.Account),
				zap.Error(err))
		}
	})
}

func (s *FillStreamService) handle(ctx context.Context, env rest.FillEnvelope) error {
	if env.Channel != "" && env.Channel != "userFills" {
		return nil
	}
	fill, err := rest.ParseStreamFill(env)
	if err != nil {
		return err
	}
	if !fill.Size.IsPositive() {
		return nil
	}
	err = s.Store.InTx(ctx, func(tx *gorm.DB) error {
		return s.Store.UpsertFillsTx(ctx, tx, []models.Fill{fill})
	})
	if err != nil {
		return err
	}
	return s.rebuild(ctx, fill.Account, fill.Coin)
}

func (s *FillStreamService) rebuild(ctx context.Context, account, coin string) error {
	if s.Rebuilder != nil {
		return s.Rebuilder(ctx, account, coin)
	}
	sync := &FillSyncService{Store: s.Store, Logger: s.Logger}
	_, _, _, err := sync.rebuildKey(ctx, account, coin)
	return err
}

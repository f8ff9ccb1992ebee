//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/holdout/internal/config"
	"github.com/cory-johannsen/holdout/internal/gameserver"
)

func initSession(ctx context.Context, cfg config.Config, logger *zap.Logger) (*gameserver.Session, func(), error) {
	wire.Build(gameserver.ProviderSet)
	return nil, nil, nil
}

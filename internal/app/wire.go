//go:build wireinject
// +build wireinject

package app

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/botmarket/server/internal/domain/reconcile"
	"github.com/botmarket/server/internal/infra/config"
)

// Dependencies holds all injected dependencies.
type Dependencies struct {
	Router    *gin.Engine
	Scheduler *reconcile.Scheduler
	Logger    *zap.Logger
}

// InitializeDependencies creates all dependencies using Wire.
func InitializeDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	wire.Build(
		AppSet,
		wire.Struct(new(Dependencies), "*"),
	)
	return nil, nil, nil
}

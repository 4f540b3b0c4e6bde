package gateway

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/no-bike/software-aibot/internal/config"
	"github.com/no-bike/software-aibot/internal/llm"
)

// BootstrapProviders initializes and registers all enabled providers from
// configuration. Returns the number of providers registered.
func BootstrapProviders(ctx context.Context, service Service, providers []config.ProviderConfig, log *zap.Logger) int {
	registeredCount := 0
	validate := validator.New()

	for _, pCfg := range providers {
		if !pCfg.Enabled {
			continue
		}

		if err := validate.Struct(&pCfg); err != nil {
			log.Warn("Skipping provider with incomplete configuration",
				zap.String("id", pCfg.ID),
				zap.Error(err),
			)
			continue
		}

		factoryFunc, err := llm.Get(pCfg.Type)
		if err != nil {
			log.Error("Unknown provider type", zap.String("type", pCfg.Type))
			continue
		}

		providerInstance, err := factoryFunc(pCfg)
		if err != nil {
			log.Error("Failed to initialize provider",
				zap.String("id", pCfg.ID),
				zap.Error(err),
			)
			continue
		}

		healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := providerInstance.Health(healthCtx); err != nil {
			cancel()
			log.Error("Provider unhealthy, skipping registration",
				zap.String("id", pCfg.ID),
				zap.Error(err))
			continue
		}
		cancel()

		service.RegisterProvider(providerInstance, pCfg.Models)
		log.Info("Registered provider",
			zap.String("id", pCfg.ID),
			zap.String("type", pCfg.Type),
		)

		registeredCount++
	}

	if registeredCount == 0 {
		log.Warn("No providers were registered. API will not function correctly.")
	}

	return registeredCount
}

package bootstrap

import (
	"log"
	"time"

	"ai-mediagen-be/internal/config"
	"ai-mediagen-be/internal/controller"
	"ai-mediagen-be/internal/pkg/logger"
	"ai-mediagen-be/internal/repository/memory"
	"ai-mediagen-be/internal/repository/unitofwork"
	"ai-mediagen-be/internal/service"
	"ai-mediagen-be/pkg/credits"
	"ai-mediagen-be/pkg/provider"
	"ai-mediagen-be/pkg/provider/factory"
	"ai-mediagen-be/pkg/storage"
	"ai-mediagen-be/pkg/storage/local"
	"ai-mediagen-be/pkg/storage/supabase"

	pktNats "ai-mediagen-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

const settledTopic = "generation.settled"

type Container struct {
	// Controllers
	GenerationController controller.IGenerationController
	CreditController     controller.ICreditController
	PricingController    controller.IPricingController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS is optional; the pipeline settles correctly without it.
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	// 3. Storage: Supabase buckets with a local-disk fallback tier.
	var primary, secondary storage.ObjectStore
	if cfg.Storage.SupabaseURL != "" {
		primary = supabase.NewStore(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey, cfg.Storage.PrimaryBucket)
		secondary = supabase.NewStore(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey, cfg.Storage.SecondaryBucket)
	} else {
		log.Printf("[WARN] SUPABASE_URL not set, storing generated media on local disk")
		primary = local.NewStore(cfg.Storage.LocalUploadDir, cfg.App.BaseURL)
		secondary = local.NewStore(cfg.Storage.LocalUploadDir, cfg.App.BaseURL)
	}
	materializer := storage.NewMaterializer(primary, secondary, sysLogger)

	// 4. Providers
	keys := provider.NewKeyResolver(map[string]string{
		"openai":    cfg.Keys.OpenAI,
		"stability": cfg.Keys.Stability,
		"runway":    cfg.Keys.Runway,
	})
	catalog := credits.NewCatalog()
	tracker := memory.NewJobTracker()

	// 5. Services
	publisherService := service.NewPublisherService(settledTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, settledTopic, uowFactory)

	ledgerService := service.NewCreditLedgerService(uowFactory)
	generationService := service.NewGenerationService(
		uowFactory,
		ledgerService,
		factory.NewJobClient,
		keys,
		materializer,
		catalog,
		tracker,
		publisherService,
		natsPub,
		sysLogger,
		time.Duration(cfg.Pipeline.PollIntervalSeconds)*time.Second,
		cfg.Pipeline.PollMaxAttempts,
	)

	// 6. Controllers
	return &Container{
		GenerationController: controller.NewGenerationController(generationService),
		CreditController:     controller.NewCreditController(ledgerService),
		PricingController:    controller.NewPricingController(catalog),
		ConsumerService:      consumerService,
	}
}

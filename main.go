package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"

	"github.com/birriaclub/pos/internal/billing"
	"github.com/birriaclub/pos/internal/mongo"
	"github.com/birriaclub/pos/internal/order"
	"github.com/birriaclub/pos/pkg"
	"github.com/birriaclub/pos/pkg/event"
)

const (
	appNamespace = "POS"
	appName      = "pos"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	baseRepo := mongo.NewBaseRepo(config, logger)
	err = baseRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	ticketRepo := mongo.NewTicketRepo(db)

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	pub, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}

	sub, err := pkg.NewNATSSubscriber(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}

	// Settlements are financial records: they go through a durable stream,
	// not fire-and-forget pub/sub.
	settlementStream, err := pkg.NewNATSStream(pkg.NATSStreamConfig{
		URL:          natsURL,
		StreamName:   "TICKET_SETTLEMENTS",
		Topic:        event.SettlementsTopic,
		ConsumerName: "pos-settlements",
		MaxAge:       30 * 24 * time.Hour,
	})
	if err != nil {
		log.Fatalf("%s(%s) cannot create settlement stream: %v", appName, appVersion, err)
	}

	// Menu service client for catalog lookups
	menuURL, _ := config.GetString("services.menu.url")
	menuClient := apt.NewServiceClient(menuURL)
	catalog := order.NewProductCatalog(menuClient, logger)
	menuSub := order.NewMenuSubscriber(sub, catalog, logger)

	// Billing collaborator executing the actual close
	billingURL := config.GetStringOrDef("services.billing.url", "")
	if billingURL == "" {
		log.Fatalf("%s(%s) cannot create close-bill client: missing services.billing.url", appName, appVersion)
	}
	closeBill := billing.NewCloseBillClient(apt.NewServiceClient(billingURL), logger)

	sessionTTL := 2 * time.Hour
	sessions := order.NewTicketSessionStore(sessionTTL)
	splits := billing.NewSplitStore()

	orderHandler := order.NewHandler(order.HandlerDeps{
		TicketRepo: ticketRepo,
		Catalog:    catalog,
		Sessions:   sessions,
		Publisher:  pub,
	}, config, logger)

	billingHandler := billing.NewHandler(billing.HandlerDeps{
		Sessions:   sessions,
		Splits:     splits,
		TicketRepo: ticketRepo,
		CloseBill:  closeBill,
		Publisher:  settlementStream,
	}, config, logger)

	publisherLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	}

	subLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return sub.Close()
		},
	}

	streamLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return settlementStream.Close()
		},
	}

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true, // Internal API service
	})

	// Defense-in-depth: restrict to internal networks only.
	// This complements (does not replace) network policies at the infrastructure level.
	stack = append(stack, middleware.InternalOnly())

	lifecycles := []interface{}{
		apt.LifecycleHooks{OnStop: baseRepo.Stop},
		menuSub,
		publisherLifecycle,
		subLifecycle,
		streamLifecycle,
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", orderHandler, billingHandler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/Domenick1991/tablebot/config"
	"github.com/Domenick1991/tablebot/internal/cache"
	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/Domenick1991/tablebot/internal/kafka"
	"github.com/Domenick1991/tablebot/internal/metrics"
	"github.com/Domenick1991/tablebot/internal/oracle"
	"github.com/Domenick1991/tablebot/internal/repository"
	"github.com/Domenick1991/tablebot/internal/service/availability"
	"github.com/Domenick1991/tablebot/internal/service/booking"
	"github.com/Domenick1991/tablebot/internal/service/catalog"
	"github.com/Domenick1991/tablebot/internal/service/confidence"
	"github.com/Domenick1991/tablebot/internal/service/dialogue"
	"github.com/Domenick1991/tablebot/internal/service/escalation"
	"github.com/Domenick1991/tablebot/internal/service/extractor"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App is the assembled service graph shared by the servers, the worker and the CLI.
type App struct {
	Config       *config.Config
	Tables       repository.TableRepository
	Menu         repository.MenuRepository
	Catalog      *catalog.CatalogService
	Availability *availability.Engine
	Bookings     *booking.BookingService
	Scorer       *confidence.Scorer
	Dialogue     *dialogue.Service
	Metrics      *metrics.Collector

	closers []func()
}

type storage struct {
	tables        repository.TableRepository
	reservations  repository.ReservationRepository
	conversations repository.ConversationRepository
	issues        repository.IssueRepository
	menu          repository.MenuRepository
}

// Build wires repositories, optional redis and kafka, the oracle and the
// dialogue pipeline. Redis and kafka are skipped when not configured.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg, Metrics: metrics.NewCollector()}

	store, err := app.openStorage(ctx, cfg.Database)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Tables = store.tables
	app.Menu = store.menu

	var (
		tablesCache catalog.Cache
		slotLocker  booking.SlotLocker
	)
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.TablesCacheTTL())
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("bootstrap: redis %s unavailable, running without cache and slot locks: %v", cfg.Redis.Addr, err)
			_ = redisCache.Close()
		} else {
			tablesCache = redisCache
			slotLocker = redisCache
			app.closers = append(app.closers, func() { _ = redisCache.Close() })
		}
	}

	var producer booking.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		p := kafka.NewProducer(cfg.Kafka.Brokers)
		producer = p
		app.closers = append(app.closers, func() { _ = p.Close() })
	}

	app.Catalog = catalog.NewCatalogService(store.tables, tablesCache, cfg.Booking.TablesCacheTTL())
	app.Availability = availability.NewEngine(app.Catalog, store.reservations)

	bookingOpts := []booking.BookingServiceOption{}
	if cfg.Kafka.NotificationsTopic != "" {
		bookingOpts = append(bookingOpts, booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic))
	}
	if slotLocker != nil {
		bookingOpts = append(bookingOpts, booking.WithSlotLocker(slotLocker, cfg.Booking.SlotLockTTL()))
	}
	app.Bookings = booking.NewBookingService(store.reservations, app.Catalog, producer, cfg.Kafka.ReservationsTopic, bookingOpts...)

	orc, err := newOracle(ctx, cfg.Oracle)
	if err != nil {
		app.Close()
		return nil, err
	}

	restaurant := domain.RestaurantInfo{
		Name:         cfg.Restaurant.Name,
		Phone:        cfg.Restaurant.Phone,
		Address:      cfg.Restaurant.Address,
		WorkingHours: cfg.Restaurant.WorkingHours,
		Greeting:     cfg.Restaurant.Greeting,
	}
	app.Scorer = confidence.NewScorer(confidence.DefaultLexicon(), cfg.Dialogue.EscalateBelow)

	dialogueOpts := []dialogue.Option{dialogue.WithRecorder(app.Metrics)}
	if producer != nil {
		dialogueOpts = append(dialogueOpts, dialogue.WithProducer(producer, cfg.Kafka.EscalationsTopic))
	}
	app.Dialogue = dialogue.NewService(
		dialogue.Deps{
			Conversations: store.conversations,
			Issues:        store.issues,
			Extractor:     extractor.NewPattern(availability.DefaultZoneTable()),
			Availability:  app.Availability,
			Bookings:      app.Bookings,
			Toolbox:       dialogue.NewToolbox(app.Availability, app.Bookings, app.Catalog, store.menu, restaurant, cfg.Dialogue.DefaultTime),
			Oracle:        orc,
			Scorer:        app.Scorer,
			Policy:        escalation.NewPolicy(escalation.DefaultTemplates(), escalation.DefaultMarkers(), rand.New(rand.NewSource(time.Now().UnixNano()))),
			Restaurant:    restaurant,
		},
		dialogue.Settings{
			HistoryWindow:      cfg.Dialogue.HistoryWindow,
			DefaultTime:        cfg.Dialogue.DefaultTime,
			MaxInputLength:     cfg.Dialogue.MaxInputLength,
			MaxReserveAttempts: cfg.Booking.MaxReserveAttempts,
			Location:           cfg.Restaurant.Location(),
		},
		dialogueOpts...,
	)

	return app, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openStorage(ctx context.Context, cfg config.DatabaseConfig) (*storage, error) {
	if cfg.Driver == "memory" {
		log.Printf("bootstrap: using in-memory storage with %d demo tables", len(repository.DemoTables()))
		return &storage{
			tables:        repository.NewMemoryTableRepository(repository.DemoTables()...),
			reservations:  repository.NewMemoryReservationRepository(),
			conversations: repository.NewMemoryConversationRepository(),
			issues:        repository.NewMemoryIssueRepository(),
			menu:          repository.NewMemoryMenuRepository(repository.DemoMenu()...),
		}, nil
	}

	pool, err := OpenPostgres(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pool.Close)

	if err := repository.Migrate(ctx, pool); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &storage{
		tables:        repository.NewTableRepository(pool),
		reservations:  repository.NewReservationRepository(pool),
		conversations: repository.NewConversationRepository(pool),
		issues:        repository.NewIssueRepository(pool),
		menu:          repository.NewMenuRepository(pool),
	}, nil
}

// OpenPostgres connects and pings the configured database.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func newOracle(ctx context.Context, cfg config.OracleConfig) (oracle.Oracle, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.APIKey == "" {
			return nil, errors.New("oracle: gemini needs GEMINI_API_KEY")
		}
		return oracle.NewGemini(ctx, cfg.APIKey, cfg.Model)
	case "openai":
		if cfg.APIKey == "" {
			return nil, errors.New("oracle: openai needs OPENAI_API_KEY")
		}
		return oracle.NewOpenAI(cfg.APIKey, cfg.Model)
	default:
		log.Printf("bootstrap: no language model configured, using canned replies")
		return oracle.NewCanned(), nil
	}
}

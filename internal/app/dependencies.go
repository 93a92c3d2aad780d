package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paihq/pai/internal/broker"
	"github.com/paihq/pai/internal/config"
	"github.com/paihq/pai/internal/event_bus"
	"github.com/paihq/pai/internal/utils"
	"github.com/paihq/pai/pkg/automation"
	"github.com/paihq/pai/pkg/document"
	"github.com/paihq/pai/pkg/google"
	"github.com/paihq/pai/pkg/stats"
	"github.com/paihq/pai/pkg/user"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus *event_bus.EventBus
	Clock    utils.Clock

	UserService user.Service
	UserHandler *user.Handler

	DocumentRepository document.Repository
	DocumentService    *document.ServiceImpl
	DocumentHandler    *document.Handler

	StatsService     *stats.StatsServiceImpl
	CsvStatsRenderer *stats.CsvStatsRendererImpl
	StatsHandler     *stats.StatsHandler

	PomodoroLogger *automation.PomodoroLogger

	GoogleAuth    *google.GoogleAuth
	GoogleService *google.ServiceImpl
	GoogleHandler *google.Handler

	// Broker is nil when no AMQP url is configured.
	Broker *broker.Publisher
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.DocumentRepository = document.NewRepo(db)
	deps.DocumentService = document.NewService(deps.DocumentRepository, document.DefaultRegistry(), deps.EventBus)
	deps.DocumentHandler = document.NewHandler(deps.DocumentService)

	deps.StatsService = stats.NewStatsServiceImpl(deps.DocumentService)
	deps.CsvStatsRenderer = stats.NewCsvStatsRenderer()
	deps.StatsHandler = stats.NewStatsHandler(deps.StatsService, deps.CsvStatsRenderer, deps.Clock)

	deps.PomodoroLogger = automation.NewPomodoroLogger(deps.DocumentService, deps.EventBus, deps.Clock, cfg.Automation.PomodoroMinutes)

	googleRepo := google.NewRepository(db)
	deps.GoogleAuth = google.NewGoogleAuth(googleRepo, cfg)
	deps.GoogleService = google.NewService(deps.GoogleAuth, googleRepo, deps.EventBus, cfg.Google.CalendarId)
	deps.GoogleHandler = google.NewHandler(deps.GoogleService)

	if cfg.Amqp.Url != "" {
		publisher, err := broker.Dial(cfg.Amqp.Url, cfg.Amqp.Exchange)
		if err != nil {
			return nil, err
		}
		publisher.Attach(deps.EventBus)
		deps.Broker = publisher
		log.Infof("publishing record events to exchange %s", cfg.Amqp.Exchange)
	}

	return deps, nil
}

package notifications

import (
	"embed"

	"github.com/archmarket/platform/modules/notifications/infrastructure/feed"
	"github.com/archmarket/platform/modules/notifications/infrastructure/persistence"
	"github.com/archmarket/platform/modules/notifications/presentation/controllers"
	"github.com/archmarket/platform/modules/notifications/services"
	"github.com/archmarket/platform/pkg/application"
	"github.com/archmarket/platform/pkg/configuration"
	"github.com/archmarket/platform/pkg/redisclient"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()
	app.Migrations().RegisterSchema(m.Name(), migrationFiles, "infrastructure/persistence/schema")

	broker := feed.NewBroker()
	var (
		hints  feed.Publisher
		runner *feed.Runner
	)
	switch conf.Notifications.FeedBackend {
	case configuration.FeedBackendRedis:
		client, err := redisclient.New(conf.RedisURL)
		if err != nil {
			return err
		}
		hints = feed.NewRedisPublisher(client, conf.Notifications.FeedChannel)
		runner = feed.NewRunner(configuration.FeedBackendRedis, feed.NewRedisListener(
			client, conf.Notifications.FeedChannel, broker, conf.Notifications.FeedRetryDelay, app.Logger(),
		))
	default:
		runner = feed.NewRunner(configuration.FeedBackendPostgres, feed.NewPostgresListener(
			app.DB(), conf.Notifications.FeedChannel, broker, conf.Notifications.FeedRetryDelay, app.Logger(),
		))
	}

	notificationService := services.NewNotificationService(
		persistence.NewNotificationRepository(),
		hints,
		conf.Notifications.PageSize,
		app.Logger(),
	)
	app.RegisterServices(broker, runner, notificationService)

	app.EventPublisher().Subscribe(notificationService.OnSuggestionResolved)
	app.EventPublisher().Subscribe(notificationService.OnAccessRequestSubmitted)
	app.EventPublisher().Subscribe(notificationService.OnAccessRequestResolved)

	app.RegisterControllers(
		controllers.NewNotificationAPIController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "notifications"
}

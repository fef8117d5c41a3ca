package moderation

import (
	"embed"

	"github.com/archmarket/platform/modules/moderation/domain/events"
	"github.com/archmarket/platform/modules/moderation/infrastructure/persistence"
	"github.com/archmarket/platform/modules/moderation/presentation/controllers"
	"github.com/archmarket/platform/modules/moderation/services"
	"github.com/archmarket/platform/pkg/application"
	outboxbus "github.com/archmarket/platform/pkg/outbox/dispatchers/eventbus"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(m.Name(), migrationFiles, "infrastructure/persistence/schema")

	outboxbus.Register[events.SuggestionResolvedV1](app.OutboxDispatcher(), events.TopicSuggestionResolvedV1)

	app.RegisterServices(
		services.NewModerationService(
			persistence.NewSuggestionRepository(),
			persistence.NewCatalogRepository(),
			app.Outbox(),
			app.Logger(),
		),
	)

	app.RegisterControllers(
		controllers.NewModerationAPIController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "moderation"
}

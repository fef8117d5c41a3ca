package access

import (
	"embed"

	"github.com/archmarket/platform/modules/access/domain/events"
	"github.com/archmarket/platform/modules/access/infrastructure/persistence"
	"github.com/archmarket/platform/modules/access/presentation/controllers"
	"github.com/archmarket/platform/modules/access/services"
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

	outboxbus.Register[events.RequestSubmittedV1](app.OutboxDispatcher(), events.TopicRequestSubmittedV1)
	outboxbus.Register[events.RequestResolvedV1](app.OutboxDispatcher(), events.TopicRequestResolvedV1)

	app.RegisterServices(
		services.NewAccessService(
			persistence.NewAccessRequestRepository(),
			persistence.NewProductRepository(),
			app.Outbox(),
			app.Logger(),
		),
	)

	app.RegisterControllers(
		controllers.NewAccessAPIController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "access"
}

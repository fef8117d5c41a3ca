package fulfillment

import (
	"embed"

	"github.com/archmarket/platform/modules/fulfillment/infrastructure/persistence"
	"github.com/archmarket/platform/modules/fulfillment/presentation/controllers"
	"github.com/archmarket/platform/modules/fulfillment/services"
	"github.com/archmarket/platform/pkg/application"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(m.Name(), migrationFiles, "infrastructure/persistence/schema")

	app.RegisterServices(
		services.NewTrackerService(persistence.NewOrderRepository(), app.Logger()),
	)

	app.RegisterControllers(
		controllers.NewFulfillmentAPIController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "fulfillment"
}

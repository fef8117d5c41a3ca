package application

import (
	"io/fs"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/archmarket/platform/pkg/eventbus"
	"github.com/archmarket/platform/pkg/outbox"
	outboxbus "github.com/archmarket/platform/pkg/outbox/dispatchers/eventbus"
)

type Controller interface {
	Register(r *mux.Router)
	Key() string
}

type Module interface {
	Name() string
	Register(app Application) error
}

// Application is the registry modules wire themselves into at startup.
type Application interface {
	DB() *pgxpool.Pool
	Logger() *logrus.Logger
	EventPublisher() eventbus.EventBusWithError
	Outbox() outbox.Publisher
	OutboxDispatcher() *outboxbus.Dispatcher
	Migrations() MigrationManager
	Controllers() []Controller
	Middleware() []mux.MiddlewareFunc
	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	RegisterServices(services ...interface{})
	Service(service interface{}) interface{}
	Services() map[reflect.Type]interface{}
}

type MigrationManager interface {
	// RegisterSchema adds the goose migrations found under dir in fsys.
	// Each name keeps its own version table.
	RegisterSchema(name string, fsys fs.FS, dir string)
	Schemas() []Schema
}

type Schema struct {
	Name string
	FS   fs.FS
}

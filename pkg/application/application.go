package application

import (
	"context"
	"fmt"
	"io/fs"
	"reflect"
	"sort"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/archmarket/platform/pkg/composables"
	"github.com/archmarket/platform/pkg/eventbus"
	"github.com/archmarket/platform/pkg/outbox"
	outboxbus "github.com/archmarket/platform/pkg/outbox/dispatchers/eventbus"
)

type ApplicationOptions struct {
	Pool     *pgxpool.Pool
	EventBus eventbus.EventBusWithError
	Outbox   outbox.Publisher
	Logger   *logrus.Logger
}

// New builds the application. Outbox handlers run outside any request, so
// the dispatcher attaches the pool to their context.
func New(opts *ApplicationOptions) Application {
	var dispatchOpts []outboxbus.Option
	if opts.Pool != nil {
		pool := opts.Pool
		dispatchOpts = append(dispatchOpts, outboxbus.WithContext(func(ctx context.Context) context.Context {
			return composables.WithPool(ctx, pool)
		}))
	}
	return &application{
		pool:           opts.Pool,
		logger:         opts.Logger,
		eventPublisher: opts.EventBus,
		outbox:         opts.Outbox,
		dispatcher:     outboxbus.New(opts.EventBus, dispatchOpts...),
		controllers:    make(map[string]Controller),
		services:       make(map[reflect.Type]interface{}),
		migrations:     &migrationManager{},
	}
}

// application with a dynamically extendable service registry
type application struct {
	pool           *pgxpool.Pool
	logger         *logrus.Logger
	eventPublisher eventbus.EventBusWithError
	outbox         outbox.Publisher
	dispatcher     *outboxbus.Dispatcher
	services       map[reflect.Type]interface{}
	controllers    map[string]Controller
	middleware     []mux.MiddlewareFunc
	migrations     *migrationManager
}

func (app *application) DB() *pgxpool.Pool {
	return app.pool
}

func (app *application) Logger() *logrus.Logger {
	return app.logger
}

func (app *application) EventPublisher() eventbus.EventBusWithError {
	return app.eventPublisher
}

func (app *application) Outbox() outbox.Publisher {
	return app.outbox
}

func (app *application) OutboxDispatcher() *outboxbus.Dispatcher {
	return app.dispatcher
}

func (app *application) Migrations() MigrationManager {
	return app.migrations
}

func (app *application) Middleware() []mux.MiddlewareFunc {
	return app.middleware
}

// Controllers returns registered controllers ordered by key so route
// registration is deterministic.
func (app *application) Controllers() []Controller {
	keys := make([]string, 0, len(app.controllers))
	for k := range app.controllers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	controllers := make([]Controller, 0, len(keys))
	for _, k := range keys {
		controllers = append(controllers, app.controllers[k])
	}
	return controllers
}

func (app *application) RegisterControllers(controllers ...Controller) {
	for _, c := range controllers {
		app.controllers[c.Key()] = c
	}
}

func (app *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	app.middleware = append(app.middleware, middleware...)
}

// RegisterServices registers a new service in the application by its type
func (app *application) RegisterServices(services ...interface{}) {
	for _, service := range services {
		serviceType := reflect.TypeOf(service).Elem()
		app.services[serviceType] = service
	}
}

// Service retrieves a service by its type
func (app *application) Service(service interface{}) interface{} {
	serviceType := reflect.TypeOf(service)
	svc, exists := app.services[serviceType]
	if !exists {
		panic(fmt.Sprintf("service %s not found", serviceType.Name()))
	}
	return svc
}

func (app *application) Services() map[reflect.Type]interface{} {
	return app.services
}

type migrationManager struct {
	schemas []Schema
}

func (m *migrationManager) RegisterSchema(name string, fsys fs.FS, dir string) {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(fmt.Sprintf("migrations %s: %v", name, err))
	}
	m.schemas = append(m.schemas, Schema{Name: name, FS: sub})
}

func (m *migrationManager) Schemas() []Schema {
	return m.schemas
}

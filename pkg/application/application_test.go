package application

import (
	"context"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archmarket/platform/pkg/composables"
	"github.com/archmarket/platform/pkg/eventbus"
	"github.com/archmarket/platform/pkg/outbox"
	outboxbus "github.com/archmarket/platform/pkg/outbox/dispatchers/eventbus"
)

type fakeController struct{ key string }

func (c fakeController) Register(*mux.Router) {}
func (c fakeController) Key() string         { return c.key }

type pipelineService struct{ name string }

func newTestApp() Application {
	return New(&ApplicationOptions{EventBus: eventbus.NewEventPublisher(nil)})
}

func TestApplication_Services(t *testing.T) {
	t.Parallel()

	app := newTestApp()
	svc := &pipelineService{name: "tracker"}
	app.RegisterServices(svc)

	got := app.Service(pipelineService{}).(*pipelineService)
	assert.Same(t, svc, got)
	assert.Panics(t, func() { app.Service(struct{ X int }{}) })
}

func TestApplication_ControllersAreOrderedAndDeduplicated(t *testing.T) {
	t.Parallel()

	app := newTestApp()
	app.RegisterControllers(fakeController{"/notifications"}, fakeController{"/access"}, fakeController{"/access"})

	controllers := app.Controllers()
	require.Len(t, controllers, 2)
	assert.Equal(t, "/access", controllers[0].Key())
	assert.Equal(t, "/notifications", controllers[1].Key())
	assert.NotNil(t, app.OutboxDispatcher())
}

func TestMigrationManager_RegisterSchema(t *testing.T) {
	t.Parallel()

	app := newTestApp()
	fsys := fstest.MapFS{
		"infrastructure/persistence/schema/00001_init.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")},
	}
	app.Migrations().RegisterSchema("moderation", fsys, "infrastructure/persistence/schema")

	schemas := app.Migrations().Schemas()
	require.Len(t, schemas, 1)
	assert.Equal(t, "moderation", schemas[0].Name)
	_, err := fs.Stat(schemas[0].FS, "00001_init.sql")
	require.NoError(t, err)
}

type orderShipped struct {
	OrderID string `json:"order_id"`
}

func TestApplication_OutboxHandlersResolvePool(t *testing.T) {
	t.Parallel()

	// The pool connects lazily, nothing is dialled here.
	pool, err := pgxpool.New(context.Background(), "host=127.0.0.1 port=1 user=market dbname=market sslmode=disable")
	require.NoError(t, err)
	defer pool.Close()

	app := New(&ApplicationOptions{Pool: pool, EventBus: eventbus.NewEventPublisher(nil)})
	outboxbus.Register[orderShipped](app.OutboxDispatcher(), "fulfillment.order.shipped.v1")

	var got *pgxpool.Pool
	app.EventPublisher().Subscribe(func(ctx context.Context, meta *outbox.Meta, ev *orderShipped) error {
		p, err := composables.UsePool(ctx)
		got = p
		return err
	})

	err = app.OutboxDispatcher().Dispatch(context.Background(), outbox.DispatchedMessage{
		Meta:    outbox.Meta{Topic: "fulfillment.order.shipped.v1"},
		Payload: []byte(`{"order_id":"o-1"}`),
	})
	require.NoError(t, err)
	assert.Same(t, pool, got)
}

package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"github.com/sirupsen/logrus"

	"github.com/archmarket/platform/pkg/application"
)

// Runner applies every registered schema in registration order. Each schema
// tracks its version in goose_<name>_version.
type Runner struct {
	db      *sql.DB
	schemas []application.Schema
	log     *logrus.Logger
}

func NewRunner(pool *pgxpool.Pool, schemas []application.Schema, log *logrus.Logger) *Runner {
	return &Runner{
		db:      stdlib.OpenDBFromPool(pool),
		schemas: schemas,
		log:     log,
	}
}

func (r *Runner) Close() error {
	return r.db.Close()
}

func VersionTable(name string) string {
	return fmt.Sprintf("goose_%s_version", name)
}

func (r *Runner) provider(s application.Schema) (*goose.Provider, error) {
	store, err := database.NewStore(database.DialectPostgres, VersionTable(s.Name))
	if err != nil {
		return nil, errors.Wrapf(err, "store for %s", s.Name)
	}
	p, err := goose.NewProvider("", r.db, s.FS, goose.WithStore(store))
	if err != nil {
		return nil, errors.Wrapf(err, "provider for %s", s.Name)
	}
	return p, nil
}

func (r *Runner) Up(ctx context.Context) error {
	for _, s := range r.schemas {
		p, err := r.provider(s)
		if err != nil {
			return err
		}
		results, err := p.Up(ctx)
		if err != nil {
			return errors.Wrapf(err, "migrate up %s", s.Name)
		}
		for _, res := range results {
			r.log.WithFields(logrus.Fields{
				"schema":   s.Name,
				"version":  res.Source.Version,
				"duration": res.Duration,
			}).Info("migration applied")
		}
	}
	return nil
}

// Down rolls back the latest migration of every schema in reverse order.
func (r *Runner) Down(ctx context.Context) error {
	for i := len(r.schemas) - 1; i >= 0; i-- {
		s := r.schemas[i]
		p, err := r.provider(s)
		if err != nil {
			return err
		}
		res, err := p.Down(ctx)
		if err != nil {
			if errors.Is(err, goose.ErrNoNextVersion) {
				continue
			}
			return errors.Wrapf(err, "migrate down %s", s.Name)
		}
		r.log.WithFields(logrus.Fields{"schema": s.Name, "version": res.Source.Version}).Info("migration rolled back")
	}
	return nil
}

type Status struct {
	Schema  string
	Version int64
	Path    string
	Applied bool
}

func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	var out []Status
	for _, s := range r.schemas {
		p, err := r.provider(s)
		if err != nil {
			return nil, err
		}
		statuses, err := p.Status(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "migration status %s", s.Name)
		}
		for _, st := range statuses {
			out = append(out, Status{
				Schema:  s.Name,
				Version: st.Source.Version,
				Path:    st.Source.Path,
				Applied: st.State == goose.StateApplied,
			})
		}
	}
	return out, nil
}

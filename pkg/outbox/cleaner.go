package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Cleaner purges delivered events after Retention and, when DeadRetention is
// set, events that exhausted their attempts.
type Cleaner struct {
	pool       *pgxpool.Pool
	table      pgx.Identifier
	opts       CleanerOptions
	m          *metrics
	tableLabel string
}

type PurgeResult struct {
	Published int64 `json:"published"`
	Dead      int64 `json:"dead"`
}

func NewCleaner(pool *pgxpool.Pool, table pgx.Identifier, opts CleanerOptions) (*Cleaner, error) {
	if pool == nil {
		return nil, invalidConfig("pool is required")
	}
	if len(table) == 0 {
		return nil, invalidConfig("table is required")
	}
	opts.setDefaults()
	if opts.DeadRetention > 0 && opts.DeadAttemptsThreshold <= 0 {
		return nil, invalidConfig("dead retention requires DeadAttemptsThreshold > 0")
	}
	return &Cleaner{
		pool:       pool,
		table:      table,
		opts:       opts,
		m:          getMetrics(),
		tableLabel: TableLabel(table),
	}, nil
}

func (c *Cleaner) Run(ctx context.Context) error {
	if !c.opts.Enabled {
		return nil
	}

	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if _, err := c.Purge(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			c.opts.Logger.WithError(err).Warn("outbox: cleaner tick failed")
		}
	}
}

// Purge runs one cleaning pass. Both deletes commit together.
func (c *Cleaner) Purge(ctx context.Context) (PurgeResult, error) {
	var res PurgeResult
	now := time.Now()
	tableName := c.table.Sanitize()

	err := pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE published_at < $1`, tableName),
			now.Add(-c.opts.Retention))
		if err != nil {
			return fmt.Errorf("outbox purge published: %w", err)
		}
		res.Published = tag.RowsAffected()

		if c.opts.DeadRetention <= 0 {
			return nil
		}
		tag, err = tx.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE published_at IS NULL AND attempts >= $1 AND created_at < $2`, tableName),
			c.opts.DeadAttemptsThreshold, now.Add(-c.opts.DeadRetention))
		if err != nil {
			return fmt.Errorf("outbox purge dead: %w", err)
		}
		res.Dead = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return PurgeResult{}, err
	}

	c.m.purgedTotal.WithLabelValues(c.tableLabel, "published").Add(float64(res.Published))
	c.m.purgedTotal.WithLabelValues(c.tableLabel, "dead").Add(float64(res.Dead))
	if res.Published+res.Dead > 0 {
		c.opts.Logger.WithFields(logrus.Fields{"published": res.Published, "dead": res.Dead}).Debug("outbox: purged rows")
	}
	return res, nil
}

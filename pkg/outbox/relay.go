package outbox

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Relay polls one outbox table and hands due messages to a Dispatcher.
// Failed deliveries are retried with exponential backoff until MaxAttempts,
// after which the row stays unpublished ("dead") for the cleaner.
type Relay struct {
	pool       *pgxpool.Pool
	table      pgx.Identifier
	dispatcher Dispatcher
	opts       RelayOptions

	lockKey    int64
	m          *metrics
	tableLabel string
}

func NewRelay(pool *pgxpool.Pool, table pgx.Identifier, dispatcher Dispatcher, opts RelayOptions) (*Relay, error) {
	if pool == nil {
		return nil, invalidConfig("pool is required")
	}
	if len(table) == 0 {
		return nil, invalidConfig("table is required")
	}
	if dispatcher == nil {
		return nil, invalidConfig("dispatcher is required")
	}
	opts.setDefaults()

	label := TableLabel(table)
	return &Relay{
		pool:       pool,
		table:      table,
		dispatcher: dispatcher,
		opts:       opts,
		lockKey:    advisoryLockKey("outbox:" + label),
		m:          getMetrics(),
		tableLabel: label,
	}, nil
}

func (r *Relay) Run(ctx context.Context) error {
	if !r.opts.SingleActive {
		r.m.relayLeader.WithLabelValues(r.tableLabel).Set(1)
		return r.runLoop(ctx, nil)
	}

	for {
		conn, leader, err := r.acquireLeader(ctx)
		if err != nil {
			r.opts.Logger.WithError(err).Warn("outbox: leader election failed")
		}
		if leader {
			r.m.relayLeader.WithLabelValues(r.tableLabel).Set(1)
			r.opts.Logger.WithField("table", r.tableLabel).Info("outbox: relay became leader")
			err = r.runLoop(ctx, conn)
			r.releaseLeader(conn)
			return err
		}
		r.m.relayLeader.WithLabelValues(r.tableLabel).Set(0)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.opts.PollInterval):
		}
	}
}

// acquireLeader pins a connection holding the table's advisory lock.
// The connection is released unless leader is true.
func (r *Relay) acquireLeader(ctx context.Context) (*pgxpool.Conn, bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, false, err
	}
	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1::bigint)`, r.lockKey).Scan(&ok); err != nil {
		conn.Release()
		return nil, false, err
	}
	if !ok {
		conn.Release()
		return nil, false, nil
	}
	return conn, true, nil
}

func (r *Relay) releaseLeader(conn *pgxpool.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_unlock($1::bigint)`, r.lockKey); err != nil {
		r.opts.Logger.WithError(err).Warn("outbox: advisory unlock failed")
	}
	conn.Release()
}

func (r *Relay) runLoop(ctx context.Context, conn *pgxpool.Conn) error {
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	nextDepthAt := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if time.Now().After(nextDepthAt) {
			if err := r.observeQueueDepth(ctx, conn); err != nil {
				r.opts.Logger.WithError(err).Debug("outbox: observe queue depth failed")
			}
			nextDepthAt = time.Now().Add(r.opts.ObserveQueueDepthEvery)
		}

		if err := r.processOnce(ctx, conn); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.opts.Logger.WithError(err).Warn("outbox: process tick failed")
		}
	}
}

type claimed struct {
	ID       uuid.UUID
	ActorID  uuid.UUID
	Topic    string
	Payload  []byte
	EventID  uuid.UUID
	Sequence int64
	Attempts int
}

func (c claimed) fields(table string) logrus.Fields {
	return logrus.Fields{
		"table":    table,
		"topic":    c.Topic,
		"event_id": c.EventID.String(),
		"actor_id": c.ActorID.String(),
		"sequence": c.Sequence,
		"attempts": c.Attempts,
	}
}

func (r *Relay) processOnce(ctx context.Context, conn *pgxpool.Conn) error {
	now := time.Now()
	batch, err := r.claim(ctx, conn, now, now.Add(-r.opts.LockTTL))
	if err != nil {
		return err
	}

	for _, c := range batch {
		dispatchCtx, cancel := context.WithTimeout(ctx, r.opts.DispatchTimeout)
		start := time.Now()
		err := r.dispatcher.Dispatch(dispatchCtx, DispatchedMessage{
			Meta: Meta{
				Table:    r.table,
				ActorID:  c.ActorID,
				Topic:    c.Topic,
				EventID:  c.EventID,
				Sequence: c.Sequence,
				Attempts: c.Attempts,
			},
			Payload: c.Payload,
		})
		cancel()
		latency := time.Since(start)

		var settleErr error
		switch {
		case err == nil:
			r.recordDispatch(c.Topic, "success", latency)
			r.m.deliveryAttempts.WithLabelValues(r.tableLabel, c.Topic).Observe(float64(c.Attempts))
			settleErr = r.settle(ctx, conn, c.ID,
				`published_at = now(), locked_at = NULL, last_error = NULL`)
		case c.Attempts >= r.opts.MaxAttempts:
			r.recordDispatch(c.Topic, "failure", latency)
			r.m.deadTotal.WithLabelValues(r.tableLabel, c.Topic).Inc()
			r.opts.Logger.WithError(err).WithFields(c.fields(r.tableLabel)).Error("outbox: message is dead")
			settleErr = r.settle(ctx, conn, c.ID,
				`locked_at = NULL, last_error = $2, available_at = now()`,
				truncateError(err, r.opts.LastErrorMaxBytes))
		default:
			r.recordDispatch(c.Topic, "failure", latency)
			next := nextAttemptAt(time.Now(), c.Attempts, r.opts)
			settleErr = r.settle(ctx, conn, c.ID,
				`locked_at = NULL, last_error = $2, available_at = $3`,
				truncateError(err, r.opts.LastErrorMaxBytes), next)
		}
		if settleErr != nil {
			r.opts.Logger.WithError(settleErr).WithFields(c.fields(r.tableLabel)).Warn("outbox: settle failed")
		}
	}
	return nil
}

// claim locks up to BatchSize due rows with SKIP LOCKED so concurrent relays
// never hand out the same message twice within LockTTL.
func (r *Relay) claim(ctx context.Context, conn *pgxpool.Conn, now, lockCutoff time.Time) ([]claimed, error) {
	tx, err := r.begin(ctx, conn)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tableName := r.table.Sanitize()
	rows, err := tx.Query(ctx, fmt.Sprintf(
		`SELECT id, COALESCE(actor_id, '00000000-0000-0000-0000-000000000000'::uuid), topic, payload, event_id, sequence, attempts
		   FROM %s
		  WHERE published_at IS NULL
		    AND available_at <= $1
		    AND attempts < $2
		    AND (locked_at IS NULL OR locked_at < $3)
		  ORDER BY available_at, sequence
		  LIMIT $4
		  FOR UPDATE SKIP LOCKED`, tableName),
		now, r.opts.MaxAttempts, lockCutoff, r.opts.BatchSize,
	)
	if err != nil {
		return nil, fmt.Errorf("outbox claim select: %w", err)
	}

	var items []claimed
	var ids []uuid.UUID
	for rows.Next() {
		var c claimed
		if err := rows.Scan(&c.ID, &c.ActorID, &c.Topic, &c.Payload, &c.EventID, &c.Sequence, &c.Attempts); err != nil {
			rows.Close()
			return nil, fmt.Errorf("outbox claim scan: %w", err)
		}
		c.Attempts++
		items = append(items, c)
		ids = append(ids, c.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outbox claim rows: %w", err)
	}

	if len(ids) > 0 {
		update := fmt.Sprintf(`UPDATE %s SET locked_at = $1, attempts = attempts + 1 WHERE id = ANY($2)`, tableName)
		if _, err := tx.Exec(ctx, update, now, pgtype.FlatArray[uuid.UUID](ids)); err != nil {
			return nil, fmt.Errorf("outbox claim update: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return items, nil
}

// settle applies set to an unpublished row. $1 is always the row id.
func (r *Relay) settle(ctx context.Context, conn *pgxpool.Conn, id uuid.UUID, set string, args ...any) error {
	q := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1 AND published_at IS NULL`, r.table.Sanitize(), set)
	var err error
	if conn != nil {
		_, err = conn.Exec(ctx, q, append([]any{id}, args...)...)
	} else {
		_, err = r.pool.Exec(ctx, q, append([]any{id}, args...)...)
	}
	if err != nil {
		return fmt.Errorf("outbox settle: %w", err)
	}
	return nil
}

func (r *Relay) observeQueueDepth(ctx context.Context, conn *pgxpool.Conn) error {
	q := fmt.Sprintf(
		`SELECT count(*), count(*) FILTER (WHERE locked_at IS NOT NULL)
		   FROM %s WHERE published_at IS NULL`,
		r.table.Sanitize(),
	)
	var row pgx.Row
	if conn != nil {
		row = conn.QueryRow(ctx, q)
	} else {
		row = r.pool.QueryRow(ctx, q)
	}
	var pending, locked int64
	if err := row.Scan(&pending, &locked); err != nil {
		return fmt.Errorf("outbox queue depth: %w", err)
	}
	r.m.pending.WithLabelValues(r.tableLabel).Set(float64(pending))
	r.m.locked.WithLabelValues(r.tableLabel).Set(float64(locked))
	return nil
}

func (r *Relay) recordDispatch(topic, result string, latency time.Duration) {
	r.m.dispatchTotal.WithLabelValues(r.tableLabel, topic, result).Inc()
	r.m.dispatchLatency.WithLabelValues(r.tableLabel, topic, result).Observe(latency.Seconds())
}

func (r *Relay) begin(ctx context.Context, conn *pgxpool.Conn) (pgx.Tx, error) {
	if conn != nil {
		return conn.Begin(ctx)
	}
	return r.pool.Begin(ctx)
}

func advisoryLockKey(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}

package clickhouse

import (
	"context"
	"fmt"

	"github.com/leshachaplin/nomad/internal/domain"
)

func (c *Clickhouse) StoreEvents(ctx context.Context, batch domain.IngestBatch) error {
	rows, err := eventsFromDomain(batch.Events)
	if err != nil {
		return err
	}

	b, err := c.conn.PrepareBatch(ctx, `INSERT INTO events`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for i := range rows {
		if errAppend := b.AppendStruct(&rows[i]); errAppend != nil {
			return fmt.Errorf("append event %d: %w", i, errAppend)
		}
	}
	return b.Send()
}

// CountEvents returns how many events are stored for appKey and eventName.
// An empty eventName counts every event of the app.
func (c *Clickhouse) CountEvents(ctx context.Context, appKey, eventName string) (uint64, error) {
	var count uint64
	row := c.conn.QueryRow(ctx,
		`SELECT count() FROM events WHERE app_key = ? AND (? = '' OR event_name = ?)`,
		appKey, eventName, eventName,
	)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

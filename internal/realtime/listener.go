package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Notification is one NOTIFY received on a channel.
type Notification struct {
	Channel string
	Payload string
}

// Listener is a database connection that can subscribe to channels.
type Listener interface {
	Listen(ctx context.Context, channel string) error
	WaitForNotification(ctx context.Context) (Notification, error)
	Close()
}

// Connector opens a new Listener.
type Connector func(ctx context.Context) (Listener, error)

// PoolConnector listens on connections borrowed from pool.
func PoolConnector(pool *pgxpool.Pool) Connector {
	return func(ctx context.Context) (Listener, error) {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire connection: %w", err)
		}
		return &poolListener{conn: conn}, nil
	}
}

type poolListener struct {
	conn *pgxpool.Conn
}

func (l *poolListener) Listen(ctx context.Context, channel string) error {
	_, err := l.conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize())
	return err
}

func (l *poolListener) WaitForNotification(ctx context.Context) (Notification, error) {
	n, err := l.conn.Conn().WaitForNotification(ctx)
	if err != nil {
		return Notification{}, err
	}
	return Notification{Channel: n.Channel, Payload: n.Payload}, nil
}

// Close returns the connection to the pool unsubscribed. A connection that
// cannot be cleaned up is closed instead, so the pool discards it.
func (l *poolListener) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := l.conn.Exec(ctx, "UNLISTEN *"); err != nil {
		_ = l.conn.Conn().Close(ctx)
	}
	l.conn.Release()
}

package listener

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PgDialer открывает выделенное (не из пула) соединение pgx:
// LISTEN привязан к сессии, пул его потеряет.
type PgDialer struct {
	DSN string
}

// Dial подключается к PostgreSQL.
func (d PgDialer) Dial(ctx context.Context) (Conn, error) {
	conn, err := pgx.Connect(ctx, d.DSN)
	if err != nil {
		return nil, err
	}
	return &pgConn{conn: conn}, nil
}

type pgConn struct {
	conn *pgx.Conn
}

func (c *pgConn) Listen(ctx context.Context, channel string) error {
	if _, err := c.conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		return fmt.Errorf("LISTEN: %w", err)
	}
	return nil
}

// WaitForNotification блокируется до уведомления или отмены ctx.
// Таймаут ctx соединение не рвёт: pgconn закрывает его только на
// ошибках, не являющихся таймаутом.
func (c *pgConn) WaitForNotification(ctx context.Context) (Notification, error) {
	n, err := c.conn.WaitForNotification(ctx)
	if err != nil {
		return Notification{}, err
	}
	return Notification{Channel: n.Channel, Payload: n.Payload}, nil
}

func (c *pgConn) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

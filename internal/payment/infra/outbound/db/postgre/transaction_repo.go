package postgre

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL

	"github.com/davicafu/scandrink/internal/payment/domain"
	sharedDomain "github.com/davicafu/scandrink/internal/shared/domain"
)

// TransactionRepoPostgres implementa TransactionRepository para PostgreSQL.
type TransactionRepoPostgres struct {
	db *sql.DB
}

// Verificaciones estáticas
var (
	_ domain.TransactionRepository  = (*TransactionRepoPostgres)(nil)
	_ sharedDomain.OutboxRepository = (*TransactionRepoPostgres)(nil)
)

func NewTransactionRepoPostgres(db *sql.DB) *TransactionRepoPostgres {
	return &TransactionRepoPostgres{db: db}
}

// ------------------ CRUD + Outbox ------------------

func insertOutboxTx(ctx context.Context, tx *sql.Tx, evt sharedDomain.OutboxEvent) error {
	payloadBytes, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox (id,aggregate_type,aggregate_id,event_type,payload,created_at,processed)
		 VALUES ($1,$2,$3,$4,$5,$6,false)`,
		evt.ID, evt.AggregateType, evt.AggregateID, evt.EventType, payloadBytes, evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	return nil
}

// Save inserta la transacción pendiente y su evento en una transacción.
func (r *TransactionRepoPostgres) Save(ctx context.Context, t *domain.Transaction, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (order_id, item_name, price, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		t.OrderID, t.ItemName, t.Price, string(t.Status), t.CreatedAt,
	)
	if err != nil {
		return err
	}

	if err := insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateStatus actualiza el estado y crea el evento en una transacción.
func (r *TransactionRepoPostgres) UpdateStatus(ctx context.Context, orderID string, status domain.TransactionStatus, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE transactions SET status=$1 WHERE order_id=$2`,
		string(status), orderID,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrTransactionNotFound
	}

	if err := insertOutboxTx(ctx, tx, evt); err != nil {
		return fmt.Errorf("failed to insert outbox: %w", err)
	}

	return tx.Commit()
}

// List devuelve todas las transacciones, las más recientes primero.
func (r *TransactionRepoPostgres) List(ctx context.Context) ([]*domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT order_id, item_name, price, status, created_at FROM transactions ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var status string
		if err := rows.Scan(&t.OrderID, &t.ItemName, &t.Price, &status, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Status = domain.TransactionStatus(status)
		txs = append(txs, &t)
	}

	return txs, rows.Err()
}

// ------------------ Outbox ------------------

// FetchPendingOutbox obtiene los eventos no procesados de la tabla outbox.
func (r *TransactionRepoPostgres) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		 FROM outbox WHERE processed=false ORDER BY created_at LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []sharedDomain.OutboxEvent
	for rows.Next() {
		var evt sharedDomain.OutboxEvent
		var payloadBytes []byte // El payload se lee como JSONB

		if err := rows.Scan(&evt.ID, &evt.AggregateType, &evt.AggregateID, &evt.EventType, &payloadBytes, &evt.CreatedAt); err != nil {
			return nil, err
		}

		var payload map[string]interface{}
		if err := json.Unmarshal(payloadBytes, &payload); err != nil {
			return nil, fmt.Errorf("invalid JSON payload in outbox row %s: %w", evt.ID, err)
		}
		evt.Payload = payload

		events = append(events, evt)
	}

	return events, rows.Err()
}

// MarkOutboxProcessed marca un evento como procesado.
func (r *TransactionRepoPostgres) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE outbox SET processed=true WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("no outbox event found with id %s", id)
	}

	return nil
}

// ------------------ Inicialización de DB ------------------

// InitPostgres crea las tablas transactions y outbox si no existen
func InitPostgres(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS transactions (
            order_id TEXT PRIMARY KEY,
            item_name TEXT NOT NULL,
            price BIGINT NOT NULL,
            status TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS outbox (
            id UUID PRIMARY KEY,
            aggregate_type TEXT NOT NULL,
            aggregate_id TEXT NOT NULL,
            event_type TEXT NOT NULL,
            payload JSONB NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            processed BOOLEAN NOT NULL DEFAULT false
        )
    `)
	return err
}

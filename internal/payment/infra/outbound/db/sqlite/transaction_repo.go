package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/davicafu/scandrink/internal/payment/domain"
	sharedDomain "github.com/davicafu/scandrink/internal/shared/domain"
)

type TransactionRepoSQLite struct {
	db *sql.DB
}

// Verificaciones estáticas
var (
	_ domain.TransactionRepository = (*TransactionRepoSQLite)(nil)
	_ sharedDomain.OutboxRepository = (*TransactionRepoSQLite)(nil)
)

func NewTransactionRepoSQLite(db *sql.DB) *TransactionRepoSQLite {
	return &TransactionRepoSQLite{db: db}
}

// ------------------ Helper DRY para insertar en outbox ------------------

func insertOutboxTx(ctx context.Context, tx *sql.Tx, evt sharedDomain.OutboxEvent) error {
	payloadBytes, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox (id,aggregate_type,aggregate_id,event_type,payload,created_at,processed)
		 VALUES (?,?,?,?,?,?,0)`,
		evt.ID.String(), evt.AggregateType, evt.AggregateID, evt.EventType, string(payloadBytes), evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	return nil
}

// ------------------ Métodos ------------------

// Save inserta la transacción pendiente y su evento en transacción
func (r *TransactionRepoSQLite) Save(ctx context.Context, t *domain.Transaction, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Se ignora si el Commit() es exitoso

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (order_id,item_name,price,status,created_at) VALUES (?,?,?,?,?)`,
		t.OrderID, t.ItemName, t.Price, string(t.Status), t.CreatedAt,
	); err != nil {
		return err
	}

	if err := insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateStatus pasa la transacción a su estado terminal y crea el evento
// Outbox en la misma transacción de DB.
func (r *TransactionRepoSQLite) UpdateStatus(ctx context.Context, orderID string, status domain.TransactionStatus, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE transactions SET status=? WHERE order_id=?`,
		string(status), orderID,
	)
	if err != nil {
		return err
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrTransactionNotFound
	}

	if err := insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

// List devuelve todas las transacciones, las más recientes primero.
func (r *TransactionRepoSQLite) List(ctx context.Context) ([]*domain.Transaction, error) {
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

// ------------------ Inicialización de DB ------------------

// InitSQLite crea las tablas transactions y outbox si no existen
func InitSQLite(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS transactions (
            order_id TEXT PRIMARY KEY,
            item_name TEXT NOT NULL,
            price INTEGER NOT NULL,
            status TEXT NOT NULL,
            created_at DATETIME NOT NULL
        )
    `)
	if err != nil {
		return err
	}

	// Tabla de Outbox
	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS outbox (
            id TEXT PRIMARY KEY,
            aggregate_type TEXT NOT NULL,
            aggregate_id TEXT NOT NULL,
            event_type TEXT NOT NULL,
            payload TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            processed BOOLEAN NOT NULL DEFAULT 0
        )
    `)
	return err
}

// ---------------- Patrón Outbox en Eventos-----------------

// FetchPendingOutbox obtiene eventos pendientes y maneja errores de UUID y JSON
func (r *TransactionRepoSQLite) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		 FROM outbox
		 WHERE processed = 0
		 ORDER BY created_at
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []sharedDomain.OutboxEvent
	for rows.Next() {
		var idStr, aggregateType, aggregateID, eventType, payloadStr string
		var createdAt time.Time

		if err := rows.Scan(&idStr, &aggregateType, &aggregateID, &eventType, &payloadStr, &createdAt); err != nil {
			return nil, err
		}

		parsedID, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID in outbox row: %w", err)
		}

		var payload map[string]interface{}
		if err := json.Unmarshal([]byte(payloadStr), &payload); err != nil {
			return nil, fmt.Errorf("invalid JSON payload in outbox row %s: %w", parsedID, err)
		}

		events = append(events, sharedDomain.OutboxEvent{
			ID:            parsedID,
			AggregateType: aggregateType,
			AggregateID:   aggregateID,
			EventType:     eventType,
			Payload:       payload,
			CreatedAt:     createdAt,
			Processed:     false,
		})
	}

	return events, rows.Err()
}

// MarkOutboxProcessed marca un evento como procesado y devuelve error si falla
func (r *TransactionRepoSQLite) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE outbox SET processed = 1 WHERE id = ?`,
		id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event %s as processed: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get RowsAffected for outbox event %s: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("no outbox event found with id %s", id)
	}

	return nil
}

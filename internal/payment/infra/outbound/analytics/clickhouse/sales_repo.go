package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/davicafu/scandrink/internal/payment/domain"
	sharedUtils "github.com/davicafu/scandrink/internal/shared/infra/utils"
)

// SalesRepo implementa la interfaz SalesAnalytics para ClickHouse.
type SalesRepo struct {
	db *sql.DB
}

// Verificación estática
var _ domain.SalesAnalytics = (*SalesRepo)(nil)

// NewSalesRepo es el constructor. ClickHouse puede tardar en arrancar,
// así que el ping inicial se reintenta antes de rendirse.
func NewSalesRepo(ctx context.Context, addr string, dbName string) (*SalesRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := sharedUtils.Retry(ctx, 3, time.Second, conn.Ping); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	if err := InitClickHouse(conn); err != nil {
		return nil, fmt.Errorf("could not init clickhouse schema: %w", err)
	}

	return &SalesRepo{db: conn}, nil
}

// LogSale inserta una venta liquidada en el log analítico.
func (r *SalesRepo) LogSale(ctx context.Context, t *domain.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sales_log (order_id, item_name, price, status, event_time) VALUES (?, ?, ?, ?, ?)`,
		t.OrderID, t.ItemName, t.Price, string(t.Status), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sale %s: %w", t.OrderID, err)
	}
	return nil
}

// GetDailyTrend devuelve pedidos e ingresos por día en el rango dado.
func (r *SalesRepo) GetDailyTrend(ctx context.Context, start, end time.Time) ([]domain.DailySalesTrend, error) {
	query := `
		SELECT
			toStartOfDay(event_time) AS day,
			countIf(status = 'success') AS orders,
			sumIf(price, status = 'success') AS revenue
		FROM sales_log
		WHERE event_time BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trends []domain.DailySalesTrend
	for rows.Next() {
		var trend domain.DailySalesTrend
		if err := rows.Scan(&trend.Day, &trend.Orders, &trend.Revenue); err != nil {
			return nil, err
		}
		trends = append(trends, trend)
	}
	return trends, rows.Err()
}

// InitClickHouse crea la tabla del log de ventas si no existe.
func InitClickHouse(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sales_log (
			order_id String,
			item_name String,
			price Int64,
			status String,
			event_time DateTime
		) ENGINE = MergeTree()
		ORDER BY event_time
	`)
	return err
}

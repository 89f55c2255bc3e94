package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jimz159753/omnia-api/internal/domain"
)

// InventoryRepository reserves product stock inside the surrounding
// transaction.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

var errNoTransaction = errors.New("inventory reservation requires a transaction")

// Reserve locks every referenced product row, validates stock for all of
// them, and only then issues the decrements. Rows are locked in sorted id
// order so concurrent reservations over overlapping product sets cannot
// deadlock. Any failure rolls the surrounding transaction back.
func (r *InventoryRepository) Reserve(ctx context.Context, required map[string]int) error {
	if len(required) == 0 {
		return nil
	}
	if txFromContext(ctx) == nil {
		return errNoTransaction
	}

	ids := make([]string, 0, len(required))
	for id := range required {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	const lockQuery = `SELECT id, stock FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	rows, err := query(ctx, r.pool, lockQuery, ids)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidProductRef
		}
		return fmt.Errorf("lock products: %w", err)
	}

	stocks := make(map[string]int, len(ids))
	for rows.Next() {
		var (
			id    string
			stock int
		)
		if err := rows.Scan(&id, &stock); err != nil {
			rows.Close()
			return fmt.Errorf("scan product stock: %w", err)
		}
		stocks[id] = stock
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidProductRef
		}
		return fmt.Errorf("lock products: %w", err)
	}

	for _, id := range ids {
		available, ok := stocks[id]
		if !ok {
			return domain.ErrInvalidProductRef
		}
		if available < required[id] {
			return &domain.InsufficientStockError{
				ProductID: id,
				Required:  required[id],
				Available: available,
			}
		}
	}

	const decrement = `UPDATE products SET stock = stock - $2 WHERE id = $1`
	for _, id := range ids {
		if _, err := exec(ctx, r.pool, decrement, id, required[id]); err != nil {
			return fmt.Errorf("decrement stock for %s: %w", id, err)
		}
	}
	return nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jimz159753/omnia-api/internal/domain"
)

// CatalogRepository reads the product and service catalog owned by the
// CRUD layer. Read-only here.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) ProductsByID(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	const q = `SELECT id, name, cost, price, stock FROM products WHERE id = ANY($1)`

	rows, err := query(ctx, r.pool, q, ids)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidProductRef
		}
		return nil, fmt.Errorf("products by id: %w", err)
	}
	defer rows.Close()

	products := make(map[string]domain.Product)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Cost, &p.Price, &p.Stock); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidProductRef
		}
		return nil, fmt.Errorf("products by id: %w", err)
	}
	return products, nil
}

func (r *CatalogRepository) ServicesByID(ctx context.Context, ids []string) (map[string]domain.Service, error) {
	const q = `SELECT id, name, price, duration_min FROM services WHERE id = ANY($1)`

	rows, err := query(ctx, r.pool, q, ids)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidServiceRef
		}
		return nil, fmt.Errorf("services by id: %w", err)
	}
	defer rows.Close()

	services := make(map[string]domain.Service)
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Price, &s.DurationMin); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidServiceRef
		}
		return nil, fmt.Errorf("services by id: %w", err)
	}
	return services, nil
}

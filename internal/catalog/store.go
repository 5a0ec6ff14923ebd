package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/dipta-sdd/campaignbay-sub002/internal/db"
)

// PostgresStore reads products, variations, tags and categories from Postgres.
type PostgresStore struct {
	DB db.DBTX
}

// NewPostgresStore constructs a catalog store over the given connection.
func NewPostgresStore(conn db.DBTX) *PostgresStore {
	return &PostgresStore{DB: conn}
}

const getProductSQL = `
SELECT p.id,
       COALESCE(p.parent_id, 0),
       p.name,
       p.product_type,
       p.price::text,
       p.regular_price::text,
       ARRAY(SELECT v.id FROM products v WHERE v.parent_id = p.id ORDER BY v.id),
       ARRAY(SELECT t.tag_id FROM product_tags t WHERE t.product_id = COALESCE(p.parent_id, p.id) ORDER BY t.tag_id),
       ARRAY(SELECT c.category_id FROM product_categories c WHERE c.product_id = COALESCE(p.parent_id, p.id) ORDER BY c.category_id)
FROM products p
WHERE p.id = $1`

// GetProductByID loads a product together with its variation, tag and
// category ids. Variations inherit tags and categories from their parent.
func (s *PostgresStore) GetProductByID(ctx context.Context, id int64) (Product, error) {
	if s == nil || s.DB == nil {
		return Product{}, errors.New("catalog store not configured")
	}
	var p Product
	var kind, price, regular string
	err := s.DB.QueryRow(ctx, getProductSQL, id).Scan(
		&p.ID, &p.ParentID, &p.Name, &kind, &price, &regular,
		&p.VariationIDs, &p.TagIDs, &p.CategoryIDs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	p.Kind = Kind(kind)
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return Product{}, fmt.Errorf("product %d price: %w", id, err)
	}
	if p.RegularPrice, err = decimal.NewFromString(regular); err != nil {
		return Product{}, fmt.Errorf("product %d regular price: %w", id, err)
	}
	return p, nil
}

const productIDsByCategorySQL = `
SELECT DISTINCT product_id
FROM product_categories
WHERE category_id = ANY($1)
ORDER BY product_id`

// QueryProductIDsByCategory returns every product id assigned to any of the
// categories. There is no pagination cap.
func (s *PostgresStore) QueryProductIDsByCategory(ctx context.Context, categoryIDs []int64) ([]int64, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("catalog store not configured")
	}
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	rows, err := s.DB.Query(ctx, productIDsByCategorySQL, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("query products by category: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan products by category: %w", err)
	}
	return ids, nil
}

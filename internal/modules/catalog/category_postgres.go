package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/georgemunganga/shopfront-api/internal/database"
)

type categoryPostgresRepo struct{ db *sql.DB }

// NewCategoryPostgresRepository creates a new PostgreSQL category repository.
func NewCategoryPostgresRepository(db *sql.DB) CategoryRepository {
	return &categoryPostgresRepo{db: db}
}

func (r *categoryPostgresRepo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *categoryPostgresRepo) GetCategory(ctx context.Context, id int64) (*Category, error) {
	c := &Category{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	return c, err
}

func (r *categoryPostgresRepo) CreateCategory(ctx context.Context, c *Category) error {
	err := r.db.QueryRowContext(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, c.Name).Scan(&c.ID)
	if database.IsUniqueViolation(err) {
		return ErrCategoryExists
	}
	return err
}

func (r *categoryPostgresRepo) UpdateCategory(ctx context.Context, c *Category) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET name = $1 WHERE id = $2`, c.Name, c.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrCategoryExists
		}
		return err
	}
	return expectOne(res, ErrCategoryNotFound)
}

func (r *categoryPostgresRepo) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrCategoryInUse
		}
		return err
	}
	return expectOne(res, ErrCategoryNotFound)
}

func (r *categoryPostgresRepo) CountProducts(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM product_categories WHERE category_id = $1`, id).Scan(&n)
	return n, err
}

func (r *categoryPostgresRepo) CategoryStats(ctx context.Context) ([]CategoryStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name,
		       COUNT(p.id),
		       COALESCE(SUM(p.stock), 0),
		       COALESCE(AVG(p.price), 0)
		FROM categories c
		LEFT JOIN product_categories pc ON pc.category_id = c.id
		LEFT JOIN products p ON p.id = pc.product_id
		GROUP BY c.id, c.name
		ORDER BY c.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []CategoryStats{}
	for rows.Next() {
		var s CategoryStats
		if err := rows.Scan(&s.Category.ID, &s.Category.Name, &s.ProductCount, &s.TotalStock, &s.AveragePrice); err != nil {
			return nil, err
		}
		s.AveragePrice = s.AveragePrice.Round(2)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/georgemunganga/shopfront-api/internal/database"
	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL product repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const selectProduct = `SELECT p.id, p.name, p.price, p.stock FROM products p`

func (r *postgresRepo) ListProducts(ctx context.Context, f ProductFilter) ([]*Product, int, error) {
	f.normalize()
	where, args := filterClause(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := selectProduct + where + fmt.Sprintf(` ORDER BY p.id LIMIT $%d OFFSET $%d`, n+1, n+2)
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)
	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func filterClause(f ProductFilter) (string, []interface{}) {
	var conds []string
	args := []interface{}{}
	n := 1
	if f.Search != "" {
		conds = append(conds, fmt.Sprintf(`p.name ILIKE $%d`, n))
		args = append(args, "%"+f.Search+"%")
		n++
	}
	if f.CategoryID > 0 {
		conds = append(conds, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = p.id AND pc.category_id = $%d)`, n))
		args = append(args, f.CategoryID)
		n++
	}
	if f.MinPrice != nil {
		conds = append(conds, fmt.Sprintf(`p.price >= $%d`, n))
		args = append(args, *f.MinPrice)
		n++
	}
	if f.MaxPrice != nil {
		conds = append(conds, fmt.Sprintf(`p.price <= $%d`, n))
		args = append(args, *f.MaxPrice)
		n++
	}
	if f.InStock {
		conds = append(conds, `p.stock > 0`)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *postgresRepo) FeaturedProducts(ctx context.Context, limit int) ([]*Product, error) {
	return r.queryProducts(ctx, selectProduct+` WHERE p.stock > 0 ORDER BY p.stock DESC, p.id LIMIT $1`, limit)
}

func (r *postgresRepo) GetProduct(ctx context.Context, id int64) (*Product, error) {
	p := &Product{}
	err := r.db.QueryRowContext(ctx, selectProduct+` WHERE p.id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachRelations(ctx, []*Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) CreateProduct(ctx context.Context, p *Product, categoryIDs []int64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO products (name, price, stock) VALUES ($1, $2, $3) RETURNING id`,
			p.Name, p.Price, p.Stock,
		).Scan(&p.ID)
		if err != nil {
			if database.IsCheckViolation(err) {
				return ErrNegativeStock
			}
			return fmt.Errorf("insert product: %w", err)
		}
		return linkCategories(ctx, tx, p.ID, categoryIDs)
	})
}

func (r *postgresRepo) UpdateProduct(ctx context.Context, p *Product, categoryIDs []int64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE products SET name = $1, price = $2, stock = $3 WHERE id = $4`,
			p.Name, p.Price, p.Stock, p.ID)
		if err != nil {
			if database.IsCheckViolation(err) {
				return ErrNegativeStock
			}
			return fmt.Errorf("update product: %w", err)
		}
		if err := expectOne(res, ErrProductNotFound); err != nil {
			return err
		}
		if categoryIDs == nil {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_categories WHERE product_id = $1`, p.ID); err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
		return linkCategories(ctx, tx, p.ID, categoryIDs)
	})
}

// linkCategories attaches productID to the listed categories; unknown ids are skipped.
func linkCategories(ctx context.Context, tx database.DBTX, productID int64, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO product_categories (product_id, category_id)
		SELECT $1, id FROM categories WHERE id = ANY($2)
		ON CONFLICT DO NOTHING`,
		productID, pq.Array(categoryIDs))
	if err != nil {
		return fmt.Errorf("link categories: %w", err)
	}
	return nil
}

func (r *postgresRepo) DeleteProduct(ctx context.Context, id int64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cart_entries WHERE product_id = $1 AND sale_id IS NULL`, id); err != nil {
			return fmt.Errorf("drop cart entries: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return ErrProductHasSales
			}
			return fmt.Errorf("delete product: %w", err)
		}
		return expectOne(res, ErrProductNotFound)
	})
}

func (r *postgresRepo) HasSales(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM sale_details WHERE product_id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *postgresRepo) SetStock(ctx context.Context, id int64, stock int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET stock = $1 WHERE id = $2`, stock, id)
	if err != nil {
		if database.IsCheckViolation(err) {
			return ErrNegativeStock
		}
		return err
	}
	return expectOne(res, ErrProductNotFound)
}

func (r *postgresRepo) AddImage(ctx context.Context, img *Image) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if img.IsMain {
			if _, err := tx.ExecContext(ctx,
				`UPDATE product_images SET is_main = FALSE WHERE product_id = $1`, img.ProductID); err != nil {
				return fmt.Errorf("demote images: %w", err)
			}
		}
		err := tx.QueryRowContext(ctx, `
			INSERT INTO product_images (product_id, category_id, path, alt_text, is_main)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5)
			RETURNING id`,
			img.ProductID, img.CategoryID, img.Path, img.AltText, img.IsMain,
		).Scan(&img.ID)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return ErrProductNotFound
			}
			return fmt.Errorf("insert image: %w", err)
		}
		return nil
	})
}

func (r *postgresRepo) DeleteImage(ctx context.Context, productID, imageID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM product_images WHERE id = $1 AND product_id = $2`, imageID, productID)
	if err != nil {
		return err
	}
	return expectOne(res, ErrImageNotFound)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (r *postgresRepo) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p := &Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachRelations(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// attachRelations loads categories and images for products with one query each.
func (r *postgresRepo) attachRelations(ctx context.Context, products []*Product) error {
	if len(products) == 0 {
		return nil
	}
	byID := make(map[int64]*Product, len(products))
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT pc.product_id, c.id, c.name
		FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id = ANY($1)
		ORDER BY c.id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var productID int64
		var c Category
		if err := rows.Scan(&productID, &c.ID, &c.Name); err != nil {
			return err
		}
		if p, ok := byID[productID]; ok {
			p.Categories = append(p.Categories, c)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	images, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, category_id, path, alt_text, is_main
		FROM product_images
		WHERE product_id = ANY($1)
		ORDER BY id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load images: %w", err)
	}
	defer images.Close()
	for images.Next() {
		var img Image
		var categoryID sql.NullInt64
		var alt sql.NullString
		if err := images.Scan(&img.ID, &img.ProductID, &categoryID, &img.Path, &alt, &img.IsMain); err != nil {
			return err
		}
		if categoryID.Valid {
			img.CategoryID = &categoryID.Int64
		}
		img.AltText = alt.String
		if p, ok := byID[img.ProductID]; ok {
			p.Images = append(p.Images, img)
		}
	}
	return images.Err()
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

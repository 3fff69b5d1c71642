package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/georgemunganga/shopfront-api/internal/database"
	"github.com/georgemunganga/shopfront-api/internal/modules/catalog"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL cart and sales repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const (
	selectEntry = `
		SELECT ce.id, ce.user_id, ce.product_id, ce.quantity, ce.added_at,
		       p.name, p.price, p.stock
		FROM cart_entries ce
		JOIN products p ON p.id = ce.product_id`

	selectSale = `
		SELECT s.id, s.user_id, u.name, s.description, s.created_at
		FROM sales s
		JOIN users u ON u.id = s.user_id`
)

// ── cart ─────────────────────────────────────────────────────────────────────

func (r *postgresRepo) AddToCart(ctx context.Context, userID, productID int64, qty int) (*CartEntry, error) {
	var entryID int64
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var (
			name  string
			stock int
		)
		err := tx.QueryRowContext(ctx,
			`SELECT name, stock FROM products WHERE id = $1 FOR SHARE`, productID).Scan(&name, &stock)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		if err != nil {
			return fmt.Errorf("lock product: %w", err)
		}
		if qty > stock {
			return insufficientStock(name)
		}

		var merged int
		err = tx.QueryRowContext(ctx, `
			INSERT INTO cart_entries (user_id, product_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, product_id) WHERE sale_id IS NULL
			DO UPDATE SET quantity = cart_entries.quantity + EXCLUDED.quantity, added_at = NOW()
			RETURNING id, quantity`,
			userID, productID, qty,
		).Scan(&entryID, &merged)
		if err != nil {
			return fmt.Errorf("upsert cart entry: %w", err)
		}
		if merged > stock {
			return insufficientStock(name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.getEntry(ctx, userID, entryID)
}

func (r *postgresRepo) UpdateCartEntry(ctx context.Context, userID, entryID int64, qty int) (*CartEntry, error) {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var (
			name  string
			stock int
		)
		err := tx.QueryRowContext(ctx, `
			SELECT p.name, p.stock
			FROM cart_entries ce
			JOIN products p ON p.id = ce.product_id
			WHERE ce.id = $1 AND ce.user_id = $2 AND ce.sale_id IS NULL
			FOR UPDATE OF ce`,
			entryID, userID,
		).Scan(&name, &stock)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEntryNotFound
		}
		if err != nil {
			return fmt.Errorf("lock cart entry: %w", err)
		}
		if qty > stock {
			return insufficientStock(name)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE cart_entries SET quantity = $1, added_at = NOW() WHERE id = $2`, qty, entryID); err != nil {
			return fmt.Errorf("update cart entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.getEntry(ctx, userID, entryID)
}

func (r *postgresRepo) RemoveCartEntry(ctx context.Context, userID, entryID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_entries WHERE id = $1 AND user_id = $2 AND sale_id IS NULL`, entryID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *postgresRepo) ClearCart(ctx context.Context, userID int64) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_entries WHERE user_id = $1 AND sale_id IS NULL`, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *postgresRepo) ListCart(ctx context.Context, userID int64) ([]CartEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		selectEntry+` WHERE ce.user_id = $1 AND ce.sale_id IS NULL ORDER BY ce.added_at, ce.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []CartEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (r *postgresRepo) getEntry(ctx context.Context, userID, entryID int64) (*CartEntry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx,
		selectEntry+` WHERE ce.id = $1 AND ce.user_id = $2`, entryID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	return e, err
}

// ── checkout ─────────────────────────────────────────────────────────────────

type checkoutLine struct {
	entryID   int64
	productID int64
	quantity  int
	name      string
	price     decimal.Decimal
	stock     int
}

// Checkout locks the user's live entries and their products in product id order,
// re-checks stock, then writes the sale header, one detail per entry, the stock
// decrements and the entry links. Any failure rolls the whole sale back.
func (r *postgresRepo) Checkout(ctx context.Context, userID int64, description string) (*Sale, error) {
	sale := &Sale{UserID: userID, Description: description, Details: []Detail{}}
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		lines, err := lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		for _, l := range lines {
			if l.quantity > l.stock {
				return insufficientStock(l.name)
			}
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO sales (user_id, description) VALUES ($1, $2) RETURNING id, created_at`,
			userID, description,
		).Scan(&sale.ID, &sale.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		for _, l := range lines {
			entryID := l.entryID
			d := Detail{
				SaleID:      sale.ID,
				ProductID:   l.productID,
				CartEntryID: &entryID,
				Quantity:    l.quantity,
				Value:       lineValue(l.price, l.quantity),
			}
			err := tx.QueryRowContext(ctx, `
				INSERT INTO sale_details (sale_id, product_id, cart_entry_id, quantity, value)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id, created_at`,
				sale.ID, l.productID, l.entryID, l.quantity, d.Value,
			).Scan(&d.ID, &d.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert sale detail: %w", err)
			}

			res, err := tx.ExecContext(ctx,
				`UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1`, l.quantity, l.productID)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return insufficientStock(l.name)
			}

			if _, err := tx.ExecContext(ctx,
				`UPDATE cart_entries SET sale_id = $1 WHERE id = $2`, sale.ID, l.entryID); err != nil {
				return fmt.Errorf("link cart entry: %w", err)
			}

			d.Product = &catalog.Product{ID: l.productID, Name: l.name, Price: l.price, Stock: l.stock - l.quantity}
			sale.Details = append(sale.Details, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sale.Total = sumDetails(sale.Details)
	return sale, nil
}

func lockCart(ctx context.Context, tx database.DBTX, userID int64) ([]checkoutLine, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT ce.id, ce.product_id, ce.quantity, p.name, p.price, p.stock
		FROM cart_entries ce
		JOIN products p ON p.id = ce.product_id
		WHERE ce.user_id = $1 AND ce.sale_id IS NULL
		ORDER BY p.id
		FOR UPDATE`, userID)
	if err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}
	defer rows.Close()

	var lines []checkoutLine
	for rows.Next() {
		var l checkoutLine
		if err := rows.Scan(&l.entryID, &l.productID, &l.quantity, &l.name, &l.price, &l.stock); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ── history ──────────────────────────────────────────────────────────────────

func (r *postgresRepo) ListSales(ctx context.Context, f SaleFilter) ([]*Sale, int, error) {
	f.normalize()
	where, args := "", []interface{}{}
	if f.UserID > 0 {
		where, args = ` WHERE s.user_id = $1`, append(args, f.UserID)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales s`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := selectSale + where + fmt.Sprintf(` ORDER BY s.created_at DESC, s.id DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	sales := []*Sale{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.attachDetails(ctx, sales); err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

func (r *postgresRepo) GetSale(ctx context.Context, id int64) (*Sale, error) {
	s, err := scanSale(r.db.QueryRowContext(ctx, selectSale+` WHERE s.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachDetails(ctx, []*Sale{s}); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *postgresRepo) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	st := &Stats{}
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE created_at >= $1)
		FROM sales`, since).Scan(&st.TotalSales, &st.RecentSales)
	if err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(value), 0) FROM sale_details`).Scan(&st.TotalRevenue); err != nil {
		return nil, err
	}
	if st.TotalSales > 0 {
		st.AverageSale = st.TotalRevenue.Div(decimal.NewFromInt(int64(st.TotalSales))).Round(2)
	}
	return st, nil
}

// attachDetails loads the details of every sale with one query and computes totals.
func (r *postgresRepo) attachDetails(ctx context.Context, sales []*Sale) error {
	if len(sales) == 0 {
		return nil
	}
	byID := make(map[int64]*Sale, len(sales))
	ids := make([]int64, 0, len(sales))
	for _, s := range sales {
		s.Details = []Detail{}
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT d.id, d.sale_id, d.product_id, d.cart_entry_id, d.quantity, d.value, d.created_at,
		       p.name, p.price, p.stock
		FROM sale_details d
		JOIN products p ON p.id = d.product_id
		WHERE d.sale_id = ANY($1)
		ORDER BY d.id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load sale details: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			d       Detail
			entryID sql.NullInt64
			p       catalog.Product
		)
		if err := rows.Scan(&d.ID, &d.SaleID, &d.ProductID, &entryID, &d.Quantity, &d.Value, &d.CreatedAt,
			&p.Name, &p.Price, &p.Stock); err != nil {
			return err
		}
		if entryID.Valid {
			d.CartEntryID = &entryID.Int64
		}
		p.ID = d.ProductID
		d.Product = &p
		if s, ok := byID[d.SaleID]; ok {
			s.Details = append(s.Details, d)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, s := range sales {
		s.Total = sumDetails(s.Details)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*CartEntry, error) {
	e := &CartEntry{}
	p := &catalog.Product{}
	if err := row.Scan(&e.ID, &e.UserID, &e.ProductID, &e.Quantity, &e.AddedAt,
		&p.Name, &p.Price, &p.Stock); err != nil {
		return nil, err
	}
	p.ID = e.ProductID
	e.Product = p
	e.Subtotal = lineValue(p.Price, e.Quantity)
	return e, nil
}

func scanSale(row rowScanner) (*Sale, error) {
	s := &Sale{}
	var desc sql.NullString
	if err := row.Scan(&s.ID, &s.UserID, &s.UserName, &desc, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Description = desc.String
	return s, nil
}

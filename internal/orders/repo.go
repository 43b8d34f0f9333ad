package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the Postgres-backed Store.
type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, order_number, status, paid, organization_id, user_id,
	customer_name, customer_email, total_cents, item_count, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var status string
	err := row.Scan(&o.ID, &o.OrderNumber, &status, &o.Paid, &o.OrganizationID, &o.UserID,
		&o.CustomerName, &o.CustomerEmail, &o.TotalCents, &o.ItemCount, &o.CreatedAt, &o.UpdatedAt)
	o.Status = Status(status)
	return o, err
}

func (r *Repo) FindByID(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return Order{}, classify(err)
	}
	return o, nil
}

// UpdateStatus writes the new status only if the row still holds from.
func (r *Repo) UpdateStatus(ctx context.Context, id string, from, to Status) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `
		UPDATE orders SET status=$3, updated_at=now()
		WHERE id=$1 AND status=$2
		RETURNING `+orderColumns, id, string(from), string(to)))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Order{}, classify(err)
	}

	// nothing updated: either the order is gone or someone else moved it
	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, id).Scan(&exists); err != nil {
		return Order{}, classify(err)
	}
	if !exists {
		return Order{}, ErrNotFound
	}
	return Order{}, ErrStatusConflict
}

// ListByOrganization returns the newest orders of one store, used by the dashboard.
func (r *Repo) ListByOrganization(ctx context.Context, orgID string, limit int) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE organization_id=$1 ORDER BY created_at DESC LIMIT $2`, orgID, limit)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func classify(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case pgconn.Timeout(err), pgconn.SafeToRetry(err), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTransient, err)
	default:
		return err
	}
}

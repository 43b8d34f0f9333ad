package notifications

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const columns = `id, organization_id, order_id, order_number, type, status, read, created_at,
	customer_name, total_cents, item_count`

func (r *Repo) Insert(ctx context.Context, n Notification) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO order_notifications(`+columns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		n.ID, n.OrganizationID, n.OrderID, n.OrderNumber, string(n.Type), n.Status, n.Read, n.CreatedAt,
		n.CustomerName, n.TotalCents, n.ItemCount)
	return err
}

func (r *Repo) List(ctx context.Context, organizationID string, limit int) ([]Notification, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+columns+` FROM order_notifications
		WHERE organization_id=$1 ORDER BY created_at DESC LIMIT $2`, organizationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *Repo) UnreadCount(ctx context.Context, organizationID string) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM order_notifications
		WHERE organization_id=$1 AND NOT read`, organizationID).Scan(&n)
	return n, err
}

func (r *Repo) Get(ctx context.Context, id string) (Notification, error) {
	n, err := scan(r.DB.QueryRow(ctx, `SELECT `+columns+` FROM order_notifications WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Notification{}, ErrNotFound
	}
	return n, err
}

// MarkRead is idempotent; it never sets read back to false.
func (r *Repo) MarkRead(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `UPDATE order_notifications SET read=true WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) MarkAllRead(ctx context.Context, organizationID string) (int, error) {
	ct, err := r.DB.Exec(ctx, `UPDATE order_notifications SET read=true
		WHERE organization_id=$1 AND NOT read`, organizationID)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

func scan(row pgx.Row) (Notification, error) {
	var n Notification
	var typ string
	err := row.Scan(&n.ID, &n.OrganizationID, &n.OrderID, &n.OrderNumber, &typ, &n.Status, &n.Read, &n.CreatedAt,
		&n.CustomerName, &n.TotalCents, &n.ItemCount)
	n.Type = Type(typ)
	return n, err
}

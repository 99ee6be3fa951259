package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// rowQuerier is the slice of pgxpool.Pool the repository needs.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db    rowQuerier
	table string
}

// NewPostgresRepository initializes a repo backed by a pgx pool (or anything
// with the same QueryRow signature).
func NewPostgresRepository(db rowQuerier, table string) *PostgresRepository {
	if db == nil {
		panic("leads: pgx pool required")
	}
	if table == "" {
		table = "leads"
	}
	return &PostgresRepository{db: db, table: table}
}

// Create inserts a new row and returns it with the database-generated id.
func (r *PostgresRepository) Create(ctx context.Context, lead *Lead) (*Lead, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, phone, telegram, whatsapp, website, budget, source, utm)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text, created_at
	`, pgx.Identifier{r.table}.Sanitize())

	var (
		id        string
		createdAt time.Time
	)
	if err := r.db.QueryRow(ctx, query,
		lead.Name,
		lead.Phone,
		lead.Telegram,
		lead.WhatsApp,
		lead.Website,
		lead.Budget,
		lead.Source,
		jsonArg(lead.UTM),
	).Scan(&id, &createdAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, &StoreError{Detail: pgErr.Message, Err: err}
		}
		return nil, &StoreError{Err: fmt.Errorf("leads: insert failed: %w", err)}
	}

	stored := *lead
	stored.ID = id
	stored.CreatedAt = createdAt
	return &stored, nil
}

func jsonArg(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

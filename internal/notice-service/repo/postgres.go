package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// CurrentID identifica o único aviso vigente; publicar sobrescreve o anterior
const CurrentID = "notify"

var ErrNoNotice = errors.New("no notice published")

type Notice struct {
	Message   string    `json:"message"`
	SentBy    string    `json:"sentBy"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

type Postgres struct {
	DB *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{DB: db} }

// Put grava o aviso vigente (upsert na linha fixa)
func (p *Postgres) Put(ctx context.Context, n Notice) (Notice, error) {
	row := p.DB.QueryRowContext(ctx, `
		INSERT INTO notices (id, message, sent_by, active, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE
		   SET message = EXCLUDED.message,
		       sent_by = EXCLUDED.sent_by,
		       active = EXCLUDED.active,
		       created_at = EXCLUDED.created_at
		RETURNING created_at`, CurrentID, n.Message, n.SentBy, n.Active)
	if err := row.Scan(&n.CreatedAt); err != nil {
		return Notice{}, err
	}
	return n, nil
}

func (p *Postgres) Current(ctx context.Context) (Notice, error) {
	var n Notice
	err := p.DB.QueryRowContext(ctx, `
		SELECT message, sent_by, active, created_at FROM notices WHERE id = $1`, CurrentID).
		Scan(&n.Message, &n.SentBy, &n.Active, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Notice{}, ErrNoNotice
	}
	return n, err
}

// SetActive liga/desliga o aviso sem trocar o texto
func (p *Postgres) SetActive(ctx context.Context, active bool) (Notice, error) {
	var n Notice
	err := p.DB.QueryRowContext(ctx, `
		UPDATE notices SET active = $2 WHERE id = $1
		RETURNING message, sent_by, active, created_at`, CurrentID, active).
		Scan(&n.Message, &n.SentBy, &n.Active, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Notice{}, ErrNoNotice
	}
	return n, err
}

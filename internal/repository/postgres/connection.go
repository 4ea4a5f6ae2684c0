package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/studymate/internal/models"
)

const connectionColumns = `id, requester_id, receiver_id, status, created_at`

type ConnectionStore struct {
	pool *pgxpool.Pool
}

func NewConnectionStore(pool *pgxpool.Pool) *ConnectionStore {
	return &ConnectionStore{pool: pool}
}

func (s *ConnectionStore) Create(ctx context.Context, c models.Connection) (*models.Connection, error) {
	if c.Status == "" {
		c.Status = models.ConnectionPending
	}

	query := `
		INSERT INTO connections (id, requester_id, receiver_id, status, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING ` + connectionColumns

	created, err := scanConnection(s.pool.QueryRow(ctx, query,
		uuid.NewString(), c.RequesterID, c.ReceiverID, string(c.Status),
	))
	if err != nil {
		return nil, fmt.Errorf("insert connection: %w", err)
	}
	return created, nil
}

func (s *ConnectionStore) GetByID(ctx context.Context, id string) (*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = $1`

	c, err := scanConnection(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return c, nil
}

func (s *ConnectionStore) ListByUser(ctx context.Context, userID string) ([]models.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE requester_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC, seq ASC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	connections := make([]models.Connection, 0)
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		connections = append(connections, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}
	return connections, nil
}

func (s *ConnectionStore) UpdateStatus(ctx context.Context, id string, status models.ConnectionStatus) (*models.Connection, error) {
	query := `UPDATE connections SET status = $2 WHERE id = $1 RETURNING ` + connectionColumns

	c, err := scanConnection(s.pool.QueryRow(ctx, query, id, string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update connection status: %w", err)
	}
	return c, nil
}

func scanConnection(row pgx.Row) (*models.Connection, error) {
	var c models.Connection
	var status string
	if err := row.Scan(&c.ID, &c.RequesterID, &c.ReceiverID, &status, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Status = models.ConnectionStatus(status)
	return &c, nil
}

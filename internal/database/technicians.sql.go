package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const technicianColumns = `id, name, role, created_at`

func (q *Queries) queryTechnicians(ctx context.Context, sql string, args ...interface{}) ([]Technician, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Technician{}
	for rows.Next() {
		var i Technician
		if err := rows.Scan(&i.ID, &i.Name, &i.Role, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTechnicians = `-- name: ListTechnicians :many
SELECT ` + technicianColumns + `
FROM technicians
ORDER BY name`

func (q *Queries) ListTechnicians(ctx context.Context) ([]Technician, error) {
	return q.queryTechnicians(ctx, listTechnicians)
}

const listTechniciansByRole = `-- name: ListTechniciansByRole :many
SELECT ` + technicianColumns + `
FROM technicians
WHERE COALESCE(role, 'technician') = $1
ORDER BY name`

// ListTechniciansByRole treats a NULL role as technician.
func (q *Queries) ListTechniciansByRole(ctx context.Context, role string) ([]Technician, error) {
	return q.queryTechnicians(ctx, listTechniciansByRole, role)
}

const createTechnician = `-- name: CreateTechnician :one
INSERT INTO technicians (name, role)
VALUES ($1, $2)
ON CONFLICT ((lower(btrim(name)))) DO NOTHING
RETURNING ` + technicianColumns

type CreateTechnicianParams struct {
	Name string      `json:"name"`
	Role pgtype.Text `json:"role"`
}

// CreateTechnician returns pgx.ErrNoRows when the name already exists.
func (q *Queries) CreateTechnician(ctx context.Context, arg CreateTechnicianParams) (Technician, error) {
	row := q.db.QueryRow(ctx, createTechnician, arg.Name, arg.Role)
	var i Technician
	err := row.Scan(&i.ID, &i.Name, &i.Role, &i.CreatedAt)
	return i, err
}

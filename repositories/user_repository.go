package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/corpfest/secret-santa/models"
	"github.com/lib/pq"
)

// UserRepository читает отображаемые данные пользователей из таблицы
// основной платформы. Подсистема обмена её не изменяет.
type UserRepository interface {
	ListByIDs(ctx context.Context, ids []int) (map[int]*models.User, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) ListByIDs(ctx context.Context, ids []int) (map[int]*models.User, error) {
	users := make(map[int]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	query := `SELECT id, first_name, last_name, department, role FROM users WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list users by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Department, &u.Role); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users[u.ID] = u
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dentalhub/internal/domain"
)

const userColumns = `id, first_name, last_name, email, phone, password_hash, role, is_active, created_at, updated_at`

type UserRepo struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{
		db: db,
	}
}

func scanUser(row rowScanner, user *domain.User) error {
	return row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

func (r *UserRepo) Create(ctx context.Context, dto domain.CreateUserDTO) (int64, error) {
	query := `
		INSERT INTO users (first_name, last_name, email, phone, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $7)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query,
		dto.FirstName,
		dto.LastName,
		dto.Email,
		dto.Phone,
		dto.Password,
		dto.Role,
		time.Now(),
	).Scan(&id)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return 0, domain.NewConflictError("пользователь с таким email или телефоном уже существует")
		}
		return 0, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	return id, nil
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	var user domain.User
	if err := scanUser(r.db.QueryRow(ctx, query, arg), &user); err != nil {
		if nf := notFound(err, domain.ErrUserNotFound); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	return &user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "lower(email) = lower($1)", email)
}

func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.getOne(ctx, "phone = $1", phone)
}

func (r *UserRepo) Update(ctx context.Context, id int64, dto domain.UpdateUserDTO) error {
	var b setBuilder
	if dto.FirstName != nil {
		b.add("first_name", *dto.FirstName)
	}
	if dto.LastName != nil {
		b.add("last_name", *dto.LastName)
	}
	if dto.Email != nil {
		b.add("email", *dto.Email)
	}
	if dto.Phone != nil {
		b.add("phone", *dto.Phone)
	}
	if dto.IsActive != nil {
		b.add("is_active", *dto.IsActive)
	}
	if b.empty() {
		return nil
	}

	query, args := b.build("users", id)
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		if isPgError(err, pgUniqueViolation) {
			return domain.NewConflictError("пользователь с таким email или телефоном уже существует")
		}
		return fmt.Errorf("ошибка обновления пользователя: %w", err)
	}

	return nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`

	if _, err := r.db.Exec(ctx, query, passwordHash, time.Now(), id); err != nil {
		return fmt.Errorf("ошибка обновления пароля: %w", err)
	}

	return nil
}

func (r *UserRepo) UpdateRole(ctx context.Context, id int64, role domain.UserRole) error {
	query := `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`

	tag, err := r.db.Exec(ctx, query, role, time.Now(), id)
	if err != nil {
		return fmt.Errorf("ошибка обновления роли пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	query := `UPDATE users SET is_active = FALSE, updated_at = $1 WHERE id = $2`

	if _, err := r.db.Exec(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("ошибка удаления пользователя: %w", err)
	}

	return nil
}

func userWhere(filter domain.UserFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.Role != nil {
		w.add("role = ?", *filter.Role)
	}
	return w
}

func (r *UserRepo) List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error) {
	w := userWhere(filter)
	query := `SELECT ` + userColumns + ` FROM users` + w.sql() + ` ORDER BY id` + w.page(filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса списка пользователей: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var user domain.User
		if err := scanUser(rows, &user); err != nil {
			return nil, fmt.Errorf("ошибка чтения данных пользователя: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка обработки результатов: %w", err)
	}

	return users, nil
}

func (r *UserRepo) Count(ctx context.Context, filter domain.UserFilter) (int, error) {
	w := userWhere(filter)

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`+w.sql(), w.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчета пользователей: %w", err)
	}

	return count, nil
}

func (r *UserRepo) CountByRole(ctx context.Context) (map[domain.UserRole]int, error) {
	rows, err := r.db.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчета пользователей по ролям: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.UserRole]int)
	for rows.Next() {
		var role domain.UserRole
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("ошибка чтения статистики пользователей: %w", err)
		}
		counts[role] = count
	}

	return counts, rows.Err()
}

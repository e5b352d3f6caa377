package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dentalhub/internal/domain"
)

const inventoryColumns = `id, clinic_id, name, sku, unit, quantity, min_quantity, unit_cost, expires_at, created_at, updated_at`

type InventoryRepo struct {
	db *pgxpool.Pool
}

func NewInventoryRepository(db *pgxpool.Pool) *InventoryRepo {
	return &InventoryRepo{
		db: db,
	}
}

func scanInventoryItem(row rowScanner, i *domain.InventoryItem) error {
	return row.Scan(
		&i.ID,
		&i.ClinicID,
		&i.Name,
		&i.SKU,
		&i.Unit,
		&i.Quantity,
		&i.MinQuantity,
		&i.UnitCost,
		&i.ExpiresAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
}

func (r *InventoryRepo) Create(ctx context.Context, clinicID int64, dto domain.CreateInventoryItemDTO) (int64, error) {
	query := `
		INSERT INTO inventory_items (clinic_id, name, sku, unit, quantity, min_quantity, unit_cost, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query,
		clinicID,
		dto.Name,
		dto.SKU,
		dto.Unit,
		dto.Quantity,
		dto.MinQuantity,
		dto.UnitCost,
		dto.ExpiresAt,
		time.Now(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания позиции склада: %w", err)
	}

	return id, nil
}

func (r *InventoryRepo) GetByID(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := scanInventoryItem(r.db.QueryRow(ctx, `SELECT `+inventoryColumns+` FROM inventory_items WHERE id = $1`, id), &item)
	if err != nil {
		if nf := notFound(err, domain.ErrInventoryItemNotFound); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("ошибка получения позиции склада: %w", err)
	}
	return &item, nil
}

func (r *InventoryRepo) Update(ctx context.Context, id int64, dto domain.UpdateInventoryItemDTO) error {
	var b setBuilder
	if dto.Name != nil {
		b.add("name", *dto.Name)
	}
	if dto.SKU != nil {
		b.add("sku", *dto.SKU)
	}
	if dto.Unit != nil {
		b.add("unit", *dto.Unit)
	}
	if dto.MinQuantity != nil {
		b.add("min_quantity", *dto.MinQuantity)
	}
	if dto.UnitCost != nil {
		b.add("unit_cost", *dto.UnitCost)
	}
	if dto.ExpiresAt != nil {
		b.add("expires_at", *dto.ExpiresAt)
	}
	if b.empty() {
		return nil
	}

	query, args := b.build("inventory_items", id)
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления позиции склада: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInventoryItemNotFound
	}

	return nil
}

func (r *InventoryRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления позиции склада: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInventoryItemNotFound
	}
	return nil
}

func inventoryWhere(filter domain.InventoryFilter) *whereBuilder {
	w := &whereBuilder{}
	w.add("clinic_id = ?", filter.ClinicID)
	if filter.LowStockOnly {
		w.add("quantity <= min_quantity")
	}
	return w
}

func (r *InventoryRepo) List(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryItem, error) {
	w := inventoryWhere(filter)
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items` + w.sql() + ` ORDER BY name, id` + w.page(filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса списка склада: %w", err)
	}
	defer rows.Close()

	items := make([]domain.InventoryItem, 0)
	for rows.Next() {
		var item domain.InventoryItem
		if err := scanInventoryItem(rows, &item); err != nil {
			return nil, fmt.Errorf("ошибка чтения позиции склада: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка обработки результатов: %w", err)
	}

	return items, nil
}

func (r *InventoryRepo) Count(ctx context.Context, filter domain.InventoryFilter) (int, error) {
	w := inventoryWhere(filter)

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_items`+w.sql(), w.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчета позиций склада: %w", err)
	}
	return count, nil
}

func (r *InventoryRepo) AdjustQuantity(ctx context.Context, id int64, delta int) (*domain.InventoryItem, error) {
	query := `
		UPDATE inventory_items
		SET quantity = quantity + $1, updated_at = $2
		WHERE id = $3 AND quantity + $1 >= 0
		RETURNING ` + inventoryColumns

	var item domain.InventoryItem
	err := scanInventoryItem(r.db.QueryRow(ctx, query, delta, time.Now(), id), &item)
	if err == nil {
		return &item, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("ошибка изменения остатка: %w", err)
	}

	// no row updated: either the item is missing or the stock would go negative
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, domain.ErrNegativeStock
}

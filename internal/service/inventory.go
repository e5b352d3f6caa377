package service

import (
	"context"

	"go.uber.org/zap"

	"dentalhub/internal/domain"
	"dentalhub/internal/repository"
	"dentalhub/pkg/validator"
)

type InventoryServiceImpl struct {
	repo       repository.InventoryRepository
	clinicRepo repository.ClinicRepository
	logger     *zap.Logger
}

func NewInventoryService(repo repository.InventoryRepository, clinicRepo repository.ClinicRepository, logger *zap.Logger) *InventoryServiceImpl {
	return &InventoryServiceImpl{
		repo:       repo,
		clinicRepo: clinicRepo,
		logger:     logger,
	}
}

func (s *InventoryServiceImpl) Create(ctx context.Context, ownerID int64, dto domain.CreateInventoryItemDTO) (*domain.InventoryItem, error) {
	clinic, err := ownedClinic(ctx, s.clinicRepo, ownerID)
	if err != nil {
		return nil, err
	}

	dto.Name = validator.SanitizeString(dto.Name)
	if dto.Name == "" {
		return nil, domain.NewValidationError("название позиции не может быть пустым")
	}
	if dto.Quantity < 0 {
		return nil, domain.ErrNegativeStock
	}
	if dto.SKU != nil && !validator.ValidateSKU(*dto.SKU) {
		return nil, domain.NewValidationError("неверный формат артикула")
	}

	id, err := s.repo.Create(ctx, clinic.ID, dto)
	if err != nil {
		s.logger.Error("ошибка создания позиции склада", zap.Int64("clinicID", clinic.ID), zap.Error(err))
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *InventoryServiceImpl) GetByID(ctx context.Context, ownerID, id int64) (*domain.InventoryItem, error) {
	clinic, err := ownedClinic(ctx, s.clinicRepo, ownerID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.ClinicID != clinic.ID {
		return nil, domain.ErrInventoryItemNotFound
	}

	return item, nil
}

func (s *InventoryServiceImpl) Update(ctx context.Context, ownerID, id int64, dto domain.UpdateInventoryItemDTO) (*domain.InventoryItem, error) {
	if _, err := s.GetByID(ctx, ownerID, id); err != nil {
		return nil, err
	}

	if dto.Name != nil {
		dto.Name = PointerTo(validator.SanitizeString(*dto.Name))
		if *dto.Name == "" {
			return nil, domain.NewValidationError("название позиции не может быть пустым")
		}
	}
	if dto.SKU != nil && !validator.ValidateSKU(*dto.SKU) {
		return nil, domain.NewValidationError("неверный формат артикула")
	}

	if err := s.repo.Update(ctx, id, dto); err != nil {
		s.logger.Error("ошибка обновления позиции склада", zap.Int64("itemID", id), zap.Error(err))
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *InventoryServiceImpl) Delete(ctx context.Context, ownerID, id int64) error {
	if _, err := s.GetByID(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("ошибка удаления позиции склада", zap.Int64("itemID", id), zap.Error(err))
		return err
	}

	return nil
}

func (s *InventoryServiceImpl) List(ctx context.Context, ownerID int64, lowStockOnly bool, limit, offset int) ([]domain.InventoryItem, int, error) {
	clinic, err := ownedClinic(ctx, s.clinicRepo, ownerID)
	if err != nil {
		return nil, 0, err
	}

	filter := domain.InventoryFilter{
		ClinicID:     clinic.ID,
		LowStockOnly: lowStockOnly,
		Limit:        limit,
		Offset:       offset,
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка получения склада", zap.Int64("clinicID", clinic.ID), zap.Error(err))
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка подсчета позиций склада", zap.Int64("clinicID", clinic.ID), zap.Error(err))
		return nil, 0, err
	}

	return items, total, nil
}

// Adjust changes the stock by dto.Delta atomically; the quantity never drops below zero.
func (s *InventoryServiceImpl) Adjust(ctx context.Context, ownerID, id int64, dto domain.AdjustStockDTO) (*domain.InventoryItem, error) {
	if dto.Delta == 0 {
		return nil, domain.NewValidationError("изменение количества не может быть нулевым")
	}

	if _, err := s.GetByID(ctx, ownerID, id); err != nil {
		return nil, err
	}

	item, err := s.repo.AdjustQuantity(ctx, id, dto.Delta)
	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			s.logger.Error("ошибка изменения остатка", zap.Int64("itemID", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("остаток изменен",
		zap.Int64("itemID", id),
		zap.Int("delta", dto.Delta),
		zap.String("reason", dto.Reason),
		zap.Int("quantity", item.Quantity))

	if item.LowStock() {
		s.logger.Warn("низкий остаток на складе", zap.Int64("itemID", id), zap.Int("quantity", item.Quantity))
	}

	return item, nil
}

package database

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"puja-booking-server/models"
	"puja-booking-server/types"
)

// CatalogStore resolves the things a booking points at
type CatalogStore struct {
	db *gorm.DB
}

func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// FindService loads an active service with its price categories
func (s *CatalogStore) FindService(ctx context.Context, id uint) (*models.Service, error) {
	var service models.Service
	err := s.db.WithContext(ctx).Preload("Prices").Where("is_active = ?", true).First(&service, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrServiceNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find service %d", id)
	}
	return &service, nil
}

// FindPuja loads an active puja
func (s *CatalogStore) FindPuja(ctx context.Context, id uint) (*models.Puja, error) {
	var puja models.Puja
	err := s.db.WithContext(ctx).Where("is_active = ?", true).First(&puja, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrPujaNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find puja %d", id)
	}
	return &puja, nil
}

func (s *CatalogStore) FindAgent(ctx context.Context, id uint) (*models.Agent, error) {
	var agent models.Agent
	err := s.db.WithContext(ctx).First(&agent, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrAgentNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find agent %d", id)
	}
	return &agent, nil
}

package repository

import (
	"context"

	"doctor-listing-service/internal/domain/entity"

	"github.com/google/uuid"
)

type DoctorRepository interface {
	Search(ctx context.Context, query *entity.DoctorQuery) ([]entity.Doctor, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error)
	DistinctSpecialties(ctx context.Context) ([]string, error)
	DistinctLocations(ctx context.Context) ([]string, error)
}

package amenities

import (
	"context"
	"log"

	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/Domenick1991/compoundaccess/internal/repository"
)

type AmenityUseCase interface {
	List(ctx context.Context) ([]domain.Amenity, error)
	GetByID(ctx context.Context, id string) (*domain.Amenity, error)
}

type AmenityCache interface {
	GetAmenity(ctx context.Context, id string) (*domain.Amenity, error)
	SetAmenity(ctx context.Context, amenity *domain.Amenity) error
}

type AmenityService struct {
	repo  repository.AmenityRepository
	cache AmenityCache
}

func NewAmenityService(repo repository.AmenityRepository, cache AmenityCache) *AmenityService {
	return &AmenityService{repo: repo, cache: cache}
}

func (s *AmenityService) List(ctx context.Context) ([]domain.Amenity, error) {
	return s.repo.List(ctx)
}

// GetByID serves amenities from the cache, falling back to the database on a
// miss or a cache error.
func (s *AmenityService) GetByID(ctx context.Context, id string) (*domain.Amenity, error) {
	if s.cache != nil {
		cached, err := s.cache.GetAmenity(ctx, id)
		if err != nil {
			log.Printf("amenity cache read %s: %v", id, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	amenity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetAmenity(ctx, amenity); err != nil {
			log.Printf("amenity cache write %s: %v", id, err)
		}
	}
	return amenity, nil
}

var _ AmenityUseCase = (*AmenityService)(nil)

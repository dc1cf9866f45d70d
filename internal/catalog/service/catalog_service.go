package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pushpak01/pushtoys-render/internal/catalog/cache"
	"github.com/pushpak01/pushtoys-render/internal/catalog/domain"
	"github.com/pushpak01/pushtoys-render/internal/catalog/repository"
)

type CatalogService struct {
	repo  repository.ProductRepository
	cache cache.ProductCache
	log   *zap.SugaredLogger
	sfg   singleflight.Group // Prevents cache stampede
}

func NewCatalogService(repo repository.ProductRepository, cache cache.ProductCache, log *zap.SugaredLogger) *CatalogService {
	return &CatalogService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// GetProduct serves a single product through the read-through cache.
// Concurrent misses for the same id collapse into one repository query.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	v, err, _ := s.sfg.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {

		product, err := s.cache.Get(ctx, id)
		if err == nil {
			return product, nil // product is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warnw("cache get error", "product_id", id, "err", err) // log cache error but continue
		}

		product, errGet := s.repo.GetProduct(ctx, id)
		if errGet != nil {
			return nil, errGet
		}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), product)
			if errSet != nil {
				s.log.Warnw("cache set error", "product_id", id, "err", errSet)
			}
		}()

		return product, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Product), nil
}

// GetProducts fetches a batch straight from the repository; absent ids are
// simply missing from the returned map.
func (s *CatalogService) GetProducts(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	products, err := s.repo.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	return products, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, filter domain.Filter) ([]*domain.Product, int, error) {
	return s.repo.ListProducts(ctx, filter)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) error {
	return s.repo.CreateProduct(ctx, p)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, p *domain.Product) error {
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return err
	}

	s.invalidateCache(p.ID)
	return nil
}

func (s *CatalogService) invalidateCache(id int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warnw("cache invalidate error", "product_id", id, "err", err)
	}
}

package catalog

import (
	"context"
	"log"
	"time"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/Domenick1991/tablebot/internal/repository"
)

type CatalogUseCase interface {
	List(ctx context.Context) ([]domain.Table, error)
	Get(ctx context.Context, id int64) (*domain.Table, error)
	Summary(ctx context.Context) ([]ZoneSummary, error)
}

type Cache interface {
	GetTables(ctx context.Context) ([]domain.Table, error)
	SetTables(ctx context.Context, tables []domain.Table) error
}

type ZoneSummary struct {
	Zone   domain.Zone `json:"zone"`
	Tables int         `json:"tables"`
	Seats  int         `json:"seats"`
}

type CatalogService struct {
	repo     repository.TableRepository
	cache    Cache
	cacheTTL time.Duration
}

// NewCatalogService wires a cache-aside catalog. cache may be nil.
func NewCatalogService(repo repository.TableRepository, cache Cache, cacheTTL time.Duration) *CatalogService {
	return &CatalogService{repo: repo, cache: cache, cacheTTL: cacheTTL}
}

func (s *CatalogService) List(ctx context.Context) ([]domain.Table, error) {
	if s.cache != nil {
		cached, err := s.cache.GetTables(ctx)
		if err != nil {
			log.Printf("catalog: cache read: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	tables, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetTables(ctx, tables); err != nil {
			log.Printf("catalog: cache write: %v", err)
		}
	}
	return tables, nil
}

// Get resolves retired tables too so old reservations can be rendered.
func (s *CatalogService) Get(ctx context.Context, id int64) (*domain.Table, error) {
	return s.repo.GetByID(ctx, id)
}

// Summary counts active tables and seats per zone, in zone declaration order.
func (s *CatalogService) Summary(ctx context.Context) ([]ZoneSummary, error) {
	tables, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	byZone := make(map[domain.Zone]*ZoneSummary)
	for _, t := range tables {
		if !t.Active() {
			continue
		}
		zs, ok := byZone[t.Zone]
		if !ok {
			zs = &ZoneSummary{Zone: t.Zone}
			byZone[t.Zone] = zs
		}
		zs.Tables++
		zs.Seats += t.Capacity
	}

	out := make([]ZoneSummary, 0, len(byZone))
	for _, z := range domain.Zones() {
		if zs, ok := byZone[z]; ok {
			out = append(out, *zs)
		}
	}
	return out, nil
}

var _ CatalogUseCase = (*CatalogService)(nil)

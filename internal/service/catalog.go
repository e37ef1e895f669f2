package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/Skotchmaster/easystore/internal/events"
	"github.com/Skotchmaster/easystore/internal/models"
	"github.com/Skotchmaster/easystore/internal/search"
	"github.com/Skotchmaster/easystore/internal/store"
	"github.com/Skotchmaster/easystore/internal/transport"
	"github.com/Skotchmaster/easystore/pkg/logging"
)

type CatalogService struct {
	Products store.Collection[models.ProductSeries]
	Index    search.Index
	Events   events.Publisher
}

type RatingResult struct {
	Rating     float64
	NumRatings int64
}

func (s *CatalogService) List(ctx context.Context) ([]models.ProductSeries, error) {
	items, err := s.Products.Find(ctx, store.Newest)
	return items, classify(err, "list products")
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.ProductSeries, error) {
	p, err := s.Products.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, "product "+id)
	}
	return p, nil
}

func validateCreate(req transport.CreateProductRequest) error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return validation("name is required")
	case strings.TrimSpace(req.Brand) == "":
		return validation("brand is required")
	case strings.TrimSpace(req.Category) == "":
		return validation("category is required")
	case req.Rating < 0 || req.Rating > models.MaxStars:
		return validation("rating must be between 0 and %d", models.MaxStars)
	case req.NumRatings < 0 || req.BoughtLastMonth < 0:
		return validation("counters cannot be negative")
	}
	for _, v := range req.Variants {
		if v.Price < 0 {
			return validation("variant %q has a negative price", v.OptionName)
		}
	}
	return nil
}

// Create stores a new series. A seeded rating is turned back into a sum so
// the derived average starts near the seed.
func (s *CatalogService) Create(ctx context.Context, req transport.CreateProductRequest) (*models.ProductSeries, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	variants := req.Variants
	if variants == nil {
		variants = []models.Variant{}
	}

	p := &models.ProductSeries{
		Name:            strings.TrimSpace(req.Name),
		Brand:           strings.TrimSpace(req.Brand),
		Category:        strings.TrimSpace(req.Category),
		About:           req.About,
		RatingSum:       int64(math.Round(req.Rating * float64(req.NumRatings))),
		NumRatings:      req.NumRatings,
		BoughtLastMonth: req.BoughtLastMonth,
		IsAvailable:     true,
		Variants:        variants,
	}
	if err := s.Products.Insert(ctx, p); err != nil {
		return nil, classify(err, "insert product")
	}

	s.indexProduct(ctx, p)
	s.publish(ctx, events.ProductCreated, p.ID, map[string]any{"name": p.Name, "brand": p.Brand})
	return p, nil
}

// SubmitRating folds one vote into the accumulators. Every call counts.
func (s *CatalogService) SubmitRating(ctx context.Context, id string, stars int) (*RatingResult, error) {
	if !models.ValidStars(stars) {
		return nil, validation("star value must be between %d and %d", models.MinStars, models.MaxStars)
	}

	p, err := s.Products.Increment(ctx, id, map[string]int64{
		models.FieldRatingSum:  int64(stars),
		models.FieldNumRatings: 1,
	})
	if err != nil {
		return nil, classify(err, "rate product "+id)
	}

	res := &RatingResult{Rating: p.Rating(), NumRatings: p.NumRatings}
	s.publish(ctx, events.ProductRated, id, map[string]any{"stars": stars, "rating": res.Rating, "num_ratings": res.NumRatings})
	return res, nil
}

func (s *CatalogService) ToggleAvailability(ctx context.Context, id string) (*models.ProductSeries, error) {
	p, err := s.Products.Toggle(ctx, id, models.FieldIsAvailable)
	if err != nil {
		return nil, classify(err, "toggle product "+id)
	}

	s.publish(ctx, events.ProductStatusChanged, id, map[string]any{"is_available": p.IsAvailable})
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.Products.Delete(ctx, id); err != nil {
		return classify(err, "delete product "+id)
	}

	if s.Index != nil {
		if err := s.Index.Remove(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_remove_failed", "svc", "catalog", "id", id, "error", err)
		}
	}
	s.publish(ctx, events.ProductDeleted, id, nil)
	return nil
}

// Search resolves ids through the configured index and loads the current
// records, skipping ids that no longer exist.
func (s *CatalogService) Search(ctx context.Context, query string) ([]models.ProductSeries, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, validation("query is required")
	}

	ids, err := s.searchIDs(ctx, query)
	if err != nil {
		return nil, classify(err, "search products")
	}

	out := make([]models.ProductSeries, 0, len(ids))
	for _, id := range ids {
		p, err := s.Products.FindByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, classify(err, "load search hit "+id)
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *CatalogService) searchIDs(ctx context.Context, query string) ([]string, error) {
	scan := search.Scan{Products: s.Products}
	if s.Index == nil {
		return scan.Search(ctx, query)
	}

	ids, err := s.Index.Search(ctx, query)
	if err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "svc", "catalog", "reason", "falling back to store scan", "error", err)
		return scan.Search(ctx, query)
	}
	return ids, nil
}

func (s *CatalogService) indexProduct(ctx context.Context, p *models.ProductSeries) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "svc", "catalog", "id", p.ID, "error", err)
	}
}

func (s *CatalogService) publish(ctx context.Context, typ, id string, data any) {
	publish(ctx, s.Events, events.TopicProducts, events.New(typ, id, data))
}

func publish(ctx context.Context, p events.Publisher, topic string, ev events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, topic, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", topic, "type", ev.Type, "id", ev.ID, "error", err)
	}
}

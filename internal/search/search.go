// Package search indexes product series and resolves free-text queries to ids.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/easystore/internal/models"
	"github.com/Skotchmaster/easystore/internal/store"
)

const maxHits = 50

type Index interface {
	Index(ctx context.Context, p *models.ProductSeries) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, query string) ([]string, error)
}

type document struct {
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	Category string `json:"category"`
	About    string `json:"about"`
}

type Elastic struct {
	es    *elasticsearch.Client
	index string
}

func NewElastic(ctx context.Context, url, user, password, index string) (*Elastic, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := es.Info(es.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}

	return &Elastic{es: es, index: index}, nil
}

func (e *Elastic) Index(ctx context.Context, p *models.ProductSeries) error {
	var buf bytes.Buffer
	doc := document{Name: p.Name, Brand: p.Brand, Category: p.Category, About: p.About}
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	res, err := e.es.Index(e.index, &buf,
		e.es.Index.WithContext(ctx),
		e.es.Index.WithDocumentID(p.ID),
	)
	if err != nil {
		return fmt.Errorf("index %s: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index %s: %s", p.ID, res.Status())
	}
	return nil
}

func (e *Elastic) Remove(ctx context.Context, id string) error {
	res, err := e.es.Delete(e.index, id, e.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove %s: %s", id, res.Status())
	}
	return nil
}

func (e *Elastic) Search(ctx context.Context, query string) ([]string, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "brand", "category", "about"},
				"fuzziness": "AUTO",
			},
		},
		"_source": false,
		"size":    maxHits,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(e.index),
		e.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]string, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// Scan matches queries against the catalog store directly, used when no
// search cluster is configured. Every query term must appear in one of the
// indexed fields.
type Scan struct {
	Products store.Collection[models.ProductSeries]
}

func (Scan) Index(context.Context, *models.ProductSeries) error { return nil }
func (Scan) Remove(context.Context, string) error                { return nil }

func (s Scan) Search(ctx context.Context, query string) ([]string, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return []string{}, nil
	}

	all, err := s.Products.Find(ctx, store.Newest)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0)
	for i := range all {
		p := &all[i]
		text := strings.ToLower(strings.Join([]string{p.Name, p.Brand, p.Category, p.About}, " "))
		if matchesAll(text, terms) {
			ids = append(ids, p.ID)
		}
		if len(ids) == maxHits {
			break
		}
	}
	return ids, nil
}

func matchesAll(text string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}

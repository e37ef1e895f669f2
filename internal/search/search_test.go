package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/easystore/internal/models"
	"github.com/Skotchmaster/easystore/internal/store/storetest"
)

type fakeES struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string]string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	key := r.Method + " " + r.URL.Path
	f.requests = append(f.requests, key)
	f.bodies[key] = string(body)
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/":
		_, _ = io.WriteString(w, `{"version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`)
	case strings.HasSuffix(r.URL.Path, "/_search"):
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":2},"hits":[{"_id":"p2"},{"_id":"p1"}]}}`)
	case r.Method == http.MethodDelete && strings.HasSuffix(r.URL.Path, "/missing"):
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"result":"not_found"}`)
	default:
		_, _ = io.WriteString(w, `{"result":"created"}`)
	}
}

func newFakeElastic(t *testing.T) (*Elastic, *fakeES) {
	t.Helper()
	fake := &fakeES{bodies: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	e, err := NewElastic(context.Background(), srv.URL, "", "", "products")
	require.NoError(t, err)
	return e, fake
}

func TestElastic_IndexAndRemove(t *testing.T) {
	e, fake := newFakeElastic(t)
	ctx := context.Background()

	p := &models.ProductSeries{Meta: models.Meta{ID: "p1"}, Name: "Headphones", Brand: "Acme"}
	require.NoError(t, e.Index(ctx, p))
	require.NoError(t, e.Remove(ctx, "p1"))
	require.NoError(t, e.Remove(ctx, "missing"))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Contains(t, fake.requests, "PUT /products/_doc/p1")
	assert.Contains(t, fake.requests, "DELETE /products/_doc/p1")

	var doc document
	require.NoError(t, json.Unmarshal([]byte(fake.bodies["PUT /products/_doc/p1"]), &doc))
	assert.Equal(t, "Headphones", doc.Name)
	assert.Equal(t, "Acme", doc.Brand)
}

func TestElastic_Search(t *testing.T) {
	e, fake := newFakeElastic(t)

	ids, err := e.Search(context.Background(), "head")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, ids)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	var q map[string]any
	require.NoError(t, json.Unmarshal([]byte(fake.bodies["POST /products/_search"]), &q))
	mm := q["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "head", mm["query"])
}

func TestScan_Search(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()

	speaker := &models.ProductSeries{Name: "Bass Speaker", Brand: "Acme", Category: "audio", About: "loud"}
	cable := &models.ProductSeries{Name: "USB Cable", Brand: "Wirey", Category: "accessories", About: "braided"}
	require.NoError(t, s.Products.Insert(ctx, speaker))
	require.NoError(t, s.Products.Insert(ctx, cable))

	scan := Scan{Products: s.Products}

	ids, err := scan.Search(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, []string{speaker.ID}, ids)

	ids, err = scan.Search(ctx, "usb BRAIDED")
	require.NoError(t, err)
	assert.Equal(t, []string{cable.ID}, ids)

	ids, err = scan.Search(ctx, "usb acme")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = scan.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

package opensearch

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// fakeOpenSearch is a tiny in-memory OpenSearch answering the calls the
// client makes
type fakeOpenSearch struct {
	*httptest.Server

	mu      sync.Mutex
	indices map[string]bool
	docs    map[string][]json.RawMessage
	created []string
	queries []string
	fail    bool
}

func newFakeOpenSearch(t *testing.T, existing ...string) *fakeOpenSearch {
	t.Helper()
	f := &fakeOpenSearch{
		indices: make(map[string]bool),
		docs:    make(map[string][]json.RawMessage),
	}
	for _, name := range existing {
		f.indices[name] = true
	}

	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeFakeJSON(w, http.StatusOK, map[string]any{
			"version": map[string]any{"number": "2.11.0", "distribution": "opensearch"},
			"tagline": "The OpenSearch Project: https://opensearch.org/",
		})
	})
	r.Head("/{index}", f.exists)
	r.Put("/{index}", f.createIndex)
	r.Post("/{index}/_doc", f.index)
	r.Put("/{index}/_doc/{id}", f.index)
	r.Post("/{index}/_search", f.search)
	r.Get("/{index}/_search", f.search)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeOpenSearch) exists(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indices[chi.URLParam(r, "index")] {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (f *fakeOpenSearch) createIndex(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "index")
	f.mu.Lock()
	f.indices[name] = true
	f.created = append(f.created, name)
	f.mu.Unlock()
	writeFakeJSON(w, http.StatusOK, map[string]any{"acknowledged": true, "index": name})
}

func (f *fakeOpenSearch) index(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	name := chi.URLParam(r, "index")

	f.mu.Lock()
	fail := f.fail
	if !fail {
		f.docs[name] = append(f.docs[name], json.RawMessage(body))
	}
	f.mu.Unlock()

	if fail {
		writeFakeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"type": "mapper_parsing_exception"}, "status": 400})
		return
	}
	writeFakeJSON(w, http.StatusCreated, map[string]any{"_index": name, "_id": chi.URLParam(r, "id"), "result": "created"})
}

// search returns every stored document of the index whose transaction_id
// matches the term query
func (f *fakeOpenSearch) search(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var query struct {
		Query struct {
			Term map[string]string `json:"term"`
		} `json:"query"`
	}
	_ = json.Unmarshal(body, &query)

	f.mu.Lock()
	f.queries = append(f.queries, string(body))
	var hits []map[string]any
	for _, doc := range f.docs[chi.URLParam(r, "index")] {
		var fields map[string]any
		_ = json.Unmarshal(doc, &fields)
		if fields["transaction_id"] == query.Query.Term["transaction_id"] {
			hits = append(hits, map[string]any{"_source": doc})
		}
	}
	f.mu.Unlock()

	writeFakeJSON(w, http.StatusOK, map[string]any{"hits": map[string]any{"hits": hits}})
}

func (f *fakeOpenSearch) failIndexing() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = true
}

func (f *fakeOpenSearch) documents(index string) []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]json.RawMessage(nil), f.docs[index]...)
}

func (f *fakeOpenSearch) searchQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func (f *fakeOpenSearch) createdIndices() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.created...)
}

func writeFakeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

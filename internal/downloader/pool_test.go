package downloader

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	errs "github.com/FooBarWidget/social-schools-photos-downloader/pkg/errors"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/logger"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/ratelimit"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/retry"
)

type mockFetcher struct {
	mu       sync.Mutex
	requests []string
	data     map[string][]byte
	err      error
}

func (m *mockFetcher) Download(url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, url)
	if m.err != nil {
		return nil, m.err
	}
	if data, ok := m.data[url]; ok {
		return data, nil
	}
	return []byte("default"), nil
}

type mockStorage struct {
	mu       sync.Mutex
	existing map[string]bool
	saved    map[string][]byte
	saveErr  error
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		existing: make(map[string]bool),
		saved:    make(map[string][]byte),
	}
}

func (m *mockStorage) Exists(dir, filename string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.existing[filepath.Join(dir, filename)]
}

func (m *mockStorage) SaveFile(r io.Reader, dir, filename string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return "", m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, filename)
	m.saved[path] = data
	return path, nil
}

func collectResults(t *testing.T, pool *WorkerPool, n int) []Result {
	t.Helper()
	results := make([]Result, 0, n)
	timeout := time.After(5 * time.Second)
	for len(results) < n {
		select {
		case r, ok := <-pool.Results():
			if !ok {
				t.Fatalf("result channel closed after %d of %d results", len(results), n)
			}
			results = append(results, r)
		case <-timeout:
			t.Fatalf("timed out waiting for results, got %d of %d", len(results), n)
		}
	}
	return results
}

func TestWorkerPoolDownloadsAndSaves(t *testing.T) {
	fetcher := &mockFetcher{data: map[string][]byte{
		"https://cdn.example/a.jpg": []byte("photo a"),
		"https://cdn.example/b.jpg": []byte("photo b"),
	}}
	storage := newMockStorage()

	pool := NewWorkerPool(2, fetcher, storage, ratelimit.NewTokenBucket(100, time.Minute), logger.NewTestLogger())
	pool.Start()

	jobs := []Job{
		{URL: "https://cdn.example/a.jpg", Dir: "2024-06-14 p1", Filename: "a.jpg", PostID: "p1"},
		{URL: "https://cdn.example/b.jpg", Dir: "2024-06-14 p1", Filename: "b.jpg", PostID: "p1"},
	}
	for _, job := range jobs {
		if err := pool.Submit(job); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	results := collectResults(t, pool, 2)
	pool.Stop()

	for _, r := range results {
		if !r.Success {
			t.Errorf("Expected success for %s, got error %v", r.Job.Filename, r.Error)
		}
	}
	if !bytes.Equal(storage.saved[filepath.Join("2024-06-14 p1", "a.jpg")], []byte("photo a")) {
		t.Error("Expected a.jpg content to be saved")
	}
}

func TestWorkerPoolSkipsExistingFiles(t *testing.T) {
	fetcher := &mockFetcher{}
	storage := newMockStorage()
	storage.existing[filepath.Join("dir", "a.jpg")] = true

	pool := NewWorkerPool(1, fetcher, storage, nil, logger.NewTestLogger())
	pool.Start()

	if err := pool.Submit(Job{URL: "https://cdn.example/a.jpg", Dir: "dir", Filename: "a.jpg"}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	results := collectResults(t, pool, 1)
	pool.Stop()

	if !results[0].Success || !results[0].Skipped {
		t.Errorf("Expected skipped success, got %+v", results[0])
	}
	if len(fetcher.requests) != 0 {
		t.Error("Expected no network request for an existing file")
	}
}

func TestWorkerPoolReportsDownloadFailure(t *testing.T) {
	fetcher := &mockFetcher{err: errors.New("connection reset")}
	storage := newMockStorage()

	pool := NewWorkerPool(1, fetcher, storage, nil, logger.NewTestLogger())
	pool.Start()

	if err := pool.Submit(Job{URL: "https://cdn.example/a.jpg", Dir: "dir", Filename: "a.jpg"}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	results := collectResults(t, pool, 1)
	pool.Stop()

	if results[0].Success {
		t.Error("Expected failure result")
	}
	if results[0].Error == nil {
		t.Error("Expected error to be reported")
	}
	if len(storage.saved) != 0 {
		t.Error("Expected nothing to be saved")
	}
}

func TestWorkerPoolReportsSaveFailure(t *testing.T) {
	fetcher := &mockFetcher{}
	storage := newMockStorage()
	storage.saveErr = errors.New("disk full")

	pool := NewWorkerPool(1, fetcher, storage, nil, logger.NewTestLogger())
	pool.Start()

	if err := pool.Submit(Job{URL: "https://cdn.example/a.jpg", Dir: "dir", Filename: "a.jpg"}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	results := collectResults(t, pool, 1)
	pool.Stop()

	if results[0].Success {
		t.Error("Expected failure result when save fails")
	}
}

func TestClientSendsSessionCookies(t *testing.T) {
	var gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		w.Write([]byte("media bytes"))
	}))
	defer server.Close()

	client := NewClient("session=abc123; csrf=xyz", 5*time.Second, 1, logger.NewTestLogger())
	data, err := client.Download(server.URL + "/a.jpg")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if string(data) != "media bytes" {
		t.Errorf("Unexpected body: %q", data)
	}
	if gotCookie != "session=abc123; csrf=xyz" {
		t.Errorf("Expected session cookies to be forwarded, got %q", gotCookie)
	}
}

func TestClientStatusTaxonomy(t *testing.T) {
	tests := []struct {
		status   int
		expected errs.Type
	}{
		{http.StatusUnauthorized, errs.TypeAuth},
		{http.StatusForbidden, errs.TypeAuth},
		{http.StatusNotFound, errs.TypeNotFound},
		{http.StatusServiceUnavailable, errs.TypeServer},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		client := NewClient("", 5*time.Second, 1, logger.NewTestLogger())
		client.retryCfg.Backoff = &retry.ConstantBackoff{Delay: time.Millisecond}

		_, err := client.Download(server.URL)
		server.Close()

		if err == nil {
			t.Errorf("status %d: expected error", tt.status)
			continue
		}
		if got := errs.TypeOf(err); got != tt.expected {
			t.Errorf("status %d: expected type %v, got %v", tt.status, tt.expected, got)
		}
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("finally"))
	}))
	defer server.Close()

	client := NewClient("", 5*time.Second, 5, logger.NewTestLogger())
	client.retryCfg.Backoff = &retry.ConstantBackoff{Delay: time.Millisecond}

	data, err := client.Download(server.URL)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if string(data) != "finally" {
		t.Errorf("Unexpected body: %q", data)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mzawada/trainload/internal/platform/logging"
	"github.com/mzawada/trainload/internal/platform/resilience"
	"github.com/mzawada/trainload/internal/usecase"
)

const permissionPage = "<!DOCTYPE html><html><body>Sign in required</body></html>"

func newTestClient(serverURL string, maxRetries int) *Client {
	return NewClient(ClientConfig{
		BaseURL:        serverURL,
		DocID:          "doc1",
		MaxRetries:     maxRetries,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})
}

func TestFetchTable_FallsBackToNextAccessMethod(t *testing.T) {
	var mu sync.Mutex
	var paths []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)
		mu.Unlock()

		// The gid export answers with a permission page; only the gviz
		// endpoint has the data.
		if strings.Contains(r.URL.Path, "/gviz/tq") {
			_, _ = w.Write([]byte("Header\n2024-01-05,Jan Kowalski,2024-01-04,7,60,,TeamA"))
			return
		}
		_, _ = w.Write([]byte(permissionPage))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	text, err := client.FetchTable(context.Background(), usecase.TableRef{GID: "100", Sheet: "Sessions"})
	if err != nil {
		t.Fatalf("fetch table: %v", err)
	}
	if !strings.HasPrefix(text, "Header\n") {
		t.Fatalf("unexpected payload: %q", text)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(paths) < 2 {
		t.Fatalf("expected the gid export to be tried first: %v", paths)
	}
	if !strings.Contains(paths[0], "format=csv&gid=100") {
		t.Fatalf("first method must be the gid export: %q", paths[0])
	}
	if !strings.Contains(paths[1], "/gviz/tq") {
		t.Fatalf("second method must be the gviz endpoint: %q", paths[1])
	}
}

func TestFetchTable_RejectsHTMLFromEveryMethod(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(permissionPage))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	_, err := client.FetchTable(context.Background(), usecase.TableRef{GID: "100"})
	if err == nil {
		t.Fatal("html-only responses must fail the fetch")
	}
	if !strings.Contains(err.Error(), "html payload") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetchTable_SkipsEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/gviz/tq") {
			_, _ = w.Write([]byte("Header\nrow,data"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	text, err := client.FetchTable(context.Background(), usecase.TableRef{GID: "100", Sheet: "Sessions"})
	if err != nil {
		t.Fatalf("fetch table: %v", err)
	}
	if text != "Header\nrow,data" {
		t.Fatalf("unexpected payload: %q", text)
	}
}

func TestFetchTable_CircuitOpenRejectsImmediately(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		DocID:      "doc1",
		MaxRetries: 0,
		Logger:     logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
		},
	})

	if _, err := client.FetchTable(context.Background(), usecase.TableRef{GID: "100"}); err == nil {
		t.Fatal("expected transport failure")
	}

	_, err := client.FetchTable(context.Background(), usecase.TableRef{GID: "100"})
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("open circuit must map to ErrDependencyUnavailable, got: %v", err)
	}
}

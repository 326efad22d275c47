package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hijjiri/tasklist/internal/client"
	domain_task "github.com/hijjiri/tasklist/internal/domain/task"
	"github.com/hijjiri/tasklist/internal/infrastructure/memory"
	httpadapter "github.com/hijjiri/tasklist/internal/interface/http"
	task_usecase "github.com/hijjiri/tasklist/internal/usecase/task"
	"go.uber.org/zap"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	uc := task_usecase.New(memory.NewTaskRepository(domain_task.Seed()...), zap.NewNop())
	router, err := httpadapter.NewRouter(httpadapter.NewTaskHandler(uc, zap.NewNop()), httpadapter.RouterOptions{})
	if err != nil {
		t.Fatalf("NewRouter returned error: %v", err)
	}

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func ptr[T any](v T) *T { return &v }

func TestClient_RoundTrip(t *testing.T) {
	t.Parallel()

	c := client.New(newServer(t).URL)
	ctx := context.Background()

	tasks, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}

	created, err := c.Create(ctx, "Test", false)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID != 3 || created.Completed {
		t.Errorf("unexpected created task: %#v", created)
	}

	updated, err := c.Update(ctx, created.ID, client.UpdateInput{Completed: ptr(true)})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if !updated.Completed || updated.Title != "Test" {
		t.Errorf("unexpected updated task: %#v", updated)
	}

	got, err := c.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if *got != *updated {
		t.Errorf("expected %#v, got %#v", updated, got)
	}

	removed, err := c.Delete(ctx, 1)
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if removed.ID != 1 {
		t.Errorf("expected removed id=1, got %d", removed.ID)
	}

	h, err := c.Health(ctx)
	if err != nil {
		t.Fatalf("Health returned error: %v", err)
	}
	if h.Status != "OK" {
		t.Errorf("expected status OK, got %q", h.Status)
	}
}

func TestClient_APIError(t *testing.T) {
	t.Parallel()

	c := client.New(newServer(t).URL)
	ctx := context.Background()

	_, err := c.Get(ctx, 99)

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message == "" {
		t.Errorf("unexpected api error: %#v", apiErr)
	}
	if errors.Is(err, client.ErrConnectionFailure) {
		t.Error("api error must not be a connection failure")
	}

	_, err = c.Create(ctx, "   ", false)
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 api error, got %v", err)
	}
}

func TestClient_ConnectionFailure(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	url := srv.URL
	srv.Close()

	_, err := client.New(url).List(context.Background())
	if !errors.Is(err, client.ErrConnectionFailure) {
		t.Fatalf("expected ErrConnectionFailure, got %v", err)
	}

	var connErr *client.ConnectionError
	if !errors.As(err, &connErr) || connErr.Op != "GET /tasks" {
		t.Errorf("unexpected connection error: %#v", err)
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	t.Cleanup(srv.Close)

	_, err := client.New(srv.URL).List(context.Background())
	if !errors.Is(err, client.ErrConnectionFailure) {
		t.Fatalf("expected ErrConnectionFailure, got %v", err)
	}
}

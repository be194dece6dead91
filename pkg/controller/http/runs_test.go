package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	controller "github.com/m-mizutani/drover/pkg/controller/http"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/infra/memory"
)

func newTestServer(t *testing.T, store *memory.Store) *httptest.Server {
	t.Helper()
	server, err := controller.NewServer(
		context.Background(),
		&recordingWebhookUC{},
		store,
		controller.WithAddr("localhost:0"),
		controller.WithWebhookSecret("test-secret"),
	)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestRunsEndpoint_List(t *testing.T) {
	store := memory.NewStore()
	base := time.Now()
	for i := 0; i < 3; i++ {
		run := &model.PipelineRun{
			ID:        fmt.Sprintf("run-%d", i),
			Pipeline:  "polyply-ci",
			Status:    model.RunStatusSucceeded,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Put(context.Background(), run); err != nil {
			t.Fatal(err)
		}
	}

	ts := newTestServer(t, store)

	resp, err := http.Get(ts.URL + "/api/runs")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %v, want %v", resp.StatusCode, http.StatusOK)
	}

	var body struct {
		Runs []*model.PipelineRun `json:"runs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(body.Runs))
	}
	if body.Runs[0].ID != "run-2" {
		t.Errorf("runs not newest first: got %v", body.Runs[0].ID)
	}
}

func TestRunsEndpoint_ListLimit(t *testing.T) {
	store := memory.NewStore()
	for i := 0; i < 3; i++ {
		run := &model.PipelineRun{ID: fmt.Sprintf("run-%d", i), StartedAt: time.Now()}
		if err := store.Put(context.Background(), run); err != nil {
			t.Fatal(err)
		}
	}

	ts := newTestServer(t, store)

	resp, err := http.Get(ts.URL + "/api/runs?limit=1")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Runs []*model.PipelineRun `json:"runs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Runs) != 1 {
		t.Errorf("got %d runs, want 1", len(body.Runs))
	}

	resp2, err := http.Get(ts.URL + "/api/runs?limit=bogus")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid limit: status = %v, want %v", resp2.StatusCode, http.StatusBadRequest)
	}
}

func TestRunsEndpoint_Get(t *testing.T) {
	store := memory.NewStore()
	run := &model.PipelineRun{
		ID:       "run-abc",
		Pipeline: "polyply-ci",
		Status:   model.RunStatusFailed,
		Jobs: []*model.JobRun{
			{Name: "test-3.9", Status: model.StatusFailed, FailedStage: model.StageExecute},
		},
		StartedAt: time.Now(),
	}
	if err := store.Put(context.Background(), run); err != nil {
		t.Fatal(err)
	}

	ts := newTestServer(t, store)

	resp, err := http.Get(ts.URL + "/api/runs/run-abc")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %v, want %v", resp.StatusCode, http.StatusOK)
	}

	var got model.PipelineRun
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != "run-abc" || len(got.Jobs) != 1 {
		t.Errorf("unexpected run record: %+v", got)
	}

	resp2, err := http.Get(ts.URL + "/api/runs/unknown")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("unknown run: status = %v, want %v", resp2.StatusCode, http.StatusNotFound)
	}
}

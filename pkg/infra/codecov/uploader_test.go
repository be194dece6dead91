package codecov_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/infra/codecov"
)

func writeReport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coverage.xml")
	gt.NoError(t, os.WriteFile(path, []byte(`<coverage line-rate="0.91"/>`), 0600))
	return path
}

func TestUploader_Upload(t *testing.T) {
	var gotToken, gotCommit, gotBranch, gotBuild, gotService string
	var gotBody []byte

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.Method, http.MethodPost)
		gt.Equal(t, r.URL.Path, "/upload/v2")
		gotToken = r.Header.Get("X-Upload-Token")
		q := r.URL.Query()
		gotCommit = q.Get("commit")
		gotBranch = q.Get("branch")
		gotBuild = q.Get("build")
		gotService = q.Get("service")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	up := codecov.NewUploader("cc-token", codecov.WithBaseURL(ts.URL))
	err := up.Upload(context.Background(), &model.CoverageReport{
		Path:   writeReport(t),
		Commit: "abc123",
		Branch: "master",
		Job:    "test-3.9",
	})
	gt.NoError(t, err)

	gt.Equal(t, gotToken, "cc-token")
	gt.Equal(t, gotCommit, "abc123")
	gt.Equal(t, gotBranch, "master")
	gt.Equal(t, gotBuild, "test-3.9")
	gt.Equal(t, gotService, "drover")
	gt.Equal(t, string(gotBody), `<coverage line-rate="0.91"/>`)
}

func TestUploader_ServiceRejection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("invalid token"))
	}))
	defer ts.Close()

	up := codecov.NewUploader("bad-token", codecov.WithBaseURL(ts.URL))
	err := up.Upload(context.Background(), &model.CoverageReport{
		Path:   writeReport(t),
		Commit: "abc123",
		Branch: "master",
		Job:    "test-3.9",
	})
	gt.Error(t, err)
}

func TestUploader_MissingReportFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for a missing report file")
	}))
	defer ts.Close()

	up := codecov.NewUploader("cc-token", codecov.WithBaseURL(ts.URL))
	err := up.Upload(context.Background(), &model.CoverageReport{
		Path:   filepath.Join(t.TempDir(), "coverage.xml"),
		Commit: "abc123",
		Branch: "master",
		Job:    "test-3.9",
	})
	gt.Error(t, err)
}

func TestUploader_UnreachableEndpoint(t *testing.T) {
	// a closed server makes the request fail at transport level
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	up := codecov.NewUploader("cc-token", codecov.WithBaseURL(ts.URL))
	err := up.Upload(context.Background(), &model.CoverageReport{
		Path:   writeReport(t),
		Commit: "abc123",
		Branch: "master",
		Job:    "test-3.9",
	})
	gt.Error(t, err)
}

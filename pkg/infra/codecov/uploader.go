package codecov

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
)

// DefaultBaseURL is the public Codecov endpoint
const DefaultBaseURL = "https://codecov.io"

type config struct {
	baseURL    string
	httpClient *http.Client
}

// Option is a functional option for Uploader configuration
type Option func(*config)

// WithBaseURL overrides the upload endpoint (tests, self-hosted)
func WithBaseURL(u string) Option {
	return func(c *config) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// Uploader transmits coverage reports to Codecov. Uploads are write-only
// and attempt-once: any transport or service error is surfaced to the
// caller, which decides whether it fails the job.
type Uploader struct {
	token string
	cfg   config
}

// NewUploader creates a new Uploader authenticated with the given token
func NewUploader(token string, opts ...Option) *Uploader {
	cfg := config{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Uploader{token: token, cfg: cfg}
}

// Upload sends the report file. The file must exist at report.Path.
func (u *Uploader) Upload(ctx context.Context, report *model.CoverageReport) error {
	data, err := os.ReadFile(report.Path)
	if err != nil {
		return goerr.Wrap(err, "coverage report not readable", goerr.V("path", report.Path))
	}

	endpoint, err := u.uploadURL(report)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return goerr.Wrap(err, "failed to create upload request")
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-Upload-Token", u.token)

	if report.Verbose {
		ctxlog.From(ctx).Info("uploading coverage report",
			"endpoint", u.cfg.baseURL,
			"job", report.Job,
			"commit", report.Commit,
			"size_bytes", len(data),
		)
	}

	resp, err := u.cfg.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "coverage upload request failed")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return goerr.New("coverage service rejected upload",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)),
		)
	}

	if report.Verbose {
		ctxlog.From(ctx).Info("coverage report accepted",
			"job", report.Job,
			"status", resp.StatusCode,
			"response", string(body),
		)
	}
	return nil
}

func (u *Uploader) uploadURL(report *model.CoverageReport) (string, error) {
	base, err := url.Parse(u.cfg.baseURL)
	if err != nil {
		return "", goerr.Wrap(err, "invalid codecov base URL", goerr.V("url", u.cfg.baseURL))
	}
	base.Path = "/upload/v2"

	q := base.Query()
	q.Set("commit", report.Commit)
	q.Set("branch", report.Branch)
	q.Set("build", report.Job)
	q.Set("service", "drover")
	base.RawQuery = q.Encode()

	return base.String(), nil
}

var _ interfaces.CoverageUploader = (*Uploader)(nil)

package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/signalsfoundry/tradespace-search/internal/logging"
	"github.com/signalsfoundry/tradespace-search/internal/observability"
	"github.com/signalsfoundry/tradespace-search/model"
)

// ErrRejected is returned when the analysis service does not accept a
// request.
var ErrRejected = errors.New("tradespace search rejected")

const (
	DefaultEndpoint    = "http://localhost:5000/getRunFiles"
	DefaultResultsPath = "/data"
	DefaultTimeout     = 60 * time.Second

	ModeForm = "form"
	ModeRaw  = "raw"

	maxErrorBody = 4 << 10
)

// Options configures a Submitter.
type Options struct {
	Endpoint    string
	ResultsPath string
	Timeout     time.Duration
	Transport   http.RoundTripper
	Metrics     *observability.ClientCollector
	Logger      logging.Logger
}

// Result describes an accepted submission.
type Result struct {
	// RedirectURL is where the results of the run are served.
	RedirectURL string
	StatusCode  int
}

// Submitter posts tradespace search requests to the analysis service.
type Submitter struct {
	endpoint *url.URL
	results  *url.URL
	http     *http.Client
	metrics  *observability.ClientCollector
	log      logging.Logger
}

// New builds a submitter.
func New(opts Options) (*Submitter, error) {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.ResultsPath == "" {
		opts.ResultsPath = DefaultResultsPath
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}

	endpoint, err := url.Parse(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("submit endpoint %q: %w", opts.Endpoint, err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("submit endpoint %q must be absolute", opts.Endpoint)
	}
	results, err := url.Parse(opts.ResultsPath)
	if err != nil {
		return nil, fmt.Errorf("results path %q: %w", opts.ResultsPath, err)
	}

	transport := opts.Metrics.InstrumentTransport("submit", opts.Transport)
	return &Submitter{
		endpoint: endpoint,
		results:  endpoint.ResolveReference(results),
		http: &http.Client{
			Transport: observability.HTTPTransport(transport),
			Timeout:   opts.Timeout,
		},
		metrics: opts.Metrics,
		log:     opts.Logger,
	}, nil
}

// Endpoint is the URL requests are posted to.
func (s *Submitter) Endpoint() string { return s.endpoint.String() }

// Submit posts an assembled document wrapped as {"mission": doc}.
func (s *Submitter) Submit(ctx context.Context, doc *model.TradespaceSearch) (Result, error) {
	if doc == nil {
		return Result{}, fmt.Errorf("%w: nil document", ErrRejected)
	}
	body, err := json.Marshal(model.Envelope{Mission: doc})
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}
	return s.post(ctx, ModeForm, body)
}

// SubmitRaw posts an uploaded document byte for byte, wrapped as
// {"mission": raw}. raw must be valid JSON.
func (s *Submitter) SubmitRaw(ctx context.Context, raw json.RawMessage) (Result, error) {
	if !json.Valid(raw) {
		return Result{}, fmt.Errorf("%w: document is not valid JSON", ErrRejected)
	}
	var body bytes.Buffer
	body.Grow(len(raw) + len(`{"mission":}`))
	body.WriteString(`{"mission":`)
	body.Write(bytes.TrimSpace(raw))
	body.WriteString(`}`)
	return s.post(ctx, ModeRaw, body.Bytes())
}

func (s *Submitter) post(ctx context.Context, mode string, body []byte) (res Result, err error) {
	ctx, log := logging.WithRequestLogger(ctx, s.log)
	ctx, span := observability.StartSpan(ctx, "tradespace.submit",
		attribute.String("mode", mode),
		attribute.String("request_id", logging.RequestIDFromContext(ctx)),
		attribute.Int("body_bytes", len(body)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "submit failed")
			log.Error(ctx, "tradespace search submission failed",
				logging.String("mode", mode),
				logging.String("endpoint", s.endpoint.String()),
				logging.Err(err),
			)
		}
		s.metrics.RecordSubmission(mode, err)
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", logging.RequestIDFromContext(ctx))

	resp, err := s.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRejected, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Result{StatusCode: resp.StatusCode}, fmt.Errorf("%w: %s: %s", ErrRejected, resp.Status, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	log.Info(ctx, "tradespace search submitted",
		logging.String("mode", mode),
		logging.Int("status", resp.StatusCode),
		logging.String("results", s.results.String()),
	)
	return Result{RedirectURL: s.results.String(), StatusCode: resp.StatusCode}, nil
}

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/oauth2"

	"github.com/signalsfoundry/tradespace-search/internal/logging"
	"github.com/signalsfoundry/tradespace-search/internal/observability"
	"github.com/signalsfoundry/tradespace-search/kb"
	"github.com/signalsfoundry/tradespace-search/model"
)

var (
	// ErrNotFound is returned when the knowledge base has no record for an id.
	ErrNotFound = errors.New("catalog record not found")
	// ErrMalformedRecord is returned when a record cannot be remapped.
	ErrMalformedRecord = errors.New("malformed catalog record")
)

const (
	DefaultBaseURL = "https://tatckb.org/api"
	DefaultLimit   = 100
	DefaultTimeout = 15 * time.Second

	maxBodyBytes = 8 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	Limit     int
	Transport http.RoundTripper
	Metrics   *observability.ClientCollector
	Logger    logging.Logger
}

// Client reads satellite and instrument templates from the knowledge base.
type Client struct {
	base  *url.URL
	http  *http.Client
	limit int
	log   logging.Logger
}

// NewClient builds a client. Requests are traced, counted under the
// "catalog" target and carry a bearer token when one is configured.
func NewClient(opts Options) (*Client, error) {
	raw := opts.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("catalog base url %q: %w", raw, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("catalog base url %q must be absolute", raw)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}

	transport := opts.Metrics.InstrumentTransport("catalog", opts.Transport)
	transport = observability.HTTPTransport(transport)
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}),
			Base:   transport,
		}
	}

	return &Client{
		base:  base,
		http:  &http.Client{Transport: transport, Timeout: opts.Timeout},
		limit: opts.Limit,
		log:   opts.Logger,
	}, nil
}

// ListSatellites returns the satellite options in catalog order.
func (c *Client) ListSatellites(ctx context.Context) ([]kb.Option, error) {
	return c.list(ctx, kb.KindSatellite)
}

// ListInstruments returns the instrument options in catalog order.
func (c *Client) ListInstruments(ctx context.Context) ([]kb.Option, error) {
	return c.list(ctx, kb.KindInstrument)
}

func (c *Client) list(ctx context.Context, kind kb.Kind) ([]kb.Option, error) {
	var body listResponse
	q := url.Values{"limit": []string{strconv.Itoa(c.limit)}}
	if err := c.getJSON(ctx, []string{string(kind), "list"}, q.Encode(), &body); err != nil {
		return nil, err
	}
	opts := make([]kb.Option, 0, len(body.Graph))
	for _, e := range body.Graph {
		if e.ID == "" {
			continue
		}
		opts = append(opts, kb.Option{ID: e.ID, Name: e.Name})
	}
	return opts, nil
}

// GetSatellite fetches and remaps one satellite template.
func (c *Client) GetSatellite(ctx context.Context, id string) (model.Satellite, error) {
	rec, err := c.satellite(ctx, id)
	if err != nil {
		return model.Satellite{}, err
	}
	return rec.toModel(), nil
}

// PayloadInstrumentID returns the id of the first payload instrument of the
// satellite, or "" when it has none.
func (c *Client) PayloadInstrumentID(ctx context.Context, satelliteID string) (string, error) {
	rec, err := c.satellite(ctx, satelliteID)
	if err != nil {
		return "", err
	}
	return rec.payloadID(), nil
}

func (c *Client) satellite(ctx context.Context, id string) (satelliteRecord, error) {
	var rec satelliteRecord
	if err := c.getJSON(ctx, []string{string(kb.KindSatellite), id}, "", &rec); err != nil {
		return satelliteRecord{}, err
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return rec, nil
}

// GetInstrument fetches the populated instrument record and remaps it,
// including its first orientation and field of view.
func (c *Client) GetInstrument(ctx context.Context, id string) (model.Instrument, error) {
	var rec instrumentRecord
	if err := c.getJSON(ctx, []string{string(kb.KindInstrument), id}, "populate", &rec); err != nil {
		return model.Instrument{}, err
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return rec.toModel()
}

// Populate loads both option lists into store concurrently. A failed list is
// left empty and logged; the joined errors are returned.
func (c *Client) Populate(ctx context.Context, store *kb.KnowledgeBase) error {
	type job struct {
		kind  kb.Kind
		fetch func(context.Context) ([]kb.Option, error)
	}
	jobs := []job{
		{kind: kb.KindSatellite, fetch: c.ListSatellites},
		{kind: kb.KindInstrument, fetch: c.ListInstruments},
	}

	errs := make([]error, len(jobs))
	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			opts, err := j.fetch(ctx)
			if err == nil {
				err = store.SetOptions(j.kind, opts)
			}
			if err != nil {
				c.log.Warn(ctx, "catalog options unavailable",
					logging.String("kind", string(j.kind)),
					logging.Err(err),
				)
				store.MarkFailed(j.kind, err)
				errs[i] = fmt.Errorf("%s options: %w", j.kind, err)
				return
			}
			c.log.Debug(ctx, "catalog options loaded",
				logging.String("kind", string(j.kind)),
				logging.Int("count", len(opts)),
			)
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (c *Client) getJSON(ctx context.Context, elems []string, rawQuery string, out any) error {
	u := *c.base
	escaped := make([]string, len(elems))
	for i, e := range elems {
		escaped[i] = url.PathEscape(e)
	}
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.Join(elems, "/")
	u.RawPath = strings.TrimRight(c.base.EscapedPath(), "/") + "/" + strings.Join(escaped, "/")
	u.RawQuery = rawQuery

	ctx, span := observability.StartSpan(ctx, "catalog.get", attribute.String("url.path", u.Path))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return fmt.Errorf("catalog GET %s: %w", u.Path, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		span.SetStatus(codes.Error, "not found")
		return fmt.Errorf("%w: %s", ErrNotFound, u.Path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		span.SetStatus(codes.Error, resp.Status)
		return fmt.Errorf("catalog GET %s: unexpected status %s", u.Path, resp.Status)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode")
		return fmt.Errorf("%w: %s: %v", ErrMalformedRecord, u.Path, err)
	}
	return nil
}

package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/tradespace-search/core"
	"github.com/signalsfoundry/tradespace-search/internal/observability"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type captured struct {
	method      string
	url         string
	contentType string
	body        []byte
}

func recordingTransport(status int, out *[]captured) roundTripFunc {
	return func(r *http.Request) (*http.Response, error) {
		b, _ := io.ReadAll(r.Body)
		*out = append(*out, captured{
			method:      r.Method,
			url:         r.URL.String(),
			contentType: r.Header.Get("Content-Type"),
			body:        b,
		})
		return &http.Response{
			StatusCode: status,
			Status:     http.StatusText(status),
			Body:       io.NopCloser(strings.NewReader("oops")),
			Header:     make(http.Header),
			Request:    r,
		}, nil
	}
}

func sampleDocument(t *testing.T) json.RawMessage {
	t.Helper()
	in := core.FormInput{
		MissionStart:      time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		DurationDays:      7,
		ConstellationSize: core.Scalar(1),
		OrbitalPlanes:     core.Scalar(1),
		Altitude:          core.Scalar(700),
		Inclination:       core.Scalar(98),
		FieldOfView:       core.Scalar(15),
	}
	doc, err := core.NewAssembler(nil, nil).Build(context.Background(), in)
	require.NoError(t, err)
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	return b
}

func TestSubmitPostsEnvelope(t *testing.T) {
	var calls []captured
	s, err := New(Options{Transport: recordingTransport(http.StatusOK, &calls)})
	require.NoError(t, err)

	in := core.FormInput{
		MissionStart:      time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		DurationDays:      7,
		ConstellationSize: core.Scalar(1),
		OrbitalPlanes:     core.Scalar(1),
		Altitude:          core.Scalar(700),
		Inclination:       core.Scalar(98),
		FieldOfView:       core.RangeInput{Min: 10, Max: 20, Steps: 3},
	}
	doc, err := core.NewAssembler(nil, nil).Build(context.Background(), in)
	require.NoError(t, err)

	res, err := s.Submit(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/data", res.RedirectURL)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].method)
	assert.Equal(t, "http://localhost:5000/getRunFiles", calls[0].url)
	assert.Equal(t, "application/json", calls[0].contentType)

	var env struct {
		Mission struct {
			DesignSpace struct {
				Satellites []json.RawMessage `json:"satellites"`
			} `json:"designSpace"`
			Type string `json:"@type"`
		} `json:"mission"`
	}
	require.NoError(t, json.Unmarshal(calls[0].body, &env))
	assert.Equal(t, "TradespaceSearch", env.Mission.Type)
	assert.Len(t, env.Mission.DesignSpace.Satellites, 3)
}

func TestSubmitRawSendsDocumentUnmodified(t *testing.T) {
	var calls []captured
	s, err := New(Options{Transport: recordingTransport(http.StatusOK, &calls)})
	require.NoError(t, err)

	raw := json.RawMessage(`{"mission": {"name": "A<B"},  "designSpace": {}, "settings": {"maxGridSize": 10}, "custom": [1, 2.50]}`)
	_, err = s.SubmitRaw(context.Background(), raw)
	require.NoError(t, err)

	require.Len(t, calls, 1)
	want := append(append([]byte(`{"mission":`), raw...), '}')
	assert.True(t, bytes.Equal(want, calls[0].body), "body = %s", calls[0].body)
}

func TestSubmitRawRoundTripsBuiltDocument(t *testing.T) {
	var calls []captured
	s, err := New(Options{Transport: recordingTransport(http.StatusAccepted, &calls)})
	require.NoError(t, err)

	raw := sampleDocument(t)
	_, err = s.SubmitRaw(context.Background(), raw)
	require.NoError(t, err)

	var env struct {
		Mission json.RawMessage `json:"mission"`
	}
	require.NoError(t, json.Unmarshal(calls[0].body, &env))
	assert.JSONEq(t, string(raw), string(env.Mission))
}

func TestSubmitRawRejectsInvalidJSON(t *testing.T) {
	var calls []captured
	s, err := New(Options{Transport: recordingTransport(http.StatusOK, &calls)})
	require.NoError(t, err)

	_, err = s.SubmitRaw(context.Background(), json.RawMessage(`{"mission":`))
	assert.True(t, errors.Is(err, ErrRejected))
	assert.Empty(t, calls)
}

func TestSubmitFailureIsNotRetried(t *testing.T) {
	var calls []captured
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewClientCollector(reg)
	require.NoError(t, err)

	s, err := New(Options{Transport: recordingTransport(http.StatusInternalServerError, &calls), Metrics: metrics})
	require.NoError(t, err)

	res, err := s.SubmitRaw(context.Background(), json.RawMessage(`{}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected))
	assert.Contains(t, err.Error(), "oops")
	assert.Empty(t, res.RedirectURL)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Len(t, calls, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Submissions.WithLabelValues(ModeRaw, "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("submit", "POST", "500")))
}

func TestSubmitTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	s, err := New(Options{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, boom })})
	require.NoError(t, err)

	_, err = s.SubmitRaw(context.Background(), json.RawMessage(`{}`))
	assert.True(t, errors.Is(err, ErrRejected))
}

func TestSubmitAgainstServer(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := New(Options{Endpoint: srv.URL + "/getRunFiles", ResultsPath: "/results/latest"})
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/getRunFiles", s.Endpoint())

	res, err := s.SubmitRaw(context.Background(), sampleDocument(t))
	require.NoError(t, err)
	assert.Equal(t, "/getRunFiles", gotPath)
	assert.Equal(t, srv.URL+"/results/latest", res.RedirectURL)
}

func TestNewRejectsRelativeEndpoint(t *testing.T) {
	_, err := New(Options{Endpoint: "/getRunFiles"})
	require.Error(t, err)
}

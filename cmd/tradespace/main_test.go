package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const satelliteBody = `{
  "@id": "sat-s2",
  "tatckb:name": "Sentinel-2A",
  "tatckb:mass": 1140,
  "tatckb:payload": [{"@id": "inst-msi"}]
}`

const instrumentBody = `{
  "@id": "inst-msi",
  "tatckb:name": "MultiSpectral Instrument",
  "tatckb:acronym": "MSI",
  "tatckb:orientation": [{"tatckb:convention": "SIDE_LOOK", "tatckb:sideLookAngle": 0}],
  "tatckb:fieldOfView": [{"tatckb:sensorGeometry": "RECTANGULAR", "tatckb:alongTrackFieldOfView": 1, "tatckb:crossTrackFieldOfView": 21}]
}`

var catalogRoutes = map[string]string{
	"/Satellite/list?limit=100":     `{"@graph": [{"@id": "sat-s2", "tatckb:name": "Sentinel-2A"}]}`,
	"/Instrument/list?limit=100":    `{"@graph": [{"@id": "inst-msi", "tatckb:name": "MSI"}]}`,
	"/Satellite/sat-s2":             satelliteBody,
	"/Instrument/inst-msi?populate": instrumentBody,
}

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}
		body, ok := catalogRoutes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type analysisServer struct {
	*httptest.Server
	mu     sync.Mutex
	bodies [][]byte
}

func newAnalysisServer(t *testing.T) *analysisServer {
	t.Helper()
	a := &analysisServer{}
	a.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		a.mu.Lock()
		a.bodies = append(a.bodies, body)
		a.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(a.Close)
	return a
}

func (a *analysisServer) received() [][]byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([][]byte(nil), a.bodies...)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeConfig(t *testing.T, catalogURL, endpoint string) string {
	t.Helper()
	return writeFile(t, t.TempDir(), "config.yaml", `
catalog:
  baseURL: `+catalogURL+`
  timeout: 5s
submit:
  endpoint: `+endpoint+`/getRunFiles
logLevel: error
`)
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRunBuildPrintsDefaultDocument(t *testing.T) {
	cfg := writeConfig(t, newCatalogServer(t).URL, "http://localhost:5000")

	out, err := runCmd(t, "-config", cfg, "build")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "TradespaceSearch", doc["@type"])

	sats := doc["designSpace"].(map[string]any)["satellites"].([]any)
	require.Len(t, sats, 1)
	assert.Equal(t, "Landsat 8", sats[0].(map[string]any)["name"])
}

func TestRunBuildSavesNamedFile(t *testing.T) {
	cfg := writeConfig(t, newCatalogServer(t).URL, "http://localhost:5000")
	dir := t.TempDir()
	values := writeFile(t, dir, "form.yaml", `
fieldOfView: {min: 10, max: 20, count: 3}
`)

	out, err := runCmd(t, "-config", cfg, "build", "-form", values, "-out", dir, "-name", "search.json")
	require.NoError(t, err)
	path := filepath.Join(dir, "search.json")
	assert.Equal(t, path, strings.TrimSpace(out))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		DesignSpace struct {
			Satellites []json.RawMessage `json:"satellites"`
		} `json:"designSpace"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Len(t, doc.DesignSpace.Satellites, 3)
}

func TestRunSubmitUsesCatalogTemplates(t *testing.T) {
	analysis := newAnalysisServer(t)
	cfg := writeConfig(t, newCatalogServer(t).URL, analysis.URL)
	values := writeFile(t, t.TempDir(), "form.yaml", `
missionStart: "2026-03-01"
satellite: sat-s2
`)

	out, err := runCmd(t, "-config", cfg, "submit", "-form", values)
	require.NoError(t, err)
	assert.Equal(t, "results: "+analysis.URL+"/data\n", out)

	bodies := analysis.received()
	require.Len(t, bodies, 1)
	var env struct {
		Mission struct {
			DesignSpace struct {
				Satellites []struct {
					Name    string `json:"name"`
					Payload []struct {
						Acronym string `json:"acronym"`
					} `json:"payload"`
				} `json:"satellites"`
			} `json:"designSpace"`
		} `json:"mission"`
	}
	require.NoError(t, json.Unmarshal(bodies[0], &env))
	sats := env.Mission.DesignSpace.Satellites
	require.Len(t, sats, 1)
	assert.Equal(t, "Sentinel-2A", sats[0].Name)
	require.Len(t, sats[0].Payload, 1)
	assert.Equal(t, "MSI", sats[0].Payload[0].Acronym)
}

func TestRunSubmitRejectsUnknownTemplate(t *testing.T) {
	analysis := newAnalysisServer(t)
	cfg := writeConfig(t, newCatalogServer(t).URL, analysis.URL)
	values := writeFile(t, t.TempDir(), "form.yaml", "satellite: sat-missing\n")

	_, err := runCmd(t, "-config", cfg, "submit", "-form", values)
	require.Error(t, err)
	assert.Empty(t, analysis.received())
}

const rawDocument = `{"mission": {"start": "2026-03-01T00:00:00Z", "duration": "P0Y0M7D",
  "target": {"latitude": {"minValue": 30, "maxValue": 45}, "longitude": {"minValue": -110, "maxValue": -100}}},
 "designSpace": {"spaceSegment": [{"numberSatellites": 1}], "satellites": [{"name": "custom"}]}}`

func TestRunRawSubmitsDocumentVerbatim(t *testing.T) {
	analysis := newAnalysisServer(t)
	cfg := writeConfig(t, newCatalogServer(t).URL, analysis.URL)
	doc := writeFile(t, t.TempDir(), "doc.json", rawDocument)

	out, err := runCmd(t, "-config", cfg, "raw", "-file", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"mission\": {")
	assert.Contains(t, out, "results: "+analysis.URL+"/data")

	bodies := analysis.received()
	require.Len(t, bodies, 1)
	assert.Equal(t, `{"mission":`+rawDocument+`}`, string(bodies[0]))
}

func TestRunRawDryRunAndStrict(t *testing.T) {
	analysis := newAnalysisServer(t)
	cfg := writeConfig(t, newCatalogServer(t).URL, analysis.URL)
	dir := t.TempDir()

	doc := writeFile(t, dir, "doc.json", rawDocument)
	out, err := runCmd(t, "-config", cfg, "raw", "-file", doc, "-dump", "-dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "map[string]interface")
	assert.NotContains(t, out, "results:")

	invalid := writeFile(t, dir, "invalid.json", `{"mission": {}}`)
	_, err = runCmd(t, "-config", cfg, "raw", "-file", invalid, "-strict")
	require.Error(t, err)

	_, err = runCmd(t, "-config", cfg, "raw", "-file", filepath.Join(dir, "bad.json"))
	require.Error(t, err)
	assert.Empty(t, analysis.received())
}

func TestRunCatalogListsTemplates(t *testing.T) {
	cfg := writeConfig(t, newCatalogServer(t).URL, "http://localhost:5000")

	out, err := runCmd(t, "-config", cfg, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "Satellite templates (1)")
	assert.Contains(t, out, "sat-s2")
	assert.Contains(t, out, "Instrument templates (1)")
	assert.Contains(t, out, "inst-msi")
}

func TestRunPreviewPrintsDesignPoints(t *testing.T) {
	cfg := writeConfig(t, newCatalogServer(t).URL, "http://localhost:5000")
	values := writeFile(t, t.TempDir(), "form.yaml", `
constellationSize: {min: 2, max: 3, count: 2}
altitude: {min: 700, max: 700}
`)

	out, err := runCmd(t, "-config", cfg, "preview", "-form", values, "-window", "30m")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "PERIOD")
	assert.Contains(t, out, "%")
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	cfg := writeConfig(t, newCatalogServer(t).URL, "http://localhost:5000")
	_, err := runCmd(t, "-config", cfg, "deploy")
	require.Error(t, err)

	_, err = runCmd(t)
	require.Error(t, err)
}

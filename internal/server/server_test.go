package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlekbai/hfsm/definition"
)

const matchDefinition = `
initial: idle
states:
  - name: idle
    permit:
      - trigger: start
        to: live
  - name: idle_full
    parent: idle
    permit:
      - trigger: join
        to: idle_full
        guards:
          - tag: not-banned
            arg_not_equals: banned
  - name: live
    dynamic:
      - trigger: whistle
        choose:
          full: idle_full
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	def, err := definition.Parse([]byte(matchDefinition), definition.FormatYAML)
	require.NoError(t, err)
	srv, err := New(def, "match", nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp, out
}

func createMachine(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, body := do(t, http.MethodPost, ts.URL+"/machines", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "idle", body["state"])
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestServer_FireFlow(t *testing.T) {
	ts := newTestServer(t)
	id := createMachine(t, ts)

	resp, body := do(t, http.MethodPost, ts.URL+"/machines/"+id+"/fire", `{"trigger":"start"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "live", body["nextState"])
	report := body["reportedTransitions"].(map[string]any)
	assert.Equal(t, true, report["nextStateInDifferentTree"])
	assert.Equal(t, []any{"live"}, report["onEntryCallbacksCalled"])

	resp, body = do(t, http.MethodPost, ts.URL+"/machines/"+id+"/fire", `{"trigger":"whistle","arg":"full"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "idle_full", body["nextState"])

	resp, body = do(t, http.MethodGet, ts.URL+"/machines/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "idle_full", body["state"])
	assert.Equal(t, id, body["id"])
}

func TestServer_FireRejected(t *testing.T) {
	ts := newTestServer(t)
	id := createMachine(t, ts)
	_, _ = do(t, http.MethodPost, ts.URL+"/machines/"+id+"/fire", `{"trigger":"start"}`)
	_, _ = do(t, http.MethodPost, ts.URL+"/machines/"+id+"/fire", `{"trigger":"whistle","arg":"full"}`)

	resp, body := do(t, http.MethodPost, ts.URL+"/machines/"+id+"/fire", `{"trigger":"join","arg":"banned"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "noTransition", body["kind"])
	assert.Equal(t, "not-banned", body["guard"])

	resp, body = do(t, http.MethodPost, ts.URL+"/machines/"+id+"/fire", `{"trigger":"red_card"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "noTransition", body["kind"])
	assert.NotContains(t, body, "guard")

	_, body = do(t, http.MethodGet, ts.URL+"/machines/"+id, "")
	assert.Equal(t, "idle_full", body["state"])
}

func TestServer_DeciderError(t *testing.T) {
	ts := newTestServer(t)
	id := createMachine(t, ts)
	_, _ = do(t, http.MethodPost, ts.URL+"/machines/"+id+"/fire", `{"trigger":"start"}`)

	resp, body := do(t, http.MethodPost, ts.URL+"/machines/"+id+"/fire", `{"trigger":"whistle","arg":"half"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "otherError", body["kind"])
	assert.Contains(t, body["error"], "no destination")
}

func TestServer_BadRequests(t *testing.T) {
	ts := newTestServer(t)
	id := createMachine(t, ts)

	resp, _ := do(t, http.MethodPost, ts.URL+"/machines/"+id+"/fire", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/machines/"+id+"/fire", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, ts.URL+"/machines/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/machines/nope/fire", `{"trigger":"start"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_TreeAndPermitted(t *testing.T) {
	ts := newTestServer(t)
	id := createMachine(t, ts)

	resp, err := http.Get(ts.URL + "/machines/" + id + "/tree")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var forest map[string]struct {
		Tag      string `json:"tag"`
		Children []struct {
			Tag       string `json:"tag"`
			ParentTag string `json:"parentTag"`
		} `json:"children"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&forest))
	require.Contains(t, forest, "idle")
	require.Len(t, forest["idle"].Children, 1)
	assert.Equal(t, "idle_full", forest["idle"].Children[0].Tag)
	assert.Equal(t, "idle", forest["idle"].Children[0].ParentTag)
	assert.Contains(t, forest, "live")

	resp2, err := http.Get(ts.URL + "/machines/" + id + "/permitted")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var triggers []string
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&triggers))
	assert.Equal(t, []string{"start"}, triggers)
}

func TestServer_Delete(t *testing.T) {
	ts := newTestServer(t)
	id := createMachine(t, ts)

	resp, _ := do(t, http.MethodDelete, ts.URL+"/machines/"+id, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, ts.URL+"/machines/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/machines/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_InstancesAreIndependent(t *testing.T) {
	ts := newTestServer(t)
	first := createMachine(t, ts)
	second := createMachine(t, ts)
	assert.NotEqual(t, first, second)

	_, _ = do(t, http.MethodPost, ts.URL+"/machines/"+first+"/fire", `{"trigger":"start"}`)

	_, body := do(t, http.MethodGet, ts.URL+"/machines/"+second, "")
	assert.Equal(t, "idle", body["state"])
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t)
	id := createMachine(t, ts)
	_, _ = do(t, http.MethodPost, ts.URL+"/machines/"+id+"/fire", `{"trigger":"start"}`)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `hfsm_fires_total{machine="match",outcome="success",trigger="start"} 1`)
}

func TestNew_InvalidDefinition(t *testing.T) {
	_, err := New(&definition.Definition{}, "x", nil)
	assert.Error(t, err)
}

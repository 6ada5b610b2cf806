package dev

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chen-dev/chen/internal/config"
	"github.com/chen-dev/chen/pkg/router"
	"github.com/chen-dev/chen/pkg/virtual"
)

// reactPackages installs minimal react and react-router packages so bundles
// resolve every bare import the generated module makes.
var reactPackages = map[string]string{
	"node_modules/react/package.json": `{"name":"react","main":"index.js"}`,
	"node_modules/react/index.js": "export const lazy = (load) => load;\n" +
		"export const Suspense = (props) => props.children;\n",
	"node_modules/react/jsx-runtime.js": "export const jsx = (type, props) => ({ type, props });\n" +
		"export const jsxs = jsx;\n" +
		"export const Fragment = \"fragment\";\n",
	"node_modules/react-router/package.json": `{"name":"react-router","main":"index.js"}`,
	"node_modules/react-router/index.js": "export const Route = () => null;\n" +
		"export const Routes = (props) => props.children;\n",
}

func withReact(files map[string]string) map[string]string {
	out := make(map[string]string, len(files)+len(reactPackages))
	for name, body := range reactPackages {
		out[name] = body
	}
	for name, body := range files {
		out[name] = body
	}
	return out
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
}

func newTestServer(t *testing.T, files map[string]string) (*Server, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, files)

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	s := NewServer(ServerOptions{Config: cfg})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.ReloadServer().Close()
		ts.Close()
	})
	return s, ts
}

func dialReload(t *testing.T, ts *httptest.Server, rs *ReloadServer) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + ReloadPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return rs.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ReloadMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ReloadMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func get(t *testing.T, url string) (int, string, http.Header) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body), resp.Header
}

func TestReloadServer_Broadcast(t *testing.T) {
	metrics := NewMetrics()
	rs := NewReloadServer(nil, metrics)
	ts := httptest.NewServer(http.HandlerFunc(rs.HandleWebSocket))
	defer ts.Close()

	conn := dialReload(t, ts, rs)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.clients))

	rs.NotifyReload()
	assert.Equal(t, ReloadMessage{Type: ReloadTypeFull}, readMessage(t, conn))

	rs.NotifyError("E105: Duplicate route segment")
	assert.Equal(t, ReloadMessage{Type: ReloadTypeError, Error: "E105: Duplicate route segment"}, readMessage(t, conn))

	rs.ClearError()
	assert.Equal(t, ReloadMessage{Type: ReloadTypeClear}, readMessage(t, conn))

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.reloads))

	rs.Close()
	assert.Equal(t, 0, rs.ClientCount())
}

func TestServer_Module(t *testing.T) {
	s, ts := newTestServer(t, withReact(map[string]string{
		"src/pages/index.tsx":       "export default () => null;\n",
		"src/pages/blog/[slug].tsx": "export default () => null;\n",
	}))

	status, body, header := get(t, ts.URL+ModulePathPrefix+virtual.PublicID+"?raw=1")
	require.Equal(t, http.StatusOK, status, body)
	assert.True(t, strings.HasPrefix(body, router.GeneratedHeader))
	assert.Contains(t, body, `<Route path=":slug" element={<RouteBlogSlug />} />`)
	assert.Equal(t, "no-cache", header.Get("Cache-Control"))

	status, body, header = get(t, ts.URL+ModulePathPrefix+virtual.PublicID)
	require.Equal(t, http.StatusOK, status, body)
	assert.Contains(t, header.Get("Content-Type"), "application/javascript")
	assert.Contains(t, body, "ChenRoutes")
	assert.NotContains(t, body, "<Route ")

	status, _, _ = get(t, ts.URL+ModulePathPrefix+virtual.EncodeURLID(virtual.ResolvedID)+"?raw=1")
	assert.Equal(t, http.StatusOK, status)

	n, ok := s.Graph().Node(virtual.ResolvedID)
	require.True(t, ok)
	assert.Equal(t, 3, n.Loads)
	assert.False(t, n.Stale)
	assert.Equal(t, float64(3), testutil.ToFloat64(s.Metrics().moduleLoads.WithLabelValues(LoadStatusOK)))
}

func TestServer_ModuleIsSelfContained(t *testing.T) {
	_, ts := newTestServer(t, withReact(map[string]string{
		"src/pages/index.tsx":      "export default () => \"home-page\";\n",
		"src/pages/users/[id].tsx": "export default () => \"user-page\";\n",
	}))

	status, body, _ := get(t, ts.URL+ModulePathPrefix+virtual.PublicID)
	require.Equal(t, http.StatusOK, status, body)
	assert.Contains(t, body, "home-page")
	assert.Contains(t, body, "user-page")
	assert.NotContains(t, body, `import("`)
	assert.NotContains(t, body, `from "react"`)
	assert.NotContains(t, body, `from "react-router"`)
}

func TestServer_ModuleMissingPackage(t *testing.T) {
	s, ts := newTestServer(t, map[string]string{"src/pages/index.tsx": ""})
	conn := dialReload(t, ts, s.ReloadServer())

	status, body, _ := get(t, ts.URL+ModulePathPrefix+virtual.PublicID)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body, "E130")
	assert.Contains(t, body, "react")

	msg := readMessage(t, conn)
	assert.Equal(t, ReloadTypeError, msg.Type)
	assert.Contains(t, msg.Error, "E130")
}

func TestServer_Entry(t *testing.T) {
	_, ts := newTestServer(t, withReact(map[string]string{
		"src/main.tsx": "import { ChenRoutes } from \"virtual:chen-routes\";\n" +
			"export const app = <ChenRoutes />;\n",
		"src/pages/about.tsx": "export default () => \"about-page\";\n",
	}))

	status, body, header := get(t, ts.URL+EntryPath)
	require.Equal(t, http.StatusOK, status, body)
	assert.Contains(t, header.Get("Content-Type"), "application/javascript")
	assert.Contains(t, body, "about-page")
	assert.NotContains(t, body, "virtual:chen-routes\"")
}

func TestServer_EntryMissing(t *testing.T) {
	_, ts := newTestServer(t, withReact(map[string]string{"src/pages/index.tsx": ""}))

	status, body, _ := get(t, ts.URL+EntryPath)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body, "E130")
}

func TestServer_UnknownModule(t *testing.T) {
	_, ts := newTestServer(t, nil)

	status, body, _ := get(t, ts.URL+ModulePathPrefix+"virtual:other")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "E110")
}

func TestServer_Routes(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{
		"src/pages/index.tsx": "",
		"src/pages/about.tsx": "",
		"src/pages/_404.tsx":  "",
	})

	status, body, _ := get(t, ts.URL+RoutesPath)
	require.Equal(t, http.StatusOK, status, body)

	var table router.Table
	require.NoError(t, json.Unmarshal([]byte(body), &table))
	require.Len(t, table.Routes, 3)
	assert.True(t, table.Routes[0].Index)
	assert.Equal(t, "about", table.Routes[1].Path)
	assert.Equal(t, "*", table.Routes[2].Path)
	assert.Equal(t, "Route404", table.Routes[2].Element)
}

func TestServer_GenerationErrorOverlay(t *testing.T) {
	s, ts := newTestServer(t, withReact(map[string]string{
		"src/pages/about.tsx": "",
		"src/pages/about.jsx": "",
	}))
	conn := dialReload(t, ts, s.ReloadServer())

	status, body, _ := get(t, ts.URL+ModulePathPrefix+virtual.PublicID)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body, "E105")

	msg := readMessage(t, conn)
	assert.Equal(t, ReloadTypeError, msg.Type)
	assert.Contains(t, msg.Error, "E105")

	require.NoError(t, os.Remove(filepath.Join(s.config.PagesPath(), "about.jsx")))
	status, _, _ = get(t, ts.URL+ModulePathPrefix+virtual.PublicID)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, ReloadMessage{Type: ReloadTypeClear}, readMessage(t, conn))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.Metrics().moduleLoads.WithLabelValues(LoadStatusError)))
}

func TestServer_WatcherReloadsBrowsers(t *testing.T) {
	s, ts := newTestServer(t, map[string]string{"src/pages/index.tsx": ""})
	conn := dialReload(t, ts, s.ReloadServer())

	get(t, ts.URL+ModulePathPrefix+virtual.PublicID+"?raw=1")
	s.Watcher().Notify(Notification{
		Path: filepath.Join(s.config.PagesPath(), "users", "[id]", "[...rest].tsx"),
		Kind: EventCreate,
	})

	assert.True(t, s.Graph().IsStale(virtual.ResolvedID))
	assert.Equal(t, ReloadMessage{Type: ReloadTypeFull}, readMessage(t, conn))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.Metrics().invalidations))
}

func TestServer_Static(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{
		"index.html":  "<html><body><div id=\"root\"></div></body></html>",
		"favicon.svg": "<svg/>",
	})

	status, body, _ := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, ReloadPath)
	assert.True(t, strings.HasSuffix(body, "</body></html>"))

	// Client-side routes fall back to index.html.
	status, body, _ = get(t, ts.URL+"/blog/hello")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `<div id="root">`)

	status, body, _ = get(t, ts.URL+"/favicon.svg")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<svg/>", body)

	status, _, _ = get(t, ts.URL+"/missing.js")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_Metrics(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{"src/pages/index.tsx": ""})

	get(t, ts.URL+RoutesPath)
	status, body, _ := get(t, ts.URL+MetricsPath)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "chen_module_loads_total")
	assert.Contains(t, body, "chen_generation_duration_seconds")
}

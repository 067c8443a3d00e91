// Package testutil provides testing utilities for the directory crawler.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockDirectory is a configurable stand-in for the education directory API.
// Unconfigured routes answer 404.
type MockDirectory struct {
	server *httptest.Server
	mu     sync.RWMutex

	subareas  map[string]MockResponse
	lists     map[string]MockResponse
	metadata  map[string]MockResponse
	details   map[string]MockResponse
	overrides map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount int
	Paths        []string
}

// NewMockDirectory starts a new mock server.
func NewMockDirectory() *MockDirectory {
	mock := &MockDirectory{
		subareas:  make(map[string]MockResponse),
		lists:     make(map[string]MockResponse),
		metadata:  make(map[string]MockResponse),
		details:   make(map[string]MockResponse),
		overrides: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.serve))
	return mock
}

// URL returns the mock server base URL, with trailing slash.
func (m *MockDirectory) URL() string {
	return m.server.URL + "/"
}

// Close shuts down the mock server.
func (m *MockDirectory) Close() {
	m.server.Close()
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockDirectory) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// SetHandler overrides routing for an exact URL path.
func (m *MockDirectory) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[path] = handler
}

// SetSubareas serves the given district objects as descendants of areaCode.
func (m *MockDirectory) SetSubareas(areaCode string, districts ...map[string]any) {
	data := make([]map[string]any, 0, len(districts))
	for _, d := range districts {
		data = append(data, map[string]any{"district": d})
	}
	body, _ := json.Marshal(map[string]any{"data": data})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.subareas[areaCode] = jsonResponse(http.StatusOK, string(body))
}

// SetSubareaResponse sets a raw response for an area code's descendants.
func (m *MockDirectory) SetSubareaResponse(areaCode string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subareas[areaCode] = resp
}

// SetSchoolList serves csv as the school list of subareaCode and lastUpdatedAt
// as its listing metadata.
func (m *MockDirectory) SetSchoolList(subareaCode, csv, lastUpdatedAt string) {
	meta, _ := json.Marshal(map[string]any{
		"meta": map[string]any{"lastUpdatedAt": lastUpdatedAt},
		"data": []any{},
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[subareaCode] = MockResponse{
		StatusCode: http.StatusOK,
		Body:       csv,
		Headers:    map[string]string{"Content-Type": "text/csv; charset=utf-8"},
	}
	m.metadata[subareaCode] = jsonResponse(http.StatusOK, string(meta))
}

// SetListResponse sets a raw response for a subarea's CSV download.
func (m *MockDirectory) SetListResponse(subareaCode string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[subareaCode] = resp
}

// SetMetadataResponse sets a raw response for a subarea's listing metadata.
func (m *MockDirectory) SetMetadataResponse(subareaCode string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[subareaCode] = resp
}

// SetDetail serves school as the detail payload of npsn.
func (m *MockDirectory) SetDetail(npsn string, school map[string]any, lastUpdatedAt string) {
	body, _ := json.Marshal(map[string]any{
		"meta":             map[string]any{"lastUpdatedAt": lastUpdatedAt},
		"satuanPendidikan": school,
	})
	m.SetDetailResponse(npsn, jsonResponse(http.StatusOK, string(body)))
}

// SetDetailResponse sets a raw response for a detail lookup.
func (m *MockDirectory) SetDetailResponse(npsn string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details[npsn] = resp
}

func (m *MockDirectory) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.RequestCount++
	m.Paths = append(m.Paths, r.URL.RequestURI())
	override, hasOverride := m.overrides[r.URL.Path]
	resp, found := m.route(r)
	m.mu.Unlock()

	if hasOverride {
		override(w, r)
		return
	}
	if !found {
		writeResponse(w, r, jsonResponse(http.StatusNotFound, `{"message":"Not Found"}`))
		return
	}
	writeResponse(w, r, resp)
}

// route must be called with m.mu held.
func (m *MockDirectory) route(r *http.Request) (MockResponse, bool) {
	path := strings.Trim(r.URL.Path, "/")
	q := r.URL.Query()

	switch {
	case path == "satuan-pendidikan/download":
		resp, ok := m.lists[q.Get("kodeKecamatan")]
		return resp, ok
	case path == "satuan-pendidikan":
		resp, ok := m.metadata[q.Get("kodeKecamatan")]
		return resp, ok
	case strings.HasPrefix(path, "satuan-pendidikan/npsn/"):
		resp, ok := m.details[strings.TrimPrefix(path, "satuan-pendidikan/npsn/")]
		return resp, ok
	case strings.HasPrefix(path, "satuan-pendidikan/statistics/") && strings.HasSuffix(path, "/descendants"):
		code := strings.TrimSuffix(strings.TrimPrefix(path, "satuan-pendidikan/statistics/"), "/descendants")
		resp, ok := m.subareas[code]
		return resp, ok
	}
	return MockResponse{}, false
}

func writeResponse(w http.ResponseWriter, r *http.Request, resp MockResponse) {
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

func jsonResponse(status int, body string) MockResponse {
	return MockResponse{
		StatusCode: status,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return jsonResponse(http.StatusInternalServerError, `{"error": "Internal server error"}`)
}

// NewNotFoundResponse creates a 404 response.
func NewNotFoundResponse() MockResponse {
	return jsonResponse(http.StatusNotFound, `{"message":"Not Found"}`)
}

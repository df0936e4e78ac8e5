package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, gatewayURL string) *Client {
	t.Helper()

	c, err := New(gatewayURL)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

// primeSession stores an access and refresh token in the client's jar, as
// the gateway's Set-Cookie headers would after a login.
func primeSession(t *testing.T, c *Client, access, refresh string) {
	t.Helper()

	c.http.Jar.SetCookies(c.base, []*http.Cookie{
		{Name: accessTokenCookie, Value: access, Path: "/"},
		{Name: refreshTokenCookie, Value: refresh, Path: "/"},
	})
}

func writeEnvelope(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}

func TestCall_AttachesBearerAndDecodesEnvelope(t *testing.T) {
	var gotAuth, gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":{"name":"electronics"},"status":{"code":200,"message":"OK"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	primeSession(t, c, "acc-1", "ref-1")

	env, err := c.Call(context.Background(), "api/v1/categories/7?expand=children", RequestOptions{})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	if gotAuth != "Bearer acc-1" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer acc-1")
	}
	if gotPath != "/api/proxy/api/v1/categories/7" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "expand=children" {
		t.Errorf("query = %q", gotQuery)
	}

	var payload struct {
		Name string `json:"name"`
	}
	if err := env.DecodeData(&payload); err != nil {
		t.Fatalf("DecodeData() error = %v", err)
	}
	if payload.Name != "electronics" {
		t.Errorf("data.name = %q", payload.Name)
	}
}

func TestCall_RefreshesOnceThenRetries(t *testing.T) {
	var attempts, refreshes atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/proxy/api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			writeEnvelope(w, http.StatusUnauthorized, `{"success":false,"status":{"code":401,"message":"token expired"}}`)
			return
		}
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":[],"status":{"code":200,"message":"OK"}}`)
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		http.SetCookie(w, &http.Cookie{Name: accessTokenCookie, Value: "acc-2", Path: "/"})
		writeEnvelope(w, http.StatusOK, `{"success":true,"status":{"code":200,"message":"OK"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	primeSession(t, c, "acc-stale", "ref-1")

	env, err := c.Call(context.Background(), "api/v1/users", RequestOptions{})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if !env.Success {
		t.Error("envelope should report success after retry")
	}

	if got := attempts.Load(); got != 2 {
		t.Errorf("backend attempts = %d, want 2", got)
	}
	if got := refreshes.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
	if got := c.accessToken(); got != "acc-2" {
		t.Errorf("access token after refresh = %q, want %q", got, "acc-2")
	}
}

func TestCall_SecondUnauthorizedIsSessionExpired(t *testing.T) {
	var attempts atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/proxy/", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		writeEnvelope(w, http.StatusUnauthorized, `{"success":false,"status":{"code":401,"message":"token expired"}}`)
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, `{"success":true,"status":{"code":200,"message":"OK"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	primeSession(t, c, "acc-stale", "ref-1")

	_, err := c.Call(context.Background(), "api/v1/users", RequestOptions{})
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Call() error = %v, want ErrSessionExpired", err)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("backend attempts = %d, want exactly 2", got)
	}
}

func TestCall_FailedRefreshSkipsRetry(t *testing.T) {
	var attempts atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/proxy/", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		writeEnvelope(w, http.StatusUnauthorized, `{"success":false,"status":{"code":401,"message":"token expired"}}`)
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, `{"success":false,"status":{"code":401,"message":"refresh token expired"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	primeSession(t, c, "acc-stale", "ref-stale")

	_, err := c.Call(context.Background(), "api/v1/users", RequestOptions{})
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Call() error = %v, want ErrSessionExpired", err)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("backend attempts = %d, want 1 when refresh fails", got)
	}
}

func TestCall_BusinessFailureFlagWinsOverHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, `{"success":false,"status":{"code":4001,"message":"Invalid category name"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	primeSession(t, c, "acc-1", "ref-1")

	_, err := c.Call(context.Background(), "api/v1/categories", RequestOptions{Method: http.MethodPost, JSON: map[string]string{"name": ""}})

	var bizErr *BusinessError
	if !errors.As(err, &bizErr) {
		t.Fatalf("Call() error = %v, want *BusinessError", err)
	}
	if bizErr.Code != 4001 {
		t.Errorf("Code = %d, want 4001", bizErr.Code)
	}
	if bizErr.Message != "Invalid category name" {
		t.Errorf("Message = %q, want %q", bizErr.Message, "Invalid category name")
	}
}

func TestCall_ServerErrorWithoutVerdictIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusServiceUnavailable, `{"error":"upstream timeout"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	primeSession(t, c, "acc-1", "ref-1")

	_, err := c.Call(context.Background(), "api/v1/users", RequestOptions{})
	if !errors.Is(err, ErrServerUnavailable) {
		t.Fatalf("Call() error = %v, want ErrServerUnavailable", err)
	}
}

func TestCall_MalformedBodyIsInvalidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>gateway timeout</html>"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	primeSession(t, c, "acc-1", "ref-1")

	_, err := c.Call(context.Background(), "api/v1/users", RequestOptions{})
	if !errors.Is(err, ErrInvalidServerResponse) {
		t.Fatalf("Call() error = %v, want ErrInvalidServerResponse", err)
	}
}

func TestCall_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := newTestClient(t, srv.URL)

	_, err := c.Call(context.Background(), "api/v1/users", RequestOptions{})
	if !errors.Is(err, ErrServerUnavailable) {
		t.Fatalf("Call() error = %v, want ErrServerUnavailable", err)
	}
}

func TestCall_MultipartContentTypeIsPreserved(t *testing.T) {
	var gotContentType string
	var gotField string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			gotField = r.FormValue("name")
		}
		writeEnvelope(w, http.StatusOK, `{"success":true,"status":{"code":200,"message":"OK"}}`)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("name", "avatar.png"); err != nil {
		t.Fatalf("WriteField() error = %v", err)
	}
	part, err := form.CreateFormFile("file", "avatar.png")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	_, _ = part.Write([]byte("not-really-a-png"))
	form.Close()

	c := newTestClient(t, srv.URL)
	primeSession(t, c, "acc-1", "ref-1")

	_, err = c.Call(context.Background(), "api/v1/files", RequestOptions{
		Method:      http.MethodPost,
		Body:        buf.Bytes(),
		ContentType: form.FormDataContentType(),
	})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	if !strings.HasPrefix(gotContentType, "multipart/form-data; boundary=") {
		t.Errorf("Content-Type = %q, want multipart with boundary", gotContentType)
	}
	if gotField != "avatar.png" {
		t.Errorf("form field = %q, want %q", gotField, "avatar.png")
	}
}

func TestRefreshAccessToken_ConcurrentCallersShareOneFlight(t *testing.T) {
	const callers = 8

	var refreshes atomic.Int32
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		<-release
		writeEnvelope(w, http.StatusOK, `{"success":true,"status":{"code":200,"message":"OK"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	primeSession(t, c, "acc-stale", "ref-1")

	var started, done sync.WaitGroup
	results := make([]bool, callers)
	for i := 0; i < callers; i++ {
		started.Add(1)
		done.Add(1)
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i] = c.refreshAccessToken(context.Background())
		}(i)
	}

	started.Wait()
	// Give every caller time to join the in-flight refresh before it
	// completes.
	time.Sleep(150 * time.Millisecond)
	close(release)
	done.Wait()

	if got := refreshes.Load(); got != 1 {
		t.Errorf("upstream refresh calls = %d, want 1", got)
	}
	for i, ok := range results {
		if !ok {
			t.Errorf("caller %d did not observe the shared success", i)
		}
	}
}

func TestRefreshAccessToken_OutcomeIsNeverCached(t *testing.T) {
	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		writeEnvelope(w, http.StatusOK, `{"success":true,"status":{"code":200,"message":"OK"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	primeSession(t, c, "acc-stale", "ref-1")

	for i := 0; i < 3; i++ {
		if !c.refreshAccessToken(context.Background()) {
			t.Fatalf("refresh %d failed", i)
		}
	}
	if got := refreshes.Load(); got != 3 {
		t.Errorf("upstream refresh calls = %d, want one per sequential renewal", got)
	}
}

func TestCall_JSONBodyIsReencodedOnRetry(t *testing.T) {
	var bodies []string
	var mu sync.Mutex

	mux := http.NewServeMux()
	mux.HandleFunc("/api/proxy/", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r.Body)
		mu.Lock()
		bodies = append(bodies, buf.String())
		count := len(bodies)
		mu.Unlock()

		if count == 1 {
			writeEnvelope(w, http.StatusUnauthorized, `{"success":false,"status":{"code":401,"message":"token expired"}}`)
			return
		}
		writeEnvelope(w, http.StatusOK, `{"success":true,"status":{"code":200,"message":"OK"}}`)
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, `{"success":true,"status":{"code":200,"message":"OK"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	primeSession(t, c, "acc-stale", "ref-1")

	want := `{"name":"books"}`
	_, err := c.Call(context.Background(), "api/v1/categories", RequestOptions{
		Method: http.MethodPost,
		JSON:   map[string]string{"name": "books"},
	})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	if len(bodies) != 2 {
		t.Fatalf("backend attempts = %d, want 2", len(bodies))
	}
	for i, body := range bodies {
		var got, expected map[string]any
		if err := json.Unmarshal([]byte(body), &got); err != nil {
			t.Fatalf("attempt %d body is not JSON: %v", i, err)
		}
		_ = json.Unmarshal([]byte(want), &expected)
		if fmt.Sprint(got) != fmt.Sprint(expected) {
			t.Errorf("attempt %d body = %s, want %s", i, body, want)
		}
	}
}

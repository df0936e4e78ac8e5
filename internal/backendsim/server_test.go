package backendsim

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/channy-sao/admin-gateway/internal/core/domain"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	sim, err := New(Options{Secret: "test-secret"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	srv := httptest.NewServer(sim.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	res, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return res
}

func decodeEnvelope(t *testing.T, res *http.Response) *domain.Envelope {
	t.Helper()
	defer res.Body.Close()

	var env domain.Envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return &env
}

func loginAs(t *testing.T, srv *httptest.Server, email, password string) *domain.LoginData {
	t.Helper()

	res := postJSON(t, srv.URL+"/api/v1/auth/login/local", domain.Credentials{Email: email, Password: password})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", res.StatusCode)
	}

	env := decodeEnvelope(t, res)
	var data domain.LoginData
	if err := env.DecodeData(&data); err != nil {
		t.Fatalf("decode login data: %v", err)
	}
	return &data
}

func TestLogin_IssuesTokensAndUserInfo(t *testing.T) {
	srv := newTestServer(t)

	data := loginAs(t, srv, "admin@example.com", "admin123")

	if data.AccessToken == "" || data.RefreshToken == "" {
		t.Fatal("login returned empty tokens")
	}
	if data.AccessTokenExpireInMs <= 0 || data.RefreshTokenExpireInMs <= 0 {
		t.Errorf("token lifetimes = %d/%d, want positive", data.AccessTokenExpireInMs, data.RefreshTokenExpireInMs)
	}
	if data.UserInfo == nil || data.UserInfo.Email != "admin@example.com" {
		t.Errorf("userInfo = %+v", data.UserInfo)
	}
}

func TestLogin_WrongPasswordIsRejectedEnvelope(t *testing.T) {
	srv := newTestServer(t)

	res := postJSON(t, srv.URL+"/api/v1/auth/login/local", domain.Credentials{Email: "admin@example.com", Password: "nope"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", res.StatusCode)
	}

	env := decodeEnvelope(t, res)
	if env.Success {
		t.Error("rejection envelope reports success")
	}
	if env.Status.Code != 4011 {
		t.Errorf("status code = %d, want 4011", env.Status.Code)
	}
}

func TestRefreshToken_RotatesAndBurnsTheOldToken(t *testing.T) {
	srv := newTestServer(t)
	data := loginAs(t, srv, "admin@example.com", "admin123")

	res := postJSON(t, srv.URL+"/api/v1/auth/refresh-token", map[string]string{"refreshToken": data.RefreshToken})
	env := decodeEnvelope(t, res)
	if !env.Success {
		t.Fatalf("refresh rejected: %+v", env.Status)
	}

	var rotated domain.LoginData
	if err := env.DecodeData(&rotated); err != nil {
		t.Fatalf("decode refresh data: %v", err)
	}
	if rotated.RefreshToken == "" || rotated.RefreshToken == data.RefreshToken {
		t.Error("refresh token was not rotated")
	}
	if rotated.UserInfo != nil {
		t.Error("refresh response should not carry userInfo")
	}

	// The consumed token must be dead.
	res = postJSON(t, srv.URL+"/api/v1/auth/refresh-token", map[string]string{"refreshToken": data.RefreshToken})
	if res.StatusCode != http.StatusUnauthorized {
		t.Errorf("replayed refresh status = %d, want 401", res.StatusCode)
	}
	res.Body.Close()
}

func TestLogout_RevokesTheRefreshToken(t *testing.T) {
	srv := newTestServer(t)
	data := loginAs(t, srv, "admin@example.com", "admin123")

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+data.RefreshToken)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d", res.StatusCode)
	}
	res.Body.Close()

	res = postJSON(t, srv.URL+"/api/v1/auth/refresh-token", map[string]string{"refreshToken": data.RefreshToken})
	if res.StatusCode != http.StatusUnauthorized {
		t.Errorf("refresh after logout status = %d, want 401", res.StatusCode)
	}
	res.Body.Close()
}

func TestListUsers_RequiresBearerAndPaginates(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Get(srv.URL + "/api/v1/users")
	if err != nil {
		t.Fatalf("GET users: %v", err)
	}
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", res.StatusCode)
	}
	res.Body.Close()

	data := loginAs(t, srv, "admin@example.com", "admin123")

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/users?page=1&pageSize=1", nil)
	req.Header.Set("Authorization", "Bearer "+data.AccessToken)
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET users: %v", err)
	}

	env := decodeEnvelope(t, res)
	if !env.Success {
		t.Fatalf("list rejected: %+v", env.Status)
	}
	if env.Meta == nil {
		t.Fatal("list envelope has no meta")
	}
	if env.Meta.TotalCount != 2 || env.Meta.TotalPage != 2 || env.Meta.PageSize != 1 {
		t.Errorf("meta = %+v", env.Meta)
	}

	var users []domain.UserInfo
	if err := env.DecodeData(&users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("page of users = %d, want 1", len(users))
	}
}

func TestListUsers_GarbageTokenIsRejected(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/users", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET users: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", res.StatusCode)
	}
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"project_sheetbot/internal/entities"
	"project_sheetbot/internal/interfaces"
	"project_sheetbot/internal/usecases"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

type fakeDispatcher struct {
	result usecases.DispatchResult
	got    []entities.IncomingMessage
}

func (f *fakeDispatcher) HandleMessage(ctx context.Context, msg entities.IncomingMessage, replier interfaces.Messenger) usecases.DispatchResult {
	f.got = append(f.got, msg)
	return f.result
}

type fakeAuth struct{}

func (fakeAuth) Login(username, password string) (string, error) {
	if username == "admin" && password == "pw" {
		return "token-123", nil
	}
	return "", usecases.ErrInvalidCredentials
}

type fakeWhatsApp struct {
	connected bool
	loggedIn  bool
	qr        string
}

func (f fakeWhatsApp) IsConnected() bool      { return f.connected }
func (f fakeWhatsApp) IsLoggedIn() bool       { return f.loggedIn }
func (f fakeWhatsApp) GetPhoneNumber() string { return "628111" }
func (f fakeWhatsApp) GetQR() string          { return f.qr }

func newTestRouter(d Dispatcher, wa WhatsAppStatus) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupRoutes(r, d, fakeAuth{}, wa, NewMiddleware(testSecret))
	return r
}

func signedToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": "admin",
		"exp":  exp.Unix(),
	})
	s, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func do(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&fakeDispatcher{}, fakeWhatsApp{connected: true})
	w := do(r, http.MethodGet, "/healthz", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["whatsapp"] != true {
		t.Errorf("body = %v", body)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestLogin(t *testing.T) {
	r := newTestRouter(&fakeDispatcher{}, nil)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"ok", map[string]string{"username": "admin", "password": "pw"}, http.StatusOK},
		{"bad password", map[string]string{"username": "admin", "password": "x"}, http.StatusUnauthorized},
		{"bad body", "not-an-object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(r, http.MethodPost, "/api/auth/login", "", tt.body); w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	r := newTestRouter(&fakeDispatcher{}, fakeWhatsApp{})

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage", "abc.def.ghi", http.StatusUnauthorized},
		{"expired", signedToken(t, "admin", time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"valid", signedToken(t, "admin", time.Now().Add(time.Hour)), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(r, http.MethodGet, "/api/whatsapp/status", tt.token, nil); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestWhatsAppQR(t *testing.T) {
	token := signedToken(t, "admin", time.Now().Add(time.Hour))

	tests := []struct {
		name        string
		wa          WhatsAppStatus
		want        int
		contentType string
	}{
		{"pending qr", fakeWhatsApp{qr: "2@abc,def,ghi"}, http.StatusOK, "image/png"},
		{"logged in", fakeWhatsApp{loggedIn: true}, http.StatusOK, "text/plain; charset=utf-8"},
		{"waiting", fakeWhatsApp{}, http.StatusAccepted, "text/plain; charset=utf-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&fakeDispatcher{}, tt.wa)
			w := do(r, http.MethodGet, "/api/whatsapp/qr", token, nil)
			if w.Code != tt.want || w.Header().Get("Content-Type") != tt.contentType {
				t.Errorf("status = %d content-type = %q, want %d %q", w.Code, w.Header().Get("Content-Type"), tt.want, tt.contentType)
			}
		})
	}
}

func TestHandleWebMessage(t *testing.T) {
	token := signedToken(t, "admin", time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		body   any
		result usecases.DispatchResult
		want   int
	}{
		{
			name:   "replied",
			body:   map[string]string{"from": "628111", "content": "!detail kopi"},
			result: usecases.DispatchResult{State: usecases.StateReplied, Command: usecases.DetailCommand{Product: "kopi"}, Reply: usecases.DetailStubReply},
			want:   http.StatusOK,
		},
		{
			name:   "unauthorized sender",
			body:   map[string]string{"from": "628999", "content": "halo"},
			result: usecases.DispatchResult{State: usecases.StateUnauthorized},
			want:   http.StatusForbidden,
		},
		{
			name:   "empty",
			body:   map[string]string{"from": "628111", "content": ""},
			result: usecases.DispatchResult{State: usecases.StateEmpty},
			want:   http.StatusUnprocessableEntity,
		},
		{
			name: "missing from",
			body: map[string]string{"content": "halo"},
			want: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDispatcher{result: tt.result}
			r := newTestRouter(d, fakeWhatsApp{})

			w := do(r, http.MethodPost, "/api/messages", token, tt.body)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if tt.want == http.StatusBadRequest {
				if len(d.got) != 0 {
					t.Error("invalid request reached the dispatcher")
				}
				return
			}
			if len(d.got) != 1 || d.got[0].Platform != PlatformWeb || d.got[0].ChatID != d.got[0].SenderID {
				t.Errorf("dispatched %+v", d.got)
			}
			if tt.result.State == usecases.StateReplied {
				var body map[string]string
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatal(err)
				}
				if body["command"] != "detail" || body["reply"] != usecases.DetailStubReply {
					t.Errorf("body = %v", body)
				}
			}
		})
	}
}

func TestRateLimitPerUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMiddleware(testSecret)
	r := gin.New()
	r.GET("/x", m.AuthRequired(), m.RateLimitPerUser(0, 2), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	alice := signedToken(t, "alice", time.Now().Add(time.Hour))
	bob := signedToken(t, "bob", time.Now().Add(time.Hour))

	for i, want := range []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests} {
		if w := do(r, http.MethodGet, "/x", alice, nil); w.Code != want {
			t.Errorf("alice request %d: status = %d, want %d", i+1, w.Code, want)
		}
	}
	if w := do(r, http.MethodGet, "/x", bob, nil); w.Code != http.StatusNoContent {
		t.Errorf("bob should have a separate bucket, got %d", w.Code)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("ha\x00lo\xff"); got != "halo" {
		t.Errorf("SanitizeString() = %q", got)
	}
}

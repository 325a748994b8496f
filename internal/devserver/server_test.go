package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type harness struct {
	t   *testing.T
	srv *Server
	ts  *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	nop := zerolog.Nop()
	srv, err := New(Config{Secret: []byte("test-secret"), BcryptCost: bcrypt.MinCost, Logger: &nop})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &harness{t: t, srv: srv, ts: ts}
}

func (h *harness) do(method, path, token string, body any) (int, map[string]any) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, h.ts.URL+"/api"+path, &buf)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}
	resp, err := h.ts.Client().Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (h *harness) register(name, email string) (uid, token string) {
	h.t.Helper()
	code, body := h.do(http.MethodPost, "/auth/new", "", map[string]string{"name": name, "email": email, "password": "123456"})
	require.Equal(h.t, http.StatusCreated, code, body)
	return body["uid"].(string), body["token"].(string)
}

func TestRegisterLoginRenew(t *testing.T) {
	h := newHarness(t)
	uid, _ := h.register("Test", "test@google.com")

	code, body := h.do(http.MethodPost, "/auth", "", map[string]string{"email": "test@google.com", "password": "123456"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, uid, body["uid"])
	assert.Equal(t, "Test", body["name"])
	token := body["token"].(string)

	code, body = h.do(http.MethodGet, "/auth/renew", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uid, body["uid"])
	assert.NotEmpty(t, body["token"])
}

func TestRegister_Duplicate(t *testing.T) {
	h := newHarness(t)
	h.register("Test", "test@google.com")
	code, body := h.do(http.MethodPost, "/auth/new", "", map[string]string{"name": "Other", "email": "TEST@google.com", "password": "123456"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, msgUserExists, body["msg"])
}

func TestLogin_BadCredentials(t *testing.T) {
	h := newHarness(t)
	h.register("Test", "test@google.com")
	for _, creds := range []map[string]string{
		{"email": "test@google.com", "password": "wrong-password"},
		{"email": "nobody@google.com", "password": "123456"},
	} {
		code, body := h.do(http.MethodPost, "/auth", "", creds)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, false, body["ok"])
		assert.Equal(t, msgBadCredentials, body["msg"])
	}
}

func TestValidationErrorsCarryNoMsg(t *testing.T) {
	h := newHarness(t)
	code, body := h.do(http.MethodPost, "/auth/new", "", map[string]string{"name": "", "email": "nope", "password": "1"})
	assert.Equal(t, http.StatusBadRequest, code)
	_, hasMsg := body["msg"]
	assert.False(t, hasMsg)
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
}

func TestTokenRequired(t *testing.T) {
	h := newHarness(t)
	code, body := h.do(http.MethodGet, "/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, msgNoToken, body["msg"])

	code, body = h.do(http.MethodGet, "/auth/renew", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, msgInvalidToken, body["msg"])
}

func TestExpiredTokenRejected(t *testing.T) {
	h := newHarness(t)
	past, err := NewTokenIssuer([]byte("test-secret"), time.Hour, func() time.Time { return time.Now().Add(-3 * time.Hour) })
	require.NoError(t, err)
	tok, err := past.Generate("uid", "name")
	require.NoError(t, err)
	code, _ := h.do(http.MethodGet, "/auth/renew", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestForeignSecretRejected(t *testing.T) {
	h := newHarness(t)
	other, err := NewTokenIssuer([]byte("other-secret"), 0, nil)
	require.NoError(t, err)
	tok, err := other.Generate("uid", "name")
	require.NoError(t, err)
	code, _ := h.do(http.MethodGet, "/events", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestEventLifecycle(t *testing.T) {
	h := newHarness(t)
	uid, token := h.register("Test", "test@google.com")

	draft := map[string]string{"title": "Cumpleaños", "notes": "pastel", "start": "2022-09-22T13:30:00.675Z", "end": "2022-09-22T15:30:00.675Z"}
	code, body := h.do(http.MethodPost, "/events", token, draft)
	require.Equal(t, http.StatusCreated, code, body)
	evento := body["evento"].(map[string]any)
	id := evento["id"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, uid, evento["user"], "writes return the bare user id")
	assert.Equal(t, "2022-09-22T13:30:00.675Z", evento["start"])

	code, body = h.do(http.MethodGet, "/events", token, nil)
	require.Equal(t, http.StatusOK, code)
	eventos := body["eventos"].([]any)
	require.Len(t, eventos, 1)
	user := eventos[0].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, uid, user["_id"])
	assert.Equal(t, "Test", user["name"])

	draft["title"] = "Cumpleaños de Ana"
	code, body = h.do(http.MethodPut, "/events/"+id, token, draft)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Cumpleaños de Ana", body["evento"].(map[string]any)["title"])

	code, _ = h.do(http.MethodDelete, "/events/"+id, token, nil)
	require.Equal(t, http.StatusOK, code)

	code, body = h.do(http.MethodDelete, "/events/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, msgEventNotFound, body["msg"])
}

func TestEventOwnership(t *testing.T) {
	h := newHarness(t)
	_, owner := h.register("Owner", "owner@google.com")
	_, intruder := h.register("Intruder", "intruder@google.com")

	draft := map[string]string{"title": "Mine", "start": "2022-09-22T13:30:00Z", "end": "2022-09-22T15:30:00Z"}
	_, body := h.do(http.MethodPost, "/events", owner, draft)
	id := body["evento"].(map[string]any)["id"].(string)

	code, body := h.do(http.MethodPut, "/events/"+id, intruder, draft)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, msgNoEditPrivilege, body["msg"])

	code, body = h.do(http.MethodDelete, "/events/"+id, intruder, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, msgNoDeletePrivilege, body["msg"])
}

func TestCreateEvent_Validation(t *testing.T) {
	h := newHarness(t)
	_, token := h.register("Test", "test@google.com")
	code, body := h.do(http.MethodPost, "/events", token, map[string]string{"title": "", "start": "soon"})
	assert.Equal(t, http.StatusBadRequest, code)
	errs := body["errors"].(map[string]any)
	assert.Len(t, errs, 3)
}

func TestRecovererReturnsJSON500(t *testing.T) {
	nop := zerolog.Nop()
	h := recoverer(nop)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), msgContactAdmin)
}

func TestSeed(t *testing.T) {
	h := newHarness(t)
	seed, err := DecodeSeed(strings.NewReader(`
users:
  - name: Test
    email: test@google.com
    password: "123456"
events:
  - owner: test@google.com
    title: Seeded
    start: "2022-09-22T13:30:00.000Z"
    end: "2022-09-22T15:30:00.000Z"
`))
	require.NoError(t, err)
	require.NoError(t, h.srv.Apply(seed))

	_, body := h.do(http.MethodPost, "/auth", "", map[string]string{"email": "test@google.com", "password": "123456"})
	token := body["token"].(string)
	_, body = h.do(http.MethodGet, "/events", token, nil)
	assert.Len(t, body["eventos"].([]any), 1)

	_, err = DecodeSeed(strings.NewReader("users:\n  - nickname: x\n"))
	assert.Error(t, err, "unknown fields are rejected")

	err = h.srv.Apply(Seed{Events: []SeedEvent{{Owner: "ghost@google.com", Title: "x"}}})
	assert.Error(t, err)
}

func TestNew_RequiresSecretAndDefaultsPrefix(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	srv, err := New(Config{Secret: []byte("s")})
	require.NoError(t, err)
	assert.Equal(t, "/api", srv.Prefix())

	srv, err = New(Config{Secret: []byte("s"), Prefix: "v1/"})
	require.NoError(t, err)
	assert.Equal(t, "/v1", srv.Prefix())
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-resty/resty/v2"

	clienterrors "github.com/mycelian/calendar-sync/client/internal/errors"
	"github.com/mycelian/calendar-sync/client/internal/types"
)

func TestLogin_Success(t *testing.T) {
	t.Parallel()
	rc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body types.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Email != "a@b.c" || body.Password != "secret" {
			t.Errorf("unexpected body %+v", body)
		}
		writeJSON(w, http.StatusOK, types.AuthResponse{Ok: true, UID: "ABC", Name: "Ana", Token: "tok"})
	})
	got, err := Login(context.Background(), rc, types.LoginRequest{Email: "a@b.c", Password: "secret"})
	if err != nil || got.UID != "ABC" || got.Token != "tok" || got.Name != "Ana" {
		t.Fatalf("Login unexpected: got=%+v err=%v", got, err)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	t.Parallel()
	rc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Msg: "Credenciales incorrectas"})
	})
	_, err := Login(context.Background(), rc, types.LoginRequest{Email: "x", Password: "y"})
	ce, ok := clienterrors.As(err)
	if !ok {
		t.Fatalf("expected classified error, got %v", err)
	}
	if ce.Kind != clienterrors.KindValidation || ce.Message != "Credenciales incorrectas" {
		t.Fatalf("unexpected classification %+v", ce)
	}
}

func TestRegister_DuplicatePassesMessage(t *testing.T) {
	t.Parallel()
	rc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/new" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Msg: "Usuario ya existe."})
	})
	_, err := Register(context.Background(), rc, types.RegisterRequest{Name: "n", Email: "e", Password: "p"})
	if got := clienterrors.ServerMessage(err); got != "Usuario ya existe." {
		t.Fatalf("unexpected message %q (err=%v)", got, err)
	}
}

func TestRenew_UsesGet(t *testing.T) {
	t.Parallel()
	rc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/auth/renew" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		writeJSON(w, http.StatusOK, types.AuthResponse{Ok: true, UID: "u", Name: "n", Token: "fresh"})
	})
	got, err := Renew(context.Background(), rc)
	if err != nil || got.Token != "fresh" {
		t.Fatalf("Renew unexpected: got=%+v err=%v", got, err)
	}
}

func TestRenew_Unauthorized(t *testing.T) {
	t.Parallel()
	rc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, types.ErrorResponse{Msg: "Token no válido"})
	})
	_, err := Renew(context.Background(), rc)
	if !clienterrors.IsKind(err, clienterrors.KindAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestAuth_NetworkError(t *testing.T) {
	t.Parallel()
	rc := resty.NewWithClient(&http.Client{Transport: &errRT{}}).SetBaseURL("http://example.invalid/api")
	_, err := Login(context.Background(), rc, types.LoginRequest{})
	if !clienterrors.IsKind(err, clienterrors.KindNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if clienterrors.IsIrrecoverable(err) {
		t.Fatal("network errors should be recoverable")
	}
}

func TestAuth_CancelledContext(t *testing.T) {
	t.Parallel()
	rc := resty.NewWithClient(&http.Client{Transport: &errRT{}}).SetBaseURL("http://example.invalid/api")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Login(ctx, rc, types.LoginRequest{}); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

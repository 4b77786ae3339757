package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSignIn(t *testing.T) {
	var got passwordGrant
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		if r.Header.Get("apikey") != "anon" {
			t.Errorf("apikey = %q", r.Header.Get("apikey"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if got.Password != "password" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	sess, err := c.SignIn(context.Background(), "admin@regtime.com", "password")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if sess.AccessToken != "at" || sess.RefreshToken != "rt" || sess.ExpiresIn != time.Hour {
		t.Errorf("session = %+v", sess)
	}
	if got.Email != "admin@regtime.com" {
		t.Errorf("email = %q", got.Email)
	}

	_, err = c.SignIn(context.Background(), "admin@regtime.com", "wrong")
	if !errors.Is(err, ErrBadCredentials) {
		t.Errorf("wrong password err = %v, want ErrBadCredentials", err)
	}
}

func TestSignInErrors(t *testing.T) {
	if _, err := NewClient("", "").SignIn(context.Background(), "a", "b"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("unconfigured err = %v", err)
	}
	if _, err := NewClient("http://x", "k").SignIn(context.Background(), "", "b"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("empty email err = %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	if _, err := NewClient(srv.URL, "k").SignIn(context.Background(), "a", "b"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("503 err = %v", err)
	}

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer empty.Close()
	if _, err := NewClient(empty.URL, "k").SignIn(context.Background(), "a", "b"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("empty token err = %v", err)
	}
}

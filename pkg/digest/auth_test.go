package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestParseChallenge(t *testing.T) {
	chal, err := parseChallenge(`Digest realm="Login to 4J0123", qop="auth,auth-int", nonce="abc,def", opaque="xyz", algorithm=SHA-256`)
	if err != nil {
		t.Fatalf("parseChallenge: %v", err)
	}
	if chal.Scheme != "Digest" || chal.Realm != "Login to 4J0123" || chal.Nonce != "abc,def" ||
		chal.Opaque != "xyz" || chal.Qop != "auth" || chal.Algorithm != "SHA-256" {
		t.Fatalf("unexpected challenge: %+v", chal)
	}

	chal, err = parseChallenge(`Basic realm="camera"`)
	if err != nil || chal.Scheme != "Basic" || chal.Realm != "camera" {
		t.Fatalf("basic challenge = %+v, %v", chal, err)
	}

	for _, bad := range []string{`Bearer realm="x"`, `Digest realm="x"`, `Digest realm="x", nonce="n", qop="auth-int"`, ``} {
		if _, err := parseChallenge(bad); err == nil {
			t.Errorf("parseChallenge(%q): expected error", bad)
		}
	}
}

func TestSelectChallengePrefersDigest(t *testing.T) {
	chal, err := selectChallenge([]string{`Basic realm="cam"`, `Digest realm="cam", nonce="n1"`})
	if err != nil {
		t.Fatalf("selectChallenge: %v", err)
	}
	if chal.Scheme != "Digest" {
		t.Fatalf("scheme = %s, want Digest", chal.Scheme)
	}

	if _, err := selectChallenge([]string{`NTLM`}); err == nil {
		t.Fatal("expected error for unsupported schemes only")
	}
}

func TestTransportSHA256Digest(t *testing.T) {
	const realm, nonce = "cam", "n0nce"
	sum := func(s string) string {
		h := sha256.Sum256([]byte(s))
		return hex.EncodeToString(h[:])
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Digest ") {
			w.Header().Set("WWW-Authenticate", `Digest realm="cam", nonce="n0nce", algorithm=SHA-256`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		p := splitParams(strings.TrimPrefix(auth, "Digest "))
		ha1 := sum("user:" + realm + ":pass")
		ha2 := sum(r.Method + ":" + r.URL.RequestURI())
		if p["response"] != sum(ha1+":"+nonce+":"+ha2) || p["algorithm"] != "SHA-256" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewTransport("user", "pass", nil)}
	resp, err := client.Get(srv.URL + "/picture?x=1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestTransportWithoutCredentialsPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="cam"`)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewTransport("", "", nil)}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestTransportBasicAndSetCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "12345" {
			w.Header().Set("WWW-Authenticate", `Basic realm="cam"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := NewTransport("admin", "wrong", nil)
	client := &http.Client{Transport: tr}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status with wrong password = %d", resp.StatusCode)
	}

	tr.SetCredentials("admin", "12345")
	resp, err = client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status after SetCredentials = %d", resp.StatusCode)
	}
}

func TestTransportAuthIntOnlyReturns401(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("WWW-Authenticate", `Digest realm="cam", nonce="n1", qop="auth-int"`)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewTransport("admin", "secret", nil)}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if n := requests.Load(); n != 1 {
		t.Fatalf("server saw %d requests, want 1", n)
	}
}

func TestSelectChallengeFallsBackToBasicForAuthInt(t *testing.T) {
	chal, err := selectChallenge([]string{`Digest realm="cam", nonce="n1", qop="auth-int"`, `Basic realm="cam"`})
	if err != nil {
		t.Fatalf("selectChallenge: %v", err)
	}
	if chal.Scheme != "Basic" {
		t.Fatalf("scheme = %s, want Basic", chal.Scheme)
	}
}

package digest

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// challengeTTL bounds how long a cached challenge is reused pre-emptively
const challengeTTL = 5 * time.Minute

// Transport answers HTTP 401 challenges with Digest or Basic credentials.
// Without credentials it passes responses through untouched.
type Transport struct {
	Transport http.RoundTripper

	mu         sync.Mutex
	username   string
	password   string
	challenges map[string]*challenge
	nc         uint32 // nonce counter (atomic)
}

type challenge struct {
	Scheme    string // "Digest" or "Basic"
	Realm     string
	Nonce     string
	Opaque    string
	Algorithm string
	Qop       string
	timestamp time.Time
}

// NewTransport creates a new auth transport on top of base.
// A nil base uses http.DefaultTransport.
func NewTransport(username, password string, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		Transport:  base,
		username:   username,
		password:   password,
		challenges: make(map[string]*challenge),
	}
}

// SetCredentials replaces the credentials used for the next request.
// Cached challenges are dropped since they were answered for the old user.
func (t *Transport) SetCredentials(username, password string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.username == username && t.password == password {
		return
	}
	t.username = username
	t.password = password
	t.challenges = make(map[string]*challenge)
}

func (t *Transport) credentials() (string, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.username, t.password
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	username, password := t.credentials()
	if username == "" && password == "" {
		return t.Transport.RoundTrip(req)
	}

	key := req.URL.String()

	// Reuse a recent challenge for this URL so the camera is not asked twice
	req1 := cloneRequest(req)
	if chal := t.cachedChallenge(key); chal != nil {
		req1.Header.Set("Authorization", t.authorize(req1, chal, username, password))
	}

	resp, err := t.Transport.RoundTrip(req1)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	chal, err := selectChallenge(resp.Header.Values("WWW-Authenticate"))
	if err != nil {
		// Let the caller see the 401 itself
		return resp, nil
	}
	resp.Body.Close()

	chal.timestamp = time.Now()
	t.mu.Lock()
	t.challenges[key] = chal
	t.mu.Unlock()

	req2 := cloneRequest(req)
	req2.Header.Set("Authorization", t.authorize(req2, chal, username, password))

	return t.Transport.RoundTrip(req2)
}

// cachedChallenge returns a still valid challenge for key, pruning stale ones
func (t *Transport) cachedChallenge(key string) *challenge {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for url, chal := range t.challenges {
		if now.Sub(chal.timestamp) > challengeTTL {
			delete(t.challenges, url)
		}
	}
	return t.challenges[key]
}

func (t *Transport) authorize(req *http.Request, chal *challenge, username, password string) string {
	if chal.Scheme == "Basic" {
		r := &http.Request{Header: make(http.Header)}
		r.SetBasicAuth(username, password)
		return r.Header.Get("Authorization")
	}
	return t.buildAuthorization(req, chal, username, password)
}

// selectChallenge prefers Digest over Basic when the server offers both
func selectChallenge(headers []string) (*challenge, error) {
	var basic *challenge
	for _, h := range headers {
		chal, err := parseChallenge(h)
		if err != nil {
			continue
		}
		if chal.Scheme == "Digest" {
			return chal, nil
		}
		if basic == nil {
			basic = chal
		}
	}
	if basic != nil {
		return basic, nil
	}
	return nil, errors.New("no supported WWW-Authenticate challenge")
}

// parseChallenge parses a single WWW-Authenticate header value
func parseChallenge(header string) (*challenge, error) {
	scheme, rest, _ := strings.Cut(strings.TrimSpace(header), " ")
	switch {
	case strings.EqualFold(scheme, "Basic"):
		chal := &challenge{Scheme: "Basic"}
		params := splitParams(rest)
		chal.Realm = params["realm"]
		return chal, nil
	case strings.EqualFold(scheme, "Digest"):
	default:
		return nil, fmt.Errorf("unsupported auth scheme %q", scheme)
	}

	params := splitParams(rest)
	chal := &challenge{
		Scheme:    "Digest",
		Realm:     params["realm"],
		Nonce:     params["nonce"],
		Opaque:    params["opaque"],
		Algorithm: "MD5", // default
	}
	if alg := params["algorithm"]; alg != "" {
		chal.Algorithm = alg
	}
	if qop := params["qop"]; qop != "" {
		// Only qop=auth is implemented; auth-int would need the body hash
		for _, q := range strings.Split(qop, ",") {
			if strings.TrimSpace(q) == "auth" {
				chal.Qop = "auth"
				break
			}
		}
		if chal.Qop == "" {
			return nil, fmt.Errorf("unsupported digest qop %q", qop)
		}
	}
	if chal.Nonce == "" {
		return nil, errors.New("digest challenge without nonce")
	}

	return chal, nil
}

// splitParams splits comma separated key=value pairs, honoring quoted values
func splitParams(s string) map[string]string {
	params := make(map[string]string)
	var parts []string
	var b strings.Builder
	quoted := false
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			b.WriteRune(r)
		case r == ',' && !quoted:
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	parts = append(parts, b.String())

	for _, part := range parts {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		params[key] = strings.Trim(strings.TrimSpace(kv[1]), "\"")
	}
	return params
}

// buildAuthorization builds a Digest Authorization header
func (t *Transport) buildAuthorization(req *http.Request, chal *challenge, username, password string) string {
	h := hashFor(chal.Algorithm)
	uri := req.URL.RequestURI()

	// HA1 = H(username:realm:password)
	ha1 := hashHex(h, fmt.Sprintf("%s:%s:%s", username, chal.Realm, password))

	// HA2 = H(method:uri)
	ha2 := hashHex(h, fmt.Sprintf("%s:%s", req.Method, uri))

	var response, nc, cnonce string
	if chal.Qop == "" {
		response = hashHex(h, fmt.Sprintf("%s:%s:%s", ha1, chal.Nonce, ha2))
	} else {
		ncValue := atomic.AddUint32(&t.nc, 1)
		nc = fmt.Sprintf("%08x", ncValue)
		cnonce = generateCnonce()
		response = hashHex(h, fmt.Sprintf("%s:%s:%s:%s:%s:%s", ha1, chal.Nonce, nc, cnonce, chal.Qop, ha2))
	}

	auth := fmt.Sprintf(`Digest username="%s", realm="%s", nonce="%s", uri="%s", response="%s"`,
		username, chal.Realm, chal.Nonce, uri, response)

	if chal.Opaque != "" {
		auth += fmt.Sprintf(`, opaque="%s"`, chal.Opaque)
	}

	if chal.Algorithm != "" && chal.Algorithm != "MD5" {
		auth += fmt.Sprintf(`, algorithm=%s`, chal.Algorithm)
	}

	if chal.Qop != "" {
		auth += fmt.Sprintf(`, qop=%s, nc=%s, cnonce="%s"`, chal.Qop, nc, cnonce)
	}

	return auth
}

func hashFor(algorithm string) func() hash.Hash {
	if strings.EqualFold(algorithm, "SHA-256") {
		return sha256.New
	}
	return md5.New
}

func hashHex(newHash func() hash.Hash, input string) string {
	h := newHash()
	h.Write([]byte(input))
	return hex.EncodeToString(h.Sum(nil))
}

// cloneRequest creates a shallow copy of the request
func cloneRequest(req *http.Request) *http.Request {
	req2 := req.Clone(req.Context())
	// Clone the body using GetBody if available
	if req.GetBody != nil {
		req2.Body, _ = req.GetBody()
	}
	return req2
}

// generateCnonce generates a random client nonce
func generateCnonce() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"tailor-orders/internal/errs"
)

// User is the authenticated identity plus its current session token. User
// values are replaced wholesale on refresh, never mutated, so in-flight
// requests holding an old copy are unaffected.
type User struct {
	UID         string
	Email       string
	DisplayName string
	Token       string
}

// Provider is the opaque authentication capability. OnSessionChange fires
// with the current user (or nil) immediately on subscribe and again on
// every sign-in/out.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*User, error)
	SignUp(ctx context.Context, email, password string) (*User, error)
	SignOut(ctx context.Context) error
	OnSessionChange(fn func(*User)) (unsubscribe func())
	Token(ctx context.Context, forceRefresh bool) (string, error)
}

// tokenLeeway is how close to expiry a cached token may be before Token
// refreshes it even without forceRefresh.
const tokenLeeway = 30 * time.Second

// HTTPProvider talks to an identity-toolkit style REST API
// (accounts:signInWithPassword, accounts:signUp, securetoken grant).
type HTTPProvider struct {
	baseURL    string
	tokenURL   string
	apiKey     string
	httpClient *http.Client

	mu           sync.Mutex
	user         *User
	refreshToken string
	expiresAt    time.Time
	subscribers  map[int]func(*User)
	nextSubID    int
}

type authAccountResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type tokenGrantResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

type authErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewHTTPProvider(baseURL, tokenURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		tokenURL: strings.TrimSuffix(tokenURL, "/"),
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		subscribers: make(map[int]func(*User)),
	}
}

func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) (*User, error) {
	return p.credentialCall(ctx, "accounts:signInWithPassword", email, password)
}

func (p *HTTPProvider) SignUp(ctx context.Context, email, password string) (*User, error) {
	return p.credentialCall(ctx, "accounts:signUp", email, password)
}

func (p *HTTPProvider) credentialCall(ctx context.Context, endpoint, email, password string) (*User, error) {
	payload, err := json.Marshal(map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindAuth, "failed to marshal request", err)
	}

	reqURL := p.baseURL + "/" + endpoint + "?key=" + url.QueryEscape(p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, errs.Wrap(errs.KindAuth, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.KindNetwork, "failed to reach authentication service", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.KindAuth, "failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errs.New(errs.KindAuth, authErrorCode(raw, resp.StatusCode))
	}

	var result authAccountResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, errs.Wrap(errs.KindAuth, "failed to decode response", err)
	}

	user := &User{
		UID:         result.LocalID,
		Email:       result.Email,
		DisplayName: result.DisplayName,
		Token:       result.IDToken,
	}

	p.mu.Lock()
	p.user = user
	p.refreshToken = result.RefreshToken
	p.expiresAt = expiryFrom(result.ExpiresIn)
	subs := p.snapshotSubscribers()
	p.mu.Unlock()

	notify(subs, user)
	return user, nil
}

// SignOut clears the local session. The identity service keeps no
// server-side session for token-based auth, so this never fails remotely.
func (p *HTTPProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.user = nil
	p.refreshToken = ""
	p.expiresAt = time.Time{}
	subs := p.snapshotSubscribers()
	p.mu.Unlock()

	notify(subs, nil)
	return nil
}

func (p *HTTPProvider) OnSessionChange(fn func(*User)) func() {
	p.mu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = fn
	current := p.user
	p.mu.Unlock()

	// Fires immediately with the current session, like an auth state
	// observer.
	fn(current)

	return func() {
		p.mu.Lock()
		delete(p.subscribers, id)
		p.mu.Unlock()
	}
}

// Token returns the current session token, refreshing it via the token
// grant endpoint when forced or when the cached token is about to expire.
func (p *HTTPProvider) Token(ctx context.Context, forceRefresh bool) (string, error) {
	p.mu.Lock()
	user := p.user
	refreshToken := p.refreshToken
	expiresAt := p.expiresAt
	p.mu.Unlock()

	if user == nil {
		return "", errs.New(errs.KindAuth, "no signed-in user")
	}
	if !forceRefresh && (expiresAt.IsZero() || time.Until(expiresAt) > tokenLeeway) {
		return user.Token, nil
	}
	if refreshToken == "" {
		return user.Token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	reqURL := p.tokenURL + "/token?key=" + url.QueryEscape(p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errs.Wrap(errs.KindAuth, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.KindNetwork, "failed to reach token service", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.Wrap(errs.KindAuth, "failed to read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errs.New(errs.KindAuth, authErrorCode(raw, resp.StatusCode))
	}

	var result tokenGrantResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", errs.Wrap(errs.KindAuth, "failed to decode response", err)
	}

	p.mu.Lock()
	if p.user != nil {
		// Replace the user value so older copies keep the old token.
		refreshed := *p.user
		refreshed.Token = result.IDToken
		p.user = &refreshed
	}
	if result.RefreshToken != "" {
		p.refreshToken = result.RefreshToken
	}
	p.expiresAt = expiryFrom(result.ExpiresIn)
	p.mu.Unlock()

	return result.IDToken, nil
}

// snapshotSubscribers must be called with p.mu held.
func (p *HTTPProvider) snapshotSubscribers() []func(*User) {
	subs := make([]func(*User), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(*User), u *User) {
	for _, fn := range subs {
		fn(u)
	}
}

func expiryFrom(expiresIn string) time.Time {
	secs, err := strconv.Atoi(expiresIn)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Now().Add(time.Duration(secs) * time.Second)
}

// authErrorCode extracts the provider's error code from a failure body,
// falling back to the HTTP status.
func authErrorCode(body []byte, status int) string {
	var errResp authErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return fmt.Sprintf("auth request failed: status %d %s", status, http.StatusText(status))
}

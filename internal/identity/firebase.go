package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/stylinx-storefront/pkg/auth"
	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/angelmondragon/stylinx-storefront/pkg/logger"
	"github.com/angelmondragon/stylinx-storefront/pkg/metrics"
)

const (
	DefaultFirebaseURL           = "https://identitytoolkit.googleapis.com/v1"
	defaultFirebaseTimeout       = 10 * time.Second
	firebaseErrorBodyLimit int64 = 4096
	firebaseMetricsService       = "identity"
)

// FirebaseParams configures the Identity Toolkit REST provider.
type FirebaseParams struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Metrics    *metrics.UpstreamMetrics
	Logger     *logger.Logger
	// Initial is the user restored from the auth record, reported to the first observer.
	Initial *User
}

// FirebaseProvider signs users in with email and password through the Identity Toolkit
// REST API.
type FirebaseProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.UpstreamMetrics
	logg       *logger.Logger
	observers  *observers

	mu      sync.Mutex
	idToken string
}

var _ Provider = (*FirebaseProvider)(nil)

type firebaseAuthRequest struct {
	Email             string `json:"email,omitempty"`
	Password          string `json:"password,omitempty"`
	IDToken           string `json:"idToken,omitempty"`
	DisplayName       string `json:"displayName,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type firebaseAuthResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
}

type firebaseErrorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewFirebaseProvider validates params and returns a provider.
func NewFirebaseProvider(p FirebaseParams) (*FirebaseProvider, error) {
	if strings.TrimSpace(p.APIKey) == "" {
		return nil, fmt.Errorf("firebase api key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultFirebaseURL
	}
	httpClient := p.HTTPClient
	if httpClient == nil {
		timeout := p.Timeout
		if timeout <= 0 {
			timeout = defaultFirebaseTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &FirebaseProvider{
		apiKey:     p.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		metrics:    p.Metrics,
		logg:       logg,
		observers:  newObservers(p.Initial),
	}, nil
}

// Login signs in with email and password.
func (f *FirebaseProvider) Login(ctx context.Context, email, password string) (*User, error) {
	var resp firebaseAuthResponse
	req := firebaseAuthRequest{Email: email, Password: password, ReturnSecureToken: true}
	if err := f.post(ctx, "accounts:signInWithPassword", "login", loginFailedMessage, req, &resp); err != nil {
		return nil, err
	}
	user, err := f.userFrom(resp, email, "")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, loginFailedMessage)
	}
	f.setToken(resp.IDToken)
	f.observers.publish(user)
	return user.Clone(), nil
}

// Signup creates the account and stores fullName as its display name.
func (f *FirebaseProvider) Signup(ctx context.Context, fullName, email, password string) (*User, error) {
	var created firebaseAuthResponse
	req := firebaseAuthRequest{Email: email, Password: password, ReturnSecureToken: true}
	if err := f.post(ctx, "accounts:signUp", "signup", signupFailedMessage, req, &created); err != nil {
		return nil, err
	}

	token := created.IDToken
	var updated firebaseAuthResponse
	update := firebaseAuthRequest{IDToken: token, DisplayName: fullName, ReturnSecureToken: true}
	if err := f.post(ctx, "accounts:update", "update_profile", signupFailedMessage, update, &updated); err != nil {
		// The account exists at this point; keep the session and carry the name locally.
		f.logg.Warn(f.logg.WithField(ctx, "error", err.Error()), "failed to store display name")
	} else if updated.IDToken != "" {
		token = updated.IDToken
	}

	created.IDToken = token
	user, err := f.userFrom(created, email, fullName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, signupFailedMessage)
	}
	f.setToken(token)
	f.observers.publish(user)
	return user.Clone(), nil
}

// Logout drops the local session. Identity Toolkit keeps no server side session to end.
func (f *FirebaseProvider) Logout(ctx context.Context) error {
	f.setToken("")
	f.observers.publish(nil)
	return nil
}

// ObserveSession registers fn for session changes.
func (f *FirebaseProvider) ObserveSession(fn func(*User)) func() {
	return f.observers.subscribe(fn)
}

// CurrentUser returns the signed-in user, if any.
func (f *FirebaseProvider) CurrentUser() *User {
	return f.observers.user()
}

func (f *FirebaseProvider) setToken(token string) {
	f.mu.Lock()
	f.idToken = token
	f.mu.Unlock()
}

// userFrom builds the user from the ID token claims, falling back to the response body.
func (f *FirebaseProvider) userFrom(resp firebaseAuthResponse, email, fullName string) (*User, error) {
	claims, err := auth.DecodeUnverified(resp.IDToken)
	if err != nil {
		return nil, err
	}
	id := claims.UID()
	if resp.LocalID != "" && resp.LocalID != id {
		return nil, fmt.Errorf("id token subject %q does not match account %q", id, resp.LocalID)
	}
	addr := firstNonEmpty(claims.Email, resp.Email, strings.TrimSpace(email))
	name := firstNonEmpty(fullName, resp.DisplayName, claims.Name)
	return &User{ID: id, Email: addr, FullName: DisplayName(name, addr)}, nil
}

func (f *FirebaseProvider) post(ctx context.Context, endpoint, op, failMsg string, body, dest any) (err error) {
	start := time.Now()
	defer func() {
		code := ""
		if err != nil {
			code = string(pkgerrors.As(err).Code())
		}
		f.metrics.Observe(firebaseMetricsService, op, time.Since(start), code)
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode identity request")
	}
	endpointURL := fmt.Sprintf("%s/%s?key=%s", f.baseURL, endpoint, url.QueryEscape(f.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, failMsg)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, failMsg)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, firebaseErrorBodyLimit))
		return firebaseError(resp.StatusCode, raw, failMsg)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, failMsg)
	}
	return nil
}

// firebaseError maps an Identity Toolkit error body. Messages look like
// "WEAK_PASSWORD : Password should be at least 6 characters".
func firebaseError(status int, raw []byte, failMsg string) error {
	var env firebaseErrorEnvelope
	_ = json.Unmarshal(raw, &env)
	reason, _, _ := strings.Cut(env.Error.Message, " ")
	reason = strings.TrimSpace(reason)
	cause := fmt.Errorf("identity toolkit status %d: %s", status, strings.TrimSpace(string(raw)))

	if status >= http.StatusInternalServerError || reason == "" {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, cause, failMsg).
			WithDetails(map[string]any{"status": status})
	}
	return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, cause, failMsg).
		WithDetails(map[string]any{"reason": reason})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

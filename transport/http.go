package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-swift-client/access"
	"github.com/jrsteele09/go-swift-client/containers"
	"github.com/jrsteele09/go-swift-client/credentials"
	"github.com/jrsteele09/go-swift-client/tenants"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	headerAuthToken    = "X-Auth-Token"
	headerAuthUser     = "X-Auth-User"
	headerAuthKey      = "X-Auth-Key"
	headerStorageURL   = "X-Storage-Url"
	headerTokenExpires = "X-Auth-Token-Expires"
	headerTransID      = "X-Trans-Id-Extra"

	headerBytesUsed      = "X-Account-Bytes-Used"
	headerObjectCount    = "X-Account-Object-Count"
	headerContainerCount = "X-Account-Container-Count"

	objectStoreServiceType = "object-store"
)

// HTTPTransport talks Keystone v2, TempAuth and basic auth over HTTP.
type HTTPTransport struct {
	authURL         string
	client          *http.Client
	preferredRegion string
}

type HTTPOption func(*HTTPTransport)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(t *HTTPTransport) {
		t.client = client
	}
}

// WithPreferredRegion selects which service-catalog region's end-point is
// chosen. Without a preferred region the first applicable end-point wins.
func WithPreferredRegion(region string) HTTPOption {
	return func(t *HTTPTransport) {
		t.preferredRegion = region
	}
}

var _ Transport = (*HTTPTransport)(nil)

func NewHTTPTransport(authURL string, options ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		authURL: strings.TrimRight(authURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// SubmitCredentials exchanges credentials for a token using whichever
// protocol the credentials select.
func (t *HTTPTransport) SubmitCredentials(ctx context.Context, creds credentials.Credentials) (*access.Access, error) {
	switch creds.Method {
	case credentials.MethodKeystone:
		return t.keystoneAuth(ctx, creds)
	case credentials.MethodTempAuth, credentials.MethodBasic:
		return t.storageAuth(ctx, creds)
	default:
		return nil, errors.Wrapf(credentials.ErrCredentials, "[HTTPTransport.SubmitCredentials] unknown method %q", string(creds.Method))
	}
}

type keystoneTokenRequest struct {
	Auth struct {
		PasswordCredentials struct {
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"passwordCredentials"`
		TenantID   string `json:"tenantId,omitempty"`
		TenantName string `json:"tenantName,omitempty"`
	} `json:"auth"`
}

type keystoneTokenResponse struct {
	Access struct {
		Token struct {
			ID      string `json:"id"`
			Expires string `json:"expires"`
			Tenant  *struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"tenant"`
		} `json:"token"`
		ServiceCatalog []struct {
			Type      string `json:"type"`
			Endpoints []struct {
				Region      string `json:"region"`
				PublicURL   string `json:"publicURL"`
				InternalURL string `json:"internalURL"`
			} `json:"endpoints"`
		} `json:"serviceCatalog"`
	} `json:"access"`
}

func (t *HTTPTransport) keystoneAuth(ctx context.Context, creds credentials.Credentials) (*access.Access, error) {
	var reqBody keystoneTokenRequest
	reqBody.Auth.PasswordCredentials.Username = creds.Username
	reqBody.Auth.PasswordCredentials.Password = creds.Password
	reqBody.Auth.TenantID = creds.TenantID
	reqBody.Auth.TenantName = creds.TenantName

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPTransport.keystoneAuth] marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.authURL+"/tokens", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPTransport.keystoneAuth] build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.do(req)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errors.Wrapf(ErrAuthenticationRejected, "[HTTPTransport.keystoneAuth] status %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("[HTTPTransport.keystoneAuth] unexpected status %d", resp.StatusCode)
	}

	var tokenResp keystoneTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, errors.Wrap(err, "[HTTPTransport.keystoneAuth] decode response")
	}

	a := &access.Access{Token: tokenResp.Access.Token.ID}
	if expires := tokenResp.Access.Token.Expires; expires != "" {
		expiry, err := time.Parse(time.RFC3339, expires)
		if err != nil {
			return nil, errors.Wrapf(err, "[HTTPTransport.keystoneAuth] parse expiry %q", expires)
		}
		a.ExpiresAt = expiry
	}
	if tenant := tokenResp.Access.Token.Tenant; tenant != nil {
		a.TenantID = tenant.ID
		a.TenantName = tenant.Name
	}

	for _, service := range tokenResp.Access.ServiceCatalog {
		if service.Type != objectStoreServiceType {
			continue
		}
		for _, endpoint := range service.Endpoints {
			if t.preferredRegion != "" && endpoint.Region != t.preferredRegion {
				continue
			}
			a.PublicURL = endpoint.PublicURL
			a.InternalURL = endpoint.InternalURL
			break
		}
		if a.PublicURL != "" {
			break
		}
	}

	return a, nil
}

// storageAuth covers both TempAuth and basic auth; the object store answers
// with the token and storage URL in response headers.
func (t *HTTPTransport) storageAuth(ctx context.Context, creds credentials.Credentials) (*access.Access, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.authURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPTransport.storageAuth] build request")
	}
	if creds.Method == credentials.MethodBasic {
		req.SetBasicAuth(creds.Username, creds.Password)
	} else {
		req.Header.Set(headerAuthUser, creds.Username)
		req.Header.Set(headerAuthKey, creds.Password)
	}

	resp, err := t.do(req)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errors.Wrapf(ErrAuthenticationRejected, "[HTTPTransport.storageAuth] status %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("[HTTPTransport.storageAuth] unexpected status %d", resp.StatusCode)
	}

	a := &access.Access{
		Token:     resp.Header.Get(headerAuthToken),
		PublicURL: resp.Header.Get(headerStorageURL),
	}
	if a.Token == "" {
		return nil, errors.Errorf("[HTTPTransport.storageAuth] no %s header in response", headerAuthToken)
	}
	if ttl := resp.Header.Get(headerTokenExpires); ttl != "" {
		seconds, err := strconv.ParseInt(ttl, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "[HTTPTransport.storageAuth] parse %s", headerTokenExpires)
		}
		a.ExpiresAt = time.Now().Add(time.Duration(seconds) * time.Second)
	}
	return a, nil
}

type keystoneTenantsResponse struct {
	Tenants []tenants.Tenant `json:"tenants"`
}

func (t *HTTPTransport) ListTenants(ctx context.Context, token string) ([]tenants.Tenant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.authURL+"/tenants", nil)
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPTransport.ListTenants] build request")
	}
	req.Header.Set(headerAuthToken, token)

	resp, err := t.do(req)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("[HTTPTransport.ListTenants] unexpected status %d", resp.StatusCode)
	}

	var tenantsResp keystoneTenantsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tenantsResp); err != nil {
		return nil, errors.Wrap(err, "[HTTPTransport.ListTenants] decode response")
	}
	return tenantsResp.Tenants, nil
}

func (t *HTTPTransport) ListContainers(ctx context.Context, token, accountURL string, delimiter rune) ([]containers.Container, error) {
	url := fmt.Sprintf("%s?format=json&delimiter=%c", strings.TrimRight(accountURL, "/"), delimiter)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPTransport.ListContainers] build request")
	}
	req.Header.Set(headerAuthToken, token)

	resp, err := t.do(req)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("[HTTPTransport.ListContainers] unexpected status %d", resp.StatusCode)
	}

	var listing []containers.Container
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, errors.Wrap(err, "[HTTPTransport.ListContainers] decode response")
	}
	return listing, nil
}

// QueryServerTime reads the identity service's Date header.
func (t *HTTPTransport) QueryServerTime(ctx context.Context) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, t.authURL, nil)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "[HTTPTransport.QueryServerTime] build request")
	}

	resp, err := t.do(req)
	if err != nil {
		return time.Time{}, err
	}
	defer closeBody(resp)

	date := resp.Header.Get("Date")
	if date == "" {
		return time.Time{}, errors.New("[HTTPTransport.QueryServerTime] no Date header in response")
	}
	serverTime, err := http.ParseTime(date)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "[HTTPTransport.QueryServerTime] parse %q", date)
	}
	return serverTime, nil
}

func (t *HTTPTransport) QueryAccountStats(ctx context.Context, token, accountURL string) (AccountStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, accountURL, nil)
	if err != nil {
		return AccountStats{}, errors.Wrap(err, "[HTTPTransport.QueryAccountStats] build request")
	}
	req.Header.Set(headerAuthToken, token)

	resp, err := t.do(req)
	if err != nil {
		return AccountStats{}, err
	}
	defer closeBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return AccountStats{}, errors.Errorf("[HTTPTransport.QueryAccountStats] unexpected status %d", resp.StatusCode)
	}

	stats := AccountStats{}
	for header, target := range map[string]*int64{
		headerBytesUsed:      &stats.BytesUsed,
		headerObjectCount:    &stats.ObjectCount,
		headerContainerCount: &stats.ContainerCount,
	} {
		value := resp.Header.Get(header)
		if value == "" {
			continue
		}
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return AccountStats{}, errors.Wrapf(err, "[HTTPTransport.QueryAccountStats] parse %s", header)
		}
		*target = parsed
	}
	return stats, nil
}

func (t *HTTPTransport) do(req *http.Request) (*http.Response, error) {
	transactionID := uuid.New().String()
	req.Header.Set(headerTransID, transactionID)

	started := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "[HTTPTransport.do] %s %s", req.Method, req.URL)
	}

	log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("transaction_id", transactionID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("object store request")

	return resp, nil
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

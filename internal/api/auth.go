package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"

	"shareit/internal/config"
	"shareit/internal/metrics"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const (
	apiKeyHeaderDefault = "x-api-key"
	clientKeyUnknown    = "unknown"
)

var (
	errMissingAPIKey    = errors.New("missing api key header")
	errInvalidAPIKey    = errors.New("invalid api key")
	errPermissionDenied = errors.New("permission denied")
)

// apiKeys resolves API clients and checks their permissions. A client with
// no permissions listed may call anything.
type apiKeys struct {
	header  string
	clients map[string]config.APIClientKey
}

func newAPIKeys(cfg config.APIAuthConfig) *apiKeys {
	header := strings.ToLower(strings.TrimSpace(cfg.HeaderAPIKey))
	if header == "" {
		header = apiKeyHeaderDefault
	}
	m := make(map[string]config.APIClientKey, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		m[k.Key] = k
	}
	return &apiKeys{header: header, clients: m}
}

func (k *apiKeys) authorize(apiKey, required string) error {
	if apiKey == "" {
		return errMissingAPIKey
	}

	var client config.APIClientKey
	found := false
	for key, c := range k.clients {
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			client, found = c, true
			break
		}
	}
	if !found {
		return errInvalidAPIKey
	}

	if required == "" || len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

// HTTPAuth provides API-key auth and per-key rate limiting for HTTP endpoints.
type HTTPAuth struct {
	enabled bool
	keys    *apiKeys
	limiter *keyLimiter
}

func NewHTTPAuth(cfg config.APIConfig) *HTTPAuth {
	return &HTTPAuth{
		enabled: cfg.Auth.Enabled,
		keys:    newAPIKeys(cfg.Auth),
		limiter: newKeyLimiter(cfg.RateLimit),
	}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isProbe(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if a.enabled {
			apiKey := strings.TrimSpace(r.Header.Get(a.keys.header))
			if err := a.keys.authorize(apiKey, requiredPermissionHTTP(r)); err != nil {
				code := http.StatusUnauthorized
				if errors.Is(err, errPermissionDenied) {
					code = http.StatusForbidden
				}
				writeError(w, code, err.Error())
				return
			}
		}

		if !a.limiter.allow(a.clientKey(r)) {
			metrics.IncRateLimited("api_key")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.keys.header)); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}

func isProbe(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

// requiredPermissionHTTP derives "read:<resource>" or "write:<resource>"
// from the method and first path segment.
func requiredPermissionHTTP(r *http.Request) string {
	resource := strings.Trim(r.URL.Path, "/")
	if i := strings.IndexByte(resource, '/'); i >= 0 {
		resource = resource[:i]
	}
	if resource == "" {
		return ""
	}
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return "read:" + resource
	}
	return "write:" + resource
}

// AuthInterceptor applies the same API-key rules to gRPC calls.
type AuthInterceptor struct {
	enabled bool
	keys    *apiKeys
	limiter *keyLimiter
}

func NewAuthInterceptor(cfg config.APIConfig) *AuthInterceptor {
	return &AuthInterceptor{
		enabled: cfg.Auth.Enabled,
		keys:    newAPIKeys(cfg.Auth),
		limiter: newKeyLimiter(cfg.RateLimit),
	}
}

func (a *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if a.enabled {
			if err := a.checkAuth(ctx, info.FullMethod); err != nil {
				return nil, err
			}
		}
		if !a.limiter.allow(a.clientKey(ctx)) {
			metrics.IncRateLimited("api_key")
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}

func (a *AuthInterceptor) checkAuth(ctx context.Context, fullMethod string) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}

	err := a.keys.authorize(first(md.Get(a.keys.header)), requiredPermission(fullMethod))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errPermissionDenied):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		return status.Error(codes.Unauthenticated, err.Error())
	}
}

func requiredPermission(fullMethod string) string {
	switch fullMethod {
	case bookingQueryProjectItem:
		return "read:items"
	case bookingQueryGetBooking, bookingQueryListBooker, bookingQueryListOwner:
		return "read:bookings"
	default:
		return ""
	}
}

func (a *AuthInterceptor) clientKey(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	if apiKey := first(md.Get(a.keys.header)); apiKey != "" {
		return apiKey
	}

	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return clientKeyUnknown
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

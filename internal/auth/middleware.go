package auth

import (
	"net/http"
	"strings"

	"github.com/straye-as/crm-api/internal/config"
	"go.uber.org/zap"
)

// maxDisplayNameLength matches the owner column width
const maxDisplayNameLength = 200

// Middleware attaches the caller identity to each request
type Middleware struct {
	header       string
	defaultOwner string
	logger       *zap.Logger
}

// NewMiddleware creates a new identity middleware
func NewMiddleware(cfg *config.CRMConfig, logger *zap.Logger) *Middleware {
	header := cfg.IdentityHeader
	if header == "" {
		header = "X-User-Name"
	}
	return &Middleware{
		header:       header,
		defaultOwner: cfg.DefaultOwner,
		logger:       logger,
	}
}

// Identify reads the identity header and stores a UserContext.
// Requests without the header are attributed to the configured default owner.
func (m *Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := &UserContext{
			DisplayName: m.defaultOwner,
			Email:       strings.TrimSpace(r.Header.Get("X-User-Email")),
			Anonymous:   true,
		}

		if name := strings.TrimSpace(r.Header.Get(m.header)); name != "" {
			if len(name) > maxDisplayNameLength {
				name = name[:maxDisplayNameLength]
			}
			user.DisplayName = name
			user.Anonymous = false
		}

		next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), user)))
	})
}

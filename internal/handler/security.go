package handler

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-mis/internal/domain/auth"
)

// HeaderAPIKey carries the back-office API key.
const HeaderAPIKey = "api_key"

var errUnauthorized = errors.New("unauthorized")

// Security authenticates back-office requests by the HMAC-SHA256 of their
// API key.
type Security struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurity creates a Security backed by apikeys and the HMAC pepper.
func NewSecurity(apikeys auth.Repository, pepper []byte) *Security {
	return &Security{apikeys: apikeys, pepper: pepper}
}

// Authenticate returns the key matching raw, or errUnauthorized.
func (s *Security) Authenticate(ctx context.Context, raw string) (*auth.APIKeyInfo, error) {
	if raw == "" {
		return nil, errUnauthorized
	}
	hexHash := auth.HashKey(s.pepper, raw)

	info, err := s.apikeys.FindByHash(ctx, hexHash)
	if err != nil {
		if !errors.Is(err, auth.ErrKeyNotFound) {
			zctx.From(ctx).Error("API key lookup failed", zap.Error(err))
		}
		return nil, errUnauthorized
	}

	// The repository may match on a normalized form; compare the bytes too.
	computed, _ := hex.DecodeString(hexHash)
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(computed, stored) != 1 {
		return nil, errUnauthorized
	}
	return info, nil
}

// Require rejects requests without a valid api_key header with 401.
func (s *Security) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := s.Authenticate(r.Context(), r.Header.Get(HeaderAPIKey))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		ctx := zctx.With(r.Context(), zap.String("api_key_id", info.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

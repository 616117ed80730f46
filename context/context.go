package context

import (
	"context"

	"github.com/dgrijalva/jwt-go"

	"github.com/stablelink/stablelink/assetstores"
	"github.com/stablelink/stablelink/claims"
	"github.com/stablelink/stablelink/conf"
	"github.com/stablelink/stablelink/mailer"
)

type contextKey string

func (c contextKey) String() string {
	return "api context key " + string(c)
}

const (
	tokenKey      = contextKey("jwt")
	configKey     = contextKey("config")
	requestIDKey  = contextKey("request_id")
	mailerKey     = contextKey("mailer")
	assetStoreKey = contextKey("asset_store")
	linkIDKey     = contextKey("link_id")
)

// WithConfig adds the service configuration to the context.
func WithConfig(ctx context.Context, config *conf.Configuration) context.Context {
	return context.WithValue(ctx, configKey, config)
}

// GetConfig reads the service configuration from the context.
func GetConfig(ctx context.Context) *conf.Configuration {
	obj := ctx.Value(configKey)
	if obj == nil {
		return nil
	}
	return obj.(*conf.Configuration)
}

// WithToken adds the JWT token to the context.
func WithToken(ctx context.Context, token *jwt.Token) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// GetToken reads the JWT token from the context.
func GetToken(ctx context.Context) *jwt.Token {
	obj := ctx.Value(tokenKey)
	if obj == nil {
		return nil
	}
	return obj.(*jwt.Token)
}

// GetClaims reads the claims contained within the JWT token stored in
// the context.
func GetClaims(ctx context.Context) *claims.AccessClaims {
	token := GetToken(ctx)
	if token == nil {
		return nil
	}
	return token.Claims.(*claims.AccessClaims)
}

// GetUserID reads the authenticated creator's ID from the token claims.
func GetUserID(ctx context.Context) string {
	c := GetClaims(ctx)
	if c == nil {
		return ""
	}
	return c.Subject
}

// WithRequestID adds the provided request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID reads the request ID from the context.
func GetRequestID(ctx context.Context) string {
	obj := ctx.Value(requestIDKey)
	if obj == nil {
		return ""
	}
	return obj.(string)
}

// WithMailer adds the mailer to the context.
func WithMailer(ctx context.Context, mailer mailer.Mailer) context.Context {
	return context.WithValue(ctx, mailerKey, mailer)
}

// GetMailer reads the mailer from the context.
func GetMailer(ctx context.Context) mailer.Mailer {
	obj := ctx.Value(mailerKey)
	if obj == nil {
		return nil
	}
	return obj.(mailer.Mailer)
}

// WithAssetStore adds the asset store to the context.
func WithAssetStore(ctx context.Context, store assetstores.Store) context.Context {
	return context.WithValue(ctx, assetStoreKey, store)
}

// GetAssetStore reads the asset store from the context.
func GetAssetStore(ctx context.Context) assetstores.Store {
	obj := ctx.Value(assetStoreKey)
	if obj == nil {
		return nil
	}
	return obj.(assetstores.Store)
}

// WithLinkID adds the link ID from the URL to the context.
func WithLinkID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, linkIDKey, id)
}

// GetLinkID reads the link ID from the context.
func GetLinkID(ctx context.Context) string {
	obj := ctx.Value(linkIDKey)
	if obj == nil {
		return ""
	}
	return obj.(string)
}

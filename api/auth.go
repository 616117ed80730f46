package api

import (
	"context"
	"fmt"
	"net/http"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/go-chi/chi"

	"github.com/stablelink/stablelink/claims"
	gcontext "github.com/stablelink/stablelink/context"
)

func withToken(w http.ResponseWriter, r *http.Request) (context.Context, error) {
	ctx := r.Context()
	config := gcontext.GetConfig(ctx)
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ctx, nil
	}

	matches := bearerRegexp.FindStringSubmatch(authHeader)
	if len(matches) != 2 {
		return nil, unauthorizedError("Bad authentication header").WithInternalMessage("Invalid auth header format: %s", authHeader)
	}

	token, err := jwt.ParseWithClaims(matches[1], &claims.AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Name {
			return nil, fmt.Errorf("Unexpected signing method: %v", token.Method.Alg())
		}
		return []byte(config.JWT.Secret), nil
	})
	if err != nil {
		return nil, unauthorizedError("Invalid token").WithInternalError(err)
	}

	tokenClaims := token.Claims.(*claims.AccessClaims)
	logEntrySetField(r, "claims_subject", tokenClaims.Subject)

	return gcontext.WithToken(ctx, token), nil
}

func authRequired(w http.ResponseWriter, r *http.Request) (context.Context, error) {
	ctx := r.Context()
	tokenClaims := gcontext.GetClaims(ctx)
	if tokenClaims == nil || tokenClaims.Subject == "" {
		return nil, unauthorizedError("This endpoint requires authentication")
	}
	return ctx, nil
}

func (a *API) withLinkID(w http.ResponseWriter, r *http.Request) (context.Context, error) {
	linkID := chi.URLParam(r, "link_id")
	logEntrySetField(r, "link_id", linkID)
	return gcontext.WithLinkID(r.Context(), linkID), nil
}

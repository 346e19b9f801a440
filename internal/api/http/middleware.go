package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/axenix_meet/internal/auth"
	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/lib/logger/sl"
)

const identityKey = "identity"

type CredentialVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// AuthMiddleware binds the caller's identity to the request or aborts it.
// No handler behind it runs for an unauthenticated caller.
func AuthMiddleware(verifier CredentialVerifier, cookieName string, log *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		const op = "http.middleware.auth"

		identity, err := verifier.Verify(auth.TokenFromRequest(ctx.Request, cookieName))
		if err != nil {
			status, message := authFailure(err)
			if status == http.StatusInternalServerError {
				log.Error("credential verification failed", slog.String("op", op), sl.Err(err))
			} else {
				log.Debug("unauthenticated request", slog.String("op", op), slog.String("path", ctx.FullPath()), sl.Err(err))
			}
			ctx.AbortWithStatusJSON(status, gin.H{"error": message})
			return
		}

		ctx.Set(identityKey, identity)
		ctx.Next()
	}
}

func authFailure(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, auth.ErrExpiredCredential):
		return http.StatusUnauthorized, "Token expired"
	case errors.Is(err, auth.ErrInvalidCredential):
		return http.StatusUnauthorized, "Invalid token"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func IdentityFrom(ctx *gin.Context) (domain.Identity, bool) {
	v, ok := ctx.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	identity, ok := v.(domain.Identity)
	return identity, ok && !identity.IsZero()
}

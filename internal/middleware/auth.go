package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"connect-service/internal/identity"
	"connect-service/internal/repositories"
)

const (
	authUserKey = "authUserID"
	memberKey   = "memberID"
)

// AuthMiddleware validates the Authorization header with the identity
// provider and resolves the member profile. Accounts without a member row
// (e.g. admin-only accounts) pass through unauthorized-for-member rather than
// erroring; handlers decide whether a member is required.
func AuthMiddleware(provider identity.Provider, members repositories.MemberRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		user, err := provider.CurrentUser(c.Request.Context(), parts[1])
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, identity.ErrUnauthenticated) {
				status = http.StatusUnauthorized
			}
			c.AbortWithStatusJSON(status, gin.H{"error": "invalid token"})
			return
		}
		c.Set(authUserKey, user.ID)

		member, err := members.ResolveMember(c.Request.Context(), user.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrMemberNotFound) {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve member"})
			return
		}

		c.Set(memberKey, member.ID)
		c.Next()
	}
}

// MemberID returns the resolved member id, or false when the authenticated
// account has no member profile.
func MemberID(c *gin.Context) (int, bool) {
	val, ok := c.Get(memberKey)
	if !ok {
		return 0, false
	}
	id, ok := val.(int)
	return id, ok && id != 0
}

// RequireMember aborts with 403 when no member profile is resolved.
func RequireMember(c *gin.Context) (int, bool) {
	id, ok := MemberID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no member profile"})
	}
	return id, ok
}

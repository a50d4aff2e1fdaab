package core

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireSuperuser re-authenticates the session token on every request
// and stores the resolved user under "current_user". An absent token, a
// rejected token and a non-superuser all get the same 401.
func RequireSuperuser(auth AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.Reauthenticate(c.Request.Context(), sessionToken(c))
		if err != nil {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			c.Abort()
			return
		}
		c.Set("current_user", user)
		c.Next()
	}
}

// currentUser returns the user resolved by RequireSuperuser.
func currentUser(c *gin.Context) (User, bool) {
	userAny, ok := c.Get("current_user")
	if !ok {
		return User{}, false
	}
	user, ok := userAny.(User)
	return user, ok
}

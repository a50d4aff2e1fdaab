package core

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// NewRouter constructs the Gin engine with routes wired.
func NewRouter(cfg Config, store *sessions.CookieStore, auth AuthService, users UserRepository, audit AuditRepository, metrics *MetricsService, db *pgxpool.Pool, redisClient *redis.Client) *gin.Engine {
	startedAt := time.Now()
	r := gin.Default()

	// Global middleware: client addr -> origin/CORS -> session -> CSRF
	r.Use(RemoteAddrMiddleware())
	r.Use(OriginRefererMiddleware(cfg))
	r.Use(SessionMiddleware(cfg, store))
	r.Use(CSRFMiddleware(cfg, store))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", func(c *gin.Context) {
			var req struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}

			ctx := c.Request.Context()
			token, user, err := auth.Login(ctx, req.Username, req.Password)
			if metrics != nil {
				// Telemetry only; a counter failure must not block login.
				_ = metrics.RecordLogin(ctx, err == nil)
			}
			if err != nil {
				respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password")
				return
			}

			session, err := store.Get(c.Request, sessionName)
			if err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "session error")
				return
			}

			// reset session values (simple rotation), then store the token
			session.Values = map[interface{}]interface{}{}
			session.Values[sessionTokenKey] = token
			applySessionOptions(cfg, session)

			if err := session.Save(c.Request, c.Writer); err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to set session")
				return
			}

			c.JSON(http.StatusOK, gin.H{"user": userJSON(user)})
		})

		// Credential check without the superuser policy, for callers
		// that only need to verify a password (no token, no session).
		api.POST("/auth/check", func(c *gin.Context) {
			var req struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			user, err := auth.Authenticate(c.Request.Context(), req.Username, req.Password)
			if err != nil {
				respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password")
				return
			}
			c.JSON(http.StatusOK, gin.H{"user": userJSON(user)})
		})

		api.POST("/auth/logout", func(c *gin.Context) {
			sess := sessionFromContext(c)
			if sess == nil {
				respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
				return
			}
			sess.Values = map[interface{}]interface{}{}
			applySessionOptions(cfg, sess)
			sess.Options.MaxAge = -1 // Must be set AFTER applySessionOptions to properly delete cookie
			if err := sess.Save(c.Request, c.Writer); err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to clear session")
				return
			}
			c.Status(http.StatusNoContent)
		})

		api.GET("/users/me", func(c *gin.Context) {
			user, err := auth.Reauthenticate(c.Request.Context(), sessionToken(c))
			if err != nil {
				respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
				return
			}
			c.JSON(http.StatusOK, userJSON(user))
		})

		admin := api.Group("/admin")
		admin.Use(RequireSuperuser(auth))
		{
			admin.GET("/users", func(c *gin.Context) {
				page, perPage, err := parsePagination(c.Query("page"), c.Query("per_page"))
				if err != nil {
					respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
					return
				}
				items, total, err := users.List(c.Request.Context(), page, perPage)
				if err != nil {
					respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to fetch users")
					return
				}
				c.JSON(http.StatusOK, gin.H{
					"items":       items,
					"page":        page,
					"per_page":    perPage,
					"total_items": total,
					"total_pages": calcTotalPages(total, perPage),
				})
			})

			admin.GET("/users/:id", func(c *gin.Context) {
				id, err := strconv.ParseInt(c.Param("id"), 10, 64)
				if err != nil || id <= 0 {
					respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid id")
					return
				}
				u, err := users.FindByID(c.Request.Context(), id)
				if err != nil {
					if errors.Is(err, ErrUserNotFound) {
						respondError(c, http.StatusNotFound, "NOT_FOUND", "user not found")
						return
					}
					respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to fetch user")
					return
				}
				c.JSON(http.StatusOK, userJSON(userFromRecord(u)))
			})

			admin.POST("/users", func(c *gin.Context) {
				var req struct {
					Username    string `json:"username"`
					Email       string `json:"email"`
					Password    string `json:"password"`
					FirstName   string `json:"first_name"`
					LastName    string `json:"last_name"`
					IsSuperuser bool   `json:"is_superuser"`
				}
				if err := c.ShouldBindJSON(&req); err != nil {
					respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
					return
				}
				if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
					respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "username, email and password are required")
					return
				}

				hash, err := HashPassword(req.Password)
				if err != nil {
					respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to hash password")
					return
				}
				id, err := users.Create(c.Request.Context(), NewUser{
					Username:       strings.TrimSpace(req.Username),
					Email:          strings.TrimSpace(req.Email),
					FirstName:      req.FirstName,
					LastName:       req.LastName,
					HashedPassword: hash,
					IsSuperuser:    req.IsSuperuser,
				})
				if err != nil {
					respondError(c, http.StatusConflict, "CONFLICT", "failed to create user")
					return
				}
				if actor, ok := currentUser(c); ok {
					log.Printf("user %q (id=%d) created by %q", req.Username, id, actor.Username)
				}
				c.JSON(http.StatusCreated, gin.H{"id": id})
			})

			admin.PATCH("/users/:id", func(c *gin.Context) {
				id, err := strconv.ParseInt(c.Param("id"), 10, 64)
				if err != nil || id <= 0 {
					respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid id")
					return
				}
				// Pointer fields distinguish "absent" from "empty": only
				// keys present in the request are applied.
				var req struct {
					FirstName *string `json:"first_name"`
					LastName  *string `json:"last_name"`
					Password  *string `json:"password"`
				}
				if err := c.ShouldBindJSON(&req); err != nil {
					respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
					return
				}

				patch := UserPatch{FirstName: req.FirstName, LastName: req.LastName}
				if req.Password != nil {
					if *req.Password == "" {
						respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "password must not be empty")
						return
					}
					hash, err := HashPassword(*req.Password)
					if err != nil {
						respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to hash password")
						return
					}
					patch.HashedPassword = &hash
				}
				if patch.empty() {
					respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "no fields to update")
					return
				}
				if err := users.Update(c.Request.Context(), id, patch); err != nil {
					if errors.Is(err, ErrUserNotFound) {
						respondError(c, http.StatusNotFound, "NOT_FOUND", "user not found")
						return
					}
					respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to update user")
					return
				}
				c.Status(http.StatusNoContent)
			})

			admin.GET("/audit", func(c *gin.Context) {
				page, perPage, err := parsePagination(c.Query("page"), c.Query("per_page"))
				if err != nil {
					respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
					return
				}
				items, total, err := audit.List(c.Request.Context(), page, perPage)
				if err != nil {
					respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to fetch audit log")
					return
				}
				c.JSON(http.StatusOK, gin.H{
					"items":       items,
					"page":        page,
					"per_page":    perPage,
					"total_items": total,
					"total_pages": calcTotalPages(total, perPage),
				})
			})

			admin.GET("/metrics/logins", func(c *gin.Context) {
				days := 7
				if v := strings.TrimSpace(c.Query("days")); v != "" {
					d, err := strconv.Atoi(v)
					if err != nil || d <= 0 {
						respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "days must be a positive integer")
						return
					}
					if d > 30 {
						d = 30
					}
					days = d
				}
				if metrics == nil {
					respondError(c, http.StatusServiceUnavailable, "UNAVAILABLE", "metrics backend not configured")
					return
				}
				items, err := metrics.Recent(c.Request.Context(), days)
				if err != nil {
					respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load metrics")
					return
				}
				c.JSON(http.StatusOK, gin.H{"days": days, "items": items})
			})

			admin.GET("/system/status", func(c *gin.Context) {
				st := CollectSystemStatus(c.Request.Context(), db, redisClient, startedAt)
				c.JSON(http.StatusOK, st)
			})
		}
	}

	return r
}

// userJSON is the safe projection of a user for responses; it never
// includes the password hash.
func userJSON(u User) gin.H {
	return gin.H{
		"id":           u.ID,
		"username":     u.Username,
		"email":        u.Email,
		"first_name":   u.FirstName,
		"last_name":    u.LastName,
		"is_superuser": u.IsSuperuser,
		"created_at":   u.CreatedAt,
	}
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

func parsePagination(pageStr, perPageStr string) (int, int, error) {
	page := 1
	perPage := defaultPerPage
	if strings.TrimSpace(pageStr) != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p <= 0 {
			return 0, 0, errors.New("page must be a positive integer")
		}
		page = p
	}
	if strings.TrimSpace(perPageStr) != "" {
		p, err := strconv.Atoi(perPageStr)
		if err != nil || p <= 0 {
			return 0, 0, errors.New("per_page must be a positive integer")
		}
		if p > maxPerPage {
			p = maxPerPage
		}
		perPage = p
	}
	return page, perPage, nil
}

func calcTotalPages(total, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

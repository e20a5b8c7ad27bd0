package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/iqtestim/iqadmin/internal/auth"
	"github.com/iqtestim/iqadmin/internal/models"
)

const (
	bearerPrefix = "Bearer "
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserNotFound      = errors.New("user not found")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// JWTAuthMiddleware validates bearer tokens on every console request
func JWTAuthMiddleware(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract token from Authorization header
		authHeader := c.GetHeader("Authorization")
		token, err := extractBearerToken(authHeader)
		if err != nil {
			var message string
			switch err {
			case ErrMissingAuthHeader:
				message = "Missing authorization header"
			case ErrInvalidAuthFormat:
				message = "Invalid authorization header format"
			case ErrEmptyToken:
				message = "Empty token"
			}
			respondWithError(c, log, http.StatusUnauthorized, err, message)
			return
		}

		// Validate JWT token
		claims, err := auth.ValidateToken(token)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to validate JWT token")
			respondWithError(c, log, http.StatusUnauthorized, ErrInvalidToken, "Invalid or expired token")
			return
		}

		// Verify user still exists in database
		var user models.User
		if err := db.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
			log.Warn().Err(err).Str("user_id", claims.UserID).Msg("User not found")
			respondWithError(c, log, http.StatusUnauthorized, ErrUserNotFound, "User not found")
			return
		}

		// The role on the account is authoritative, not the one baked into
		// the token. A demoted admin is locked out on their next request.
		sessionData := &auth.SessionData{
			UserID: user.ID,
			Email:  user.Email,
			Role:   user.Role,
		}
		setSession(c, sessionData)

		c.Next()
	}
}

// PrivilegedOnlyMiddleware ensures the authenticated user holds an admin role.
// Non-privileged accounts are valid platform users but have no business in
// the console, so this is a 401 (treat as unauthenticated), matching how
// login and session restore handle the same case.
func PrivilegedOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if !sessionData.Role.Privileged() {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("not privileged"), "Admin access required")
			return
		}

		c.Next()
	}
}

// SuperAdminOnlyMiddleware restricts destructive user management to the top tier
func SuperAdminOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if sessionData.Role != auth.RoleSuperAdmin {
			respondWithError(c, log, http.StatusForbidden, errors.New("not super admin"), "Super admin access required")
			return
		}

		c.Next()
	}
}

// ActivityMiddleware records every mutating authenticated request in the
// audit trail. Reads are not recorded.
func ActivityMiddleware(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			return
		}

		sessionData, exists := GetSessionData(c)
		if !exists {
			return
		}

		activity := models.AdminActivity{
			ActorID:    sessionData.UserID,
			ActorEmail: sessionData.Email,
			Action:     actionForMethod(c.Request.Method),
			Resource:   resourceFromPath(c.FullPath()),
			ResourceID: c.Param("id"),
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			Status:     c.Writer.Status(),
			ClientIP:   c.ClientIP(),
		}

		if err := db.Create(&activity).Error; err != nil {
			log.Error().Err(err).Msg("Failed to record admin activity")
		}
	}
}

func actionForMethod(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	}
	return strings.ToLower(method)
}

// resourceFromPath extracts the resource name from a route pattern,
// e.g. "/api/questions/:id" -> "questions"
func resourceFromPath(fullPath string) string {
	trimmed := strings.TrimPrefix(fullPath, "/api/")
	if idx := strings.IndexByte(trimmed, '/'); idx > 0 {
		return trimmed[:idx]
	}
	return trimmed
}

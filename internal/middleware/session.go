package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const (
	SessionName    = "yatube_session"
	sessionUserKey = "user_id"
	contextUserKey = "user"
	sessionMaxAge  = 14 * 24 * 60 * 60
)

// IDTokenVerifier checks federated ID tokens. *auth.Client satisfies it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Auth resolves the requesting user from the session cookie or a bearer token.
type Auth struct {
	store     sessions.Store
	users     repositories.UserRepository
	jwtSecret []byte
	firebase  IDTokenVerifier
}

// NewAuth builds the authenticator. firebase may be nil, in which case only
// locally issued bearer tokens are accepted.
func NewAuth(store sessions.Store, users repositories.UserRepository, jwtSecret string, firebase IDTokenVerifier) *Auth {
	return &Auth{
		store:     store,
		users:     users,
		jwtSecret: []byte(jwtSecret),
		firebase:  firebase,
	}
}

// NewSessionStore returns a signed cookie store for the session.
func NewSessionStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// LoadUser attaches the authenticated user, if any, to the request context.
// Anonymous requests pass through untouched.
func (a *Auth) LoadUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := a.resolve(c)
			if err != nil {
				log.WithError(err).Debug("request is anonymous")
			}
			if user != nil {
				c.Set(contextUserKey, user)
			}
			return next(c)
		}
	}
}

func (a *Auth) resolve(c echo.Context) (*models.User, error) {
	ctx := c.Request().Context()
	if token, ok := bearerToken(c.Request()); ok {
		return a.userFromToken(ctx, token)
	}

	session, err := a.store.Get(c.Request(), SessionName)
	if err != nil {
		return nil, err
	}
	id, ok := session.Values[sessionUserKey].(uint)
	if !ok {
		return nil, nil
	}
	user, err := a.users.GetUserByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

func (a *Auth) userFromToken(ctx context.Context, token string) (*models.User, error) {
	claims, jwtErr := a.ParseToken(token)
	if jwtErr == nil {
		return a.users.GetUserByID(ctx, claims.UserID)
	}
	if a.firebase == nil {
		return nil, jwtErr
	}
	idToken, err := a.firebase.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return a.users.GetUserByFirebaseUID(ctx, idToken.UID)
}

// Login starts a session for user.
func (a *Auth) Login(c echo.Context, user *models.User) error {
	session, err := a.store.Get(c.Request(), SessionName)
	if err != nil {
		log.WithError(err).Info("replacing undecodable session")
	}
	session.Values[sessionUserKey] = user.ID
	c.Set(contextUserKey, user)
	return session.Save(c.Request(), c.Response())
}

// Logout ends the current session.
func (a *Auth) Logout(c echo.Context) error {
	session, err := a.store.Get(c.Request(), SessionName)
	if err != nil {
		log.WithError(err).Info("clearing undecodable session")
	}
	delete(session.Values, sessionUserKey)
	session.Options.MaxAge = -1
	return session.Save(c.Request(), c.Response())
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(contextUserKey).(*models.User)
	return user
}

// LoginRequired redirects anonymous requests to loginURL, carrying the
// requested path in the "next" query parameter.
func LoginRequired(loginURL string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) == nil {
				target := loginURL + "?next=" + url.QueryEscape(c.Request().URL.RequestURI())
				return c.Redirect(http.StatusFound, target)
			}
			return next(c)
		}
	}
}

// SafeNext returns next when it is a local path, otherwise fallback.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

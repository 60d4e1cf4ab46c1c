package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/anonto42/yatube/validators"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgBadCredentials = "Please enter a correct username and password. Note that both fields may be case-sensitive."
	msgUsernameTaken  = "A user with that username already exists."
)

var signupFields = []string{"username", "first_name", "last_name", "email", "password"}

// AuthHandler handles signup, login, logout and API token requests.
type AuthHandler struct {
	userRepository repositories.UserRepository
	auth           *middleware.Auth
	firebase       middleware.IDTokenVerifier
}

// NewAuthHandler creates a new AuthHandler. firebase may be nil, in which
// case the Firebase login route is not registered.
func NewAuthHandler(userRepo repositories.UserRepository, auth *middleware.Auth, firebase middleware.IDTokenVerifier) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		auth:           auth,
		firebase:       firebase,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.GET("/signup/", h.SignupForm)
	g.POST("/signup/", h.Signup)
	g.GET("/login/", h.LoginForm)
	g.POST("/login/", h.Login)
	g.GET("/logout/", h.Logout)
	g.POST("/logout/", h.Logout)
	g.POST("/token/", h.Token)
	if h.firebase != nil {
		g.POST("/firebase-login/", h.FirebaseLogin)
	}
}

func (h *AuthHandler) SignupForm(c echo.Context) error {
	return c.Render(http.StatusOK, tmplSignup, SignupPage{Title: "Sign up", Fields: signupFields})
}

// Signup creates a local account and logs it in.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	page := SignupPage{
		Title:  "Sign up",
		Fields: signupFields,
		Values: map[string]string{
			"username":   req.Username,
			"first_name": req.FirstName,
			"last_name":  req.LastName,
			"email":      req.Email,
		},
		Errors: validators.FieldErrors(c.Validate(&req)),
	}
	if len(page.Errors) > 0 {
		return c.Render(http.StatusOK, tmplSignup, page)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password").SetInternal(err)
	}
	user := &models.User{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  string(hashedPassword),
	}
	ctx := c.Request().Context()
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			page.Errors = map[string]string{"username": msgUsernameTaken}
			return c.Render(http.StatusOK, tmplSignup, page)
		}
		return storeError(err)
	}

	if err := h.auth.Login(c, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	log.WithField("username", user.Username).Info("user signed up")
	return c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, tmplLogin, LoginPage{
		Title: "Log in",
		Next:  c.QueryParam("next"),
	})
}

// Login checks the submitted credentials, starts a session and follows "next".
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	next := c.FormValue("next")
	page := LoginPage{
		Title:  "Log in",
		Next:   next,
		Values: map[string]string{"username": req.Username},
		Errors: validators.FieldErrors(c.Validate(&req)),
	}
	if len(page.Errors) > 0 {
		return c.Render(http.StatusOK, tmplLogin, page)
	}

	user, err := h.authenticate(c, req)
	if err != nil {
		if errors.Is(err, errBadCredentials) {
			page.Errors = map[string]string{"": msgBadCredentials}
			return c.Render(http.StatusOK, tmplLogin, page)
		}
		return storeError(err)
	}
	if err := h.auth.Login(c, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	return c.Redirect(http.StatusFound, middleware.SafeNext(next, "/"))
}

// Logout ends the session.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.auth.Logout(c); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	return c.Redirect(http.StatusFound, "/")
}

// Token exchanges credentials for a bearer token.
func (h *AuthHandler) Token(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": validators.FieldErrors(err)})
	}

	user, err := h.authenticate(c, req)
	if err != nil {
		if errors.Is(err, errBadCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": msgBadCredentials})
		}
		return storeError(err)
	}
	token, err := h.auth.IssueToken(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token").SetInternal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// FirebaseLogin verifies a Firebase ID token, finds or creates the matching
// user, starts a session and returns a local bearer token.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": validators.FieldErrors(err)})
	}

	ctx := c.Request().Context()
	idToken, err := h.firebase.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		log.WithError(err).Info("rejected firebase id token")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid Firebase ID token"})
	}

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, idToken.UID)
	if errors.Is(err, repositories.ErrNotFound) {
		email, _ := idToken.Claims["email"].(string)
		name, _ := idToken.Claims["name"].(string)
		uid := idToken.UID
		user = &models.User{
			Username:    firebaseUsername(email, uid),
			FirstName:   name,
			Email:       email,
			FirebaseUID: &uid,
		}
		err = h.userRepository.CreateUser(ctx, user)
		if errors.Is(err, repositories.ErrDuplicate) {
			user.Username = uid
			err = h.userRepository.CreateUser(ctx, user)
		}
		// A concurrent login for the same uid created the user first.
		if errors.Is(err, repositories.ErrDuplicate) {
			user, err = h.userRepository.GetUserByFirebaseUID(ctx, uid)
		}
	}
	if err != nil {
		return storeError(err)
	}

	if err := h.auth.Login(c, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	token, err := h.auth.IssueToken(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token").SetInternal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

var errBadCredentials = errors.New("bad credentials")

func (h *AuthHandler) authenticate(c echo.Context, req models.LoginRequest) (*models.User, error) {
	user, err := h.userRepository.GetUserByUsername(c.Request().Context(), strings.TrimSpace(req.Username))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.Password == "" {
		return nil, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errBadCredentials
	}
	return user, nil
}

// firebaseUsername derives a username from the account email, falling back
// to the Firebase UID.
func firebaseUsername(email, uid string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return uid
	}
	return local
}

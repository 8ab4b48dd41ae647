package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	"github.com/rpupo63/blog-publisher-backend/config"
	"github.com/rpupo63/blog-publisher-backend/errs"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionName        = "blog-adm-session"
	sessionUsernameKey = "username"
	tokenIssuer        = "blog-adm"
	defaultSessionAge  = 24 * time.Hour
)

type AuthConfig struct {
	Username      string
	Password      string
	PasswordHash  string // bcrypt; takes precedence over Password
	SessionSecret string
	TokenSecret   string // defaults to SessionSecret
	TokenTTL      time.Duration
	CookieSecure  bool
}

// AuthConfigFromMap reads the admin credentials and secrets from the config map.
func AuthConfigFromMap(c map[string]string) AuthConfig {
	return AuthConfig{
		Username:      config.GetString(c, "ADMIN_USERNAME", ""),
		Password:      config.GetString(c, "ADMIN_PASSWORD", ""),
		PasswordHash:  config.GetString(c, "ADMIN_PASSWORD_HASH", ""),
		SessionSecret: config.GetString(c, "SESSION_SECRET", ""),
		TokenSecret:   config.GetString(c, "TOKEN_SECRET", ""),
		TokenTTL:      time.Duration(config.GetInt(c, "TOKEN_TTL_MINUTES", 60)) * time.Minute,
		CookieSecure:  config.GetBool(c, "COOKIE_SECURE", false),
	}
}

type adminAuth struct {
	username     string
	password     []byte
	passwordHash []byte
	store        *sessions.CookieStore
	tokenSecret  []byte
	tokenTTL     time.Duration
	now          func() time.Time
}

func newAdminAuth(cfg AuthConfig) (*adminAuth, error) {
	if cfg.Username == "" {
		return nil, errs.NewConfigMissingError("ADMIN_USERNAME")
	}
	if cfg.Password == "" && cfg.PasswordHash == "" {
		return nil, errs.NewConfigMissingError("ADMIN_PASSWORD")
	}
	if cfg.SessionSecret == "" {
		return nil, errs.NewConfigMissingError("SESSION_SECRET")
	}
	if cfg.TokenSecret == "" {
		cfg.TokenSecret = cfg.SessionSecret
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(defaultSessionAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}

	return &adminAuth{
		username:     cfg.Username,
		password:     []byte(cfg.Password),
		passwordHash: []byte(cfg.PasswordHash),
		store:        store,
		tokenSecret:  []byte(cfg.TokenSecret),
		tokenTTL:     cfg.TokenTTL,
		now:          time.Now,
	}, nil
}

func (a *adminAuth) checkCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	var passOK bool
	if len(a.passwordHash) > 0 {
		passOK = bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), a.password) == 1
	}
	return userOK && passOK
}

func (a *adminAuth) issueToken(username string) (string, time.Time, error) {
	now := a.now()
	expiresAt := now.Add(a.tokenTTL)
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.tokenSecret)
	if err != nil {
		return "", time.Time{}, errs.NewInternalErrorWithCause("unable to sign token", err)
	}
	return signed, expiresAt, nil
}

// parseToken returns the username a bearer token was issued to.
func (a *adminAuth) parseToken(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.tokenSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errs.NewExpiredTokenError()
		}
		return "", errs.NewInvalidTokenError()
	}
	if claims.Subject != a.username {
		return "", errs.NewInvalidTokenError()
	}
	return claims.Subject, nil
}

// sessionUser returns the admin stored in the session cookie, or "".
func (a *adminAuth) sessionUser(r *http.Request) string {
	session, err := a.store.Get(r, sessionName)
	if err != nil {
		return ""
	}
	username, _ := session.Values[sessionUsernameKey].(string)
	if username != a.username {
		return ""
	}
	return username
}

func (a *adminAuth) startSession(w http.ResponseWriter, r *http.Request, username string) error {
	// A stale or forged cookie still yields a fresh session to write into.
	session, _ := a.store.Get(r, sessionName)
	session.Values[sessionUsernameKey] = username
	return session.Save(r, w)
}

func (a *adminAuth) endSession(w http.ResponseWriter, r *http.Request) error {
	session, _ := a.store.Get(r, sessionName)
	delete(session.Values, sessionUsernameKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

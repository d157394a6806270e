// internal/httpapi/auth.go
package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/go-chi/render"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const tokenLifespan = time.Hour

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	data := &loginPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, errInvalidRequest(err))
		return
	}

	a := s.cfg.Auth
	if data.User != a.User ||
		bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(data.Password)) != nil {
		log.WithField("user", data.User).Warn("login rejected")
		render.Render(w, r, errUnauthorized(errors.New("bad credentials")))
		return
	}

	expires := time.Now().Add(tokenLifespan)
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.StandardClaims{
		Subject:   a.User,
		Issuer:    "motiond",
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: expires.Unix(),
	})
	signed, err := token.SignedString(a.Secret)
	if err != nil {
		render.Render(w, r, errInternal(err))
		return
	}
	render.JSON(w, r, tokenPayload{Token: signed, ExpiresAt: expires.Unix()})
}

// requireToken guards the mutating endpoints. The token rides in the
// Authorization header as a bearer token or, for simple clients, in
// the token query parameter.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("token")
		if raw == "" {
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				raw = strings.TrimPrefix(h, "Bearer ")
			}
		}
		if raw == "" {
			render.Render(w, r, errUnauthorized(errors.New("token required")))
			return
		}

		claims := &jwt.StandardClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.cfg.Auth.Secret, nil
		})
		if err != nil || !token.Valid {
			render.Render(w, r, errUnauthorized(errors.New("invalid token")))
			return
		}
		next.ServeHTTP(w, r)
	})
}

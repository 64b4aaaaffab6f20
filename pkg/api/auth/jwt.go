package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
)

// JwtProvider is the representation of decoded JWT
type JwtProvider struct {
	Username string `json:"username"`
	jwt.StandardClaims
}

type credentials struct {
	Password string `json:"password"`
	Username string `json:"username"`
}

const (
	tokenName     = "offline-authorization-token"
	lifetime      = time.Hour * 24 * 7
	refreshWindow = 24 * time.Hour
)

func signJWT(security *SecurityAPI, w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	expectedPassword, ok := security.users[creds.Username]
	if !ok || expectedPassword != creds.Password {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	setCookie(w, &JwtProvider{Username: creds.Username}, security.secret)
}

// refresh only issues a new token in the last day of the current one
func refresh(security *SecurityAPI, w http.ResponseWriter, r *http.Request) {
	claims, err := CheckToken(security, w, r)
	if err != nil {
		return
	}

	if time.Until(time.Unix(claims.ExpiresAt, 0)) > refreshWindow {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	setCookie(w, claims, security.secret)
}

// CheckToken will return if token is valid or not
func CheckToken(security *SecurityAPI, w http.ResponseWriter, r *http.Request) (*JwtProvider, error) {
	c, err := r.Cookie(tokenName)
	if err != nil {
		if err == http.ErrNoCookie {
			w.WriteHeader(http.StatusUnauthorized)
			return nil, &tokenError{found: false}
		}
		w.WriteHeader(http.StatusBadRequest)
		return nil, &tokenError{found: true}
	}

	claims := &JwtProvider{}
	tkn, e := jwt.ParseWithClaims(c.Value, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &signatureError{}
		}
		return security.secret, nil
	})
	if e != nil {
		if ve, ok := e.(*jwt.ValidationError); ok && ve.Errors&(jwt.ValidationErrorSignatureInvalid|jwt.ValidationErrorExpired) != 0 {
			w.WriteHeader(http.StatusUnauthorized)
			return claims, &signatureError{}
		}
		w.WriteHeader(http.StatusBadRequest)
		return claims, &signatureError{}
	}
	if !tkn.Valid {
		w.WriteHeader(http.StatusUnauthorized)
		return claims, &signatureError{}
	}

	return claims, nil
}

func setCookie(w http.ResponseWriter, claims *JwtProvider, secret []byte) {
	expirationTime := time.Now().Add(lifetime)
	claims.ExpiresAt = expirationTime.Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenName,
		Path:     "/",
		Value:    tokenString,
		Expires:  expirationTime,
		HttpOnly: true,
	})
}

package originauth

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/originauth/originauth/jwt"
)

// Origin-scoped claim names are a closed set. Everything a provider sends
// that is not listed here stays out of the token, whatever the provider
// payload looked like.
//
//	local  -> (no origin claims)
//	google -> googleId, picture
//	github -> githubId, login, avatarUrl
func originClaims(user *User, origin Origin) map[string]string {
	profile, ok := user.LinkedOrigins[origin]
	if !ok {
		return nil
	}

	oc := map[string]string{}
	switch origin {
	case OriginGoogle:
		if profile.ExternalID != "" {
			oc["googleId"] = profile.ExternalID
		}
		if profile.Picture != "" {
			oc["picture"] = profile.Picture
		}
	case OriginGitHub:
		if profile.ExternalID != "" {
			oc["githubId"] = profile.ExternalID
		}
		if login := profile.Fields["login"]; login != "" {
			oc["login"] = login
		}
		if profile.Picture != "" {
			oc["avatarUrl"] = profile.Picture
		}
	}
	if len(oc) == 0 {
		return nil
	}
	return oc
}

// buildClaimSet assembles the token payload for a user authenticated via the
// given origin. The claim set mirrors the user record at issuance time; it
// is never re-derived from the token on later requests except transiently
// during verification.
func (e *Engine) buildClaimSet(user *User, origin Origin, tokenID string, now time.Time) (*jwt.ClaimSet, error) {
	if user == nil {
		return nil, errors.New("nil user")
	}
	if tokenID == "" {
		return nil, errors.New("empty token id")
	}
	ttl := e.config.Token.TTL
	if ttl <= 0 {
		return nil, errors.New("token TTL must be positive")
	}

	claims := &jwt.ClaimSet{
		UserID:       user.UserID,
		Email:        user.Email,
		Role:         user.Role,
		Permissions:  user.Permissions,
		TokenVersion: user.TokenVersion,
		Origin:       origin.String(),
		OriginClaims: originClaims(user, origin),
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        tokenID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	if e.config.Token.Issuer != "" {
		claims.Issuer = e.config.Token.Issuer
	}
	if e.config.Token.Audience != "" {
		claims.Audience = jwtlib.ClaimStrings{e.config.Token.Audience}
	}
	return claims, nil
}

package cmd

import (
	"net/http"
	"strings"

	"leaguelink/internal/api"
	"leaguelink/internal/oauth"
	"leaguelink/internal/trust"
)

// bearerAuth adapts the trust layer into the first-party session check the
// OAuth surface needs: the consent and decision endpoints require a valid
// bearer token identifying the resource owner.
func bearerAuth(tr *trust.Trust) oauth.AuthFunc {
	return func(r *http.Request) (string, error) {
		header := r.Header.Get("Authorization")
		if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
			return "", api.NewAuthFailedError("missing bearer token")
		}

		claims, err := tr.Validate(strings.TrimSpace(header[7:]))
		if err != nil {
			return "", err
		}
		return claims.Subject, nil
	}
}

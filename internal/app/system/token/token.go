// Package token issues and decodes the bearer tokens used as credentials.
//
// Issue signs a standard JWT. Decode is the lenient counterpart used by the
// session initializer: it extracts identity from the payload WITHOUT
// verifying the signature, because it only feeds display state (name, email)
// and the guarded API routes re-verify every token through system/auth.
package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/dalemusser/fundio/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is the user identity carried in a token payload.
type Identity struct {
	SubjectID string
	Email     string
	FirstName string // first whitespace-delimited token of the name claim, "" if none
}

// Candidate payload keys, tried in priority order. Tokens issued by this
// service use the first key of each list; the alternates keep decoding
// compatible with tokens minted by other identity providers.
var (
	subjectKeys = []string{"sub", "userId", "id"}
	emailKeys   = []string{"email", "username"}
	nameKeys    = []string{"name", "displayName", "given_name", "username"}
)

// Issue signs an HS256 JWT with the identity claims this service uses.
func Issue(u models.User, secret []byte, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   u.ID.Hex(),
		"email": u.Email,
		"name":  u.Name,
		"iat":   now.Unix(),
		"exp":   now.Add(expiry).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Decode extracts an Identity from the token payload without verifying the
// signature. It is pure and never fails loudly: any malformed input returns
// ok=false. It never touches stored credentials; cleanup on a bad token is
// the caller's job.
func Decode(token string) (Identity, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[1] == "" {
		return Identity{}, false
	}

	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		// Some issuers pad the segment; try the padded alphabet before giving up.
		raw, err = base64.URLEncoding.DecodeString(parts[1])
		if err != nil {
			return Identity{}, false
		}
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Identity{}, false
	}

	id := Identity{
		SubjectID: firstString(payload, subjectKeys),
		Email:     firstString(payload, emailKeys),
	}
	if id.SubjectID == "" {
		return Identity{}, false
	}

	if fields := strings.Fields(firstString(payload, nameKeys)); len(fields) > 0 {
		id.FirstName = fields[0]
	}
	return id, true
}

// firstString returns the first candidate key present with a non-empty
// string value.
func firstString(payload map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := payload[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

package auth

import (
	"crypto/sha256"
	"encoding/base64"
)

// sessionPrefix agrupa as sessões de refresh do backoffice no Redis.
const sessionPrefix = "refresh:backoffice:"

// HashRefreshToken produz o digest gravado em usuarios.refresh_token_hash e
// usado como sufixo da chave de sessão. O token cru nunca é persistido.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// SessionKey devolve a chave Redis da sessão identificada pelo digest.
func SessionKey(digest string) string {
	return sessionPrefix + digest
}

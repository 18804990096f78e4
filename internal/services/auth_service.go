package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tigertrust/tigertrust/internal/identity"
)

// AdminCredential ties a login to the signer key it acts as. Credentials
// come from deploy-time configuration, not from the profile store.
type AdminCredential struct {
	Email     string
	PassHash  []byte
	SignerKey identity.Key
}

type TokenSigner func(signerKey, email string, ttl time.Duration) (string, error)

// AuthService exchanges admin credentials for a bearer token carrying the
// admin's signer key.
type AuthService struct {
	creds     []AdminCredential
	signToken TokenSigner
	tokenTTL  time.Duration
}

type AuthResult struct {
	Token     string
	SignerKey identity.Key
}

func NewAuthService(creds []AdminCredential, signer TokenSigner) *AuthService {
	return &AuthService{
		creds:     creds,
		signToken: signer,
		tokenTTL:  12 * time.Hour,
	}
}

func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	var cred *AdminCredential
	for i := range s.creds {
		if strings.EqualFold(s.creds[i].Email, email) {
			cred = &s.creds[i]
			break
		}
	}
	if cred == nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(cred.PassHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(cred.SignerKey.String(), cred.Email, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, SignerKey: cred.SignerKey}, nil
}

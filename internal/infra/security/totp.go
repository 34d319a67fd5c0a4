package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpPeriod     = 30
	totpSecretSize = 20
)

// TOTPEnrollment carries the artifacts of a fresh MFA provisioning.
type TOTPEnrollment struct {
	Secret string
	// URI is the otpauth:// enrollment URI for authenticator apps; it embeds
	// the secret and must be treated as a credential by callers.
	URI string
}

// GenerateTOTP provisions a new shared secret and enrollment URI for the
// given account label.
func GenerateTOTP(issuer, accountName string) (TOTPEnrollment, error) {
	if strings.TrimSpace(accountName) == "" {
		return TOTPEnrollment{}, fmt.Errorf("account name is required")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		Period:      totpPeriod,
		SecretSize:  totpSecretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return TOTPEnrollment{}, fmt.Errorf("generate totp key: %w", err)
	}

	return TOTPEnrollment{Secret: key.Secret(), URI: key.URL()}, nil
}

// VerifyTOTP validates a 6-digit code against the shared secret at the given
// moment, accepting one 30-second step of clock drift in either direction.
func VerifyTOTP(secret, code string, at time.Time) bool {
	secret = strings.TrimSpace(secret)
	code = strings.TrimSpace(code)
	if secret == "" || len(code) != 6 {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return ok
}

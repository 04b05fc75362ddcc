package integrity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/iho/switchledger/internal/domain"
)

// HMACSigner signs account state with HMAC-SHA256 so that balance rows
// edited outside the service are detected on the next movement.
type HMACSigner struct {
	key []byte
}

// NewHMACSigner creates a signer for key. An empty key is rejected.
func NewHMACSigner(key string) (*HMACSigner, error) {
	if key == "" {
		return nil, fmt.Errorf("integrity: empty signing key")
	}
	return &HMACSigner{key: []byte(key)}, nil
}

// Sign returns the lowercase hex signature of the account's identity, balance,
// revision and holder.
func (s *HMACSigner) Sign(account *domain.Account) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(canonical(account)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether account.Signature matches its current state.
func (s *HMACSigner) Verify(account *domain.Account) bool {
	return hmac.Equal([]byte(s.Sign(account)), []byte(account.Signature))
}

// canonical format: ID|CODE|BALANCE|REVISION|HOLDER. The holder is free text,
// so it goes last.
func canonical(account *domain.Account) string {
	return fmt.Sprintf("%d|%s|%s|%d|%s",
		account.ID,
		account.Code,
		account.Balance.StringFixed(domain.MoneyScale),
		account.Revision,
		account.HolderReference,
	)
}

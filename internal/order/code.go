package order

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
)

const codeLength = 6

// NewCode returns a customer-facing order code of six uppercase hex digits,
// taken from the random part of a v4 UUID.
func NewCode() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("failed to generate order code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(id.Bytes()[:codeLength/2])), nil
}

// NormalizeCode maps a code typed by a customer onto the stored form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

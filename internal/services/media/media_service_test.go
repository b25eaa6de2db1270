package media

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSignature(t *testing.T) {
	params := map[string]string{
		"timestamp":     "1700000000",
		"upload_preset": "mechx_uploads",
		"folder":        "mechx/user-1",
	}

	sig := generateSignature(params, "secret")

	// SHA-1 в hex-представлении
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{40}$`), sig)

	// Подпись детерминирована
	assert.Equal(t, sig, generateSignature(params, "secret"))

	// Другой секрет дает другую подпись
	assert.NotEqual(t, sig, generateSignature(params, "another-secret"))

	// Изменение любого параметра меняет подпись
	params["timestamp"] = "1700000001"
	assert.NotEqual(t, sig, generateSignature(params, "secret"))
}

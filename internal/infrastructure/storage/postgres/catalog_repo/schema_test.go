package catalog_repo

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var usersUniqueIndex = regexp.MustCompile(`(?m)^CREATE UNIQUE INDEX[^\n]*\bON users\b[^\n]*;`)

// A staff identity must never block a customer with the same email or phone: the
// customer lookups filter on role, so the unique indexes have to as well.
func TestSchema_UserIdentityIndexesAreScopedByRole(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "..", "db", "schema.sql"))
	require.NoError(t, err)

	indexes := usersUniqueIndex.FindAllString(string(raw), -1)
	require.NotEmpty(t, indexes)

	var customerEmail, customerPhone bool
	for _, idx := range indexes {
		assert.Regexp(t, `WHERE role (=|<>) 'customer'`, idx)
		if regexp.MustCompile(`\(lower\(email\)\) WHERE role = 'customer'`).MatchString(idx) {
			customerEmail = true
		}
		if regexp.MustCompile(`\(phone\) WHERE role = 'customer'`).MatchString(idx) {
			customerPhone = true
		}
	}
	assert.True(t, customerEmail, "customer email must stay unique among customers")
	assert.True(t, customerPhone, "customer phone must stay unique among customers")
}

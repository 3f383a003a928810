package redisclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamespacedKey(t *testing.T) {
	assert.Equal(t, "storefront:admin-session:abc", namespacedKey("admin-session", "abc"))
	assert.Equal(t, "storefront:lock:checkout:s1", namespacedKey("lock", "checkout:s1"))
}

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "credit_score:latest:m-1", latestScoreKey("m-1"))
	assert.Equal(t, "merchant:id:42", GenerateKey("merchant", "id", 42))
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecutableName(t *testing.T) {
	name := ExecutableName()
	assert.NotEmpty(t, name)
	assert.NotContains(t, name, "/")
	assert.NotContains(t, name, ".exe")
}

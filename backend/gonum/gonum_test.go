package gonum

import (
	"testing"

	"github.com/rnstpu/rnstpu/backend/backendtest"
)

func TestBackend(t *testing.T) {
	backendtest.Run(t, New())
}

// SPDX-License-Identifier: MIT

package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithLookupID(ctx, "look-2")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "look-2", LookupIDFromContext(ctx))
}

func TestContextMissingValues(t *testing.T) {
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
	assert.Equal(t, "", LookupIDFromContext(context.Background()))
	assert.Equal(t, "", RequestIDFromContext(nil)) //nolint:staticcheck // nil-safety contract
}

func TestWithContextNoFields(t *testing.T) {
	base := Base()
	derived := WithContext(context.Background(), base)
	// no correlation fields present, logger returned unchanged
	assert.Equal(t, base, derived)
}

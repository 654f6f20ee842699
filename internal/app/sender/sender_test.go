package sender

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/rabbitmq"
	senderservice "github.com/magabrotheeeer/subscription-tracker/internal/services/sender"
)

func TestHandle(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		permanent bool
	}{
		{name: "delivered", err: nil},
		{name: "broken body", err: fmt.Errorf("op: %w", senderservice.ErrInvalidMessage), permanent: true},
		{name: "unknown kind", err: fmt.Errorf("op: %w", senderservice.ErrUnknownKind), permanent: true},
		{name: "smtp down", err: errors.New("dial tcp: connection refused"), permanent: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Handle(func(context.Context, []byte) error { return tt.err })
			err := h(context.Background(), []byte(`{}`))
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.permanent, rabbitmq.IsPermanent(err))
		})
	}
}

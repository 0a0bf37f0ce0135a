package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryableTxError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "serialization failure", err: &pq.Error{Code: "40001"}, want: true},
		{name: "deadlock detected", err: &pq.Error{Code: "40P01"}, want: true},
		{name: "recipient taken", err: ErrSantaRecipientTaken, want: true},
		{
			name: "wrapped recipient taken",
			err:  fmt.Errorf("failed to assign recipient: %w", ErrSantaRecipientTaken),
			want: true,
		},
		{name: "participant not found", err: ErrSantaParticipantNotFound, want: false},
		{name: "foreign key violation", err: &pq.Error{Code: "23503"}, want: false},
		{name: "plain error", err: errors.New("connection reset"), want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isRetryableTxError(tc.err))
		})
	}
}

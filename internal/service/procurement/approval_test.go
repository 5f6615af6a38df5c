package procurement

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

func TestPolicy_Resolve(t *testing.T) {
	policy := NewPolicy(decimal.NewFromInt(200), "s3cret")

	tests := []struct {
		name       string
		total      string
		credential string
		decision   Decision
		want       models.OrderStatus
		wantErr    error
	}{
		{name: "below threshold", total: "4.00", want: models.StatusAutoApproved},
		{name: "equal to threshold", total: "200.00", want: models.StatusAutoApproved},
		{name: "below threshold ignores bad credential", total: "10", credential: "nope", want: models.StatusAutoApproved},
		{name: "above threshold correct secret", total: "300", credential: "s3cret", want: models.StatusAdminApproved},
		{name: "above threshold wrong secret", total: "300", credential: "guess", want: models.StatusDeclined},
		{name: "above threshold explicit decline", total: "300", credential: "s3cret", decision: DecisionDecline, want: models.StatusDeclined},
		{name: "above threshold without secret", total: "200.01", want: models.StatusPendingApproval, wantErr: models.ErrApprovalRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := tt.decision
			if decision == "" {
				decision = DecisionApprove
			}
			status, err := policy.Resolve(decimal.RequireFromString(tt.total), tt.credential, decision)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestPolicy_Verify(t *testing.T) {
	policy := NewPolicy(decimal.Zero, "s3cret")

	assert.True(t, policy.Verify("s3cret"))
	assert.False(t, policy.Verify("S3cret"))
	assert.False(t, policy.Verify("s3cret "))
	assert.False(t, policy.Verify(""))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.StatusPendingApproval, models.StatusAdminApproved))
	assert.True(t, CanTransition(models.StatusPendingApproval, models.StatusDeclined))
	assert.True(t, CanTransition(models.StatusDeclined, models.StatusAdminApproved))

	assert.False(t, CanTransition(models.StatusAutoApproved, models.StatusDeclined))
	assert.False(t, CanTransition(models.StatusAutoApproved, models.StatusAdminApproved))
	assert.False(t, CanTransition(models.StatusAdminApproved, models.StatusDeclined))
	assert.False(t, CanTransition(models.StatusDeclined, models.StatusPendingApproval))
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("")
	require.NoError(t, err)
	assert.Equal(t, DecisionApprove, d)

	d, err = ParseDecision("DECLINE")
	require.NoError(t, err)
	assert.Equal(t, DecisionDecline, d)

	_, err = ParseDecision("maybe")
	assert.Error(t, err)
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestValidatePatchReportsJSONFieldNames(t *testing.T) {
	status := TicketStatus("archived")
	patch := TicketPatch{
		Subject:       strPtr("hey"),
		CustomerEmail: strPtr("not-an-email"),
		Status:        &status,
	}

	violations := Validate(patch)
	require.Len(t, violations, 3)

	byField := map[string]string{}
	for _, v := range violations {
		byField[v.Field] = v.Message
	}
	assert.Equal(t, "Must be at least 5 characters", byField["subject"])
	assert.Equal(t, "Invalid email format", byField["customerEmail"])
	assert.Contains(t, byField["status"], "Must be one of")
}

func TestValidateEmptyPatch(t *testing.T) {
	assert.Empty(t, Validate(TicketPatch{}))
	assert.True(t, TicketPatch{}.IsEmpty())
	assert.False(t, TicketPatch{Resolution: strPtr("")}.IsEmpty())
}

func TestPatchApplyOnlyTouchesSetFields(t *testing.T) {
	ticket := &Ticket{
		Subject:     "Original subject",
		Description: "Original description",
		Priority:    TicketPriorityLow,
	}
	priority := TicketPriorityUrgent
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	TicketPatch{Priority: &priority, AssignedTo: strPtr("agent-7")}.Apply(ticket, now)

	assert.Equal(t, "Original subject", ticket.Subject)
	assert.Equal(t, "Original description", ticket.Description)
	assert.Equal(t, TicketPriorityUrgent, ticket.Priority)
	assert.Equal(t, "agent-7", ticket.AssignedTo)
	assert.Equal(t, now, ticket.UpdatedAt)
}

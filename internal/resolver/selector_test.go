package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-resolver/internal/common/logger"
	"ticket-resolver/internal/models"
)

func TestSpecialistSelector_Select(t *testing.T) {
	users := []models.DirectoryUser{
		{Name: "Alice", Email: "alice@example.com", Role: "employee", Team: "AP Team"},
		{Name: "Bob", Email: "bob@example.com", Role: "employee", Team: "AP Team"},
		{Name: "Carol", Email: "carol@example.com", Role: "employee", Team: "AP Team"},
		{Name: "Dave", Email: "dave@example.com", Role: "manager", Team: "AP Team"},
		{Name: "Erin", Email: "erin@example.com", Role: "employee", Team: "AR Team"},
	}

	t.Run("picks lowest open workload", func(t *testing.T) {
		tickets := &fakeTickets{openCounts: map[string]int{"Alice": 2, "Bob": 0, "Carol": 3}}
		selector := NewSpecialistSelector(&fakeDirectory{users: users}, tickets, logger.NewNoOpLogger())

		contact, err := selector.Select(context.Background(), "AP")
		require.NoError(t, err)
		require.NotNil(t, contact)
		assert.Equal(t, "Bob", contact.Name)
		assert.Equal(t, "bob@example.com", contact.Email)
	})

	t.Run("workload tie keeps directory order", func(t *testing.T) {
		tickets := &fakeTickets{openCounts: map[string]int{"Alice": 1, "Bob": 1, "Carol": 1}}
		selector := NewSpecialistSelector(&fakeDirectory{users: users}, tickets, logger.NewNoOpLogger())

		contact, err := selector.Select(context.Background(), "AP")
		require.NoError(t, err)
		require.NotNil(t, contact)
		assert.Equal(t, "Alice", contact.Name)
	})

	t.Run("managers are not candidates", func(t *testing.T) {
		tickets := &fakeTickets{openCounts: map[string]int{"Alice": 9, "Bob": 9, "Carol": 9, "Dave": 0}}
		selector := NewSpecialistSelector(&fakeDirectory{users: users}, tickets, logger.NewNoOpLogger())

		contact, err := selector.Select(context.Background(), "AP")
		require.NoError(t, err)
		require.NotNil(t, contact)
		assert.NotEqual(t, "Dave", contact.Name)
	})

	t.Run("no specialists for team returns nil", func(t *testing.T) {
		selector := NewSpecialistSelector(&fakeDirectory{users: users}, &fakeTickets{}, logger.NewNoOpLogger())

		contact, err := selector.Select(context.Background(), "Procurement")
		require.NoError(t, err)
		assert.Nil(t, contact)
	})

	t.Run("team match is case insensitive", func(t *testing.T) {
		tickets := &fakeTickets{openCounts: map[string]int{"Erin": 0}}
		selector := NewSpecialistSelector(&fakeDirectory{users: users}, tickets, logger.NewNoOpLogger())

		contact, err := selector.Select(context.Background(), "ar")
		require.NoError(t, err)
		require.NotNil(t, contact)
		assert.Equal(t, "Erin", contact.Name)
	})
}

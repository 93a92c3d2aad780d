package contact

import (
	"testing"
	"time"

	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
	"github.com/stretchr/testify/assert"
)

func TestContact_Validate(t *testing.T) {
	assert.NoError(t, Contact{Name: "Ada"}.Validate())
	assert.NoError(t, Contact{Name: "Ada", Email: "Ada Lovelace <ada@example.com>"}.Validate())
	assert.ErrorIs(t, Contact{}.Validate(), record.ErrValidation)
	assert.ErrorIs(t, Contact{Name: "Ada", Email: "not-an-address"}.Validate(), record.ErrValidation)
}

func TestContact_RecurringReminderNeedsDate(t *testing.T) {
	c := Contact{
		Meta: record.Meta{Repeat: &recurrence.Spec{Frequency: recurrence.Monthly, Occurrences: 3}},
		Name: "Grace",
	}
	assert.ErrorIs(t, c.Validate(), record.ErrValidation)

	c.LastContacted = recurrence.NewDate(2024, time.January, 15)
	assert.NoError(t, c.Validate())
}

func TestContact_SortsCaseInsensitively(t *testing.T) {
	assert.Equal(t, Contact{Name: "Ada"}.SortKey(), Contact{Name: "ada"}.SortKey())
}

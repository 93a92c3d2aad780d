package contact

import (
	"net/mail"
	"strings"

	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
)

// Contact is a person tracked in the relationships module.
type Contact struct {
	record.Meta
	Name          string          `json:"name"`
	Email         string          `json:"email,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	Company       string          `json:"company,omitempty"`
	LastContacted recurrence.Date `json:"lastContacted"`
	Notes         string          `json:"notes,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
}

func (c Contact) RecordDate() recurrence.Date { return c.LastContacted }
func (c Contact) SortKey() string             { return strings.ToLower(c.Name) }

func (c Contact) WithId(id string) Contact {
	c.Id = id
	return c
}

func (c Contact) WithDate(d recurrence.Date) Contact {
	c.LastContacted = d
	return c
}

func (c Contact) WithLink(l record.Link) Contact {
	c.Meta = c.Meta.Linked(l)
	return c
}

func (c Contact) Validate() error {
	if err := c.ValidateRecurrence(c.RecordDate()); err != nil {
		return err
	}
	if strings.TrimSpace(c.Name) == "" {
		return record.Invalid("name", "is required")
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return record.Invalid("email", "is not a valid address")
		}
	}
	if !c.LastContacted.IsZero() && !c.LastContacted.Valid() {
		return record.Invalid("lastContacted", "is not a valid calendar date")
	}
	if c.LastContacted.IsZero() && c.Recurrence().Count() > 1 {
		return record.Invalid("lastContacted", "is required for recurring reminders")
	}
	return nil
}

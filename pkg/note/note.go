package note

import (
	"strings"

	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
)

type Note struct {
	record.Meta
	Title  string          `json:"title"`
	Body   string          `json:"body"`
	Date   recurrence.Date `json:"date"`
	Pinned bool            `json:"pinned"`
	Tags   []string        `json:"tags,omitempty"`
}

func (n Note) RecordDate() recurrence.Date { return n.Date }
func (n Note) SortKey() string             { return n.Title }

func (n Note) WithId(id string) Note {
	n.Id = id
	return n
}

func (n Note) WithDate(d recurrence.Date) Note {
	n.Date = d
	return n
}

func (n Note) WithLink(l record.Link) Note {
	n.Meta = n.Meta.Linked(l)
	return n
}

func (n Note) Validate() error {
	if err := n.ValidateRecurrence(n.RecordDate()); err != nil {
		return err
	}
	if err := record.ValidateDate("date", n.Date); err != nil {
		return err
	}
	if strings.TrimSpace(n.Title) == "" && strings.TrimSpace(n.Body) == "" {
		return record.Invalid("body", "title or body is required")
	}
	return nil
}

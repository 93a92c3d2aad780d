package event_bus

import (
	"encoding/json"
)

const (
	RecordCreated EventType = "record.created"
	RecordUpdated EventType = "record.updated"
	RecordDeleted EventType = "record.deleted"
	NoticeRaised  EventType = "notice.raised"
)

// RecordChanged is the payload of the record.* events published by the document service.
type RecordChanged struct {
	UserId   int
	Kind     string
	Id       string
	Previous json.RawMessage
	Current  json.RawMessage
}

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-visible message raised by a client record store instead of an error.
type Notice struct {
	Level   NoticeLevel
	Kind    string
	Code    string
	Message string
}

// Package protocol defines the messages exchanged with the browser
// extension and routes them to the capture engine.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/neilberkman/researchtrail/internal/core/capture"
)

// MessageType enumerates all supported extension -> host messages
type MessageType string

const (
	TypeStartSession       MessageType = "startSession"
	TypeStopSession        MessageType = "stopSession"
	TypeGetCurrentSession  MessageType = "getCurrentSession"
	TypeGetAllSessions     MessageType = "getAllSessions"
	TypeGetSessionMarkdown MessageType = "getSessionMarkdown"
	TypeExportSession      MessageType = "exportSession"
	TypeSaveNotes          MessageType = "saveNotes"
	TypeLoadNotes          MessageType = "loadNotes"
	TypeDeleteSession      MessageType = "deleteSession"
	TypeDeleteAllSessions  MessageType = "deleteAllSessions"

	// Browser events forwarded by the extension's background script
	TypeNavigationCommitted MessageType = "navigationCommitted"
	TypeTitleChanged        MessageType = "titleChanged"
	TypeLoadComplete        MessageType = "loadComplete"
	TypeLoadFailed          MessageType = "loadFailed"
)

// ErrUnknownOperation is returned for message types outside the protocol
var ErrUnknownOperation = errors.New("unknown operation")

// ErrInvalidRequest is returned for malformed messages
var ErrInvalidRequest = errors.New("invalid request")

// Request is implemented by every decoded message
type Request interface {
	GetType() MessageType
}

// StartSessionRequest starts a new research session
type StartSessionRequest struct {
	TopicName string `json:"topicName"`
}

// GetType implements Request.
func (StartSessionRequest) GetType() MessageType { return TypeStartSession }

// StopSessionRequest stops the active session
type StopSessionRequest struct{}

// GetType implements Request.
func (StopSessionRequest) GetType() MessageType { return TypeStopSession }

// GetCurrentSessionRequest returns the active session
type GetCurrentSessionRequest struct{}

// GetType implements Request.
func (GetCurrentSessionRequest) GetType() MessageType { return TypeGetCurrentSession }

// GetAllSessionsRequest returns the archived sessions
type GetAllSessionsRequest struct{}

// GetType implements Request.
func (GetAllSessionsRequest) GetType() MessageType { return TypeGetAllSessions }

// GetSessionMarkdownRequest renders an archived session
type GetSessionMarkdownRequest struct {
	SessionID string `json:"sessionId"`
}

// GetType implements Request.
func (GetSessionMarkdownRequest) GetType() MessageType { return TypeGetSessionMarkdown }

// ExportSessionRequest writes an archived session to the export directory
type ExportSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// GetType implements Request.
func (ExportSessionRequest) GetType() MessageType { return TypeExportSession }

// SaveNotesRequest replaces a session's notes
type SaveNotesRequest struct {
	SessionID string `json:"sessionId"`
	Content   string `json:"content"`
}

// GetType implements Request.
func (SaveNotesRequest) GetType() MessageType { return TypeSaveNotes }

// LoadNotesRequest reads a session's notes
type LoadNotesRequest struct {
	SessionID string `json:"sessionId"`
}

// GetType implements Request.
func (LoadNotesRequest) GetType() MessageType { return TypeLoadNotes }

// DeleteSessionRequest removes an archived session and its notes
type DeleteSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// GetType implements Request.
func (DeleteSessionRequest) GetType() MessageType { return TypeDeleteSession }

// DeleteAllSessionsRequest clears the history and all notes
type DeleteAllSessionsRequest struct{}

// GetType implements Request.
func (DeleteAllSessionsRequest) GetType() MessageType { return TypeDeleteAllSessions }

// NavigationCommittedEvent reports a committed navigation
type NavigationCommittedEvent struct {
	capture.NavigationEvent
}

// GetType implements Request.
func (NavigationCommittedEvent) GetType() MessageType { return TypeNavigationCommitted }

// TitleChangedEvent reports a tab title update
type TitleChangedEvent struct {
	capture.TitleEvent
}

// GetType implements Request.
func (TitleChangedEvent) GetType() MessageType { return TypeTitleChanged }

// LoadCompleteEvent reports that a tab finished loading. loadFailed
// messages decode to this type with Failed set.
type LoadCompleteEvent struct {
	capture.LoadEvent
}

// GetType implements Request.
func (e LoadCompleteEvent) GetType() MessageType {
	if e.Failed {
		return TypeLoadFailed
	}
	return TypeLoadComplete
}

type envelope struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"requestId,omitempty"`
}

// Decode converts raw JSON into a typed request. The request id is
// returned even when decoding the body fails so the reply can be matched.
func Decode(data []byte) (Request, string, error) {
	var base envelope
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var req Request
	var err error
	switch base.Type {
	case TypeStartSession:
		req, err = decodeAs[StartSessionRequest](data)
	case TypeStopSession:
		req, err = decodeAs[StopSessionRequest](data)
	case TypeGetCurrentSession:
		req, err = decodeAs[GetCurrentSessionRequest](data)
	case TypeGetAllSessions:
		req, err = decodeAs[GetAllSessionsRequest](data)
	case TypeDeleteAllSessions:
		req, err = decodeAs[DeleteAllSessionsRequest](data)
	case TypeGetSessionMarkdown:
		var r GetSessionMarkdownRequest
		if r, err = decodeAs[GetSessionMarkdownRequest](data); err == nil {
			err = requireSessionID(base.Type, r.SessionID)
		}
		req = r
	case TypeExportSession:
		var r ExportSessionRequest
		if r, err = decodeAs[ExportSessionRequest](data); err == nil {
			err = requireSessionID(base.Type, r.SessionID)
		}
		req = r
	case TypeSaveNotes:
		var r SaveNotesRequest
		if r, err = decodeAs[SaveNotesRequest](data); err == nil {
			err = requireSessionID(base.Type, r.SessionID)
		}
		req = r
	case TypeLoadNotes:
		var r LoadNotesRequest
		if r, err = decodeAs[LoadNotesRequest](data); err == nil {
			err = requireSessionID(base.Type, r.SessionID)
		}
		req = r
	case TypeDeleteSession:
		var r DeleteSessionRequest
		if r, err = decodeAs[DeleteSessionRequest](data); err == nil {
			err = requireSessionID(base.Type, r.SessionID)
		}
		req = r
	case TypeNavigationCommitted:
		req, err = decodeAs[NavigationCommittedEvent](data)
	case TypeTitleChanged:
		req, err = decodeAs[TitleChangedEvent](data)
	case TypeLoadComplete, TypeLoadFailed:
		var r LoadCompleteEvent
		r, err = decodeAs[LoadCompleteEvent](data)
		if base.Type == TypeLoadFailed {
			r.Failed = true
		}
		req = r
	default:
		return nil, base.RequestID, fmt.Errorf("%w: %q", ErrUnknownOperation, base.Type)
	}

	if err != nil {
		return nil, base.RequestID, err
	}
	return req, base.RequestID, nil
}

func decodeAs[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return v, nil
}

func requireSessionID(t MessageType, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s requires sessionId", ErrInvalidRequest, t)
	}
	return nil
}

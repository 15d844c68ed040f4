package protocol

import (
	"context"
	"fmt"
	"log"

	"github.com/neilberkman/researchtrail/internal/core/capture"
	"github.com/neilberkman/researchtrail/internal/core/models"
)

// Engine is the subset of the capture engine the router drives
type Engine interface {
	StartSession(ctx context.Context, topicName string) (*models.Session, error)
	StopSession(ctx context.Context) (*models.Session, error)
	CurrentSession(ctx context.Context) (*models.Session, error)
	Sessions(ctx context.Context) ([]models.Session, error)
	SessionMarkdown(ctx context.Context, sessionID string) (string, error)
	ExportSession(ctx context.Context, sessionID string) (string, error)
	SaveNotes(ctx context.Context, sessionID, content string) error
	LoadNotes(ctx context.Context, sessionID string) (string, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteAllSessions(ctx context.Context) error
	HandleNavigation(ctx context.Context, ev capture.NavigationEvent) (bool, error)
	HandleTitleChange(ctx context.Context, ev capture.TitleEvent) (bool, error)
	HandleLoadComplete(ctx context.Context, ev capture.LoadEvent) (bool, error)
}

// Router dispatches decoded messages to the engine
type Router struct {
	engine Engine
}

// NewRouter creates a router over engine
func NewRouter(engine Engine) *Router {
	return &Router{engine: engine}
}

// Dispatch handles one raw message and always returns a response
func (r *Router) Dispatch(ctx context.Context, data []byte) (resp Response) {
	req, requestID, err := Decode(data)
	defer func() {
		if p := recover(); p != nil {
			log.Printf("panic handling message: %v", p)
			resp = Failure(fmt.Errorf("internal error: %v", p))
		}
		resp.RequestID = requestID
	}()

	if err != nil {
		return Failure(err)
	}

	payload, err := r.Handle(ctx, req)
	if err != nil {
		return Failure(err)
	}
	return Success(payload)
}

// Handle executes a typed request and returns the response payload
func (r *Router) Handle(ctx context.Context, req Request) (map[string]interface{}, error) {
	switch m := req.(type) {
	case StartSessionRequest:
		s, err := r.engine.StartSession(ctx, m.TopicName)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"currentSession": s}, nil

	case StopSessionRequest:
		finished, err := r.engine.StopSession(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"finished": finished}, nil

	case GetCurrentSessionRequest:
		s, err := r.engine.CurrentSession(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"currentSession": s}, nil

	case GetAllSessionsRequest:
		sessions, err := r.engine.Sessions(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"sessions": sessions}, nil

	case GetSessionMarkdownRequest:
		md, err := r.engine.SessionMarkdown(ctx, m.SessionID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"markdown": md}, nil

	case ExportSessionRequest:
		path, err := r.engine.ExportSession(ctx, m.SessionID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"path": path}, nil

	case SaveNotesRequest:
		return nil, r.engine.SaveNotes(ctx, m.SessionID, m.Content)

	case LoadNotesRequest:
		content, err := r.engine.LoadNotes(ctx, m.SessionID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"content": content}, nil

	case DeleteSessionRequest:
		return nil, r.engine.DeleteSession(ctx, m.SessionID)

	case DeleteAllSessionsRequest:
		return nil, r.engine.DeleteAllSessions(ctx)

	case NavigationCommittedEvent:
		added, err := r.engine.HandleNavigation(ctx, m.NavigationEvent)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"recorded": added}, nil

	case TitleChangedEvent:
		changed, err := r.engine.HandleTitleChange(ctx, m.TitleEvent)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"updated": changed}, nil

	case LoadCompleteEvent:
		scheduled, err := r.engine.HandleLoadComplete(ctx, m.LoadEvent)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"enriching": scheduled}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, req.GetType())
	}
}

package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"mime"
	"path/filepath"

	"github.com/ironsheep/sprite-avatar-mcp/internal/avatar"
	"github.com/ironsheep/sprite-avatar-mcp/internal/imaging"
)

// === Store Operation Handlers ===

type storeKeyArgs struct {
	Key string `json:"key"`
}

func (s *Server) handleStoreGet(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a storeKeyArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	data, err := s.store.Get(ctx, a.Key)
	if err != nil {
		return nil, err
	}

	mimeType := mime.TypeByExtension(filepath.Ext(a.Key))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return map[string]interface{}{
		"key":         a.Key,
		"size_bytes":  len(data),
		"mime_type":   mimeType,
		"data_base64": base64.StdEncoding.EncodeToString(data),
	}, nil
}

func (s *Server) handleStoreDelete(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a storeKeyArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, a.Key); err != nil {
		return nil, err
	}
	return map[string]interface{}{"deleted": a.Key}, nil
}

func (s *Server) handleStoreClear(ctx context.Context) (interface{}, error) {
	if err := s.store.Clear(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("store cleared")
	return map[string]interface{}{"cleared": true}, nil
}

// === Session Operation Handlers ===

// sessionSaveArgs uses pointers so omitted fields keep their saved values.
type sessionSaveArgs struct {
	SourceURL    *string `json:"source_url"`
	Background   *string `json:"background"`
	ScalePercent *int    `json:"scale_percent"`
	Caption      *string `json:"caption"`
	Stroke       *bool   `json:"stroke"`
}

func (a sessionSaveArgs) apply(sess *avatar.Session) error {
	if a.SourceURL != nil {
		sess.SourceURL = *a.SourceURL
	}
	if a.Background != nil {
		mode, err := imaging.ParseBackgroundMode(*a.Background)
		if err != nil {
			return err
		}
		sess.Params.Background = mode
	}
	if a.ScalePercent != nil {
		sess.Params.ScalePercent = *a.ScalePercent
	}
	if a.Caption != nil {
		sess.Params.Caption = *a.Caption
	}
	if a.Stroke != nil {
		sess.Params.Stroke = *a.Stroke
	}
	return nil
}

func (s *Server) handleSessionSave(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sessionSaveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	sess, _, err := avatar.LoadSession(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	if err := a.apply(&sess); err != nil {
		return nil, err
	}
	return avatar.SaveSession(ctx, s.sessions, sess, s.now())
}

func (s *Server) handleSessionLoad(ctx context.Context) (interface{}, error) {
	sess, found, err := avatar.LoadSession(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"found":   found,
		"session": sess,
	}, nil
}

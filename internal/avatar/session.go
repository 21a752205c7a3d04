package avatar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ironsheep/sprite-avatar-mcp/internal/store"
)

// SessionKey is the store key the wizard state lives under.
const SessionKey = "session.json"

// Session is the wizard state carried between steps: which sprite sheet is
// being worked on and the parameters chosen so far.
type Session struct {
	SourceURL string    `json:"source_url"`
	Params    Params    `json:"params"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession starts a session for source with default parameters.
func NewSession(source string) Session {
	return Session{SourceURL: source, Params: DefaultParams()}
}

// SaveSession writes sess to s, stamping UpdatedAt.
func SaveSession(ctx context.Context, s store.Store, sess Session, now time.Time) (Session, error) {
	if err := sess.Params.Validate(); err != nil {
		return Session{}, err
	}
	sess.UpdatedAt = now.UTC()

	data, err := json.Marshal(sess)
	if err != nil {
		return Session{}, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.Put(ctx, SessionKey, data); err != nil {
		return Session{}, fmt.Errorf("failed to save session: %w", err)
	}
	return sess, nil
}

// LoadSession reads the saved session. With nothing saved yet it returns a
// fresh session with default parameters and found set to false.
func LoadSession(ctx context.Context, s store.Store) (sess Session, found bool, err error) {
	data, err := s.Get(ctx, SessionKey)
	if errors.Is(err, store.ErrNotFound) {
		return NewSession(""), false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("failed to load session: %w", err)
	}

	sess = NewSession("")
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, false, fmt.Errorf("%w: corrupt session: %v", store.ErrStoreFailure, err)
	}
	if err := sess.Params.Validate(); err != nil {
		return Session{}, false, fmt.Errorf("saved session: %w", err)
	}
	return sess, true, nil
}

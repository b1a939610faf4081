package uploader

import "github.com/firlift/firlift/constants"

// Session is the transient per-transaction state. It is owned exclusively by
// the Orchestrator and reset when a new submit begins. Every key is always on
// the wire; front-end decoders rely on that.
type Session struct {
	Status   constants.UploadStatus `json:"status"`
	Progress int                    `json:"progress"` // 0-100
	Error    string                 `json:"error"`
}

// NewSession returns an idle session.
func NewSession() Session {
	return Session{Status: constants.UploadStatusIdle}
}

package mail

import (
	"errors"
	"fmt"
)

// AuthError indicates that credentials were rejected, or that the
// connection attempt made during login failed. No session exists after
// an AuthError.
type AuthError struct {
	Username string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.Username, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// ConnectionError wraps a transport, TLS, or authentication failure
// raised during an already-established session's operation. The layers
// above do not distinguish the underlying causes further.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("imap connection to %s failed: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err wraps a ConnectionError.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// FolderNotFoundError indicates that a named folder does not exist on
// the server.
type FolderNotFoundError struct {
	Folder string
}

func (e *FolderNotFoundError) Error() string {
	return fmt.Sprintf("folder %q not found", e.Folder)
}

// IsFolderNotFound reports whether err wraps a FolderNotFoundError.
func IsFolderNotFound(err error) bool {
	var nfErr *FolderNotFoundError
	return errors.As(err, &nfErr)
}

// RenderError indicates that a message body could not be sanitized.
// It never escapes the renderer: callers receive an escaped plain-text
// fallback instead.
type RenderError struct {
	Reason string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering message body: %s", e.Reason)
}

// MessageNotFoundError indicates that a UID does not exist within the
// folder it was addressed in.
type MessageNotFoundError struct {
	Folder string
	UID    uint32
}

func (e *MessageNotFoundError) Error() string {
	return fmt.Sprintf("message %d not found in %q", e.UID, e.Folder)
}

// IsMessageNotFound reports whether err wraps a MessageNotFoundError.
func IsMessageNotFound(err error) bool {
	var nfErr *MessageNotFoundError
	return errors.As(err, &nfErr)
}

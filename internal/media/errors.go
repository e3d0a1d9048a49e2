package media

import "errors"

var (
	// ErrDownloadFailed indicates the platform media could not be fetched.
	ErrDownloadFailed = errors.New("media download failed")
	// ErrNotConfigured indicates a credential needed for the call is absent.
	ErrNotConfigured = errors.New("media provider not configured")
	// ErrAssetTooLarge indicates the payload exceeds the configured max asset size.
	ErrAssetTooLarge = errors.New("media asset too large")
	// ErrPathTraversal indicates a spool path escaped the spool directory.
	ErrPathTraversal = errors.New("path traversal is forbidden")
	// ErrEmptyPayload indicates the platform returned zero bytes.
	ErrEmptyPayload = errors.New("media payload is empty")
)

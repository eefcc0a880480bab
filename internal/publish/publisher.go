// Package publish defines the boundary to the external workspace tool
// that finished articles can be pushed to.
package publish

import (
	"context"
	"errors"
)

// Sentinel errors returned by Publisher implementations.
var (
	// ErrNotAuthorized indicates the backend session is missing or
	// expired; the user must redo the consent flow out of band.
	ErrNotAuthorized = errors.New("workspace authorization required")

	// ErrPublishFailed indicates the backend rejected or failed the
	// publish request.
	ErrPublishFailed = errors.New("publish failed")
)

// Workspace describes the authorized workspace returned by the
// auth-ensure probe.
type Workspace struct {
	Authed        bool   `json:"authed"`
	WorkspaceName string `json:"workspace_name"`
	WorkspaceID   string `json:"workspace_id"`
}

// Target is one candidate destination (a page or database) an article
// can be published into.
type Target struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Receipt identifies the created page after a successful publish.
type Receipt struct {
	PageID string `json:"page_id"`
	URL    string `json:"url,omitempty"`
}

// Request carries one publish call: the destination target, the page
// title, and the article body as markdown block text.
type Request struct {
	Target string
	Title  string
	Blocks string
}

// Publisher is the interface to the workspace backend. The interactive
// OAuth consent flow is out of scope; EnsureAuth only probes whether a
// valid session exists.
type Publisher interface {
	// EnsureAuth verifies the session and returns workspace info.
	// Returns ErrNotAuthorized when no valid session exists.
	EnsureAuth(ctx context.Context) (*Workspace, error)

	// Search lists candidate publish targets matching the query.
	// An empty query lists recent targets.
	Search(ctx context.Context, query string) ([]Target, error)

	// Publish creates a page under the target and returns its receipt.
	Publish(ctx context.Context, req Request) (*Receipt, error)
}

package types

import "context"

// TokenKind discriminates the variants of a TokenEvent
type TokenKind int

const (
	// TokenText is a fragment of generated text
	TokenText TokenKind = iota
	// TokenDiagnostic is non-text collaborator output that must not reach the client
	TokenDiagnostic
)

// String returns the variant name
func (k TokenKind) String() string {
	switch k {
	case TokenText:
		return "text"
	case TokenDiagnostic:
		return "diagnostic"
	default:
		return "unknown"
	}
}

// DiagnosticType tags the origin of a diagnostic event
type DiagnosticType string

const (
	DiagnosticRole      DiagnosticType = "role"
	DiagnosticFinish    DiagnosticType = "finish"
	DiagnosticUsage     DiagnosticType = "usage"
	DiagnosticProvider  DiagnosticType = "provider"
	DiagnosticLogin     DiagnosticType = "login"
	DiagnosticMalformed DiagnosticType = "malformed"
	DiagnosticEmpty     DiagnosticType = "empty"
)

// Diagnostic carries opaque collaborator metadata
type Diagnostic struct {
	Type DiagnosticType         `json:"type"`
	Data map[string]interface{} `json:"data,omitempty"`
	Raw  string                 `json:"raw,omitempty"`
}

// RequiresUserAction reports whether the collaborator asked for user interaction
// (for example a login prompt).
func (d Diagnostic) RequiresUserAction() bool {
	return d.Type == DiagnosticLogin
}

// TokenEvent is a single unit emitted by a TokenStream.
// Exactly one of Text or Diagnostic is meaningful, selected by Kind.
type TokenEvent struct {
	Kind       TokenKind
	Text       string
	Diagnostic *Diagnostic
}

// TextFragment builds a text variant
func TextFragment(text string) TokenEvent {
	return TokenEvent{Kind: TokenText, Text: text}
}

// DiagnosticEvent builds a diagnostic variant
func DiagnosticEvent(d Diagnostic) TokenEvent {
	return TokenEvent{Kind: TokenDiagnostic, Diagnostic: &d}
}

// TokenStream yields token events in emission order.
// Next returns io.EOF once the collaborator has finished; any other error is terminal.
type TokenStream interface {
	Next() (TokenEvent, error)
	Close() error
}

// ChatProvider produces a streamed completion for a single user prompt
type ChatProvider interface {
	Name() string
	StreamChat(ctx context.Context, prompt string) (TokenStream, error)
}

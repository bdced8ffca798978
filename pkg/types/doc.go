// Package types defines the collaborator interfaces and data structures shared by the
// relay, the image forwarder and the provider clients.
//
// # Collaborators
//
// A ChatProvider turns a prompt into a TokenStream. Streams yield TokenEvents, a tagged
// variant that is either a text fragment or a diagnostic (provider metadata, role
// announcements, usage, login prompts). Consumers switch on TokenEvent.Kind rather than
// inspecting dynamic types.
//
// An ImageGenerator turns an ImageRequest into an ImageResult holding raw image bytes.
//
// # Errors
//
// Provider clients report failures as *ProviderError. Transport failures match ErrTransport
// and malformed or empty image responses match ErrNoImageData under errors.Is.
package types

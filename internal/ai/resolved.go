package ai

import "context"

// ResolveFunc builds a provider from the settings current at call time.
type ResolveFunc func(ctx context.Context) (ChatProvider, error)

// Resolved defers provider construction to each call, so runtime settings
// changes (key, model, provider) apply immediately without restarts.
type Resolved struct {
	Resolve ResolveFunc
}

func (r *Resolved) Chat(ctx context.Context, messages []Message) (string, error) {
	p, err := r.Resolve(ctx)
	if err != nil {
		return "", err
	}
	return p.Chat(ctx, messages)
}

func (r *Resolved) ChatJSON(ctx context.Context, messages []Message) (string, error) {
	p, err := r.Resolve(ctx)
	if err != nil {
		return "", err
	}
	if jp, ok := p.(JSONChatProvider); ok {
		return jp.ChatJSON(ctx, messages)
	}
	return p.Chat(ctx, messages)
}

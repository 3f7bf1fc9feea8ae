package usecase

import (
	"context"
	"fmt"
	"strings"

	"voice-agent/internal/resilience"
	"voice-agent/internal/session"
	"voice-agent/internal/voice"
	"voice-agent/pkg/llmprovider"
)

const replyPromptTemplate = `You are %s, a helpful voice assistant. The user is speaking to you
out loud, so keep replies short, conversational, and free of markup.
Answer in one or two sentences.`

// cannedReplies are the local degradation path when language
// generation is unavailable. They keep the conversation alive without
// pretending to understand more than the keyword intent tells us.
var cannedReplies = map[string]string{
	voice.IntentQuestion:  "I can't look that up right now, but I heard you. Could you try again in a moment?",
	voice.IntentTask:      "I've noted that down and will get to it as soon as I'm back online.",
	voice.IntentSmallTalk: "Good to hear from you! I'm a bit slow right now, but I'm listening.",
	voice.IntentGoodbye:   "Goodbye! Talk to you soon.",
}

// generateReply produces the assistant's reply. Generation failures
// degrade to a canned reply keyed by intent: losing eloquence is
// better than losing the turn.
func (uc *implUseCase) generateReply(ctx context.Context, userID string, sess session.Session, topics []string, transcript, intent string) string {
	if d := uc.limiter.AdmitUpstream(userID, depGeneration); !d.Allowed {
		uc.l.Infof(ctx, "voice: upstream budget exhausted for user %s, using canned reply", userID)
		return cannedReply(intent)
	}

	instruction := fmt.Sprintf(replyPromptTemplate, uc.cfg.AssistantName)
	if len(topics) > 0 {
		instruction += "\nRecent conversation topics: " + strings.Join(topics, ", ") + "."
	}

	messages := historyMessages(sess)
	messages = append(messages, llmprovider.Message{Role: "user", Text: transcript})

	resp, err := resilience.Execute(ctx, uc.res, depGeneration,
		func(ctx context.Context) (*llmprovider.Response, error) {
			return uc.generator.GenerateContent(ctx, &llmprovider.Request{
				SystemInstruction: instruction,
				Messages:          messages,
				Temperature:       0.7,
			})
		},
		func(ctx context.Context, cause error) (*llmprovider.Response, error) {
			return &llmprovider.Response{Text: cannedReply(intent)}, nil
		},
		uc.cfg.ExecuteOpts,
	)
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		return cannedReply(intent)
	}
	return strings.TrimSpace(resp.Text)
}

func cannedReply(intent string) string {
	if reply, ok := cannedReplies[intent]; ok {
		return reply
	}
	return cannedReplies[voice.IntentSmallTalk]
}

// historyMessages converts session turns to provider messages.
func historyMessages(sess session.Session) []llmprovider.Message {
	messages := make([]llmprovider.Message, 0, len(sess.Turns)+1)
	for _, turn := range sess.Turns {
		messages = append(messages, llmprovider.Message{
			Role: string(turn.Role),
			Text: turn.Text,
		})
	}
	return messages
}

package usecase

import (
	"context"
	"strings"

	"voice-agent/internal/resilience"
	"voice-agent/internal/voice"
	"voice-agent/pkg/llmprovider"
)

const intentPrompt = `Classify the user's utterance into exactly one of these labels:
question, task, small_talk, goodbye.
Respond with only the label, nothing else.`

// detectIntent classifies the transcript. The language-generation
// upstream is metered per user; when the upstream budget is exhausted
// or the call fails, a local keyword classifier takes over.
func (uc *implUseCase) detectIntent(ctx context.Context, userID, transcript string) string {
	if d := uc.limiter.AdmitUpstream(userID, depGeneration); !d.Allowed {
		uc.l.Infof(ctx, "voice: upstream budget exhausted for user %s, using keyword intent", userID)
		return keywordIntent(transcript)
	}

	resp, err := resilience.Execute(ctx, uc.res, depGeneration,
		func(ctx context.Context) (*llmprovider.Response, error) {
			return uc.generator.GenerateContent(ctx, &llmprovider.Request{
				SystemInstruction: intentPrompt,
				Messages:          []llmprovider.Message{{Role: "user", Text: transcript}},
				MaxTokens:         8,
			})
		},
		nil,
		uc.cfg.ExecuteOpts,
	)
	if err != nil {
		uc.l.Warnf(ctx, "voice: intent detection degraded to keywords: %v", err)
		return keywordIntent(transcript)
	}

	intent := strings.ToLower(strings.TrimSpace(resp.Text))
	switch intent {
	case voice.IntentQuestion, voice.IntentTask, voice.IntentSmallTalk, voice.IntentGoodbye:
		return intent
	}
	return keywordIntent(transcript)
}

// keywordIntent is the local fallback classifier.
func keywordIntent(transcript string) string {
	t := strings.ToLower(transcript)

	for _, phrase := range closingPhrases {
		if strings.Contains(t, phrase) {
			return voice.IntentGoodbye
		}
	}

	taskMarkers := []string{"remind me", "schedule", "add ", "create ", "set up", "book ", "cancel "}
	for _, marker := range taskMarkers {
		if strings.Contains(t, marker) {
			return voice.IntentTask
		}
	}

	questionWords := []string{"what", "when", "where", "who", "why", "how", "which", "can you", "could you", "do i", "is there"}
	for _, w := range questionWords {
		if strings.HasPrefix(t, w) {
			return voice.IntentQuestion
		}
	}
	if strings.HasSuffix(strings.TrimSpace(t), "?") {
		return voice.IntentQuestion
	}

	return voice.IntentSmallTalk
}

// closingPhrases end a conversation when found in either the user's
// utterance or the assistant's reply.
var closingPhrases = []string{
	"goodbye", "good bye", "bye bye", "see you later",
	"talk to you later", "that's all", "that is all", "thanks, bye",
}

// shouldContinue reports whether the conversation is expected to go on.
func shouldContinue(intent, reply string) bool {
	if intent == voice.IntentGoodbye {
		return false
	}
	r := strings.ToLower(reply)
	for _, phrase := range closingPhrases {
		if strings.Contains(r, phrase) {
			return false
		}
	}
	return true
}

// suggestionsFor maps a detected intent to next-action hints.
func suggestionsFor(intent string) []string {
	switch intent {
	case voice.IntentQuestion:
		return []string{"ask a follow-up question", "request more detail"}
	case voice.IntentTask:
		return []string{"confirm the task details", "add another task", "review your schedule"}
	case voice.IntentGoodbye:
		return nil
	default:
		return []string{"ask a question", "create a task"}
	}
}

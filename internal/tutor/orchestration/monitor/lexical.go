package monitor

import (
	"strings"

	"github.com/tutor-orchestrator/server/internal/tutor/model"
)

var frustrationMarkers = []string{
	"not helping",
	"just give me the answer",
	"doesn't make sense",
	"does not make sense",
	"this is useless",
	"i give up",
	"still don't get",
	"still don't understand",
	"frustrat",
	"annoying",
	"waste of time",
}

var sentimentMarkers = []struct {
	sentiment model.SentimentType
	markers   []string
}{
	{model.SentimentConfused, []string{"confused", "i'm lost", "i am lost", "don't understand", "don't get it"}},
	{model.SentimentAnxious, []string{"anxious", "nervous", "worried", "stressed", "overwhelmed", "panic"}},
	{model.SentimentCurious, []string{"curious", "i wonder", "what if", "interesting"}},
	{model.SentimentMotivated, []string{"let's do", "ready to", "i want to learn", "motivated"}},
	{model.SentimentPositive, []string{"thanks", "thank you", "great", "got it", "makes sense", "awesome"}},
}

var depthMarkers = []struct {
	depth   model.Depth
	markers []string
}{
	{model.DepthDeep, []string{"in depth", "in-depth", "deeper", "in detail", "thoroughly", " prove", "the theory behind", "advanced"}},
	{model.DepthGuided, []string{"step by step", "walk me through", "guide me", "give me a hint", "help me work", "show me how"}},
	{model.DepthSurface, []string{"quick", "briefly", "short answer", "tl;dr", "just give me", "summary"}},
}

var intentMarkers = []struct {
	intent  model.IntentType
	markers []string
}{
	{model.IntentCreate, []string{"write", "essay", "draft", "compose", "story", "poem", "create"}},
	{model.IntentEvaluate, []string{"quiz", "test me", "check my", "grade", "review my", "feedback"}},
	{model.IntentSolve, []string{"solve", "calculate", "answer", "homework", "equation", "problem"}},
	{model.IntentOrganize, []string{" plan", "schedule", "organize", "notes", "outline", "mind map"}},
	{model.IntentRegulate, []string{"stressed", "anxious", "overwhelmed", "motivation", "tired", "burned out"}},
	{model.IntentExplore, []string{"what if", "curious", "explore", "resources", "learn more", "i wonder"}},
	{model.IntentUnderstand, []string{"explain", "what is", "what are", "why", "how does", "understand", "meaning of"}},
	{model.IntentInteract, []string{"hello", " hi ", "let's talk", "chat", "discuss", "debate"}},
}

// lexicalSignals is the classifier-free reading of one message.
type lexicalSignals struct {
	intent      model.IntentType
	sentiment   model.SentimentType
	frustration float64
	depth       model.Depth
}

func readLexical(message string) lexicalSignals {
	text := " " + strings.ToLower(message) + " "
	out := lexicalSignals{sentiment: model.SentimentNeutral}

	hits := 0
	for _, m := range frustrationMarkers {
		if strings.Contains(text, m) {
			hits++
		}
	}
	if hits > 0 {
		out.frustration = model.Clamp01(0.5 + 0.25*float64(hits-1))
		out.sentiment = model.SentimentFrustrated
	} else {
		out.sentiment = firstSentiment(text)
	}

	for _, group := range depthMarkers {
		if containsAny(text, group.markers) {
			out.depth = group.depth
			break
		}
	}
	for _, group := range intentMarkers {
		if containsAny(text, group.markers) {
			out.intent = group.intent
			break
		}
	}
	return out
}

func firstSentiment(text string) model.SentimentType {
	for _, group := range sentimentMarkers {
		if containsAny(text, group.markers) {
			return group.sentiment
		}
	}
	return model.SentimentNeutral
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

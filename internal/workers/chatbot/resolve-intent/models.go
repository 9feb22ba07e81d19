// internal/workers/chatbot/resolve-intent/models.go
package resolveintent

type Input struct {
	Utterance string `json:"utterance"`
}

type RankedTopic struct {
	TopicID string `json:"topicId"`
	Score   int    `json:"score"`
}

type Output struct {
	TopicID      string        `json:"topicId"`
	Fallback     bool          `json:"fallback"`
	Score        int           `json:"score"`
	Response     string        `json:"response"`
	QuickReplies []string      `json:"quickReplies"`
	Ranking      []RankedTopic `json:"ranking,omitempty"`
}

package domain

// MessageRole identifies which side of the dialogue a message belongs to.
type MessageRole string

const (
	// MessageRoleUser marks a question typed by the user.
	MessageRoleUser MessageRole = "user"
	// MessageRoleAssistant marks an answer (or failure notice) from the backend.
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is a single turn in the conversation transcript.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// UserMessage builds a user-authored message.
func UserMessage(content string) Message {
	return Message{Role: MessageRoleUser, Content: content}
}

// AssistantMessage builds an assistant-authored message.
func AssistantMessage(content string) Message {
	return Message{Role: MessageRoleAssistant, Content: content}
}

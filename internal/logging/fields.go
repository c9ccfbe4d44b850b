package logging

import "log/slog"

// Common field names for consistent logging across the bot.
const (
	FieldQuestionID     = "question_id"
	FieldAnswerID       = "answer_id"
	FieldActivityID     = "activity_id"
	FieldConversationID = "conversation_id"
	FieldModuleID       = "module_id"
	FieldInvokeName     = "invoke_name"
	FieldUserID         = "user_id"
	FieldError          = "error"
)

// QuestionID returns a slog attribute for a question ID.
func QuestionID(id string) slog.Attr {
	return slog.String(FieldQuestionID, id)
}

// AnswerID returns a slog attribute for an answer ID.
func AnswerID(id string) slog.Attr {
	return slog.String(FieldAnswerID, id)
}

// ActivityID returns a slog attribute for a platform activity ID.
func ActivityID(id string) slog.Attr {
	return slog.String(FieldActivityID, id)
}

// ConversationID returns a slog attribute for a conversation ID.
func ConversationID(id string) slog.Attr {
	return slog.String(FieldConversationID, id)
}

// ModuleID returns a slog attribute for a task module ID.
func ModuleID(id string) slog.Attr {
	return slog.String(FieldModuleID, id)
}

// InvokeName returns a slog attribute for an invoke event name.
func InvokeName(name string) slog.Attr {
	return slog.String(FieldInvokeName, name)
}

// UserID returns a slog attribute for the user ID.
func UserID(id string) slog.Attr {
	return slog.String(FieldUserID, id)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

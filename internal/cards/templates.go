package cards

// Static card templates, authored once and read-only at render time.
// Placeholders of the form {{name}} bind against the data map passed to
// Render; branches bound to absent values are dropped.

// TemplateQuestionSubmitted confirms a new question submission.
var TemplateQuestionSubmitted = map[string]any{
	"type":    "AdaptiveCard",
	"version": "1.2",
	"body": []any{
		map[string]any{
			"type":   "TextBlock",
			"size":   "Medium",
			"weight": "Bolder",
			"text":   "New Question Submitted",
		},
		map[string]any{
			"type":   "TextBlock",
			"text":   "Title: {{title}}",
			"wrap":   true,
			"weight": "Bolder",
		},
		map[string]any{
			"type":     "TextBlock",
			"text":     "Asked by: {{userName}}",
			"wrap":     true,
			"isSubtle": true,
		},
		map[string]any{
			"type":     "TextBlock",
			"text":     "{{timestamp}}",
			"wrap":     true,
			"isSubtle": true,
			"spacing":  "None",
		},
	},
}

// TemplateSubmitConfirmation is the fixed confirmation card rendered for
// the generic "continue" submit outcome.
var TemplateSubmitConfirmation = map[string]any{
	"type":    "AdaptiveCard",
	"version": "1.2",
	"body": []any{
		map[string]any{
			"type":   "TextBlock",
			"size":   "Medium",
			"weight": "Bolder",
			"text":   "Submission received",
		},
		map[string]any{
			"type": "TextBlock",
			"text": "{{results}}",
			"wrap": true,
		},
	},
}

// TemplateAskPrompt invites the user to open the ask-question module.
var TemplateAskPrompt = map[string]any{
	"type":    "AdaptiveCard",
	"version": "1.2",
	"body": []any{
		map[string]any{
			"type":   "TextBlock",
			"text":   "Ask a Question",
			"size":   "Large",
			"weight": "Bolder",
		},
		map[string]any{
			"type": "TextBlock",
			"text": "Click the button below to ask your question using our rich text editor.",
			"wrap": true,
		},
	},
	"actions": []any{
		map[string]any{
			"type":  "Action.Submit",
			"title": "Ask Question",
			"data": map[string]any{
				"msteams":    map[string]any{"type": "task/fetch"},
				"taskModule": "askquestion",
			},
		},
	},
}

// TemplateHelp lists the bot's text commands.
var TemplateHelp = map[string]any{
	"type":    "AdaptiveCard",
	"version": "1.2",
	"body": []any{
		map[string]any{
			"type":   "TextBlock",
			"text":   "Q&A Bot Help",
			"size":   "Large",
			"weight": "Bolder",
		},
		map[string]any{
			"type":   "TextBlock",
			"text":   "Available commands:",
			"weight": "Bolder",
		},
		map[string]any{
			"type": "FactSet",
			"facts": []any{
				map[string]any{"title": "ask", "value": "Create a new question using the rich text editor"},
				map[string]any{"title": "questions", "value": "View recent questions in the current context"},
				map[string]any{"title": "help", "value": "Show this help message"},
			},
		},
		map[string]any{
			"type":    "TextBlock",
			"text":    "Tips:",
			"weight":  "Bolder",
			"spacing": "Medium",
		},
		map[string]any{
			"type": "TextBlock",
			"text": "• You can format your questions with rich text and add images\n• Question owners can mark answers as accepted\n• Click on any question to view its full details and answers",
			"wrap": true,
		},
	},
}

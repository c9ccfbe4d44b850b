package cards

import (
	"fmt"
	"time"
)

// AnswerView is the display form of an answer, already sanitized.
type AnswerView struct {
	AuthorName string
	Body       string
	Accepted   bool
	CreatedAt  time.Time
}

// QuestionView is the display form of a question, already sanitized.
type QuestionView struct {
	ID         string
	Title      string
	Body       string
	AuthorName string
	CreatedAt  time.Time
	AppURL     string
	Answers    []AnswerView
}

const createdBodyPreviewLimit = 150

// QuestionCreatedCard announces a newly created question with a short
// body preview and links to the full question.
func QuestionCreatedCard(v QuestionView) (*RenderedCard, error) {
	preview := v.Body
	if len(preview) > createdBodyPreviewLimit {
		preview = preview[:createdBodyPreviewLimit] + "..."
	}

	template := map[string]any{
		"type":    "AdaptiveCard",
		"version": "1.2",
		"msteams": map[string]any{"width": "Full"},
		"body": []any{
			map[string]any{
				"type":  "Container",
				"style": "emphasis",
				"bleed": true,
				"items": []any{
					map[string]any{
						"type":   "TextBlock",
						"text":   "✨ New Question Posted",
						"size":   "Small",
						"weight": "Bolder",
						"color":  "Accent",
					},
					map[string]any{
						"type":   "TextBlock",
						"text":   "{{title}}",
						"wrap":   true,
						"weight": "Bolder",
						"size":   "Large",
					},
				},
			},
			map[string]any{
				"type":    "Container",
				"spacing": "Medium",
				"items": []any{
					map[string]any{
						"type": "TextBlock",
						"text": "{{preview}}",
						"wrap": true,
						"size": "Medium",
					},
				},
			},
			map[string]any{
				"type":    "Container",
				"spacing": "Small",
				"items": []any{
					map[string]any{
						"type":     "TextBlock",
						"text":     "Posted by {{postedBy}} • {{postedAt}}",
						"wrap":     true,
						"size":     "Small",
						"isSubtle": true,
					},
				},
			},
		},
		"actions": questionActions(v, "View Full Question"),
	}

	data := map[string]any{
		"title":    v.Title,
		"preview":  preview,
		"postedBy": v.AuthorName,
		"postedAt": v.CreatedAt.Format("1/2/2006, 3:04:05 PM"),
	}

	return Render(template, data)
}

// QuestionCard renders the full question card with its answer list. It
// replaces the previously sent card for the same question.
func QuestionCard(v QuestionView) (*RenderedCard, error) {
	heading := "✨ New Question Posted"
	viewTitle := "View Full Question"
	if len(v.Answers) > 0 {
		heading = "✨ Question"
		viewTitle = "View Full Question & Answers"
	}

	body := []any{
		map[string]any{
			"type":    "Container",
			"style":   "emphasis",
			"bleed":   true,
			"spacing": "Large",
			"items": []any{
				map[string]any{
					"type":   "TextBlock",
					"text":   heading,
					"size":   "Small",
					"weight": "Bolder",
					"color":  "Accent",
				},
				map[string]any{
					"type":   "TextBlock",
					"text":   "{{title}}",
					"wrap":   true,
					"weight": "Bolder",
					"size":   "ExtraLarge",
				},
			},
		},
		map[string]any{
			"type":    "Container",
			"spacing": "Medium",
			"items": []any{
				map[string]any{
					"type":     "TextBlock",
					"text":     "Posted by {{postedBy}} • {{postedAt}}",
					"wrap":     true,
					"size":     "Small",
					"isSubtle": true,
				},
			},
		},
		map[string]any{
			"type":    "Container",
			"spacing": "Large",
			"items": []any{
				map[string]any{
					"type": "TextBlock",
					"text": "{{body}}",
					"wrap": true,
					"size": "Medium",
				},
			},
		},
	}

	if len(v.Answers) > 0 {
		body = append(body, map[string]any{
			"type":      "Container",
			"spacing":   "ExtraLarge",
			"separator": true,
			"items": []any{
				map[string]any{
					"type":   "TextBlock",
					"text":   fmt.Sprintf("💬 Answers (%d)", len(v.Answers)),
					"wrap":   true,
					"weight": "Bolder",
					"size":   "Medium",
					"color":  "Accent",
				},
			},
		})
		for i, a := range v.Answers {
			body = append(body, answerContainer(i, a))
		}
	}

	template := map[string]any{
		"type":    "AdaptiveCard",
		"version": "1.2",
		"msteams": map[string]any{"width": "Full"},
		"body":    body,
		"actions": questionActions(v, viewTitle),
	}

	data := map[string]any{
		"title":    v.Title,
		"body":     v.Body,
		"postedBy": v.AuthorName,
		"postedAt": v.CreatedAt.Format("1/2/2006, 3:04:05 PM"),
	}

	return Render(template, data)
}

func answerContainer(index int, a AnswerView) map[string]any {
	label := fmt.Sprintf("Answer %d", index+1)
	color := "Accent"
	style := "default"
	if a.Accepted {
		label = "✅ Accepted Answer"
		color = "Good"
		style = "emphasis"
	}
	spacing := "Large"
	if index == 0 {
		spacing = "Medium"
	}

	return map[string]any{
		"type":      "Container",
		"spacing":   spacing,
		"style":     style,
		"separator": true,
		"items": []any{
			map[string]any{
				"type":   "TextBlock",
				"text":   label,
				"wrap":   true,
				"size":   "Small",
				"weight": "Bolder",
				"color":  color,
			},
			map[string]any{
				"type":     "TextBlock",
				"text":     fmt.Sprintf("%s • %s", a.AuthorName, a.CreatedAt.Format("1/2/2006, 3:04:05 PM")),
				"wrap":     true,
				"size":     "Small",
				"isSubtle": true,
			},
			map[string]any{
				"type": "TextBlock",
				"text": a.Body,
				"wrap": true,
				"size": "Medium",
			},
		},
	}
}

func questionActions(v QuestionView, viewTitle string) []any {
	actions := []any{}
	if v.AppURL != "" {
		actions = append(actions, map[string]any{
			"type":  "Action.OpenUrl",
			"title": "Open in Q&A App",
			"url":   v.AppURL,
			"style": "positive",
		})
	}
	return append(actions, map[string]any{
		"type":  "Action.Submit",
		"title": viewTitle,
		"data": map[string]any{
			"msteams":    map[string]any{"type": "task/fetch"},
			"taskModule": "viewquestion",
			"questionId": v.ID,
		},
	})
}

// RecentQuestionsCard lists the latest questions with links to each.
func RecentQuestionsCard(views []QuestionView) (*RenderedCard, error) {
	body := []any{
		map[string]any{
			"type":   "TextBlock",
			"text":   "Recent Questions",
			"size":   "Large",
			"weight": "Bolder",
		},
	}

	for _, v := range views {
		itemActions := []any{}
		if v.AppURL != "" {
			itemActions = append(itemActions, map[string]any{
				"type":  "Action.OpenUrl",
				"title": "Open in Q&A App",
				"url":   v.AppURL,
			})
		}
		itemActions = append(itemActions, map[string]any{
			"type":  "Action.Submit",
			"title": "View in Teams",
			"data": map[string]any{
				"msteams":    map[string]any{"type": "task/fetch"},
				"taskModule": "viewquestion",
				"questionId": v.ID,
			},
		})

		body = append(body, map[string]any{
			"type":      "Container",
			"separator": true,
			"items": []any{
				map[string]any{
					"type":   "TextBlock",
					"text":   v.Title,
					"wrap":   true,
					"weight": "Bolder",
				},
				map[string]any{
					"type":     "TextBlock",
					"text":     fmt.Sprintf("Posted by %s • %s", v.AuthorName, v.CreatedAt.Format("1/2/2006, 3:04:05 PM")),
					"wrap":     true,
					"size":     "Small",
					"isSubtle": true,
				},
				map[string]any{"type": "ActionSet", "actions": itemActions},
			},
		})
	}

	template := map[string]any{
		"type":    "AdaptiveCard",
		"version": "1.2",
		"body":    body,
		"actions": []any{
			map[string]any{
				"type":  "Action.Submit",
				"title": "Ask a Question",
				"style": "positive",
				"data": map[string]any{
					"msteams":    map[string]any{"type": "task/fetch"},
					"taskModule": "askquestion",
				},
			},
		},
	}

	return Render(template, nil)
}

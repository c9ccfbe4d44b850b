// Package models defines the domain records shared across the bot's packages.
package models

import "time"

// Profile is the author profile attached to questions and answers.
type Profile struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
}

// DisplayName returns the profile's human-readable name, or "Anonymous"
// when no name fields are set.
func (p *Profile) DisplayName() string {
	if p == nil {
		return "Anonymous"
	}
	name := p.FirstName
	if p.LastName != "" {
		if name != "" {
			name += " "
		}
		name += p.LastName
	}
	if name == "" {
		return "Anonymous"
	}
	return name
}

// Answer is a single answer to a question.
type Answer struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question_id"`
	UserID     string    `json:"user_id"`
	Body       string    `json:"body"`
	Accepted   bool      `json:"accepted"`
	CreatedAt  time.Time `json:"created_at"`
	Profile    *Profile  `json:"profile,omitempty"`
}

// Question is a question with its author profile and answer list.
type Question struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Profile   *Profile  `json:"profile,omitempty"`
	Answers   []*Answer `json:"answers"`
}

// CreateQuestionRequest carries the fields needed to create a question.
type CreateQuestionRequest struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	AuthorRef string `json:"author_ref"`
}

// CreateAnswerRequest carries the fields needed to create an answer.
type CreateAnswerRequest struct {
	QuestionID string `json:"question_id"`
	Body       string `json:"body"`
	AuthorRef  string `json:"author_ref"`
}

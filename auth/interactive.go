package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/hlsrip-cli/hlsrip/constant"
	"github.com/hlsrip-cli/hlsrip/log"
	"github.com/hlsrip-cli/hlsrip/open"
)

// Interactive asks the user to log in through the system browser and paste
// the resulting session details.
type Interactive struct {
	// LoginURL is opened in the browser. Empty skips the browser step.
	LoginURL string
	// Target is the page the session is acquired for; it seeds the referer prompt.
	Target string

	// Open and Ask default to the system browser and survey prompts.
	Open func(url string) error
	Ask  func(qs []*survey.Question, response interface{}) error
}

type loginAnswers struct {
	Cookie    string
	UserAgent string `survey:"user_agent"`
	Referer   string
}

// Acquire runs the interactive login.
func (i *Interactive) Acquire(ctx context.Context) (Context, error) {
	openURL, ask := i.Open, i.Ask
	if openURL == nil {
		openURL = open.Start
	}
	if ask == nil {
		ask = func(qs []*survey.Question, response interface{}) error {
			return survey.Ask(qs, response)
		}
	}

	if i.LoginURL != "" {
		fmt.Printf("Log in at %s, then copy the Cookie request header from the browser's network panel.\n", i.LoginURL)
		if err := openURL(i.LoginURL); err != nil {
			log.Warnf("open browser: %s", err)
		}
	}

	questions := []*survey.Question{
		{
			Name:     "cookie",
			Prompt:   &survey.Password{Message: "Cookie header:"},
			Validate: survey.Required,
		},
		{
			Name:   "user_agent",
			Prompt: &survey.Input{Message: "User agent:", Default: constant.UserAgent},
		},
		{
			Name:   "referer",
			Prompt: &survey.Input{Message: "Referer:", Default: i.Target},
		},
	}

	var answers loginAnswers
	if err := ask(questions, &answers); err != nil {
		return Context{}, fmt.Errorf("prompt: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return Context{}, err
	}

	cookie := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(answers.Cookie), "Cookie:"))
	if cookie == "" {
		return Context{}, ErrNoSession
	}

	return Context{
		UserAgent: strings.TrimSpace(answers.UserAgent),
		Referer:   strings.TrimSpace(answers.Referer),
		Cookie:    cookie,
	}.WithDefaults(i.Target), nil
}

// Package assist hands users who do not know their sector over to a human or
// AI-assisted channel.
package assist

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/career-path/internal/career"
	"github.com/spigell/career-path/internal/logger"
)

const (
	ChannelLiveChat = "live-chat"
	ChannelAdvisor  = "advisor"

	// SessionTTL is how long a live-chat hand-off stays open.
	SessionTTL = 5 * time.Minute

	notSpecified = "not specified"
)

// Ticket is the result of a hand-off.
type Ticket struct {
	Channel     string    `json:"channel"`
	URL         string    `json:"url,omitempty"`
	Message     string    `json:"message"`
	RecordID    string    `json:"recordId,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Advice      string    `json:"advice,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

// Handoff passes a stored profile to an external assist channel.
type Handoff interface {
	HandOff(ctx context.Context, rec *career.Record) (*Ticket, error)
}

// Message is the opening message sent to the live-chat operator.
func Message(class, dreamJob string) string {
	class = strings.TrimSpace(class)
	if class == "" {
		class = notSpecified
	}
	dreamJob = strings.TrimSpace(dreamJob)
	if dreamJob == "" {
		dreamJob = notSpecified
	}
	return fmt.Sprintf("The selected class is %s and selected dream job is %s", class, dreamJob)
}

// LiveChat opens a live-chat session for the profile.
type LiveChat struct {
	url    string
	logger *zap.Logger
	now    func() time.Time
}

// NewLiveChat validates the chat widget URL.
func NewLiveChat(chatURL string, log *zap.Logger) (*LiveChat, error) {
	chatURL = strings.TrimSpace(chatURL)
	if chatURL == "" {
		return nil, errors.New("live chat url is required")
	}

	u, err := url.Parse(chatURL)
	if err != nil {
		return nil, fmt.Errorf("parse live chat url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("live chat url %q must be http or https", chatURL)
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &LiveChat{url: u.String(), logger: log, now: time.Now}, nil
}

func (l *LiveChat) HandOff(_ context.Context, rec *career.Record) (*Ticket, error) {
	if rec == nil {
		return nil, errors.New("record is required")
	}

	ticket := &Ticket{
		Channel:   ChannelLiveChat,
		URL:       l.url,
		Message:   Message(rec.CurrentClass, rec.DreamJob),
		RecordID:  rec.ID,
		ExpiresAt: l.now().Add(SessionTTL),
	}

	l.logger.Info("live chat hand-off",
		append(logger.ProfileFields(career.TripleOf(rec.Submission())),
			zap.String("record_id", rec.ID),
			zap.Time("expires_at", ticket.ExpiresAt),
		)...,
	)

	return ticket, nil
}

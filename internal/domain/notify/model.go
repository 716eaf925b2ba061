package notify

import (
	"strings"
	"time"

	apperrors "github.com/yanqian/farmcast/pkg/errors"
)

// Channel names a delivery channel.
type Channel string

const (
	ChannelPush Channel = "push"
	ChannelSMS  Channel = "sms"
)

// Subscription is a registered notifiable device.
type Subscription struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	PlayerID  string    `json:"playerId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RegisterRequest is the payload for device registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	PlayerID string `json:"playerId"`
}

// Validate trims the payload and checks that at least one channel is reachable.
func (r RegisterRequest) Validate() (RegisterRequest, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.PlayerID = strings.TrimSpace(r.PlayerID)
	if r.Name == "" {
		return r, apperrors.Wrap(apperrors.CodeInvalidInput, "name is required", nil)
	}
	if r.Phone == "" && r.PlayerID == "" {
		return r, apperrors.Wrap(apperrors.CodeInvalidInput, "phone or playerId is required", nil)
	}
	return r, nil
}

// Recipients groups addresses per channel.
type Recipients struct {
	PlayerIDs []string
	Phones    []string
}

// Empty reports whether no channel has an address.
func (r Recipients) Empty() bool {
	return len(r.PlayerIDs) == 0 && len(r.Phones) == 0
}

// RecipientsOf splits subscriptions into per-channel address lists, skipping blanks and duplicates.
func RecipientsOf(subs []Subscription) Recipients {
	var out Recipients
	seenPlayers := make(map[string]struct{}, len(subs))
	seenPhones := make(map[string]struct{}, len(subs))
	for _, sub := range subs {
		if id := strings.TrimSpace(sub.PlayerID); id != "" {
			if _, dup := seenPlayers[id]; !dup {
				seenPlayers[id] = struct{}{}
				out.PlayerIDs = append(out.PlayerIDs, id)
			}
		}
		if phone := strings.TrimSpace(sub.Phone); phone != "" {
			if _, dup := seenPhones[phone]; !dup {
				seenPhones[phone] = struct{}{}
				out.Phones = append(out.Phones, phone)
			}
		}
	}
	return out
}

// ChannelFailure describes one failed provider call.
type ChannelFailure struct {
	Channel    Channel `json:"channel"`
	Recipients int     `json:"recipients"`
	Error      string  `json:"error"`
}

// Report summarizes a dispatch. Calls counts provider calls made.
type Report struct {
	Calls     int              `json:"calls"`
	Delivered int              `json:"delivered"`
	Failures  []ChannelFailure `json:"failures,omitempty"`
}

// OK reports whether every provider call succeeded.
func (r Report) OK() bool {
	return len(r.Failures) == 0
}

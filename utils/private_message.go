package utils

import (
	"log"

	"github.com/bwmarrin/discordgo"
)

// DMSender is the slice of the REST client needed to deliver a direct
// message.
type DMSender interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DeliveryResult records the outcome of a direct-message attempt. Delivery
// failure (closed DMs, left guild) is an expected outcome, kept separate
// from the caller's own error path so it never aborts a ledger write or
// role action.
type DeliveryResult struct {
	Delivered bool
	Err       error
}

// SendPrivateMessage delivers a direct message to a user, best-effort.
func SendPrivateMessage(s DMSender, userID, message string) DeliveryResult {
	channel, err := s.UserChannelCreate(userID)
	if err != nil {
		log.Printf("Could not open DM channel with user %s: %v", userID, err)
		return DeliveryResult{Err: err}
	}
	if _, err := s.ChannelMessageSend(channel.ID, message); err != nil {
		log.Printf("Could not deliver DM to user %s: %v", userID, err)
		return DeliveryResult{Err: err}
	}
	return DeliveryResult{Delivered: true}
}

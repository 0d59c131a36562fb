package handlers

import (
	"errors"
	"fmt"
	"log"

	"modbot/bot"
	"modbot/storage"

	"github.com/bwmarrin/discordgo"
)

// HandleHistory serves the message-history lookup: version N of a message,
// zero-indexed, in ascending timestamp order.
func HandleHistory(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := commandOptions(i)
	messageID := data["message_id"].StringValue()

	version := 0
	if opt, ok := data["version"]; ok {
		version = int(opt.IntValue())
	}
	if version < 0 {
		respond(s, i, "Versions start at 0.", true)
		return
	}

	stored, err := storage.GetVersion(b.DB, messageID, version)
	if errors.Is(err, storage.ErrNotFound) {
		respond(s, i, fmt.Sprintf("No version %d stored for message `%s`.", version, messageID), true)
		return
	}
	if err != nil {
		log.Printf("Failed to look up version %d of message %s: %v", version, messageID, err)
		respond(s, i, "History lookup failed.", true)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Message %s, version %d", messageID, version),
		URL:         fmt.Sprintf("https://discord.com/channels/%s/%s/%s", stored.GuildID, stored.ChannelID, messageID),
		Description: stored.Content,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Author", Value: fmt.Sprintf("<@%s>", stored.AuthorID), Inline: true},
			{Name: "Recorded", Value: fmt.Sprintf("<t:%d>", stored.VersionAt), Inline: true},
		},
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}},
	})
	if err != nil {
		log.Printf("Could not respond to history lookup: %v", err)
	}
}

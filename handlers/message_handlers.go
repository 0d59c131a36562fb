package handlers

import (
	"errors"
	"fmt"
	"log"

	"modbot/bot"
	"modbot/model"
	"modbot/storage"
	"modbot/utils"

	"github.com/bwmarrin/discordgo"
)

// HandleMessageCreate stores the message's metadata and its version 0
// content. Bot and DM messages are ignored.
func HandleMessageCreate(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	rec := model.MessageRecord{
		MessageID: m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		AuthorID:  m.Author.ID,
	}
	if err := storage.RecordMessageCreate(b.DB, rec, m.Timestamp.Unix(), m.Content); err != nil {
		log.Printf("Failed to record message %s: %v", m.ID, err)
	}
}

// HandleMessageEdit appends a new version for an edited message. Events
// missing content, guild id, author, or an edit timestamp are dropped, as
// are webhook edits. Duplicate edit notifications with unchanged content do
// not create a version and are not logged.
func HandleMessageEdit(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageUpdate) {
	if m.Content == "" || m.GuildID == "" || m.Author == nil || m.EditedTimestamp == nil || m.WebhookID != "" {
		return
	}

	previous, err := storage.LatestVersion(b.DB, m.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("Failed to read history of message %s: %v", m.ID, err)
		return
	}

	rec := model.MessageRecord{
		MessageID: m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		AuthorID:  m.Author.ID,
	}
	appended, err := storage.RecordMessageEdit(b.DB, rec, m.EditedTimestamp.Unix(), m.Content)
	if err != nil {
		log.Printf("Failed to record edit of message %s: %v", m.ID, err)
		return
	}
	if !appended {
		return
	}

	old := ""
	if previous != nil {
		old = previous.Content
	}

	jumpURL := fmt.Sprintf("https://discord.com/channels/%s/%s/%s", m.GuildID, m.ChannelID, m.ID)
	embed := &discordgo.MessageEmbed{
		Description: fmt.Sprintf("<@%s> edited [`%s`](%s) in <#%s>\n%s",
			m.Author.ID, m.ID, jumpURL, m.ChannelID,
			utils.CutWords(utils.DiffWords(old, m.Content), 250, " **... [cut off]**")),
	}
	sendLog(b, s, m.GuildID, model.LogMessage, embed)
}

// HandleMessageDelete renders the last stored version of a deleted message.
// This is a read path: history is preserved for audit, never tombstoned. A
// message that was never captured is logged and dropped; the data cannot be
// recovered after the fact.
func HandleMessageDelete(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageDelete) {
	stored, err := storage.LatestVersion(b.DB, m.ID)
	if errors.Is(err, storage.ErrNotFound) {
		log.Printf("Deleted message %s was never captured, dropping", m.ID)
		return
	}
	if err != nil {
		log.Printf("Failed to read history of deleted message %s: %v", m.ID, err)
		return
	}

	embed := &discordgo.MessageEmbed{
		Description: fmt.Sprintf("<@%s> deleted `%s` in <#%s>\n%s",
			stored.AuthorID, m.ID, stored.ChannelID,
			utils.CutWords(utils.EscapeMarkdown(stored.Content), 250, " **... [cut off]**")),
	}
	sendLog(b, s, stored.GuildID, model.LogMessage, embed)
}

// Package handlers normalizes inbound gateway events into history-store and
// ledger writes, and serves the moderation slash commands. Dispatch is a
// fixed mapping built at registration time.
package handlers

import (
	"log"

	"modbot/bot"
	"modbot/model"

	"github.com/bwmarrin/discordgo"
)

func Register(b *bot.Bot) {
	b.CommandHandlers = commandHandlers(b)
	addHandlers(b)
}

func commandHandlers(b *bot.Bot) map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"silence": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			HandleSilence(b, s, i)
		},
		"unsilence": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			HandleUnsilence(b, s, i)
		},
		"warn": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			HandleWarn(b, s, i)
		},
		"ban": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			HandleBan(b, s, i)
		},
		"unban": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			HandleUnban(b, s, i)
		},
		"kick": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			HandleKick(b, s, i)
		},
		"history": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			HandleHistory(b, s, i)
		},
		"status": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			HandleStatus(b, s, i)
		},
	}
}

func addHandlers(b *bot.Bot) {
	s := b.Session

	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		if h, ok := b.CommandHandlers[i.ApplicationCommandData().Name]; ok {
			h(s, i)
		}
	})

	s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		HandleMessageCreate(b, s, m)
	})
	s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageUpdate) {
		HandleMessageEdit(b, s, m)
	})
	s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageDelete) {
		HandleMessageDelete(b, s, m)
	})
	s.AddHandler(func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		HandleMemberJoin(b, s, m)
	})
	s.AddHandler(func(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
		HandleMemberRemove(b, s, m)
	})
	s.AddHandler(func(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
		HandleMemberUpdate(b, s, m)
	})
	s.AddHandler(func(s *discordgo.Session, u *discordgo.UserUpdate) {
		HandleUserUpdate(b, s, u)
	})
	s.AddHandler(func(s *discordgo.Session, e *discordgo.GuildBanAdd) {
		HandleBanAdd(b, s, e)
	})
	s.AddHandler(func(s *discordgo.Session, e *discordgo.GuildBanRemove) {
		HandleBanRemove(b, s, e)
	})
}

// sendLog delivers an embed to the guild's configured log channel of the
// given type. An unset channel disables the log.
func sendLog(b *bot.Bot, s *discordgo.Session, guildID string, logType model.LogType, embed *discordgo.MessageEmbed) {
	channelID, err := b.GuildConfig.LogChannelID(guildID, logType)
	if err != nil {
		log.Printf("Failed to resolve %s log channel for guild %s: %v", logType, guildID, err)
		return
	}
	if channelID == "" {
		return
	}
	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		log.Printf("Could not send %s log for guild %s: %v", logType, guildID, err)
	}
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.Printf("Could not respond to interaction: %v", err)
	}
}

func commandOptions(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

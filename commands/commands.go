package commands

import "github.com/bwmarrin/discordgo"

var (
	manageMessages int64 = discordgo.PermissionManageMessages
	banMembers     int64 = discordgo.PermissionBanMembers
	kickMembers    int64 = discordgo.PermissionKickMembers
)

func userOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: "Target member",
		Required:    true,
	}
}

func reasonOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "reason",
		Description: "Reason for the action",
		Required:    true,
	}
}

// Commands returns the application command set.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "silence",
			Description:              "Silence a member for a duration",
			DefaultMemberPermissions: &manageMessages,
			Options: []*discordgo.ApplicationCommandOption{
				userOption(),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "duration",
					Description: "Duration, e.g. 1d2h30m",
					Required:    true,
				},
				reasonOption(),
			},
		},
		{
			Name:                     "unsilence",
			Description:              "Unsilence a member",
			DefaultMemberPermissions: &manageMessages,
			Options:                  []*discordgo.ApplicationCommandOption{userOption(), reasonOption()},
		},
		{
			Name:                     "warn",
			Description:              "Warn a member",
			DefaultMemberPermissions: &manageMessages,
			Options:                  []*discordgo.ApplicationCommandOption{userOption(), reasonOption()},
		},
		{
			Name:                     "ban",
			Description:              "Ban a member",
			DefaultMemberPermissions: &banMembers,
			Options:                  []*discordgo.ApplicationCommandOption{userOption(), reasonOption()},
		},
		{
			Name:                     "unban",
			Description:              "Unban a user",
			DefaultMemberPermissions: &banMembers,
			Options:                  []*discordgo.ApplicationCommandOption{userOption(), reasonOption()},
		},
		{
			Name:                     "kick",
			Description:              "Kick a member",
			DefaultMemberPermissions: &kickMembers,
			Options:                  []*discordgo.ApplicationCommandOption{userOption(), reasonOption()},
		},
		{
			Name:                     "history",
			Description:              "Look up a stored version of a message",
			DefaultMemberPermissions: &manageMessages,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message_id",
					Description: "Message id",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "version",
					Description: "Version number, starting at 0",
				},
			},
		},
		{
			Name:        "status",
			Description: "Show bot uptime and host usage",
		},
	}
}

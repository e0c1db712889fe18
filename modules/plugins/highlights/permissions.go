package highlights

import (
	"github.com/bwmarrin/discordgo"
)

// threads only ever have a regular channel as parent, anything deeper
// is malformed data
const maxThreadEscalation = 3

// canView reports whether $userID may read the channel the message was
// posted in. Any lookup failure denies: visibility is never granted on
// uncertainty.
func (e *Engine) canView(guildID string, userID string, channelID string) bool {
	member, err := e.discord.Member(guildID, userID)
	if err != nil || member == nil {
		return false
	}

	return e.channelViewable(userID, channelID, 0)
}

func (e *Engine) channelViewable(userID string, channelID string, depth int) bool {
	if depth > maxThreadEscalation {
		return false
	}

	channel, err := e.discord.Channel(channelID)
	if err != nil || channel == nil {
		return false
	}

	// threads inherit visibility from their parent channel
	if channel.IsThread() {
		return e.channelViewable(userID, channel.ParentID, depth+1)
	}

	switch channel.Type {
	case discordgo.ChannelTypeGuildText,
		discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildVoice,
		discordgo.ChannelTypeGuildStageVoice,
		discordgo.ChannelTypeGuildForum:
	default:
		// no permission semantics on this channel type
		return false
	}

	permissions, err := e.discord.Permissions(userID, channel.ID)
	if err != nil {
		return false
	}

	needed := int64(discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory)
	return permissions&needed == needed
}

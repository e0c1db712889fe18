package highlights

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestCanViewMemberNotFound(t *testing.T) {
	discord := newFakeDiscord()
	discord.channels["channel"] = &discordgo.Channel{ID: "channel", Type: discordgo.ChannelTypeGuildText}
	engine := newTestEngine(&fakeStore{}, discord)

	assert.False(t, engine.canView("guild", "owner", "channel"))
}

func TestCanViewMissingReadAccess(t *testing.T) {
	discord := newFakeDiscord()
	discord.allow("guild", "owner", "channel")
	discord.permissions["owner:channel"] = int64(discordgo.PermissionSendMessages)
	engine := newTestEngine(&fakeStore{}, discord)

	assert.False(t, engine.canView("guild", "owner", "channel"))
}

func TestCanViewThreadEscalatesToParent(t *testing.T) {
	discord := newFakeDiscord()
	discord.allow("guild", "owner", "parent")
	discord.channels["thread"] = &discordgo.Channel{
		ID:       "thread",
		GuildID:  "guild",
		Type:     discordgo.ChannelTypeGuildPublicThread,
		ParentID: "parent",
	}
	engine := newTestEngine(&fakeStore{}, discord)

	assert.True(t, engine.canView("guild", "owner", "thread"))

	discord.permissions["owner:parent"] = 0
	assert.False(t, engine.canView("guild", "owner", "thread"),
		"thread visibility follows the parent channel")
}

func TestCanViewThreadEscalationDepthCapped(t *testing.T) {
	discord := newFakeDiscord()
	discord.members["guild:owner"] = &discordgo.Member{User: &discordgo.User{ID: "owner"}}
	// malformed data, a thread claiming to be its own parent
	discord.channels["thread"] = &discordgo.Channel{
		ID:       "thread",
		GuildID:  "guild",
		Type:     discordgo.ChannelTypeGuildPublicThread,
		ParentID: "thread",
	}
	engine := newTestEngine(&fakeStore{}, discord)

	assert.False(t, engine.canView("guild", "owner", "thread"))
}

func TestCanViewRejectsNonPermissibleChannelTypes(t *testing.T) {
	discord := newFakeDiscord()
	discord.members["guild:owner"] = &discordgo.Member{User: &discordgo.User{ID: "owner"}}
	discord.channels["dm"] = &discordgo.Channel{ID: "dm", Type: discordgo.ChannelTypeDM}
	discord.permissions["owner:dm"] = int64(discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory)
	engine := newTestEngine(&fakeStore{}, discord)

	assert.False(t, engine.canView("guild", "owner", "dm"))
}

func TestCanViewChannelNotFound(t *testing.T) {
	discord := newFakeDiscord()
	discord.members["guild:owner"] = &discordgo.Member{User: &discordgo.User{ID: "owner"}}
	engine := newTestEngine(&fakeStore{}, discord)

	assert.False(t, engine.canView("guild", "owner", "gone"))
}

package helpers

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-redis/cache"
	wirescache "github.com/wiresbot/wires/cache"
)

var botAdmins = []string{}

// SetBotAdmins stores the bot admin user IDs from the config
func SetBotAdmins(ids []string) {
	botAdmins = ids
}

// IsBotAdmin checks if $id is in $botAdmins
func IsBotAdmin(id string) bool {
	for _, s := range botAdmins {
		if s == id {
			return true
		}
	}

	return false
}

// GetChannel returns the channel from the state if possible, falls back
// to the API and stores the result in the state
func GetChannel(channelID string) (*discordgo.Channel, error) {
	session := wirescache.GetSession()

	channel, err := session.State.Channel(channelID)
	if err == nil {
		return channel, nil
	}

	channel, err = session.Channel(channelID)
	if err != nil {
		return nil, err
	}

	session.State.ChannelAdd(channel)
	return channel, nil
}

// GetChannelWithoutApi only looks at the state, it never falls back to
// the API
func GetChannelWithoutApi(channelID string) (*discordgo.Channel, error) {
	return wirescache.GetSession().State.Channel(channelID)
}

// GetGuild returns the guild from the state if possible, falls back to
// the API
func GetGuild(guildID string) (*discordgo.Guild, error) {
	session := wirescache.GetSession()

	guild, err := session.State.Guild(guildID)
	if err == nil {
		return guild, nil
	}

	return session.Guild(guildID)
}

const guildMemberCacheExpiration = 10 * time.Minute

// GetGuildMember returns the member from the state if possible, falls
// back to the redis cache and finally to the API. API results are kept
// in redis for a few minutes since permission checks hit this for every
// matching highlight.
func GetGuildMember(guildID string, userID string) (*discordgo.Member, error) {
	session := wirescache.GetSession()

	member, err := session.State.Member(guildID, userID)
	if err == nil && member != nil {
		return member, nil
	}

	key := fmt.Sprintf("wires:api:member:%s:%s", guildID, userID)

	if wirescache.HasRedisCacheCodec() {
		codec := wirescache.GetRedisCacheCodec()

		var cachedMember discordgo.Member
		if err = codec.Get(key, &cachedMember); err == nil {
			return &cachedMember, nil
		}
	}

	member, err = session.GuildMember(guildID, userID)
	if err != nil {
		return nil, err
	}

	session.State.MemberAdd(member)

	if wirescache.HasRedisCacheCodec() {
		cacheErr := wirescache.GetRedisCacheCodec().Set(&cache.Item{
			Key:        key,
			Object:     member,
			Expiration: guildMemberCacheExpiration,
		})
		RelaxLog(cacheErr)
	}

	return member, nil
}

// SendMessage sends $content to $channelID, long messages are paginated
func SendMessage(channelID string, content string) (messages []*discordgo.Message, err error) {
	session := wirescache.GetSession()

	for _, page := range Pagify(content, "\n") {
		message, err := session.ChannelMessageSend(channelID, page)
		if err != nil {
			return messages, err
		}
		messages = append(messages, message)
	}

	return messages, nil
}

// SendEmbed sends an embed to $channelID
func SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	return wirescache.GetSession().ChannelMessageSendEmbed(channelID, embed)
}

// SendComplex sends a full message payload to $channelID
func SendComplex(channelID string, send *discordgo.MessageSend) (*discordgo.Message, error) {
	return wirescache.GetSession().ChannelMessageSendComplex(channelID, send)
}

func IsAdmin(msg *discordgo.Message) bool {
	channel, e := GetChannel(msg.ChannelID)
	if e != nil {
		return false
	}

	guild, e := GetGuild(channel.GuildID)
	if e != nil {
		return false
	}

	if msg.Author.ID == guild.OwnerID || IsBotAdmin(msg.Author.ID) {
		return true
	}

	guildMember, e := GetGuildMember(guild.ID, msg.Author.ID)
	if e != nil {
		return false
	}

	// Check if a role may manage the server
	for _, role := range guild.Roles {
		for _, userRole := range guildMember.Roles {
			if userRole == role.ID &&
				(role.Permissions&discordgo.PermissionAdministrator == discordgo.PermissionAdministrator ||
					role.Permissions&discordgo.PermissionManageServer == discordgo.PermissionManageServer) {
				return true
			}
		}
	}

	return false
}

// RequireAdmin only calls $cb if the author is an admin or has MANAGE_SERVER permission
func RequireAdmin(msg *discordgo.Message, cb Callback) {
	if !IsAdmin(msg) {
		SendMessage(msg.ChannelID, "You need to be an admin to do that. 💼")
		return
	}

	cb()
}

var (
	channelMentionRegex = regexp.MustCompile(`^<#(\d+)>$`)
	userMentionRegex    = regexp.MustCompile(`^<@!?(\d+)>$`)
	snowflakeRegex      = regexp.MustCompile(`^\d+$`)
)

// GetChannelFromMention resolves a channel mention or raw ID to a
// channel on the same guild the message was sent on
func GetChannelFromMention(msg *discordgo.Message, mention string) (*discordgo.Channel, error) {
	var channelID string
	if match := channelMentionRegex.FindStringSubmatch(mention); match != nil {
		channelID = match[1]
	} else if snowflakeRegex.MatchString(mention) {
		channelID = mention
	} else {
		return nil, fmt.Errorf("invalid channel mention: %s", mention)
	}

	targetChannel, err := GetChannel(channelID)
	if err != nil {
		return nil, err
	}

	sourceChannel, err := GetChannel(msg.ChannelID)
	if err != nil {
		return nil, err
	}

	if targetChannel.GuildID != sourceChannel.GuildID {
		return nil, fmt.Errorf("channel %s is on a different guild", channelID)
	}

	return targetChannel, nil
}

// GetUserFromMention resolves a user mention or raw ID to a user
func GetUserFromMention(mention string) (*discordgo.User, error) {
	var userID string
	if match := userMentionRegex.FindStringSubmatch(mention); match != nil {
		userID = match[1]
	} else if snowflakeRegex.MatchString(mention) {
		userID = mention
	} else {
		return nil, fmt.Errorf("invalid user mention: %s", mention)
	}

	return wirescache.GetSession().User(userID)
}

// GetUser resolves a user ID, state first
func GetUser(userID string) (*discordgo.User, error) {
	session := wirescache.GetSession()

	for _, guild := range session.State.Guilds {
		if member, err := session.State.Member(guild.ID, userID); err == nil && member.User != nil {
			return member.User, nil
		}
	}

	return session.User(userID)
}

// GetTimeFromSnowflake extracts the creation time from a discord snowflake ID
func GetTimeFromSnowflake(id string) time.Time {
	iid, err := strconv.ParseInt(id, 10, 64)
	Relax(err)

	return time.Unix(((iid>>22)+1420070400000)/1000, 0).UTC()
}

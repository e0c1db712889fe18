package main

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/raven-go"
	"github.com/wiresbot/wires/cache"
	"github.com/wiresbot/wires/helpers"
	"github.com/wiresbot/wires/metrics"
	"github.com/wiresbot/wires/modules"
	"github.com/wiresbot/wires/ratelimits"
)

// BotOnReady gets called after the gateway connected
func BotOnReady(session *discordgo.Session, event *discordgo.Ready) {
	log := cache.GetLogger()

	log.WithField("module", "bot").Info("Connected to discord!")
	log.WithField("module", "bot").Info("Invite link: " + fmt.Sprintf(
		"https://discord.com/oauth2/authorize?client_id=%s&scope=bot&permissions=%s",
		helpers.GetConfigString("discord.id", ""),
		helpers.GetConfigString("discord.perms", "0"),
	))

	// Cache the session
	cache.SetSession(session)

	// Run ratelimiter
	ratelimits.Init()

	// Load and init all modules
	modules.Init(session)

	// Run async game-changer
	go changeGameInterval(session)

	// request guild members from the gateway
	go func() {
		time.Sleep(30 * time.Second)

		for _, guild := range session.State.Guilds {
			err := session.RequestGuildMembers(guild.ID, "", 0, "", false)
			if err != nil {
				log.WithField("module", "bot").Error(fmt.Sprintf("Failed to request Members for Guild #%s: %s",
					guild.ID, err.Error()))
			}
		}
	}()
}

func BotOnMemberListChunk(session *discordgo.Session, members *discordgo.GuildMembersChunk) {
	cache.GetLogger().WithField("module", "bot").Debug(
		fmt.Sprintf("received guild member chunk for guild: %s (%d members)",
			members.GuildID, len(members.Members)))
	var err error
	for _, member := range members.Members {
		member.GuildID = members.GuildID
		err = session.State.MemberAdd(member)
		if err != nil {
			raven.CaptureError(fmt.Errorf("%#v", err), map[string]string{})
		}
	}
}

// BotOnMessageCreate gets called after a new message was sent
// This will be called after *every* message on *every* server so it should die as soon as possible
// or spawn costly work inside of coroutines.
func BotOnMessageCreate(session *discordgo.Session, message *discordgo.MessageCreate) {
	// Ignore other bots and @everyone/@here
	if message.Author == nil || message.Author.Bot || message.MentionEveryone {
		return
	}

	// Get the channel
	// Ignore the event if we cannot resolve the channel
	channel, err := helpers.GetChannelWithoutApi(message.ChannelID)
	if err != nil {
		go raven.CaptureError(err, map[string]string{})
		return
	}

	if channel.Type == discordgo.ChannelTypeDM {
		sendHelp(message)
		return
	}

	// Check if the message contains @mentions for us
	if strings.HasPrefix(message.Content, "<@") && len(message.Mentions) > 0 && message.Mentions[0].ID == session.State.User.ID {
		// Consume a key for this action
		if !ratelimits.Commands.CanTrigger(message.Author.ID) {
			return
		}
		ratelimits.Commands.Trigger(message.Author.ID)

		// Prepare content for editing
		msg := message.Content

		/// Remove our @mention
		msg = strings.Replace(msg, "<@"+session.State.User.ID+">", "", -1)

		// Trim message
		msg = strings.TrimSpace(msg)

		// Convert to []byte before matching
		bmsg := []byte(msg)

		// Match against common task patterns
		switch {
		case regexp.MustCompile("(?i)^HELP.*").Match(bmsg):
			metrics.CommandsExecuted.Add(1)
			sendHelp(message)
			return

		case regexp.MustCompile("(?i)^PREFIX.*").Match(bmsg):
			metrics.CommandsExecuted.Add(1)
			prefix := helpers.GetPrefixForServer(channel.GuildID)

			cache.GetSession().ChannelMessageSend(
				channel.ID,
				fmt.Sprintf("The prefix on this server is `%s`.", prefix),
			)
			return

		case regexp.MustCompile("(?i)^SET PREFIX (.){1,25}$").Match(bmsg):
			metrics.CommandsExecuted.Add(1)
			helpers.RequireAdmin(message.Message, func() {
				// Extract prefix
				prefix := strings.Fields(regexp.MustCompile("(?i)^SET PREFIX\\s").ReplaceAllString(msg, ""))[0]

				// Set new prefix
				err := helpers.SetPrefixForServer(
					channel.GuildID,
					prefix,
				)

				if err != nil {
					helpers.SendError(message.Message, err)
				} else {
					cache.GetSession().ChannelMessageSend(channel.ID, fmt.Sprintf("Prefix saved: `%s` 👌", prefix))
				}
			})
			return
		}
	}

	modules.CallExtendedPlugin(
		message.Content,
		message.Message,
	)

	// Only continue if a prefix is set
	prefix := helpers.GetPrefixForServer(channel.GuildID)
	if prefix == "" {
		return
	}

	// Check if the message is prefixed for us
	// If not exit
	if !strings.HasPrefix(message.Content, prefix) {
		return
	}

	// Check if the user is allowed to request commands
	if !ratelimits.Commands.CanTrigger(message.Author.ID) && !helpers.IsBotAdmin(message.Author.ID) {
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf(
			"<@%s> Whoa, slow down. Try again in a minute. ⏳", message.Author.ID))
		return
	}

	// Split the message into parts
	parts := strings.Fields(message.Content)

	// Save a sanitized version of the command (no prefix)
	cmd := strings.Replace(parts[0], prefix, "", 1)

	// Check if the user calls for help
	if cmd == "h" || cmd == "help" {
		metrics.CommandsExecuted.Add(1)
		sendHelp(message)
		return
	}

	// Separate arguments from the command
	content := strings.TrimSpace(strings.Replace(message.Content, prefix+cmd, "", -1))

	// Log commands
	cache.GetLogger().WithField("module", "bot").Debug(fmt.Sprintf("%s (#%s): %s",
		message.Author.Username, message.Author.ID, message.Content))

	// Check if a module matches said command
	modules.CallBotPlugin(cmd, content, message.Message)
}

func sendHelp(message *discordgo.MessageCreate) {
	helpers.SendMessage(
		message.ChannelID,
		fmt.Sprintf("<@%s> Use `highlight add <pattern>` to get notified when a word comes up, "+
			"`highlight list` to see your highlights and `ticket open <name>` to open a support thread.",
			message.Author.ID),
	)
}

// changeGameInterval updates the status playing text every hour
func changeGameInterval(session *discordgo.Session) {
	statuses := []string{
		"with your highlights",
		"_help | wires",
	}

	i := 0
	for {
		err := session.UpdateGameStatus(0, statuses[i%len(statuses)])
		if err != nil {
			raven.CaptureError(err, map[string]string{})
		}

		i++
		time.Sleep(1 * time.Hour)
	}
}

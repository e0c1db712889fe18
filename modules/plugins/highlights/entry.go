package highlights

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bradfitz/slice"
	"github.com/bwmarrin/discordgo"
	"github.com/globalsign/mgo/bson"
	"github.com/wiresbot/wires/cache"
	"github.com/wiresbot/wires/helpers"
	"github.com/wiresbot/wires/models"
	"github.com/wiresbot/wires/ratelimits"
)

const (
	// MaxHighlightsPerUser caps how many highlights a single user may own
	MaxHighlightsPerUser = 24

	// MaxHighlightLength caps the pattern length
	MaxHighlightLength = 512

	activeCooldownCapacity  = 1
	triggerCooldownCapacity = 3
)

type Handler struct {
	engine *Engine
}

func (h *Handler) Commands() []string {
	return []string{
		"highlights",
		"highlight",
		"hl",
	}
}

func (h *Handler) Init(session *discordgo.Session) {
	h.engine = NewEngine(
		mdbStore{},
		sessionDiscord{},
		ratelimits.NewFixedWindow(activeCooldownCapacity,
			helpers.GetConfigDuration("highlights.active_window", 5*time.Minute)),
		ratelimits.NewFixedWindow(triggerCooldownCapacity,
			helpers.GetConfigDuration("highlights.trigger_window", 10*time.Minute)),
	)
}

func (h *Handler) Uninit(session *discordgo.Session) {

}

// OnMessage feeds every guild message into the matching engine
func (h *Handler) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
	channel, err := helpers.GetChannelWithoutApi(msg.ChannelID)
	if err != nil || channel.GuildID == "" {
		return
	}

	// ignore commands
	prefix := helpers.GetPrefixForServer(channel.GuildID)
	if prefix != "" && strings.HasPrefix(content, prefix) {
		return
	}

	err = h.engine.HandleMessage(Event{
		GuildID:   channel.GuildID,
		ChannelID: msg.ChannelID,
		MessageID: msg.ID,
		AuthorID:  msg.Author.ID,
		Author:    msg.Author,
		Content:   content,
	})
	helpers.RelaxLog(err)
}

func (h *Handler) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	args := strings.Fields(content)
	if len(args) <= 0 {
		return
	}

	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)
	if channel.GuildID == "" {
		helpers.SendMessage(msg.ChannelID, "Highlights only work on servers.")
		return
	}

	switch args[0] {
	case "add": // [p]highlight add [global] <pattern>
		h.actionAdd(content, args, msg, channel, false)
	case "add-regex": // [p]highlight add-regex [global] <pattern>
		h.actionAdd(content, args, msg, channel, true)
	case "delete", "del", "remove": // [p]highlight delete <pattern>
		h.actionDelete(content, args, msg, channel)
	case "list": // [p]highlight list
		h.actionList(msg, channel)
	case "toggle-regex": // [p]highlight toggle-regex <pattern>
		h.actionToggleRegex(content, args, msg, channel)
	case "channels": // [p]highlight channels <blacklist|whitelist> <pattern>
		h.actionListMode(content, args, msg, channel, scopeChannels)
	case "channel": // [p]highlight channel <#channel> <pattern>
		h.actionListToggle(content, args, msg, channel, scopeChannels)
	case "users": // [p]highlight users <blacklist|whitelist> <pattern>
		h.actionListMode(content, args, msg, channel, scopeUsers)
	case "user": // [p]highlight user <@user> <pattern>
		h.actionListToggle(content, args, msg, channel, scopeUsers)
	}
}

type scopeDimension int

const (
	scopeChannels scopeDimension = iota
	scopeUsers
)

func (h *Handler) actionAdd(content string, args []string, msg *discordgo.Message, channel *discordgo.Channel, isRegex bool) {
	if len(args) < 2 {
		helpers.SendMessage(msg.ChannelID, "Too few arguments. ☹️")
		return
	}

	pattern := strings.TrimSpace(strings.Replace(content, args[0], "", 1))
	patternGuild := channel.GuildID
	if strings.HasPrefix(pattern, "global ") {
		pattern = strings.TrimSpace(strings.TrimPrefix(pattern, "global "))
		patternGuild = models.HighlightGuildGlobal
	}

	if len([]rune(pattern)) > MaxHighlightLength {
		helpers.SendMessage(msg.ChannelID, fmt.Sprintf("Highlights can be at most %d characters long.", MaxHighlightLength))
		return
	}

	if isRegex {
		if _, err := regexp.Compile(pattern); err != nil {
			helpers.SendMessage(msg.ChannelID, "That is not a valid regular expression: `"+err.Error()+"`")
			return
		}
	}

	total, err := helpers.MdbCount(models.HighlightsTable, bson.M{"userid": msg.Author.ID})
	helpers.Relax(err)
	if total >= MaxHighlightsPerUser {
		helpers.SendMessage(msg.ChannelID, fmt.Sprintf("<@%s> You can only have up to %d highlights.", msg.Author.ID, MaxHighlightsPerUser))
		return
	}

	_, err = findHighlight(msg.Author.ID, channel.GuildID, pattern)
	if err == nil {
		helpers.SendMessage(msg.ChannelID, fmt.Sprintf("<@%s> You already have a highlight for that. 💡", msg.Author.ID))
		session := cache.GetSession()
		session.ChannelMessageDelete(msg.ChannelID, msg.ID)
		return
	}
	if !helpers.IsMdbNotFound(err) {
		helpers.Relax(err)
	}

	_, err = helpers.MDbInsert(
		models.HighlightsTable,
		models.HighlightEntry{
			UserID:                 msg.Author.ID,
			GuildID:                patternGuild,
			Content:                pattern,
			IsRegex:                isRegex,
			ChannelListIsBlacklist: true,
			UserListIsBlacklist:    true,
		},
	)
	helpers.Relax(err)

	_, err = helpers.SendMessage(msg.ChannelID, fmt.Sprintf("<@%s> Highlight added. 🔔", msg.Author.ID))
	helpers.RelaxMessage(err, msg.ChannelID, msg.ID)
	cache.GetLogger().WithField("module", "highlights").Info(fmt.Sprintf(
		"Added Highlight \"%s\" to Guild %s for User %s (#%s)",
		pattern, patternGuild, msg.Author.Username, msg.Author.ID))
	// Do not get error as it might fail because deletion permissions are not given to the user
	cache.GetSession().ChannelMessageDelete(msg.ChannelID, msg.ID)
}

func (h *Handler) actionDelete(content string, args []string, msg *discordgo.Message, channel *discordgo.Channel) {
	if len(args) < 2 {
		helpers.SendMessage(msg.ChannelID, "Too few arguments. ☹️")
		return
	}

	pattern := strings.TrimSpace(strings.Replace(content, args[0], "", 1))
	if strings.HasPrefix(pattern, "global ") {
		pattern = strings.TrimSpace(strings.TrimPrefix(pattern, "global "))
	}

	entry, err := findHighlight(msg.Author.ID, channel.GuildID, pattern)
	if helpers.IsMdbNotFound(err) {
		helpers.SendMessage(msg.ChannelID, fmt.Sprintf("<@%s> I could not find that highlight. 🕳️", msg.Author.ID))
		return
	}
	helpers.Relax(err)

	err = helpers.MDbDelete(models.HighlightsTable, entry.ID)
	helpers.Relax(err)

	_, err = helpers.SendMessage(msg.ChannelID, fmt.Sprintf("<@%s> Highlight deleted. 🔕", msg.Author.ID))
	helpers.RelaxMessage(err, msg.ChannelID, msg.ID)
	cache.GetLogger().WithField("module", "highlights").Info(fmt.Sprintf(
		"Deleted Highlight \"%s\" from Guild %s for User %s (#%s)",
		entry.Content, entry.GuildID, msg.Author.Username, msg.Author.ID))
	cache.GetSession().ChannelMessageDelete(msg.ChannelID, msg.ID)
}

func (h *Handler) actionList(msg *discordgo.Message, channel *discordgo.Channel) {
	var entries []models.HighlightEntry
	err := helpers.MDbIter(helpers.MdbCollection(models.HighlightsTable).Find(bson.M{
		"userid":  msg.Author.ID,
		"guildid": bson.M{"$in": []string{channel.GuildID, models.HighlightGuildGlobal}},
	})).All(&entries)
	helpers.Relax(err)

	if len(entries) <= 0 {
		helpers.SendMessage(msg.ChannelID, fmt.Sprintf("<@%s> You don't have any highlights yet. Use `highlight add` to create one.", msg.Author.ID))
		return
	}

	slice.Sort(entries, func(i, j int) bool {
		return entries[i].Triggered > entries[j].Triggered
	})

	resultMessage := "Your highlights on this server:\n"
	for _, entry := range entries {
		resultMessage += fmt.Sprintf("`%s` (triggered `%d` times)", entry.Content, entry.Triggered)
		if entry.IsRegex {
			resultMessage += " `[Regex]`"
		}
		if entry.GuildID == models.HighlightGuildGlobal {
			resultMessage += " `[Global]` 🌐"
		}
		if len(entry.ChannelList) > 0 {
			resultMessage += fmt.Sprintf(" (%s of %d channels)", listModeName(entry.ChannelListIsBlacklist), len(entry.ChannelList))
		}
		if len(entry.UserList) > 0 {
			resultMessage += fmt.Sprintf(" (%s of %d users)", listModeName(entry.UserListIsBlacklist), len(entry.UserList))
		}
		resultMessage += "\n"
	}
	resultMessage += fmt.Sprintf("Found **%d** highlights in total.", len(entries))

	session := cache.GetSession()
	dmChannel, err := session.UserChannelCreate(msg.Author.ID)
	helpers.Relax(err)

	_, err = helpers.SendMessage(dmChannel.ID, resultMessage)
	helpers.RelaxMessage(err, "", "")

	_, err = helpers.SendMessage(msg.ChannelID, fmt.Sprintf("<@%s> Check your DMs. 📬", msg.Author.ID))
	helpers.RelaxMessage(err, msg.ChannelID, msg.ID)
}

func (h *Handler) actionToggleRegex(content string, args []string, msg *discordgo.Message, channel *discordgo.Channel) {
	if len(args) < 2 {
		helpers.SendMessage(msg.ChannelID, "Too few arguments. ☹️")
		return
	}

	pattern := strings.TrimSpace(strings.Replace(content, args[0], "", 1))

	entry, err := findHighlight(msg.Author.ID, channel.GuildID, pattern)
	if helpers.IsMdbNotFound(err) {
		helpers.SendMessage(msg.ChannelID, fmt.Sprintf("<@%s> I could not find that highlight. 🕳️", msg.Author.ID))
		return
	}
	helpers.Relax(err)

	if !entry.IsRegex {
		if _, compileErr := regexp.Compile(entry.Content); compileErr != nil {
			helpers.SendMessage(msg.ChannelID, "That highlight is not a valid regular expression: `"+compileErr.Error()+"`")
			return
		}
	}

	entry.IsRegex = !entry.IsRegex
	err = helpers.MDbUpdate(models.HighlightsTable, entry.ID, entry)
	helpers.Relax(err)

	var message string
	if entry.IsRegex {
		message = fmt.Sprintf("<@%s> `%s` is now matched as a regular expression.", msg.Author.ID, helpers.ClipText(entry.Content, notificationClipLength))
	} else {
		message = fmt.Sprintf("<@%s> `%s` is now matched literally.", msg.Author.ID, helpers.ClipText(entry.Content, notificationClipLength))
	}
	_, err = helpers.SendMessage(msg.ChannelID, message)
	helpers.RelaxMessage(err, msg.ChannelID, msg.ID)
}

// actionListMode switches a highlight's channel or user list between
// blacklist and whitelist semantics
func (h *Handler) actionListMode(content string, args []string, msg *discordgo.Message, channel *discordgo.Channel, dimension scopeDimension) {
	if len(args) < 3 {
		helpers.SendMessage(msg.ChannelID, "Too few arguments. ☹️")
		return
	}

	var isBlacklist bool
	switch args[1] {
	case "blacklist", "deny":
		isBlacklist = true
	case "whitelist", "allow":
		isBlacklist = false
	default:
		helpers.SendMessage(msg.ChannelID, "Mode has to be `blacklist` or `whitelist`.")
		return
	}

	pattern := strings.TrimSpace(strings.Replace(strings.Replace(content, args[0], "", 1), args[1], "", 1))

	entry, err := findHighlight(msg.Author.ID, channel.GuildID, pattern)
	if helpers.IsMdbNotFound(err) {
		helpers.SendMessage(msg.ChannelID, fmt.Sprintf("<@%s> I could not find that highlight. 🕳️", msg.Author.ID))
		return
	}
	helpers.Relax(err)

	var scopeName string
	switch dimension {
	case scopeChannels:
		entry.ChannelListIsBlacklist = isBlacklist
		scopeName = "channel"
	case scopeUsers:
		entry.UserListIsBlacklist = isBlacklist
		scopeName = "user"
	}

	err = helpers.MDbUpdate(models.HighlightsTable, entry.ID, entry)
	helpers.Relax(err)

	_, err = helpers.SendMessage(msg.ChannelID, fmt.Sprintf("<@%s> The %s list of `%s` is now a %s.",
		msg.Author.ID, scopeName, helpers.ClipText(entry.Content, notificationClipLength), listModeName(isBlacklist)))
	helpers.RelaxMessage(err, msg.ChannelID, msg.ID)
}

// actionListToggle adds a channel or user to a highlight's scope list,
// or removes it if already present
func (h *Handler) actionListToggle(content string, args []string, msg *discordgo.Message, channel *discordgo.Channel, dimension scopeDimension) {
	if len(args) < 3 {
		helpers.SendMessage(msg.ChannelID, "Too few arguments. ☹️")
		return
	}

	var targetID string
	var targetMention string
	switch dimension {
	case scopeChannels:
		targetChannel, err := helpers.GetChannelFromMention(msg, args[1])
		if err != nil {
			helpers.SendMessage(msg.ChannelID, "I could not find that channel on this server. 🔍")
			return
		}
		targetID = targetChannel.ID
		targetMention = "<#" + targetChannel.ID + ">"
	case scopeUsers:
		targetUser, err := helpers.GetUserFromMention(args[1])
		if err != nil {
			helpers.SendMessage(msg.ChannelID, "I could not find that user. 🔍")
			return
		}
		targetID = targetUser.ID
		targetMention = "`@" + targetUser.Username + "`"
	}

	pattern := strings.TrimSpace(strings.Replace(strings.Replace(content, args[0], "", 1), args[1], "", 1))

	entry, err := findHighlight(msg.Author.ID, channel.GuildID, pattern)
	if helpers.IsMdbNotFound(err) {
		helpers.SendMessage(msg.ChannelID, fmt.Sprintf("<@%s> I could not find that highlight. 🕳️", msg.Author.ID))
		return
	}
	helpers.Relax(err)

	var list []string
	switch dimension {
	case scopeChannels:
		list = entry.ChannelList
	case scopeUsers:
		list = entry.UserList
	}

	listWithout := make([]string, 0, len(list))
	for _, item := range list {
		if item != targetID {
			listWithout = append(listWithout, item)
		}
	}

	var message string
	if len(listWithout) != len(list) {
		list = listWithout
		message = fmt.Sprintf("<@%s> Removed %s from the list of `%s`.",
			msg.Author.ID, targetMention, helpers.ClipText(entry.Content, notificationClipLength))
	} else {
		list = append(list, targetID)
		message = fmt.Sprintf("<@%s> Added %s to the list of `%s`.",
			msg.Author.ID, targetMention, helpers.ClipText(entry.Content, notificationClipLength))
	}

	switch dimension {
	case scopeChannels:
		entry.ChannelList = list
	case scopeUsers:
		entry.UserList = list
	}

	err = helpers.MDbUpdate(models.HighlightsTable, entry.ID, entry)
	helpers.Relax(err)

	_, err = helpers.SendMessage(msg.ChannelID, message)
	helpers.RelaxMessage(err, msg.ChannelID, msg.ID)
}

// findHighlight looks up one of the author's highlights by its pattern
// text, case-insensitively, on this guild or global
func findHighlight(userID string, guildID string, pattern string) (entry models.HighlightEntry, err error) {
	err = helpers.MdbOne(
		helpers.MdbCollection(models.HighlightsTable).Find(bson.M{
			"userid":  userID,
			"guildid": bson.M{"$in": []string{guildID, models.HighlightGuildGlobal}},
			"content": bson.M{"$regex": bson.RegEx{Pattern: "^" + regexp.QuoteMeta(pattern) + "$", Options: "i"}},
		}),
		&entry,
	)
	return entry, err
}

func listModeName(isBlacklist bool) string {
	if isBlacklist {
		return "blacklist"
	}
	return "whitelist"
}

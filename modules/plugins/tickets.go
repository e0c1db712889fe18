package plugins

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/globalsign/mgo/bson"
	"github.com/wiresbot/wires/cache"
	"github.com/wiresbot/wires/helpers"
	"github.com/wiresbot/wires/metrics"
	"github.com/wiresbot/wires/models"
)

const ticketNameMaxLength = 32

// Tickets opens private support threads under a per-guild configured
// channel
type Tickets struct{}

func (t *Tickets) Commands() []string {
	return []string{
		"tickets",
		"ticket",
	}
}

func (t *Tickets) Init(session *discordgo.Session) {

}

func (t *Tickets) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	args := strings.Fields(content)
	if len(args) <= 0 {
		return
	}

	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)
	if channel.GuildID == "" {
		helpers.SendMessage(msg.ChannelID, "Tickets only work on servers.")
		return
	}

	switch args[0] {
	case "setup": // [p]tickets setup <name> <#channel>
		helpers.RequireAdmin(msg, func() {
			t.actionSetup(args, msg, channel, session)
		})
	case "open", "create": // [p]tickets open <name>
		t.actionOpen(content, args, msg, channel, session)
	case "list": // [p]tickets list
		t.actionList(msg, channel)
	case "remove", "delete", "del": // [p]tickets remove <name>
		helpers.RequireAdmin(msg, func() {
			t.actionRemove(content, args, msg, channel)
		})
	}
}

func (t *Tickets) actionSetup(args []string, msg *discordgo.Message, channel *discordgo.Channel, session *discordgo.Session) {
	if len(args) < 3 {
		helpers.SendMessage(msg.ChannelID, "Too few arguments. ☹️")
		return
	}

	name := strings.ToLower(args[1])
	if len([]rune(name)) > ticketNameMaxLength {
		helpers.SendMessage(msg.ChannelID, fmt.Sprintf("Ticket names can be at most %d characters long.", ticketNameMaxLength))
		return
	}

	targetChannel, err := helpers.GetChannelFromMention(msg, args[2])
	if err != nil {
		helpers.SendMessage(msg.ChannelID, "I could not find that channel on this server. 🔍")
		return
	}

	err = helpers.MDbUpsert(
		models.TicketConfigsTable,
		bson.M{"guildid": channel.GuildID, "name": name},
		models.TicketConfigEntry{
			GuildID:   channel.GuildID,
			Name:      name,
			ChannelID: targetChannel.ID,
		},
	)
	helpers.Relax(err)

	_, err = helpers.SendMessage(msg.ChannelID, fmt.Sprintf(
		"Tickets named `%s` will open threads under <#%s>. 🎫", name, targetChannel.ID))
	helpers.RelaxMessage(err, msg.ChannelID, msg.ID)
	cache.GetLogger().WithField("module", "tickets").Info(fmt.Sprintf(
		"Set up Ticket \"%s\" => #%s on Guild %s by User %s (#%s)",
		name, targetChannel.ID, channel.GuildID, msg.Author.Username, msg.Author.ID))
}

func (t *Tickets) actionOpen(content string, args []string, msg *discordgo.Message, channel *discordgo.Channel, session *discordgo.Session) {
	if len(args) < 2 {
		helpers.SendMessage(msg.ChannelID, "Too few arguments. ☹️")
		return
	}

	name := strings.ToLower(strings.TrimSpace(strings.Replace(content, args[0], "", 1)))

	var entry models.TicketConfigEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.TicketConfigsTable).Find(bson.M{
			"guildid": channel.GuildID, "name": name,
		}),
		&entry,
	)
	if helpers.IsMdbNotFound(err) {
		helpers.SendMessage(msg.ChannelID, fmt.Sprintf(
			"<@%s> There is no ticket named `%s` on this server.", msg.Author.ID, name))
		return
	}
	helpers.Relax(err)

	thread, err := session.ThreadStartComplex(entry.ChannelID, &discordgo.ThreadStart{
		Name:      fmt.Sprintf("%s - %s", name, msg.Author.Username),
		Type:      discordgo.ChannelTypeGuildPrivateThread,
		Invitable: false,
	})
	helpers.Relax(err)

	err = session.ThreadMemberAdd(thread.ID, msg.Author.ID)
	helpers.SoftRelax(err, func() {
		helpers.SendMessage(msg.ChannelID, fmt.Sprintf(
			"<@%s> I could not pull you into the thread, please join <#%s> yourself.", msg.Author.ID, thread.ID))
	})

	metrics.TicketsCreated.Add(1)

	_, err = helpers.SendEmbed(msg.ChannelID, &discordgo.MessageEmbed{
		Title:       "Your ticket is ready 🎫",
		Description: fmt.Sprintf("<@%s> head over to <#%s>.", msg.Author.ID, thread.ID),
	})
	helpers.RelaxMessage(err, msg.ChannelID, msg.ID)
	cache.GetLogger().WithField("module", "tickets").Info(fmt.Sprintf(
		"Opened Ticket Thread #%s (\"%s\") on Guild %s for User %s (#%s)",
		thread.ID, name, channel.GuildID, msg.Author.Username, msg.Author.ID))
}

func (t *Tickets) actionList(msg *discordgo.Message, channel *discordgo.Channel) {
	var entries []models.TicketConfigEntry
	err := helpers.MDbIter(helpers.MdbCollection(models.TicketConfigsTable).Find(bson.M{
		"guildid": channel.GuildID,
	})).All(&entries)
	helpers.Relax(err)

	if len(entries) <= 0 {
		helpers.SendMessage(msg.ChannelID, "No tickets are set up on this server yet.")
		return
	}

	resultMessage := "Tickets on this server:\n"
	for _, entry := range entries {
		resultMessage += fmt.Sprintf("`%s` => <#%s>\n", entry.Name, entry.ChannelID)
	}
	resultMessage += fmt.Sprintf("Found **%d** tickets in total.", len(entries))

	_, err = helpers.SendMessage(msg.ChannelID, resultMessage)
	helpers.RelaxMessage(err, msg.ChannelID, msg.ID)
}

func (t *Tickets) actionRemove(content string, args []string, msg *discordgo.Message, channel *discordgo.Channel) {
	if len(args) < 2 {
		helpers.SendMessage(msg.ChannelID, "Too few arguments. ☹️")
		return
	}

	name := strings.ToLower(strings.TrimSpace(strings.Replace(content, args[0], "", 1)))

	var entry models.TicketConfigEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.TicketConfigsTable).Find(bson.M{
			"guildid": channel.GuildID, "name": name,
		}),
		&entry,
	)
	if helpers.IsMdbNotFound(err) {
		helpers.SendMessage(msg.ChannelID, fmt.Sprintf(
			"There is no ticket named `%s` on this server.", name))
		return
	}
	helpers.Relax(err)

	err = helpers.MDbDelete(models.TicketConfigsTable, entry.ID)
	helpers.Relax(err)

	_, err = helpers.SendMessage(msg.ChannelID, fmt.Sprintf("Ticket `%s` removed.", name))
	helpers.RelaxMessage(err, msg.ChannelID, msg.ID)
	cache.GetLogger().WithField("module", "tickets").Info(fmt.Sprintf(
		"Removed Ticket \"%s\" from Guild %s by User %s (#%s)",
		name, channel.GuildID, msg.Author.Username, msg.Author.ID))
}

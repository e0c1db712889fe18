package highlights

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/wiresbot/wires/cache"
	"github.com/wiresbot/wires/metrics"
)

// dispatch sends one DM per recipient, listing every matched highlight
// and embedding a jump link to the triggering message. Delivery
// failures (closed DMs and the like) are logged and skipped, they never
// abort the remaining recipients.
func (e *Engine) dispatch(event Event, notifications map[string][]string) {
	if len(notifications) == 0 {
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Jump",
		URL:         jumpLink(event),
		Description: event.Content,
	}
	if event.Author != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    event.Author.Username,
			IconURL: event.Author.AvatarURL("64"),
		}
	}
	if guild, err := e.discord.Guild(event.GuildID); err == nil && guild != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: guild.Name,
		}
		if guild.Icon != "" {
			embed.Footer.IconURL = discordgo.EndpointGuildIcon(guild.ID, guild.Icon)
		}
	}

	for userID, triggers := range notifications {
		quoted := make([]string, len(triggers))
		for i, trigger := range triggers {
			quoted[i] = "`" + trigger + "`"
		}

		err := e.discord.SendDirectMessage(userID, &discordgo.MessageSend{
			Content: "Highlights triggered: " + strings.Join(quoted, ", "),
			Embed:   embed,
		})
		if err != nil {
			cache.GetLogger().WithField("module", "highlights").
				WithField("userID", userID).
				Warn("error sending highlight DM: " + err.Error())
			continue
		}

		metrics.HighlightNotificationsSent.Add(1)
	}
}

func jumpLink(event Event) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s",
		event.GuildID, event.ChannelID, event.MessageID)
}

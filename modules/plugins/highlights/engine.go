package highlights

import (
	"github.com/bwmarrin/discordgo"
	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"
	"github.com/wiresbot/wires/cache"
	"github.com/wiresbot/wires/helpers"
	"github.com/wiresbot/wires/metrics"
	"github.com/wiresbot/wires/models"
	"github.com/wiresbot/wires/ratelimits"
)

// Event carries the fields of a guild message the engine looks at
type Event struct {
	GuildID   string
	ChannelID string
	MessageID string
	AuthorID  string
	Author    *discordgo.User
	Content   string
}

// Store loads highlight records. The guild query already excludes the
// message author's own highlights.
type Store interface {
	HighlightsForGuild(guildID string, authorID string) ([]models.HighlightEntry, error)
	IncreaseTriggered(id bson.ObjectId)
}

// Discord is the slice of the chat platform the engine needs. All
// lookup errors mean "not found" to the engine, it never distinguishes.
type Discord interface {
	Member(guildID string, userID string) (*discordgo.Member, error)
	Channel(channelID string) (*discordgo.Channel, error)
	Permissions(userID string, channelID string) (int64, error)
	Guild(guildID string) (*discordgo.Guild, error)
	SendDirectMessage(userID string, send *discordgo.MessageSend) error
}

const notificationClipLength = 12

// Engine evaluates incoming guild messages against stored highlights
// and DMs the owners of every highlight that matches. The two limiters
// are the only mutable state shared between evaluations:
// active suppresses notifying owners who recently spoke in the channel
// themselves, trigger bounds how often a single highlight may fire.
type Engine struct {
	store   Store
	discord Discord
	active  *ratelimits.FixedWindow
	trigger *ratelimits.FixedWindow

	regexCache *regexCache
}

func NewEngine(store Store, discord Discord, active *ratelimits.FixedWindow, trigger *ratelimits.FixedWindow) *Engine {
	return &Engine{
		store:      store,
		discord:    discord,
		active:     active,
		trigger:    trigger,
		regexCache: newRegexCache(),
	}
}

func activeKey(userID string, channelID string) string {
	return userID + ":" + channelID
}

// HandleMessage runs the full pipeline for one message event
func (e *Engine) HandleMessage(event Event) error {
	notifications, err := e.Evaluate(event)
	if err != nil {
		return err
	}

	e.dispatch(event, notifications)
	return nil
}

// Evaluate marks the author as active in the channel and collects the
// clipped contents of every matching highlight per owner. Returns a map
// from owner ID to the matches in storage order.
func (e *Engine) Evaluate(event Event) (map[string][]string, error) {
	// re-arm the author's activity window for this channel
	key := activeKey(event.AuthorID, event.ChannelID)
	e.active.Reset(key)
	if _, existed := e.active.Trigger(key); existed {
		// a trigger right after a reset must find the key absent,
		// anything else means the limiter state is corrupt
		cache.GetLogger().WithField("module", "highlights").
			WithField("key", key).
			Error("active window re-arm found stale state")
	}

	if event.Content == "" {
		return nil, nil
	}

	entries, err := e.store.HighlightsForGuild(event.GuildID, event.AuthorID)
	if err != nil {
		return nil, errors.Wrap(err, "loading highlights")
	}

	notifications := make(map[string][]string)
	for i := range entries {
		hl := &entries[i]

		// never notify users of their own messages
		if hl.UserID == event.AuthorID {
			continue
		}
		if !scopeAdmits(hl, event) {
			continue
		}
		if !e.matches(hl, event.Content) {
			continue
		}
		// skip owners who recently posted in this channel themselves
		if !e.active.CanTrigger(activeKey(hl.UserID, event.ChannelID)) {
			continue
		}
		// a highlight only fires a few times per window. The trigger is
		// consumed here so a match that fails the permission check below
		// still counts; at capacity nothing is recorded.
		if !e.trigger.TryTrigger(hl.ID.Hex()) {
			continue
		}
		if !e.canView(event.GuildID, hl.UserID, event.ChannelID) {
			continue
		}

		metrics.HighlightsMatched.Add(1)
		notifications[hl.UserID] = append(notifications[hl.UserID],
			helpers.ClipText(hl.Content, notificationClipLength))

		e.store.IncreaseTriggered(hl.ID)
	}

	return notifications, nil
}

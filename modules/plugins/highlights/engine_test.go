package highlights

import (
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wiresbot/wires/cache"
	"github.com/wiresbot/wires/models"
	"github.com/wiresbot/wires/ratelimits"
)

func init() {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	cache.SetLogger(logger)
}

type fakeStore struct {
	entries   []models.HighlightEntry
	err       error
	increased []bson.ObjectId
}

func (s *fakeStore) HighlightsForGuild(guildID string, authorID string) ([]models.HighlightEntry, error) {
	if s.err != nil {
		return nil, s.err
	}

	result := make([]models.HighlightEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		if entry.UserID == authorID {
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

func (s *fakeStore) IncreaseTriggered(id bson.ObjectId) {
	s.increased = append(s.increased, id)
}

type fakeDiscord struct {
	members     map[string]*discordgo.Member
	channels    map[string]*discordgo.Channel
	permissions map[string]int64
	guild       *discordgo.Guild
	sent        map[string][]*discordgo.MessageSend
	failDM      map[string]bool
}

func newFakeDiscord() *fakeDiscord {
	return &fakeDiscord{
		members:     make(map[string]*discordgo.Member),
		channels:    make(map[string]*discordgo.Channel),
		permissions: make(map[string]int64),
		sent:        make(map[string][]*discordgo.MessageSend),
		failDM:      make(map[string]bool),
	}
}

// allow marks $userID as a guild member with full read access to
// $channelID, the happy path of the permission gate
func (d *fakeDiscord) allow(guildID string, userID string, channelID string) {
	d.members[guildID+":"+userID] = &discordgo.Member{User: &discordgo.User{ID: userID}}
	if _, ok := d.channels[channelID]; !ok {
		d.channels[channelID] = &discordgo.Channel{
			ID:      channelID,
			GuildID: guildID,
			Type:    discordgo.ChannelTypeGuildText,
		}
	}
	d.permissions[userID+":"+channelID] = int64(discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory)
}

func (d *fakeDiscord) Member(guildID string, userID string) (*discordgo.Member, error) {
	member, ok := d.members[guildID+":"+userID]
	if !ok {
		return nil, errors.New("member not found")
	}
	return member, nil
}

func (d *fakeDiscord) Channel(channelID string) (*discordgo.Channel, error) {
	channel, ok := d.channels[channelID]
	if !ok {
		return nil, errors.New("channel not found")
	}
	return channel, nil
}

func (d *fakeDiscord) Permissions(userID string, channelID string) (int64, error) {
	permissions, ok := d.permissions[userID+":"+channelID]
	if !ok {
		return 0, errors.New("permissions not resolvable")
	}
	return permissions, nil
}

func (d *fakeDiscord) Guild(guildID string) (*discordgo.Guild, error) {
	if d.guild == nil {
		return nil, errors.New("guild not found")
	}
	return d.guild, nil
}

func (d *fakeDiscord) SendDirectMessage(userID string, send *discordgo.MessageSend) error {
	if d.failDM[userID] {
		return errors.New("cannot send messages to this user")
	}
	d.sent[userID] = append(d.sent[userID], send)
	return nil
}

func newTestEngine(store Store, discord Discord) *Engine {
	return NewEngine(
		store,
		discord,
		ratelimits.NewFixedWindow(1, 5*time.Minute),
		ratelimits.NewFixedWindow(3, 10*time.Minute),
	)
}

func newHighlight(userID string, content string) models.HighlightEntry {
	return models.HighlightEntry{
		ID:                     bson.NewObjectId(),
		UserID:                 userID,
		GuildID:                "guild",
		Content:                content,
		ChannelListIsBlacklist: true,
		UserListIsBlacklist:    true,
	}
}

func guildEvent(authorID string, content string) Event {
	return Event{
		GuildID:   "guild",
		ChannelID: "channel",
		MessageID: "message",
		AuthorID:  authorID,
		Author:    &discordgo.User{ID: authorID, Username: "author"},
		Content:   content,
	}
}

func TestEvaluateAggregatesPerRecipient(t *testing.T) {
	store := &fakeStore{entries: []models.HighlightEntry{
		newHighlight("owner", "gopher"),
		newHighlight("owner", "a considerably longer pattern"),
		newHighlight("other", "gopher"),
	}}
	discord := newFakeDiscord()
	discord.allow("guild", "owner", "channel")
	discord.allow("guild", "other", "channel")
	engine := newTestEngine(store, discord)

	notifications, err := engine.Evaluate(guildEvent("author", "look, a considerably longer pattern with a gopher"))
	require.NoError(t, err)

	require.Len(t, notifications, 2)
	assert.Equal(t, []string{"gopher", "a conside..."}, notifications["owner"])
	assert.Equal(t, []string{"gopher"}, notifications["other"])
	assert.Len(t, store.increased, 3)
}

func TestEvaluateSkipsOwnHighlights(t *testing.T) {
	store := &fakeStore{entries: []models.HighlightEntry{
		newHighlight("author", "gopher"),
	}}
	discord := newFakeDiscord()
	discord.allow("guild", "author", "channel")
	engine := newTestEngine(store, discord)

	notifications, err := engine.Evaluate(guildEvent("author", "gopher"))
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestEvaluateEmptyContent(t *testing.T) {
	store := &fakeStore{err: errors.New("must not be queried")}
	engine := newTestEngine(store, newFakeDiscord())

	notifications, err := engine.Evaluate(guildEvent("author", ""))
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestEvaluateStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("no reachable servers")}
	engine := newTestEngine(store, newFakeDiscord())

	_, err := engine.Evaluate(guildEvent("author", "gopher"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading highlights")
}

func TestEvaluateSuppressesActiveOwners(t *testing.T) {
	store := &fakeStore{entries: []models.HighlightEntry{
		newHighlight("owner", "gopher"),
	}}
	discord := newFakeDiscord()
	discord.allow("guild", "owner", "channel")
	discord.allow("guild", "owner", "elsewhere")
	engine := newTestEngine(store, discord)

	// the owner speaks in the channel first
	_, err := engine.Evaluate(guildEvent("owner", "hello"))
	require.NoError(t, err)

	notifications, err := engine.Evaluate(guildEvent("author", "gopher"))
	require.NoError(t, err)
	assert.Empty(t, notifications, "owner active in the channel must not be notified")

	// activity is scoped per channel
	event := guildEvent("author", "gopher")
	event.ChannelID = "elsewhere"
	notifications, err = engine.Evaluate(event)
	require.NoError(t, err)
	assert.Len(t, notifications["owner"], 1)
}

func TestEvaluateTriggerCooldown(t *testing.T) {
	store := &fakeStore{entries: []models.HighlightEntry{
		newHighlight("owner", "gopher"),
	}}
	discord := newFakeDiscord()
	discord.allow("guild", "owner", "channel")
	engine := newTestEngine(store, discord)

	var notified int
	for i := 0; i < 4; i++ {
		event := guildEvent("author", "gopher")
		event.MessageID = fmt.Sprintf("message-%d", i)
		notifications, err := engine.Evaluate(event)
		require.NoError(t, err)
		notified += len(notifications["owner"])
	}

	assert.Equal(t, 3, notified, "highlight must stop firing at window capacity")
	assert.Len(t, store.increased, 3)
}

func TestEvaluateDeniesWithoutPermissions(t *testing.T) {
	store := &fakeStore{entries: []models.HighlightEntry{
		newHighlight("owner", "gopher"),
	}}
	// owner is not a member of the guild at all
	engine := newTestEngine(store, newFakeDiscord())

	notifications, err := engine.Evaluate(guildEvent("author", "gopher"))
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestHandleMessageDeliversDMs(t *testing.T) {
	store := &fakeStore{entries: []models.HighlightEntry{
		newHighlight("owner", "gopher"),
	}}
	discord := newFakeDiscord()
	discord.allow("guild", "owner", "channel")
	discord.guild = &discordgo.Guild{ID: "guild", Name: "Gopher Den", Icon: "abc"}
	engine := newTestEngine(store, discord)

	err := engine.HandleMessage(guildEvent("author", "gopher spotted"))
	require.NoError(t, err)

	require.Len(t, discord.sent["owner"], 1)
	send := discord.sent["owner"][0]
	assert.Equal(t, "Highlights triggered: `gopher`", send.Content)
	require.NotNil(t, send.Embed)
	assert.Equal(t, "https://discord.com/channels/guild/channel/message", send.Embed.URL)
	assert.Equal(t, "gopher spotted", send.Embed.Description)
	assert.Equal(t, "Gopher Den", send.Embed.Footer.Text)
}

func TestHandleMessageSwallowsDeliveryFailures(t *testing.T) {
	store := &fakeStore{entries: []models.HighlightEntry{
		newHighlight("closed", "gopher"),
		newHighlight("open", "gopher"),
	}}
	discord := newFakeDiscord()
	discord.allow("guild", "closed", "channel")
	discord.allow("guild", "open", "channel")
	discord.failDM["closed"] = true
	engine := newTestEngine(store, discord)

	err := engine.HandleMessage(guildEvent("author", "gopher"))
	require.NoError(t, err, "a closed DM must not fail the event")
	assert.Len(t, discord.sent["open"], 1)
}

func TestEvaluateDeniedMatchConsumesTrigger(t *testing.T) {
	store := &fakeStore{entries: []models.HighlightEntry{
		newHighlight("owner", "gopher"),
	}}
	// the owner is not a guild member yet, every match fails the
	// permission check
	discord := newFakeDiscord()
	engine := newTestEngine(store, discord)

	for i := 0; i < 3; i++ {
		notifications, err := engine.Evaluate(guildEvent("author", "gopher"))
		require.NoError(t, err)
		assert.Empty(t, notifications)
	}

	// denied matches still count against the trigger window, so the
	// highlight stays silent even once the owner becomes visible
	discord.allow("guild", "owner", "channel")
	notifications, err := engine.Evaluate(guildEvent("author", "gopher"))
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

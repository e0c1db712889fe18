package highlights

import (
	"github.com/bwmarrin/discordgo"
	"github.com/globalsign/mgo/bson"
	"github.com/wiresbot/wires/cache"
	"github.com/wiresbot/wires/helpers"
	"github.com/wiresbot/wires/models"
)

// mdbStore reads highlight records from mongodb
type mdbStore struct{}

func (mdbStore) HighlightsForGuild(guildID string, authorID string) ([]models.HighlightEntry, error) {
	var entries []models.HighlightEntry
	err := helpers.MDbIter(helpers.MdbCollection(models.HighlightsTable).Find(bson.M{
		"guildid": bson.M{"$in": []string{guildID, models.HighlightGuildGlobal}},
		"userid":  bson.M{"$ne": authorID},
	})).All(&entries)
	return entries, err
}

func (mdbStore) IncreaseTriggered(id bson.ObjectId) {
	go func() {
		defer helpers.Recover()

		err := helpers.MDbUpdate(models.HighlightsTable, id, bson.M{"$inc": bson.M{"triggered": 1}})
		helpers.RelaxLog(err)
	}()
}

// sessionDiscord backs the engine with the shared gateway session
type sessionDiscord struct{}

func (sessionDiscord) Member(guildID string, userID string) (*discordgo.Member, error) {
	return helpers.GetGuildMember(guildID, userID)
}

func (sessionDiscord) Channel(channelID string) (*discordgo.Channel, error) {
	return helpers.GetChannel(channelID)
}

func (sessionDiscord) Permissions(userID string, channelID string) (int64, error) {
	session := cache.GetSession()

	permissions, err := session.State.UserChannelPermissions(userID, channelID)
	if err == nil {
		return permissions, nil
	}

	return session.UserChannelPermissions(userID, channelID)
}

func (sessionDiscord) Guild(guildID string) (*discordgo.Guild, error) {
	return helpers.GetGuild(guildID)
}

func (sessionDiscord) SendDirectMessage(userID string, send *discordgo.MessageSend) error {
	dmChannel, err := cache.GetSession().UserChannelCreate(userID)
	if err != nil {
		return err
	}

	_, err = helpers.SendComplex(dmChannel.ID, send)
	return err
}

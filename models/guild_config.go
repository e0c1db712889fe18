package models

import (
	"github.com/globalsign/mgo/bson"
)

const (
	GuildConfigsTable MongoDbCollection = "guild_configs"
)

type GuildConfigEntry struct {
	ID      bson.ObjectId `bson:"_id,omitempty"`
	GuildID string
	Prefix  string
}

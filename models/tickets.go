package models

import (
	"github.com/globalsign/mgo/bson"
)

const (
	TicketConfigsTable MongoDbCollection = "ticket_configs"
)

type TicketConfigEntry struct {
	ID        bson.ObjectId `bson:"_id,omitempty"`
	GuildID   string
	Name      string
	ChannelID string
}

package models

import (
	"github.com/globalsign/mgo/bson"
)

const (
	HighlightsTable MongoDbCollection = "highlights"

	// HighlightGuildGlobal marks a highlight that applies on every guild
	HighlightGuildGlobal = "global"
)

type HighlightEntry struct {
	ID      bson.ObjectId `bson:"_id,omitempty"`
	UserID  string
	GuildID string // can be "global" to affect every guild
	Content string
	IsRegex bool
	// empty lists impose no restriction, the blacklist flags only
	// matter once a list has entries
	ChannelList            []string
	ChannelListIsBlacklist bool
	UserList               []string
	UserListIsBlacklist    bool
	Triggered              int
}

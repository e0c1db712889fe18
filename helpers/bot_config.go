package helpers

import (
	"sync"

	"github.com/globalsign/mgo/bson"
	"github.com/wiresbot/wires/cache"
	"github.com/wiresbot/wires/models"
)

var (
	prefixCache      = make(map[string]string)
	prefixCacheMutex sync.RWMutex
)

// GetPrefixForServer returns the command prefix configured for $guildID,
// falling back to the global default from the config
func GetPrefixForServer(guildID string) string {
	prefixCacheMutex.RLock()
	prefix, ok := prefixCache[guildID]
	prefixCacheMutex.RUnlock()
	if ok {
		return prefix
	}

	var entry models.GuildConfigEntry
	err := MdbOne(
		MdbCollection(models.GuildConfigsTable).Find(bson.M{"guildid": guildID}),
		&entry,
	)
	if err != nil {
		if !IsMdbNotFound(err) {
			RelaxLog(err)
		}
		prefix = GetConfigString("discord.prefix", "_")
	} else {
		prefix = entry.Prefix
	}

	prefixCacheMutex.Lock()
	prefixCache[guildID] = prefix
	prefixCacheMutex.Unlock()

	return prefix
}

// SetPrefixForServer stores a new command prefix for $guildID
func SetPrefixForServer(guildID string, prefix string) error {
	err := MDbUpsert(
		models.GuildConfigsTable,
		bson.M{"guildid": guildID},
		models.GuildConfigEntry{
			GuildID: guildID,
			Prefix:  prefix,
		},
	)
	if err != nil {
		return err
	}

	prefixCacheMutex.Lock()
	prefixCache[guildID] = prefix
	prefixCacheMutex.Unlock()

	cache.GetLogger().WithField("module", "bot_config").Info(
		"Set prefix \"" + prefix + "\" for guild #" + guildID)
	return nil
}

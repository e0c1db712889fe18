package metrics

import (
	"expvar"
	"net/http"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/wiresbot/wires/cache"
	"github.com/wiresbot/wires/helpers"
)

var (
	// MessagesReceived counts all ever received messages
	MessagesReceived = expvar.NewInt("messages_received")

	// UserCount counts all logged-in users
	UserCount = expvar.NewInt("user_count")

	// GuildCount counts all joined guilds
	GuildCount = expvar.NewInt("guild_count")

	// CommandsExecuted increases after each command execution
	CommandsExecuted = expvar.NewInt("commands_executed")

	// HighlightsMatched increases for every highlight that survives the
	// full matching pipeline
	HighlightsMatched = expvar.NewInt("highlights_matched")

	// HighlightNotificationsSent increases for every delivered DM
	HighlightNotificationsSent = expvar.NewInt("highlight_notifications_sent")

	// TicketsCreated increases for every opened ticket thread
	TicketsCreated = expvar.NewInt("tickets_created")

	// CoroutineCount counts all running goroutines
	CoroutineCount = expvar.NewInt("coroutine_count")

	// Uptime stores the timestamp of the bot's boot
	Uptime = expvar.NewInt("uptime")
)

// Init starts the metrics http server
func Init() {
	address := helpers.GetConfigString("metrics.address", "127.0.0.1:1337")
	cache.GetLogger().WithField("module", "metrics").Info("Listening on " + address)
	Uptime.Set(time.Now().Unix())
	go http.ListenAndServe(address, nil)
}

// OnReady listens for said discord event
func OnReady(session *discordgo.Session, event *discordgo.Ready) {
	go CollectDiscordMetrics(session)
	go CollectRuntimeMetrics()
}

// OnMessageCreate listens for said discord event
func OnMessageCreate(session *discordgo.Session, event *discordgo.MessageCreate) {
	MessagesReceived.Add(1)
}

// CollectDiscordMetrics counts guilds and users
func CollectDiscordMetrics(session *discordgo.Session) {
	for {
		time.Sleep(15 * time.Second)

		users := make(map[string]struct{})
		guilds := session.State.Guilds

		for _, guild := range guilds {
			for _, u := range guild.Members {
				users[u.User.ID] = struct{}{}
			}
		}

		UserCount.Set(int64(len(users)))
		GuildCount.Set(int64(len(guilds)))
	}
}

// CollectRuntimeMetrics counts all running goroutines
func CollectRuntimeMetrics() {
	for {
		time.Sleep(15 * time.Second)
		CoroutineCount.Set(int64(runtime.NumGoroutine()))
	}
}

package rest

import (
	"net/http"

	"github.com/emicklei/go-restful"
	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"
	"github.com/wiresbot/wires/cache"
	"github.com/wiresbot/wires/helpers"
	"github.com/wiresbot/wires/models"
)

func NewRestServices() []*restful.WebService {
	services := make([]*restful.WebService, 0)

	service := new(restful.WebService)
	service.
		Path("/bot/guilds").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)
	service.Route(service.GET("").To(GetAllBotGuilds))
	services = append(services, service)

	service = new(restful.WebService)
	service.
		Path("/user").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	service.Route(service.GET("/{user-id}").To(FindUser))
	services = append(services, service)

	service = new(restful.WebService)
	service.
		Path("/highlights").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	service.Route(service.GET("/{user-id}").To(GetUserHighlights))
	services = append(services, service)

	return services
}

func GetAllBotGuilds(request *restful.Request, response *restful.Response) {
	if !cache.HasSession() {
		response.WriteError(http.StatusServiceUnavailable, errors.New("Gateway session not ready."))
		return
	}

	allGuilds := cache.GetSession().State.Guilds

	returnGuilds := make([]models.Rest_Guild, 0)
	for _, guild := range allGuilds {
		returnGuilds = append(returnGuilds, models.Rest_Guild{
			ID:        guild.ID,
			Name:      guild.Name,
			Icon:      guild.Icon,
			OwnerID:   guild.OwnerID,
			JoinedAt:  helpers.GetTimeFromSnowflake(guild.ID),
			BotPrefix: helpers.GetPrefixForServer(guild.ID),
		})
	}

	response.WriteEntity(returnGuilds)
}

func FindUser(request *restful.Request, response *restful.Response) {
	if !cache.HasSession() {
		response.WriteError(http.StatusServiceUnavailable, errors.New("Gateway session not ready."))
		return
	}

	userID := request.PathParameter("user-id")

	user, _ := helpers.GetUser(userID)
	if user != nil && user.ID != "" {
		returnUser := &models.Rest_User{
			ID:            user.ID,
			Username:      user.Username,
			AvatarHash:    user.Avatar,
			Discriminator: user.Discriminator,
			Bot:           user.Bot,
		}

		response.WriteEntity(returnUser)
	} else {
		response.WriteError(http.StatusNotFound, errors.New("User not found."))
	}
}

func GetUserHighlights(request *restful.Request, response *restful.Response) {
	userID := request.PathParameter("user-id")

	var entries []models.HighlightEntry
	err := helpers.MDbIter(helpers.MdbCollection(models.HighlightsTable).Find(bson.M{
		"userid": userID,
	})).All(&entries)
	if err != nil {
		response.WriteError(http.StatusInternalServerError, err)
		return
	}

	returnHighlights := make([]models.Rest_Highlight, 0)
	for _, entry := range entries {
		returnHighlights = append(returnHighlights, models.Rest_Highlight{
			ID:        entry.ID.Hex(),
			GuildID:   entry.GuildID,
			Content:   entry.Content,
			IsRegex:   entry.IsRegex,
			Triggered: entry.Triggered,
		})
	}

	response.WriteEntity(returnHighlights)
}

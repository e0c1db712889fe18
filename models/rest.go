package models

import "time"

type Rest_Guild struct {
	ID        string
	Name      string
	Icon      string
	OwnerID   string
	JoinedAt  time.Time
	BotPrefix string
}

type Rest_User struct {
	ID            string
	Username      string
	AvatarHash    string
	Discriminator string
	Bot           bool
}

type Rest_Highlight struct {
	ID        string
	GuildID   string
	Content   string
	IsRegex   bool
	Triggered int
}

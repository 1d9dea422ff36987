package auth

import (
	"math/rand/v2"

	"github.com/dori/tasktrackr/internal/model"
)

// Avatar is a character a new account gets assigned at signup
type Avatar struct {
	Emoji    string
	Name     string
	Stand    string
	ImageURL string
}

// Avatars is the pool signup picks from
var Avatars = []Avatar{
	{"⭐", "Jotaro Kujo", "Star Platinum", "https://images.unsplash.com/photo-1578662996442-48f60103fc96?w=100&h=100&fit=crop&crop=face"},
	{"🌍", "DIO", "The World", "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=100&h=100&fit=crop&crop=face"},
	{"🌟", "Giorno Giovanna", "Gold Experience", "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=100&h=100&fit=crop&crop=face"},
	{"💜", "Josuke Higashikata", "Crazy Diamond", "https://images.unsplash.com/photo-1500648767791-00dcc994a43e?w=100&h=100&fit=crop&crop=face"},
	{"🔥", "Joseph Joestar", "Hermit Purple", "https://images.unsplash.com/photo-1506794778202-cad84cf45f1d?w=100&h=100&fit=crop&crop=face"},
	{"⚡", "Jonathan Joestar", "Hamon Energy", "https://images.unsplash.com/photo-1519085360753-af0119f7cbe7?w=100&h=100&fit=crop&crop=face"},
	{"🌊", "Jolyne Cujoh", "Stone Free", "https://images.unsplash.com/photo-1494790108755-2616b612b786?w=100&h=100&fit=crop&crop=face"},
	{"🎭", "Johnny Joestar", "Tusk Act 4", "https://images.unsplash.com/photo-1507591064344-4c6ce005b128?w=100&h=100&fit=crop&crop=face"},
}

// RandomAvatar picks an avatar uniformly at random
func RandomAvatar() Avatar {
	return Avatars[rand.IntN(len(Avatars))]
}

// Apply copies the avatar's display attributes onto u
func (a Avatar) Apply(u *model.User) {
	u.AvatarEmoji = a.Emoji
	u.StandName = a.Stand
	u.AvatarURL = a.ImageURL
}

package server

import (
	"github.com/vanishhq/vanish/internal/modules/chat"
	"github.com/vanishhq/vanish/internal/modules/rooms"
	"github.com/vanishhq/vanish/internal/pubsub"
	"github.com/vanishhq/vanish/internal/store"
)

// appMounts is the central registry of all application modules and the
// route prefixes they are mounted under. The kernel iterates over this
// slice to register and boot each module.
func appMounts(st *store.RoomStore, pub pubsub.Publisher, sub pubsub.Subscriber) []mount {
	return []mount{
		{
			module: rooms.New(rooms.Dependencies{Store: st}),
			prefix: "/api",
		},
		{
			// The realtime endpoint lives at the root so clients dial
			// ws://host/ws.
			module: chat.New(chat.Dependencies{Store: st, Publisher: pub, Subscriber: sub}),
			prefix: "",
		},
	}
}

package registry

import (
	"github.com/vanishhq/vanish/internal/pubsub"
	"github.com/vanishhq/vanish/internal/store"
)

// Core service keys shared between modules. Using declared keys
// prevents typos and gives compile-time type checks on retrieval.
var (
	StoreKey      = Key[*store.RoomStore]("core.store")
	PublisherKey  = Key[pubsub.Publisher]("core.publisher")
	SubscriberKey = Key[pubsub.Subscriber]("core.subscriber")
)

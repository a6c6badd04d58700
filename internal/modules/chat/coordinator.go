package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/vanishhq/vanish/internal/domain"
	"github.com/vanishhq/vanish/internal/ids"
	"github.com/vanishhq/vanish/internal/pubsub"
	"github.com/vanishhq/vanish/internal/store"
)

// TopicRoomEvents is the bus topic every room broadcast is published
// to. Publishing happens from the coordinator's single event loop, so
// bus order equals store-mutation order; the dispatcher consumes the
// topic sequentially and fans frames out to the room's live
// connections.
const TopicRoomEvents = "room.events"

// Metadata keys attached to room broadcasts.
const (
	metaRoomID      = "room_id"
	metaExcludeConn = "exclude_conn"
)

// binding associates a connection with the user it became when it
// joined a room. A connection is bound at most once in its lifetime;
// rejoining requires a new connection.
type binding struct {
	userID string
	roomID string
	name   string
}

type envelope struct {
	client *Client
	frame  []byte
}

// Coordinator owns all connection bindings and serializes every
// membership and messaging event through a single run loop. The room
// store stays the single source of truth for membership and content;
// the coordinator never caches counts or member lists of its own.
type Coordinator struct {
	store     *store.RoomStore
	publisher pubsub.Publisher

	// mu guards bindings, which the dispatcher reads concurrently with
	// the run loop's mutations.
	mu       sync.RWMutex
	bindings map[*Client]binding

	// clients is touched only by the run loop.
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	inbound    chan envelope

	// done is closed when the run loop exits so callers blocked on the
	// channels above are released during shutdown.
	done chan struct{}
}

// NewCoordinator creates a Coordinator over the given store and bus
// publisher. Call Start before attaching connections.
func NewCoordinator(st *store.RoomStore, pub pubsub.Publisher) *Coordinator {
	return &Coordinator{
		store:      st,
		publisher:  pub,
		bindings:   make(map[*Client]binding),
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan envelope, 256),
		done:       make(chan struct{}),
	}
}

// Start subscribes the fan-out dispatcher to the room-events topic and
// launches the run loop. Both stop when ctx is canceled.
func (c *Coordinator) Start(ctx context.Context, sub pubsub.Subscriber) error {
	if err := sub.Subscribe(ctx, TopicRoomEvents, c.dispatch); err != nil {
		return err
	}
	go c.run(ctx)
	return nil
}

// Attach registers a new, unbound connection with the coordinator.
// After shutdown it is a no-op.
func (c *Coordinator) Attach(client *Client) {
	select {
	case c.register <- client:
	case <-c.done:
	}
}

// Detach signals that a connection is gone. Safe to call more than
// once; cleanup runs exactly once. After shutdown it is a no-op, so a
// straggling read pump never hangs.
func (c *Coordinator) Detach(client *Client) {
	select {
	case c.unregister <- client:
	case <-c.done:
	}
}

// Deliver hands a raw inbound frame to the coordinator. Frames from one
// connection are processed in arrival order; frames arriving after
// shutdown are dropped.
func (c *Coordinator) Deliver(client *Client, frame []byte) {
	select {
	case c.inbound <- envelope{client: client, frame: frame}:
	case <-c.done:
	}
}

func (c *Coordinator) run(ctx context.Context) {
	defer close(c.done)

	slog.Info("Session coordinator started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("Session coordinator stopped")
			return

		case client := <-c.register:
			c.clients[client] = struct{}{}
			slog.Debug("Connection attached", "connID", client.id, "total", len(c.clients))

		case client := <-c.unregister:
			c.handleDisconnect(ctx, client)

		case env := <-c.inbound:
			c.handleFrame(ctx, env.client, env.frame)
		}
	}
}

func (c *Coordinator) handleFrame(ctx context.Context, client *Client, frame []byte) {
	if _, ok := c.clients[client]; !ok {
		// The connection disconnected with this frame still queued.
		return
	}

	ev, err := ParseInbound(frame)
	if err != nil {
		client.trySend(ErrorFrame(errInvalidFormat))
		return
	}

	switch ev := ev.(type) {
	case *JoinRoom:
		c.handleJoin(ctx, client, ev.RoomID)
	case *SendMessage:
		c.handleSendMessage(ctx, client, ev.Content)
	}
}

func (c *Coordinator) handleJoin(ctx context.Context, client *Client, roomID string) {
	if _, bound := c.bindingFor(client); bound {
		client.trySend(ErrorFrame(errAlreadyInRoom))
		return
	}

	if _, err := c.store.GetRoom(roomID); err != nil {
		client.trySend(ErrorFrame(errRoomNotFound))
		return
	}

	user, err := c.store.AddUserToRoom(domain.User{
		ID:     uuid.NewString(),
		Name:   ids.NewGuestName(),
		RoomID: roomID,
	})
	if err != nil {
		// The room vanished between lookup and insert.
		if errors.Is(err, domain.ErrRoomNotFound) {
			client.trySend(ErrorFrame(errRoomNotFound))
		} else {
			slog.Error("Failed to add user to room", "roomID", roomID, "error", err)
			client.trySend(ErrorFrame(errJoinFailed))
		}
		return
	}

	c.bind(client, binding{userID: user.ID, roomID: roomID, name: user.Name})
	slog.Info("User joined room", "userID", user.ID, "name", user.Name, "roomID", roomID)

	// The joining connection gets, in order: the join confirmation with
	// a fresh room snapshot, the full message history, and the current
	// member list.
	room, err := c.store.GetRoom(roomID)
	if err != nil {
		slog.Error("Room disappeared directly after join", "roomID", roomID, "error", err)
		return
	}
	client.trySend(JoinedRoomFrame(user, room))
	client.trySend(MessagesHistoryFrame(c.store.GetMessagesInRoom(roomID)))
	client.trySend(UsersListFrame(c.store.GetUsersInRoom(roomID)))

	sysMsg, err := c.store.AddMessage(domain.Message{
		Content:    user.Name + " joined the room",
		AuthorID:   domain.SystemAuthorID,
		AuthorName: domain.SystemAuthorName,
		RoomID:     roomID,
	})
	if err != nil {
		slog.Error("Failed to store join notice", "roomID", roomID, "error", err)
		return
	}

	// Everyone already in the room learns about the newcomer; the
	// joining connection never sees its own user_joined.
	c.broadcast(ctx, roomID, user.ID, client.id,
		UserJoinedFrame(user, sysMsg, c.store.GetRoomUserCount(roomID)))

	c.checkRoomInvariant(roomID)
}

func (c *Coordinator) handleSendMessage(ctx context.Context, client *Client, content string) {
	b, bound := c.bindingFor(client)
	if !bound {
		client.trySend(ErrorFrame(errNotInRoom))
		return
	}

	msg, err := c.store.AddMessage(domain.Message{
		Content:    content,
		AuthorID:   b.userID,
		AuthorName: b.name,
		RoomID:     b.roomID,
	})
	if err != nil {
		slog.Error("Failed to store message", "roomID", b.roomID, "userID", b.userID, "error", err)
		client.trySend(ErrorFrame(errSendFailed))
		return
	}

	// Every bound connection in the room receives the message,
	// including the sender; the echo is the sender's delivery
	// confirmation.
	c.broadcast(ctx, b.roomID, b.userID, "", NewMessageFrame(msg))
}

func (c *Coordinator) handleDisconnect(ctx context.Context, client *Client) {
	if _, ok := c.clients[client]; !ok {
		return
	}
	delete(c.clients, client)

	b, bound := c.bindingFor(client)
	c.unbind(client)
	client.closeSend()

	if !bound {
		slog.Debug("Unbound connection closed", "connID", client.id)
		return
	}

	c.store.RemoveUserFromRoom(b.userID, b.roomID)
	slog.Info("User left room", "userID", b.userID, "name", b.name, "roomID", b.roomID)

	if _, err := c.store.GetRoom(b.roomID); err != nil {
		// The cascade already collected the empty room; nobody is left
		// to notify.
		slog.Info("Room deleted after last participant left", "roomID", b.roomID)
		return
	}

	sysMsg, err := c.store.AddMessage(domain.Message{
		Content:    b.name + " left the room",
		AuthorID:   domain.SystemAuthorID,
		AuthorName: domain.SystemAuthorName,
		RoomID:     b.roomID,
	})
	if err != nil {
		slog.Error("Failed to store leave notice", "roomID", b.roomID, "error", err)
		return
	}

	c.broadcast(ctx, b.roomID, b.userID, "",
		UserLeftFrame(b.userID, sysMsg, c.store.GetRoomUserCount(b.roomID)))

	c.checkRoomInvariant(b.roomID)
}

// broadcast publishes a frame for all connections bound to a room.
// excludeConn, when non-empty, names a connection that must not receive
// the frame (the join case, where the newcomer already got its own
// confirmation).
func (c *Coordinator) broadcast(ctx context.Context, roomID, userID, excludeConn string, frame []byte) {
	msg := pubsub.Message{
		Topic:   TopicRoomEvents,
		UserID:  userID,
		Payload: frame,
		Metadata: map[string]string{
			metaRoomID: roomID,
		},
	}
	if excludeConn != "" {
		msg.Metadata[metaExcludeConn] = excludeConn
	}
	if err := c.publisher.Publish(ctx, msg); err != nil {
		slog.Error("Failed to publish room broadcast", "roomID", roomID, "error", err)
	}
}

// dispatch is the bus subscriber that fans a room broadcast out to the
// connections bound to that room. The recipient set is evaluated here,
// at delivery time, so a connection that disconnected mid-handler is
// simply no longer in the map.
func (c *Coordinator) dispatch(ctx context.Context, msg pubsub.Message) error {
	roomID := msg.Metadata[metaRoomID]
	exclude := msg.Metadata[metaExcludeConn]

	c.mu.RLock()
	defer c.mu.RUnlock()

	for client, b := range c.bindings {
		if b.roomID != roomID {
			continue
		}
		if exclude != "" && client.id == exclude {
			continue
		}
		client.trySend(msg.Payload)
	}
	return nil
}

func (c *Coordinator) bind(client *Client, b binding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[client] = b
}

func (c *Coordinator) unbind(client *Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bindings, client)
}

func (c *Coordinator) bindingFor(client *Client) (binding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.bindings[client]
	return b, ok
}

// checkRoomInvariant verifies that the store's cached user count still
// matches the membership set. A divergence means a coordinator bug, not
// a client error, so it is logged loudly instead of being surfaced to
// users.
func (c *Coordinator) checkRoomInvariant(roomID string) {
	room, err := c.store.GetRoom(roomID)
	if err != nil {
		return
	}
	members := c.store.GetUsersInRoom(roomID)
	if room.UserCount != len(members) {
		slog.Error("Room user count diverged from membership set",
			"roomID", roomID, "userCount", room.UserCount, "members", len(members))
	}
}

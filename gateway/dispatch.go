package gateway

import (
	"encoding/json"
	"log/slog"

	"chat-hub/contract"
	"chat-hub/domain"
	apperrors "chat-hub/errors"
	"chat-hub/runtime"
	"chat-hub/services"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type userRequest struct {
	UserID string `json:"userId"`
}

type channelRequest struct {
	ChannelID string `json:"channelId"`
}

type messagesRequest struct {
	ChannelID string `json:"channelId"`
	Mode      int    `json:"mode"`
	Cursor    string `json:"cursor,omitempty"`
}

type editSelfRequest struct {
	Avatar *string `json:"avatar,omitempty"`
	Handle *string `json:"handle,omitempty"`
}

type editChannelRequest struct {
	ChannelID   string  `json:"channelId"`
	Avatar      *string `json:"avatar,omitempty"`
	Description *string `json:"description,omitempty"`
	Name        *string `json:"name,omitempty"`
}

type createChannelRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"isPublic"`
}

type createMessageRequest struct {
	ChannelID string `json:"channelId"`
	Text      string `json:"text"`
	File      string `json:"file,omitempty"`
}

// Dispatcher maps the request event catalog onto the services. Every
// handler receives the session explicitly: the authenticated identity comes
// from it, never from captured closure state.
type Dispatcher struct {
	auth       services.IAuthService
	directory  services.IDirectoryService
	membership services.IMembershipService
	channels   services.IChannelService
	messages   services.IMessageService
	registry   contract.IRegistry
	log        *slog.Logger
}

func NewDispatcher(auth services.IAuthService, directory services.IDirectoryService,
	membership services.IMembershipService, channels services.IChannelService,
	messages services.IMessageService, registry contract.IRegistry, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		auth:       auth,
		directory:  directory,
		membership: membership,
		channels:   channels,
		messages:   messages,
		registry:   registry,
		log:        log,
	}
}

// Handle routes one request envelope. Handshake events are allowed in any
// state; everything else requires an Authenticated session.
func (d *Dispatcher) Handle(session *runtime.Session, conn *Conn, env Envelope) {
	switch env.Event {
	case "login":
		d.handshake(session, conn, env, func(c credentialsRequest) (services.AuthResult, error) {
			return d.auth.Login(c.Username, c.Password)
		})
		return
	case "register":
		d.handshake(session, conn, env, func(c credentialsRequest) (services.AuthResult, error) {
			return d.auth.Register(c.Username, c.Password)
		})
		return
	case "authenticate":
		d.handshakeToken(session, conn, env)
		return
	}

	userID, _, ok := session.Identity()
	if !ok {
		conn.Emit("unauthorized", map[string]string{"reason": "authentication required"})
		return
	}

	switch env.Event {
	case "getUser":
		d.getUser(conn, env)
	case "getChannel", "getEphemeralChannel":
		d.getChannel(conn, env)
	case "getAllChannels":
		d.getAllChannels(conn, env)
	case "getMessages":
		d.getMessages(conn, env)
	case "editSelf":
		d.editSelf(conn, env, userID)
	case "editChannel":
		d.editChannel(conn, env, userID)
	case "createChannel":
		d.createChannel(conn, env, userID)
	case "deleteChannel":
		d.deleteChannel(conn, env, userID)
	case "joinChannel":
		d.joinChannel(conn, env, userID)
	case "leaveChannel":
		d.leaveChannel(conn, env, userID)
	case "createMessage":
		d.createMessage(conn, env, userID)
	default:
		conn.Emit("error", map[string]string{"reason": "unknown event " + env.Event})
	}
}

// handshake runs login or register through the session state machine. On
// success the connection is bound to its identity rooms and receives the
// profile, its own id and a fresh token, as direct events.
func (d *Dispatcher) handshake(session *runtime.Session, conn *Conn, env Envelope,
	authenticate func(credentialsRequest) (services.AuthResult, error)) {
	var creds credentialsRequest
	if err := json.Unmarshal(env.Data, &creds); err != nil {
		conn.Emit("unauthorized", map[string]string{"reason": "malformed credentials"})
		return
	}
	if !session.BeginAuth() {
		conn.Emit("unauthorized", map[string]string{"reason": "handshake already completed or in progress"})
		return
	}

	result, err := authenticate(creds)
	if err != nil {
		session.Fail()
		conn.Emit("unauthorized", map[string]string{"reason": apperrors.Reason(err)})
		return
	}
	d.bindIdentity(session, conn, result)
}

func (d *Dispatcher) handshakeToken(session *runtime.Session, conn *Conn, env Envelope) {
	var req tokenRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		conn.Emit("unauthorized", map[string]string{"reason": "malformed token"})
		return
	}
	if !session.BeginAuth() {
		conn.Emit("unauthorized", map[string]string{"reason": "handshake already completed or in progress"})
		return
	}

	result, err := d.auth.Authenticate(req.Token)
	if err != nil {
		session.Fail()
		conn.Emit("unauthorized", map[string]string{"reason": apperrors.Reason(err)})
		return
	}
	d.bindIdentity(session, conn, result)
}

// bindIdentity completes the handshake: the connection subscribes to its
// own user room, the catalog room, and the rooms of every channel it is a
// member of, so it starts receiving live updates immediately. When the
// handshake deadline fired while the token was being verified the session
// is already dead, and registering the connection would leave orphaned
// subscriptions behind.
func (d *Dispatcher) bindIdentity(session *runtime.Session, conn *Conn, result services.AuthResult) {
	if !session.Succeed(result.Profile.ID, result.Profile.Username) {
		d.log.Info("handshake finished after session ended", "conn_id", conn.ID)
		return
	}

	d.registry.Subscribe(conn.ID, domain.UserRoom(result.Profile.ID), conn)
	d.registry.Subscribe(conn.ID, domain.CatalogRoom, conn)
	for _, channelID := range result.Profile.Channels {
		d.registry.Subscribe(conn.ID, domain.ChannelRoom(channelID), conn)
	}

	conn.Emit("addUser", result.Profile)
	conn.Emit("addSelf", result.Profile.ID)
	conn.Emit("newToken", result.Token)
	d.log.Info("connection authenticated", "conn_id", conn.ID, "user_id", result.Profile.ID)
}

func (d *Dispatcher) getUser(conn *Conn, env Envelope) {
	var req userRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		conn.Emit("error", map[string]string{"reason": "malformed request"})
		return
	}
	profile, err := d.directory.GetUser(req.UserID)
	if err != nil {
		d.surface(conn, env, err)
		return
	}
	conn.Reply(env.Seq, profile)
}

func (d *Dispatcher) getChannel(conn *Conn, env Envelope) {
	var req channelRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		conn.Emit("error", map[string]string{"reason": "malformed request"})
		return
	}
	view, err := d.directory.GetChannel(req.ChannelID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		// A miss or tombstone yields an empty result, not an error.
		conn.Reply(env.Seq, nil)
		return
	}
	if err != nil {
		d.surface(conn, env, err)
		return
	}
	conn.Reply(env.Seq, view)
}

func (d *Dispatcher) getAllChannels(conn *Conn, env Envelope) {
	views, err := d.directory.GetAllChannels()
	if err != nil {
		d.surface(conn, env, err)
		return
	}
	conn.Reply(env.Seq, views)
}

func (d *Dispatcher) getMessages(conn *Conn, env Envelope) {
	var req messagesRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		conn.Emit("error", map[string]string{"reason": "malformed request"})
		return
	}
	views, err := d.messages.GetMessages(req.ChannelID, req.Mode, req.Cursor)
	if err != nil {
		d.surface(conn, env, err)
		return
	}
	conn.Reply(env.Seq, views)
}

func (d *Dispatcher) editSelf(conn *Conn, env Envelope, userID string) {
	var req editSelfRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		conn.Emit("error", map[string]string{"reason": "malformed request"})
		return
	}
	profile, err := d.membership.EditSelf(userID, req.Avatar, req.Handle)
	if err != nil {
		d.surface(conn, env, err)
		return
	}
	conn.Reply(env.Seq, profile)
}

func (d *Dispatcher) editChannel(conn *Conn, env Envelope, userID string) {
	var req editChannelRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		conn.Emit("error", map[string]string{"reason": "malformed request"})
		return
	}
	if err := d.membership.EditChannel(userID, req.ChannelID, req.Avatar, req.Description, req.Name); err != nil {
		d.surface(conn, env, err)
		return
	}
	conn.Reply(env.Seq, "edited")
}

func (d *Dispatcher) createChannel(conn *Conn, env Envelope, userID string) {
	var req createChannelRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		conn.Emit("error", map[string]string{"reason": "malformed request"})
		return
	}
	view, err := d.channels.CreateChannel(userID, req.Name, req.Description, req.IsPublic)
	if err != nil {
		d.surface(conn, env, err)
		return
	}
	// The creator's connection joins the new channel's room right away;
	// other members arrive through joinChannel.
	d.registry.Subscribe(conn.ID, domain.ChannelRoom(view.ID), conn)
	conn.Reply(env.Seq, view)
}

func (d *Dispatcher) deleteChannel(conn *Conn, env Envelope, userID string) {
	var req channelRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		conn.Emit("error", map[string]string{"reason": "malformed request"})
		return
	}
	if err := d.channels.DeleteChannel(userID, req.ChannelID); err != nil {
		d.surface(conn, env, err)
		return
	}
	conn.Reply(env.Seq, "deleted")
}

func (d *Dispatcher) joinChannel(conn *Conn, env Envelope, userID string) {
	var req channelRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		conn.Emit("error", map[string]string{"reason": "malformed request"})
		return
	}
	if err := d.membership.JoinChannel(userID, req.ChannelID); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			conn.Reply(env.Seq, "channel does not exist")
			return
		}
		d.surface(conn, env, err)
		return
	}
	d.registry.Subscribe(conn.ID, domain.ChannelRoom(req.ChannelID), conn)
	conn.Reply(env.Seq, "joined")
}

func (d *Dispatcher) leaveChannel(conn *Conn, env Envelope, userID string) {
	var req channelRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		conn.Emit("error", map[string]string{"reason": "malformed request"})
		return
	}
	if err := d.membership.LeaveChannel(userID, req.ChannelID); err != nil {
		switch {
		case apperrors.Is(err, apperrors.ErrOwnerCannotLeave):
			conn.Reply(env.Seq, "owner cant leave")
		case apperrors.Is(err, apperrors.ErrNotFound):
			conn.Reply(env.Seq, "channel not found")
		default:
			d.surface(conn, env, err)
		}
		return
	}
	d.registry.Unsubscribe(conn.ID, domain.ChannelRoom(req.ChannelID))
	conn.Reply(env.Seq, "left")
}

func (d *Dispatcher) createMessage(conn *Conn, env Envelope, userID string) {
	var req createMessageRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		conn.Emit("error", map[string]string{"reason": "malformed request"})
		return
	}
	if _, err := d.messages.CreateMessage(userID, req.ChannelID, req.Text, req.File); err != nil {
		d.surface(conn, env, err)
		return
	}
	conn.Reply(env.Seq, "message saved")
}

// surface reports a failure to the caller. Validation, permission, state
// and not-found failures carry their reason; storage failures are logged
// fully and reported generically.
func (d *Dispatcher) surface(conn *Conn, env Envelope, err error) {
	if apperrors.Is(err, apperrors.ErrStorage) {
		d.log.Error("storage failure", "conn_id", conn.ID, "event", env.Event, "error", err)
		conn.Emit("error", map[string]string{"reason": "storage failure, try again"})
		return
	}
	conn.Emit("error", map[string]string{"reason": apperrors.Reason(err)})
}

package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/app"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/config"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/core"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
)

// Controller upgrades authenticated requests and dispatches the event
// protocol to the orchestrator.
type Controller struct {
	orch     *app.Orchestrator
	cfg      *config.Config
	upgrader websocket.Upgrader
}

func NewController(orch *app.Orchestrator, cfg *config.Config) *Controller {
	return &Controller{
		orch: orch,
		cfg:  cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// TODO: restrict origins once the frontend host is pinned.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle runs after the auth middleware; a request without a verified
// identity never reaches this point.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	v, ok := c.Get("identity")
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	user := v.(*domain.User)

	socket, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.ws").Msg("upgrade failed")
		return
	}

	conn := NewConn(socket, ctl.cfg.ReadLimit, ctl.cfg.SendBuffer, ctl.cfg.PingPeriod, ctl.cfg.WriteTimeout)
	sid := ctl.orch.Connect(conn, user)
	log.Info().Str("module", "adapters.ws").Str("sid", string(sid)).Str("user", string(user.ID)).Msg("connection established")

	connCtx, cancel := context.WithCancel(ctx)
	go conn.WritePump(connCtx)
	go func() {
		defer func() {
			cancel()
			ctl.orch.Disconnect(sid)
			conn.Close()
		}()
		conn.ReadPump(connCtx, func(data []byte) {
			ctl.dispatch(connCtx, sid, conn, data)
		})
	}()
}

// dispatch is the single entry point for inbound events: decode, call
// the matching orchestrator operation, report rejections back.
func (ctl *Controller) dispatch(ctx context.Context, sid core.SessionID, conn *Conn, data []byte) {
	var env core.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		ctl.sendError(conn, domain.InvalidRequest("malformed frame"))
		return
	}

	var err error
	switch env.Event {
	case core.EvtJoinRoom:
		var roomID domain.RoomID
		if roomID, err = core.DecodeRoomRef(env.Data); err == nil {
			err = ctl.orch.JoinRoom(ctx, sid, roomID)
		}
	case core.EvtLeaveRoom:
		var roomID domain.RoomID
		if roomID, err = core.DecodeRoomRef(env.Data); err == nil {
			err = ctl.orch.LeaveRoom(sid, roomID)
		}
	case core.EvtSendMessage:
		var p core.SendMessageIn
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = ctl.orch.SendMessage(ctx, sid, domain.RoomID(p.RoomID), p.Message)
		}
	case core.EvtTyping:
		var roomID domain.RoomID
		if roomID, err = core.DecodeRoomRef(env.Data); err == nil {
			err = ctl.orch.Typing(sid, roomID)
		}
	case core.EvtStopTyping:
		var roomID domain.RoomID
		if roomID, err = core.DecodeRoomRef(env.Data); err == nil {
			err = ctl.orch.StopTyping(sid, roomID)
		}
	case core.EvtJoinVideoRoom:
		var roomID domain.RoomID
		if roomID, err = core.DecodeRoomRef(env.Data); err == nil {
			err = ctl.orch.JoinCall(ctx, sid, roomID)
		}
	case core.EvtLeaveVideoRoom:
		var roomID domain.RoomID
		if roomID, err = core.DecodeRoomRef(env.Data); err == nil {
			err = ctl.orch.LeaveCall(sid, roomID)
		}
	case core.EvtOffer:
		var p core.OfferIn
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = ctl.orch.Offer(ctx, sid, domain.RoomID(p.RoomID), p.Offer)
		}
	case core.EvtAnswer:
		var p core.AnswerIn
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = ctl.orch.Answer(ctx, sid, domain.RoomID(p.RoomID), p.Answer)
		}
	case core.EvtICECandidate:
		var p core.CandidateIn
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = ctl.orch.Candidate(ctx, sid, domain.RoomID(p.RoomID), p.Candidate)
		}
	default:
		err = domain.InvalidRequest("unknown event: " + env.Event)
	}

	if err != nil {
		ctl.reportError(conn, sid, env.Event, err)
	}
}

func (ctl *Controller) reportError(conn *Conn, sid core.SessionID, event string, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		log.Debug().Str("module", "adapters.ws").Str("sid", string(sid)).Str("event", event).Str("code", de.Code).Msg("event rejected")
		ctl.sendError(conn, de)
		return
	}
	var syn *json.SyntaxError
	if errors.As(err, &syn) || isDecodeError(err) {
		ctl.sendError(conn, domain.InvalidRequest("malformed payload"))
		return
	}
	log.Error().Err(err).Str("module", "adapters.ws").Str("sid", string(sid)).Str("event", event).Msg("event failed")
	frame, encErr := core.Encode(core.EvtServerError, core.ServerError{Message: "internal error"})
	if encErr == nil {
		_ = conn.TrySend(frame)
	}
}

func isDecodeError(err error) bool {
	var ute *json.UnmarshalTypeError
	return errors.As(err, &ute)
}

func (ctl *Controller) sendError(conn *Conn, de *domain.Error) {
	frame, err := core.Encode(core.EvtError, de)
	if err != nil {
		return
	}
	_ = conn.TrySend(frame)
}

package app

import (
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/core"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickSession
)

// Policy decides what happens to a member whose send buffer stayed full
// during a broadcast.
type Policy interface {
	OnBackpressure(roomID domain.RoomID, sid core.SessionID) BackpressureAction
}

// KickSlowPolicy closes slow consumers; the transport close runs the
// normal disconnect cascade.
type KickSlowPolicy struct{}

func (KickSlowPolicy) OnBackpressure(domain.RoomID, core.SessionID) BackpressureAction {
	return KickSession
}

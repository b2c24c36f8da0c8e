package server

import (
	"github.com/sirupsen/logrus"

	internalserver "github.com/SmitUplenchwar2687/Pacer/internal/server"
)

// Server is the live monitor for a replay.
type Server = internalserver.Server

// Hub fans published batches out to WebSocket clients. It is also a sink.
type Hub = internalserver.Hub

// Info describes the monitored run.
type Info = internalserver.Info

// Progress reports the state of a running replay.
type Progress = internalserver.Progress

// Status is the body of GET /api/status.
type Status = internalserver.Status

// BatchEvent is the message sent to WebSocket clients for each batch.
type BatchEvent = internalserver.BatchEvent

// New creates a monitor server. progress may be nil.
func New(addr string, hub *Hub, info Info, progress Progress, log logrus.FieldLogger) *Server {
	return internalserver.New(addr, hub, info, progress, log)
}

// NewHub creates a hub for topic.
func NewHub(topic string, log logrus.FieldLogger) *Hub {
	return internalserver.NewHub(topic, log)
}

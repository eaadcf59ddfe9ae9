package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"inkwell/internal/room"
	"inkwell/internal/store"
	"inkwell/internal/ws"
)

// API is the read-only query surface: active rooms, per-room stats, server
// totals. It observes state, never mutates it.
type API struct {
	registry *room.Registry
	hub      *ws.Hub      // optional, websocket client count
	sessions *store.Store // optional, lifetime totals
	log      *zap.Logger
}

func New(registry *room.Registry, hub *ws.Hub, sessions *store.Store, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{
		registry: registry,
		hub:      hub,
		sessions: sessions,
		log:      log,
	}
}

// Register mounts the routes on the engine.
func (a *API) Register(r *gin.Engine) {
	r.GET("/health", a.Health)
	r.GET("/api/stats", a.Stats)
	r.GET("/api/rooms", a.ListRooms)
	r.GET("/api/rooms/:id", a.GetRoom)
	r.GET("/api/sessions", a.RecentSessions)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) Stats(c *gin.Context) {
	stats := gin.H{
		"active_rooms":   a.registry.RoomCount(),
		"active_clients": a.registry.ClientCount(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}
	if a.hub != nil {
		stats["connected_sockets"] = a.hub.ClientCount()
	}
	if a.sessions != nil {
		if totalSessions, totalStrokes, err := a.sessions.Totals(); err == nil {
			stats["total_sessions"] = totalSessions
			stats["total_strokes"] = totalStrokes
		}
	}

	c.JSON(http.StatusOK, stats)
}

func (a *API) ListRooms(c *gin.Context) {
	ids := a.registry.ActiveRooms()

	rooms := make([]*room.RoomStats, 0, len(ids))
	for _, id := range ids {
		if stats, ok := a.registry.Stats(id); ok {
			rooms = append(rooms, stats)
		}
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (a *API) GetRoom(c *gin.Context) {
	roomID := c.Param("id")

	stats, ok := a.registry.Stats(roomID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (a *API) RecentSessions(c *gin.Context) {
	if a.sessions == nil {
		c.JSON(http.StatusOK, gin.H{"sessions": []store.Session{}})
		return
	}

	sessions, err := a.sessions.RecentSessions(50)
	if err != nil {
		a.log.Error("session log query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sessions"})
		return
	}
	if sessions == nil {
		sessions = []store.Session{}
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

package http

import (
	"net/http"

	"github.com/Arnob004/FileShare/internal/core/domain"
	"github.com/Arnob004/FileShare/internal/core/ports"
	"github.com/Arnob004/FileShare/internal/infrastructure/monitoring"
	apperrors "github.com/Arnob004/FileShare/pkg/errors"
	"github.com/Arnob004/FileShare/pkg/validation"

	"github.com/gin-gonic/gin"
)

// RosterHandler exposes a read-only REST view of the live state: who is
// online, which rooms are active, and a QR image for any online uid.
// All mutation happens over the websocket protocol.
type RosterHandler struct {
	presence ports.PresenceService
	roomRepo ports.RoomRepository
	codec    ports.IdentityCodec
	health   *monitoring.HealthChecker
}

func NewRosterHandler(
	presence ports.PresenceService,
	roomRepo ports.RoomRepository,
	codec ports.IdentityCodec,
	health *monitoring.HealthChecker,
) *RosterHandler {
	return &RosterHandler{
		presence: presence,
		roomRepo: roomRepo,
		codec:    codec,
		health:   health,
	}
}

func (h *RosterHandler) SetupRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)

	api := router.Group("/api/v1")
	{
		api.GET("/peers", h.ListPeers)
		api.GET("/peers/:uid/qr", h.PeerQR)
		api.GET("/rooms", h.ListRooms)
		api.GET("/stats", h.Stats)
	}
}

func (h *RosterHandler) ListPeers(c *gin.Context) {
	peers, err := h.presence.Roster(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"peers": peers,
		"count": len(peers),
	})
}

// PeerQR renders the uid of an online peer as a scannable PNG, the
// same image the reference client shows for out-of-band exchange.
func (h *RosterHandler) PeerQR(c *gin.Context) {
	uid := domain.UID(c.Param("uid"))
	if err := validation.ValidateUID(string(uid)); err != nil {
		c.Error(apperrors.NewInvalidInput(err.Error()))
		return
	}

	roster, err := h.presence.Roster(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	online := false
	for _, p := range roster {
		if p.UID == uid {
			online = true
			break
		}
	}
	if !online {
		c.Error(domain.ErrUnknownPeer)
		return
	}

	png, err := h.codec.Encode(uid)
	if err != nil {
		c.Error(err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *RosterHandler) ListRooms(c *gin.Context) {
	rooms, err := h.roomRepo.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rooms": rooms,
		"count": len(rooms),
	})
}

func (h *RosterHandler) Stats(c *gin.Context) {
	peers, err := h.presence.Roster(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	rooms, err := h.roomRepo.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	active := 0
	for _, r := range rooms {
		if r.Active() {
			active++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"peers_online": len(peers),
		"rooms_total":  len(rooms),
		"rooms_active": active,
	})
}

// Health is liveness: the process answers. Ready is readiness: the
// backing repositories answer too, so load balancers gate traffic on it.
func (h *RosterHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (h *RosterHandler) Ready(c *gin.Context) {
	status := h.health.CheckAll(c.Request.Context())
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

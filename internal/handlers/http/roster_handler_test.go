package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Arnob004/FileShare/internal/core/domain"
	"github.com/Arnob004/FileShare/internal/core/ports"
	"github.com/Arnob004/FileShare/internal/core/services"
	"github.com/Arnob004/FileShare/internal/infrastructure/middleware"
	"github.com/Arnob004/FileShare/internal/infrastructure/monitoring"
	"github.com/Arnob004/FileShare/internal/infrastructure/repositories/memory"
	"github.com/Arnob004/FileShare/pkg/qr"
)

type silentNotifier struct{}

func (silentNotifier) Notify(context.Context, domain.UID, string, interface{}) error { return nil }
func (silentNotifier) Broadcast(context.Context, string, interface{}) error          { return nil }

func newTestRouter(t *testing.T) (*gin.Engine, ports.PresenceService, ports.RoomRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	peerRepo := memory.NewMemoryPeerRepository()
	roomRepo := memory.NewMemoryRoomRepository()
	presence := services.NewPresenceService(peerRepo, silentNotifier{}, monitoring.NopCollector{})

	handler := NewRosterHandler(presence, roomRepo, qr.NewCodec(), monitoring.NewHealthChecker(time.Second))

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(zap.NewNop().Sugar()))
	handler.SetupRoutes(router)
	return router, presence, roomRepo
}

func doGET(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestListPeers(t *testing.T) {
	router, presence, _ := newTestRouter(t)

	_, err := presence.Admit(context.Background(), &domain.Peer{UID: "aB3x9", Name: "Alice"})
	require.NoError(t, err)

	w := doGET(router, "/api/v1/peers")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Peers []*domain.Peer `json:"peers"`
		Count int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, domain.UID("aB3x9"), resp.Peers[0].UID)
}

func TestPeerQR(t *testing.T) {
	router, presence, _ := newTestRouter(t)

	_, err := presence.Admit(context.Background(), &domain.Peer{UID: "aB3x9", Name: "Alice"})
	require.NoError(t, err)

	t.Run("online peer", func(t *testing.T) {
		w := doGET(router, "/api/v1/peers/aB3x9/qr")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

		// The image round-trips back to the uid.
		decoded, err := qr.NewCodec().Decode(w.Body.Bytes())
		require.NoError(t, err)
		assert.Equal(t, domain.UID("aB3x9"), decoded)
	})

	t.Run("offline peer", func(t *testing.T) {
		w := doGET(router, "/api/v1/peers/zzzzz/qr")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed uid", func(t *testing.T) {
		w := doGET(router, "/api/v1/peers/has%20space/qr")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListRoomsAndStats(t *testing.T) {
	router, _, roomRepo := newTestRouter(t)

	ctx := context.Background()
	_, err := roomRepo.AddMember(ctx, "aaaaabbbbb", &domain.Peer{UID: "aaaaa"})
	require.NoError(t, err)
	_, err = roomRepo.AddMember(ctx, "aaaaabbbbb", &domain.Peer{UID: "bbbbb"})
	require.NoError(t, err)
	_, err = roomRepo.AddMember(ctx, "cccccddddd", &domain.Peer{UID: "ccccc"})
	require.NoError(t, err)

	w := doGET(router, "/api/v1/rooms")
	require.Equal(t, http.StatusOK, w.Code)
	var rooms struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	assert.Equal(t, 2, rooms.Count)

	w = doGET(router, "/api/v1/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		PeersOnline int `json:"peers_online"`
		RoomsTotal  int `json:"rooms_total"`
		RoomsActive int `json:"rooms_active"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.RoomsTotal)
	assert.Equal(t, 1, stats.RoomsActive)
}

func TestHealth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doGET(router, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alive")
}

func TestReady(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(checker *monitoring.HealthChecker) *gin.Engine {
		peerRepo := memory.NewMemoryPeerRepository()
		presence := services.NewPresenceService(peerRepo, silentNotifier{}, monitoring.NopCollector{})
		handler := NewRosterHandler(presence, memory.NewMemoryRoomRepository(), qr.NewCodec(), checker)

		router := gin.New()
		handler.SetupRoutes(router)
		return router
	}

	t.Run("repositories reachable", func(t *testing.T) {
		checker := monitoring.NewHealthChecker(time.Second)
		checker.AddCheck("repositories", func(context.Context) error { return nil })

		w := doGET(newRouter(checker), "/ready")
		require.Equal(t, http.StatusOK, w.Code)

		var status monitoring.HealthStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, "healthy", status.Status)
	})

	t.Run("failing dependency", func(t *testing.T) {
		checker := monitoring.NewHealthChecker(time.Second)
		checker.AddCheck("repositories", func(context.Context) error {
			return errors.New("redis unreachable")
		})

		w := doGET(newRouter(checker), "/ready")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		var status monitoring.HealthStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, "unhealthy", status.Status)
		assert.Equal(t, "redis unreachable", status.Checks["repositories"])
	})
}

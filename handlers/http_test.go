package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"wavebot/controller"
)

type fakeSessions struct {
	infos []controller.SessionInfo
}

func (s *fakeSessions) Sessions() []controller.SessionInfo {
	return s.infos
}

func (s *fakeSessions) Session(guildID string) (controller.SessionInfo, bool) {
	for _, info := range s.infos {
		if info.GuildID == guildID {
			return info, true
		}
	}
	return controller.SessionInfo{}, false
}

func TestOpsRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewOpsRouter(&fakeSessions{infos: []controller.SessionInfo{
		{GuildID: "100", HomeChannelID: "201", Autoplay: "partial", QueueLength: 2},
	}})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name:       "health",
			path:       "/health",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				if body["ok"] != true || body["sessions"] != float64(1) {
					t.Errorf("body = %v", body)
				}
			},
		},
		{
			name:       "list",
			path:       "/sessions",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				sessions, ok := body["sessions"].([]interface{})
				if !ok || len(sessions) != 1 {
					t.Errorf("sessions = %v", body["sessions"])
				}
			},
		},
		{
			name:       "one session",
			path:       "/sessions/100",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				if body["guildId"] != "100" || body["homeChannelId"] != "201" || body["queueLength"] != float64(2) {
					t.Errorf("body = %v", body)
				}
			},
		},
		{
			name:       "unknown guild",
			path:       "/sessions/404",
			wantStatus: http.StatusNotFound,
			check: func(t *testing.T, body map[string]interface{}) {
				if body["error"] != "no active session" {
					t.Errorf("body = %v", body)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("GET %s = %d; want %d", tt.path, w.Code, tt.wantStatus)
			}
			var body map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			tt.check(t, body)
		})
	}
}

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/greyfell/voicebridge/internal/device"
	"github.com/greyfell/voicebridge/internal/history"
	"github.com/greyfell/voicebridge/internal/infrastructure/config"
	"github.com/greyfell/voicebridge/internal/infrastructure/logging"
	"github.com/greyfell/voicebridge/internal/smarthome"
)

type testEnv struct {
	server  *Server
	handler http.Handler
}

func newTestEnv(t *testing.T, secret string, store *history.Store) *testEnv {
	t.Helper()

	registry := device.NewRegistry()
	fleet := []device.Device{
		{
			ID:           "coffee_maker_123",
			FriendlyName: "Kitchen Coffee Maker",
			Type:         device.TypeCoffeeMaker,
			State: device.CoffeeMakerState{
				PowerState:   device.PowerOff,
				BrewStrength: device.BrewMedium,
				WaterLevel:   100,
				ErrorState:   device.ErrorNone,
			},
		},
		{
			ID:           "light_456",
			FriendlyName: "Living Room Light",
			Type:         device.TypeLight,
			State: device.LightState{
				PowerState: device.PowerOff,
				Brightness: 60,
				Color:      device.Color{Brightness: 1},
			},
		},
	}
	for _, d := range fleet {
		if err := registry.Add(d); err != nil {
			t.Fatalf("seeding registry: %v", err)
		}
	}

	var notifiers []smarthome.Notifier
	if store != nil {
		notifiers = append(notifiers, store)
	}

	service, err := smarthome.New(smarthome.Deps{Registry: registry, Notifiers: notifiers})
	if err != nil {
		t.Fatalf("smarthome.New() error = %v", err)
	}

	server, err := New(Deps{
		Config:   config.APIConfig{Host: "127.0.0.1", Port: 8095},
		Security: config.SecurityConfig{Bearer: config.BearerConfig{Secret: secret}},
		Logger:   logging.Default(),
		Service:  service,
		Registry: registry,
		History:  store,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return &testEnv{server: server, handler: server.buildRouter()}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func controlEnvelope(namespace, name, instance, endpointID, payload string) string {
	env := map[string]any{
		"directive": map[string]any{
			"header": map[string]any{
				"namespace":        namespace,
				"name":             name,
				"instance":         instance,
				"correlationToken": "tok-1",
			},
			"endpoint": map[string]any{"endpointId": endpointID},
			"payload":  json.RawMessage(payload),
		},
	}
	data, _ := json.Marshal(env)
	return string(data)
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t, "", nil)

	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" || body["devices"] != float64(2) {
		t.Errorf("health body = %v", body)
	}
}

func TestHandleDiscovery(t *testing.T) {
	env := newTestEnv(t, "", nil)

	rec := env.do(t, http.MethodPost, "/alexa/discovery", "{}", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("discovery status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp struct {
		Event struct {
			Header struct {
				Namespace string `json:"namespace"`
				Name      string `json:"name"`
				MessageID string `json:"messageId"`
			} `json:"header"`
			Payload struct {
				Endpoints []struct {
					EndpointID string `json:"endpointId"`
				} `json:"endpoints"`
			} `json:"payload"`
		} `json:"event"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Event.Header.Namespace != "Alexa.Discovery" || resp.Event.Header.Name != "Discover.Response" {
		t.Errorf("header = %+v", resp.Event.Header)
	}
	if resp.Event.Header.MessageID == "" {
		t.Error("message ID missing")
	}
	if len(resp.Event.Payload.Endpoints) != 2 {
		t.Errorf("endpoints = %d, want 2", len(resp.Event.Payload.Endpoints))
	}
}

func TestHandleControl_TurnOn(t *testing.T) {
	env := newTestEnv(t, "", nil)

	body := controlEnvelope("Alexa.PowerController", "TurnOn", "", "light_456", "{}")
	rec := env.do(t, http.MethodPost, "/alexa/control", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("control status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp struct {
		Event struct {
			Header struct {
				Name             string `json:"name"`
				CorrelationToken string `json:"correlationToken"`
			} `json:"header"`
		} `json:"event"`
		Context struct {
			Properties []struct {
				Name                      string `json:"name"`
				Value                     any    `json:"value"`
				UncertaintyInMilliseconds int    `json:"uncertaintyInMilliseconds"`
			} `json:"properties"`
		} `json:"context"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Event.Header.Name != "TurnOnResponse" || resp.Event.Header.CorrelationToken != "tok-1" {
		t.Errorf("header = %+v", resp.Event.Header)
	}
	if len(resp.Context.Properties) != 1 || resp.Context.Properties[0].Value != "ON" {
		t.Errorf("context = %+v", resp.Context)
	}
}

func TestHandleControl_ErrorMapping(t *testing.T) {
	env := newTestEnv(t, "", nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantType   string
	}{
		{
			name:       "unknown device",
			body:       controlEnvelope("Alexa.PowerController", "TurnOn", "", "garage_999", "{}"),
			wantStatus: http.StatusNotFound,
			wantType:   "NO_SUCH_ENDPOINT",
		},
		{
			name:       "unsupported command",
			body:       controlEnvelope("Alexa.BrightnessController", "SetBrightness", "", "coffee_maker_123", `{"brightness":50}`),
			wantStatus: http.StatusBadRequest,
			wantType:   "INVALID_DIRECTIVE",
		},
		{
			name:       "invalid value",
			body:       controlEnvelope("Alexa.BrightnessController", "SetBrightness", "", "light_456", `{"brightness":500}`),
			wantStatus: http.StatusBadRequest,
			wantType:   "INVALID_VALUE",
		},
		{
			name:       "malformed envelope",
			body:       `{"directive":`,
			wantStatus: http.StatusBadRequest,
			wantType:   "INVALID_VALUE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/alexa/control", tt.body, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}

			var resp struct {
				Event struct {
					Header struct {
						Name string `json:"name"`
					} `json:"header"`
					Payload struct {
						Type string `json:"type"`
					} `json:"payload"`
				} `json:"event"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp.Event.Header.Name != "ErrorResponse" {
				t.Errorf("event name = %q, want ErrorResponse", resp.Event.Header.Name)
			}
			if resp.Event.Payload.Type != tt.wantType {
				t.Errorf("error type = %q, want %q", resp.Event.Payload.Type, tt.wantType)
			}
		})
	}
}

func TestHandleControl_DiscoveryViaControl(t *testing.T) {
	env := newTestEnv(t, "", nil)

	body := `{"directive":{"header":{"namespace":"Alexa.Discovery","name":"Discover"},"payload":{}}}`
	rec := env.do(t, http.MethodPost, "/alexa/control", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("Discover.Response")) {
		t.Error("control endpoint did not answer a discovery directive")
	}
}

func TestHandleControl_StateReport(t *testing.T) {
	env := newTestEnv(t, "", nil)

	body := controlEnvelope("Alexa", "ReportState", "", "coffee_maker_123", "{}")
	rec := env.do(t, http.MethodPost, "/alexa/control", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp struct {
		Event struct {
			Payload struct {
				Properties []struct {
					Namespace string `json:"namespace"`
					Name      string `json:"name"`
					Instance  string `json:"instance"`
				} `json:"properties"`
			} `json:"payload"`
		} `json:"event"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Event.Payload.Properties) != 5 {
		t.Fatalf("coffee maker snapshot has %d properties, want 5", len(resp.Event.Payload.Properties))
	}
	if got := resp.Event.Payload.Properties[1].Instance; got != "BrewStrength.coffee_maker_123" {
		t.Errorf("brew strength instance = %q", got)
	}
}

func TestListAndGetDevices(t *testing.T) {
	env := newTestEnv(t, "", nil)

	rec := env.do(t, http.MethodGet, "/api/v1/devices", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list struct {
		Count   int `json:"count"`
		Devices []struct {
			ID string `json:"id"`
		} `json:"devices"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if list.Count != 2 || list.Devices[0].ID != "coffee_maker_123" {
		t.Errorf("list = %+v", list)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/devices/light_456", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/devices/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get missing status = %d, want 404", rec.Code)
	}
}

func TestDeviceHistoryEndpoint(t *testing.T) {
	store, err := history.Open(history.Config{
		Path:        filepath.Join(t.TempDir(), "history.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("history.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	env := newTestEnv(t, "", store)

	body := controlEnvelope("Alexa.PowerController", "TurnOn", "", "light_456", "{}")
	if rec := env.do(t, http.MethodPost, "/alexa/control", body, nil); rec.Code != http.StatusOK {
		t.Fatalf("control status = %d", rec.Code)
	}

	// The notifier fan-out is asynchronous; poll briefly for the row.
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec := env.do(t, http.MethodGet, "/api/v1/devices/light_456/history", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("history status = %d", rec.Code)
		}
		var resp struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.Count == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("history entry never appeared (count = %d)", resp.Count)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDeviceHistoryDisabled(t *testing.T) {
	env := newTestEnv(t, "", nil)

	rec := env.do(t, http.MethodGet, "/api/v1/devices/light_456/history", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("history status = %d, want 404 when disabled", rec.Code)
	}
}

const testSecret = "0123456789abcdef0123456789abcdef"

func signedToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "voice-platform",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, testSecret, nil)

	// No token.
	rec := env.do(t, http.MethodPost, "/alexa/discovery", "{}", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", rec.Code)
	}

	// Token signed with the wrong secret.
	rec = env.do(t, http.MethodPost, "/alexa/discovery", "{}", map[string]string{
		"Authorization": "Bearer " + signedToken(t, "ffffffffffffffffffffffffffffffff"),
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}

	// Valid token.
	rec = env.do(t, http.MethodPost, "/alexa/discovery", "{}", map[string]string{
		"Authorization": "Bearer " + signedToken(t, testSecret),
	})
	if rec.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", rec.Code)
	}

	// Health check stays open.
	rec = env.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200 without auth", rec.Code)
	}
}

func TestAuthMiddleware_PermissiveWithoutSecret(t *testing.T) {
	env := newTestEnv(t, "", nil)

	rec := env.do(t, http.MethodPost, "/alexa/discovery", "{}", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with empty secret", rec.Code)
	}
}

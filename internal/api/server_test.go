package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	_ "github.com/mattn/go-sqlite3"

	"github.com/handsense/handsense-core/internal/dispatch"
	"github.com/handsense/handsense-core/internal/hand"
	"github.com/handsense/handsense-core/internal/infrastructure/config"
	"github.com/handsense/handsense-core/internal/infrastructure/logging"
	"github.com/handsense/handsense-core/internal/perception"
	"github.com/handsense/handsense-core/internal/pose"
)

// testServer creates a Server with a real perception engine, a dispatcher
// with no device connection, and a pose repository backed by in-memory
// SQLite.
func testServer(t *testing.T) *Server {
	t.Helper()

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logger:     log,
		Engine:     perception.NewEngine(),
		Dispatcher: dispatch.New(50 * time.Millisecond),
		Poses:      pose.NewSQLiteRepository(setupTestDB(t)),
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	srv.hub = NewHub(srv.wsCfg, log)
	go srv.hub.Run(context.Background())

	return srv
}

// setupTestDB creates an in-memory SQLite database with the poses schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	schema := `
		CREATE TABLE poses (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			joints TEXT NOT NULL,
			speed TEXT NOT NULL,
			force TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
	`
	if _, execErr := db.Exec(schema); execErr != nil {
		t.Fatalf("failed to create test schema: %v", execErr)
	}
	return db
}

// processSnapshot runs one fabricated acquisition cycle through the
// server's perception engine.
func processSnapshot(srv *Server, press map[string][]uint16) {
	snap := &hand.Snapshot{
		Taken:  time.Now(),
		Actual: hand.JointVector{1000, 1000, 1000, 1000, 1000, 1000},
	}
	for _, r := range hand.Regions {
		values := make([]uint16, r.Count())
		if custom, ok := press[r.Name]; ok {
			copy(values, custom)
		}
		snap.Grids = append(snap.Grids, hand.Grid{Region: r, Values: values})
	}
	srv.engine.Process(snap)
}

func doRequest(t *testing.T, srv *Server, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)
	return rec
}

func TestNewValidation(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	if _, err := New(Deps{}); err == nil {
		t.Error("New() accepted missing logger")
	}
	if _, err := New(Deps{Logger: log}); err == nil {
		t.Error("New() accepted missing engine")
	}
	if _, err := New(Deps{Logger: log, Engine: perception.NewEngine()}); err == nil {
		t.Error("New() accepted missing dispatcher")
	}
}

func TestHealth(t *testing.T) {
	srv := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp["status"] != "ok" || resp["version"] != "test" {
		t.Errorf("unexpected health body: %v", resp)
	}
	if resp["connected"] != false {
		t.Errorf("connected = %v, want false", resp["connected"])
	}
}

func TestStats(t *testing.T) {
	srv := testServer(t)
	processSnapshot(srv, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if _, ok := resp["perception"]; !ok {
		t.Error("stats missing perception section")
	}
	if _, ok := resp["dispatcher"]; !ok {
		t.Error("stats missing dispatcher section")
	}
}

func TestSnapshotBeforeFirstCycle(t *testing.T) {
	srv := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/hand/snapshot", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestTactileUnknownRegion(t *testing.T) {
	srv := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/hand/tactile/forehead", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestShapeAndContacts(t *testing.T) {
	srv := testServer(t)
	processSnapshot(srv, map[string][]uint16{
		"palm": paintPalm(500),
	})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/hand/shape", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("shape status = %d, want 200", rec.Code)
	}
	var shapeResp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &shapeResp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if shapeResp["in_contact"] != true {
		t.Errorf("in_contact = %v, want true", shapeResp["in_contact"])
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/hand/contacts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("contacts status = %d, want 200", rec.Code)
	}
	var contactsResp struct {
		Contacts []map[string]any `json:"contacts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &contactsResp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(contactsResp.Contacts) == 0 {
		t.Error("no contact points returned")
	}
}

// paintPalm fills a few central palm cells with the given value.
func paintPalm(v uint16) []uint16 {
	region, _ := hand.RegionByName("palm")
	values := make([]uint16, region.Count())
	for _, cell := range [][2]int{{3, 6}, {3, 7}, {4, 6}, {4, 7}} {
		values[cell[0]*region.Cols+cell[1]] = v
	}
	return values
}

func TestPoseEndpoint(t *testing.T) {
	srv := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/hand/pose", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status before cycle = %d, want 404", rec.Code)
	}

	processSnapshot(srv, nil)
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/hand/pose", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("fingers")) {
		t.Error("pose response missing fingers")
	}
}

func TestSetJoints(t *testing.T) {
	srv := testServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/v1/hand/joints",
		`{"joints":[1200,-10,500,500,500,500]}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	target, ok := srv.dispatcher.Target()
	if !ok {
		t.Fatal("dispatcher has no target after command")
	}
	want := hand.JointVector{1000, 0, 500, 500, 500, 500}
	if target != want {
		t.Errorf("target = %v, want %v", target, want)
	}
}

func TestSetJointsBadBody(t *testing.T) {
	srv := testServer(t)

	for _, body := range []string{"", "{}", "not json"} {
		rec := doRequest(t, srv, http.MethodPut, "/api/v1/hand/joints", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestSetSpeedWithoutConnection(t *testing.T) {
	srv := testServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/v1/hand/speed",
		`{"joints":[500,500,500,500,500,500]}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestTrackingNotEnabled(t *testing.T) {
	srv := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/tracking", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPosesCRUD(t *testing.T) {
	srv := testServer(t)

	// Create
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/poses/",
		`{"name":"pinch","joints":[200,200,200,200,300,500],"speed":[500,500,500,500,500,500],"force":[1000,1000,1000,1000,1000,1000]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created pose.Preset
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created pose has no id")
	}

	// Duplicate name
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/poses/",
		`{"name":"pinch","joints":[0,0,0,0,0,0],"speed":[0,0,0,0,0,0],"force":[0,0,0,0,0,0]}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", rec.Code)
	}

	// List
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/poses/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listed []pose.Preset
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("listed %d poses, want 1", len(listed))
	}

	// Update
	rec = doRequest(t, srv, http.MethodPatch, "/api/v1/poses/"+created.ID,
		`{"description":"two finger pinch"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	// Get
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/poses/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var got pose.Preset
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if got.Description != "two finger pinch" {
		t.Errorf("description = %q after update", got.Description)
	}

	// Delete
	rec = doRequest(t, srv, http.MethodDelete, "/api/v1/poses/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/poses/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestApplyPoseWithoutConnection(t *testing.T) {
	srv := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/poses/",
		`{"name":"fist","joints":[0,0,0,0,0,500],"speed":[500,500,500,500,500,500],"force":[1000,1000,1000,1000,1000,1000]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var created pose.Preset
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}

	// Speed write is attempted first and fails without a device.
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/poses/"+created.ID+"/apply", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("apply status = %d, want 409", rec.Code)
	}
}

func TestWebSocketSubscribeAndBroadcast(t *testing.T) {
	srv := testServer(t)

	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil) //nolint:bodyclose // handshake response unused
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Subscribe to shape events.
	sub := WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "1",
		Payload: WSSubscribePayload{Channels: []string{ChannelShape}},
	}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}

	var ack WSMessage
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	if ack.Type != WSTypeResponse {
		t.Fatalf("ack type = %s, want %s", ack.Type, WSTypeResponse)
	}

	// Feed a cycle through the engine and fan it out.
	processSnapshot(srv, map[string][]uint16{"palm": paintPalm(500)})
	srv.PublishResult(srv.engine.Latest())

	//nolint:errcheck // Best-effort deadline for test read
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event WSMessage
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Type != WSTypeEvent || event.EventType != ChannelShape {
		t.Errorf("event = %s/%s, want %s/%s", event.Type, event.EventType, WSTypeEvent, ChannelShape)
	}
}

package ingest

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus-crane/lobby/config"
	"github.com/marcus-crane/lobby/db"
	"github.com/marcus-crane/lobby/models"
)

type fakeUpdater struct {
	calls []models.StageUpdate
}

func (f *fakeUpdater) UpdateStage(ctx context.Context, id int64, stage string) (models.Patient, error) {
	f.calls = append(f.calls, models.StageUpdate{PatientID: id, Stage: stage})
	if id == 404 {
		return models.Patient{}, db.ErrNotFound
	}
	return models.Patient{ID: id, Stage: stage}, nil
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestApplyStageUpdate(t *testing.T) {
	u := &fakeUpdater{}
	ctx := context.Background()

	p, err := ApplyStageUpdate(ctx, u, []byte(`{"patient_id": 12, "stage": "cirugia"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(12), p.ID)

	for _, bad := range []string{`nope`, `{"stage":"alta"}`, `{"patient_id": 3, "stage": " "}`} {
		_, err := ApplyStageUpdate(ctx, u, []byte(bad))
		assert.ErrorIs(t, err, ErrBadStageUpdate, bad)
	}
	assert.Len(t, u.calls, 1)
}

func TestWebhookHandler(t *testing.T) {
	u := &fakeUpdater{}
	h := WebhookHandler("shared-secret", u)

	post := func(body, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stage", strings.NewReader(body))
		if signature != "" {
			req.Header.Set(SignatureHeader, signature)
		}
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec
	}

	body := `{"patient_id": 7, "stage": "recuperacion"}`
	rec := post(body, "sha256="+sign("shared-secret", body))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stage":"recuperacion"`)

	// bare hex is accepted too
	assert.Equal(t, http.StatusOK, post(body, sign("shared-secret", body)).Code)

	assert.Equal(t, http.StatusUnauthorized, post(body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, post(body, "sha256="+sign("wrong", body)).Code)

	missing := `{"patient_id": 404, "stage": "alta"}`
	assert.Equal(t, http.StatusNotFound, post(missing, sign("shared-secret", missing)).Code)

	malformed := `{"stage": "alta"}`
	assert.Equal(t, http.StatusBadRequest, post(malformed, sign("shared-secret", malformed)).Code)

	assert.Len(t, u.calls, 3)
}

func TestWebhookHandler_NotConfigured(t *testing.T) {
	rec := httptest.NewRecorder()
	WebhookHandler("", &fakeUpdater{})(rec, httptest.NewRequest(http.MethodPost, "/api/webhooks/stage", strings.NewReader("{}")))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMQTTSubscriber_Handle(t *testing.T) {
	u := &fakeUpdater{}
	s := NewMQTTSubscriber(config.MQTTConfig{Topic: "lobby/patients/stage"}, u)

	s.handle(nil, fakeMessage{topic: "lobby/patients/stage", payload: []byte(`{"patient_id": 5, "stage": "alta"}`)})
	s.handle(nil, fakeMessage{topic: "lobby/patients/stage", payload: []byte(`garbage`)})

	require.Len(t, u.calls, 1)
	assert.Equal(t, models.StageUpdate{PatientID: 5, Stage: "alta"}, u.calls[0])
	// stopping before starting is harmless
	s.Stop()
}

package notify

import (
	"errors"
	"testing"

	"github.com/gregdel/pushover"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus-crane/lobby/models"
)

type fakeSender struct {
	sent []*pushover.Message
	err  error
}

func (f *fakeSender) SendMessage(message *pushover.Message, recipient *pushover.Recipient) (*pushover.Response, error) {
	f.sent = append(f.sent, message)
	return &pushover.Response{}, f.err
}

func patient(stage string) models.Patient {
	return models.Patient{ID: 3, Name: "Ana Gomez", Procedure: "Apendicectomía", Stage: stage}
}

func TestStageMessage(t *testing.T) {
	msg := StageMessage(patient(models.StageSurgery), patient(models.StageRecovery))
	assert.Equal(t, "Ana Gomez: Recuperación", msg.Title)
	assert.Equal(t, "Ana Gomez (Apendicectomía) moved from Cirugía to Recuperación", msg.Message)
	assert.Equal(t, pushover.PriorityHigh, msg.Priority)

	msg = StageMessage(patient(models.StagePreparation), patient("observacion"))
	assert.Equal(t, "Ana Gomez: observacion", msg.Title)
	assert.Equal(t, pushover.PriorityNormal, msg.Priority)
}

func TestPushover_StageChanged(t *testing.T) {
	sender := &fakeSender{}
	p := &Pushover{app: sender, recipient: pushover.NewRecipient("staff"), async: false}

	p.StageChanged(patient(models.StagePreparation), patient(models.StageSurgery))
	require.Len(t, sender.sent, 1)

	// failures are logged, never surfaced to the caller
	sender.err = errors.New("rate limited")
	p.StageChanged(patient(models.StageSurgery), patient(models.StageDischarged))
	assert.Len(t, sender.sent, 2)
}

package notify

import (
	"fmt"
	"log/slog"

	"github.com/gregdel/pushover"

	"github.com/marcus-crane/lobby/models"
)

type Sender interface {
	SendMessage(message *pushover.Message, recipient *pushover.Recipient) (*pushover.Response, error)
}

// Pushover tells staff when a patient moves between stages. Moves into
// recovery and discharge go out at high priority.
type Pushover struct {
	app       Sender
	recipient *pushover.Recipient
	async     bool
}

func NewPushover(token, recipient string) *Pushover {
	return &Pushover{
		app:       pushover.New(token),
		recipient: pushover.NewRecipient(recipient),
		async:     true,
	}
}

func (p *Pushover) StageChanged(before, after models.Patient) {
	message := StageMessage(before, after)
	if !p.async {
		p.send(message, after.ID)
		return
	}
	go p.send(message, after.ID)
}

func (p *Pushover) send(message *pushover.Message, patientID int64) {
	if _, err := p.app.SendMessage(message, p.recipient); err != nil {
		slog.Error("Failed to send stage notification",
			slog.Int64("patient_id", patientID),
			slog.Any("error", err))
		return
	}
	slog.Debug("Sent stage notification", slog.Int64("patient_id", patientID))
}

func StageMessage(before, after models.Patient) *pushover.Message {
	from := models.LookupStage(before.Stage)
	to := models.LookupStage(after.Stage)
	priority := pushover.PriorityNormal
	if after.Stage == models.StageRecovery || after.Stage == models.StageDischarged {
		priority = pushover.PriorityHigh
	}
	return &pushover.Message{
		Title:    fmt.Sprintf("%s: %s", after.Name, to.Label),
		Message:  fmt.Sprintf("%s (%s) moved from %s to %s", after.Name, after.Procedure, from.Label, to.Label),
		Priority: priority,
	}
}

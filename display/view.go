package display

import (
	"github.com/marcus-crane/lobby/media"
	"github.com/marcus-crane/lobby/models"
)

// View is everything the renderer needs to draw the screen
type View struct {
	Roster    RosterView `json:"roster"`
	Media     MediaView  `json:"media"`
	Connected bool       `json:"connected"`
	Unlocked  bool       `json:"unlocked"`
}

type PatientView struct {
	models.Patient
	Style models.StageStyle `json:"stage_style"`
}

type RosterView struct {
	Loading  bool          `json:"loading"`
	Empty    bool          `json:"empty"`
	Patients []PatientView `json:"patients"`
	Pager    *Pager        `json:"pager,omitempty"`
}

type EntryView struct {
	ID      int64       `json:"id"`
	Title   string      `json:"title"`
	Class   media.Class `json:"class"`
	Source  string      `json:"source"`
	EmbedID string      `json:"embed_id,omitempty"`
}

type MediaView struct {
	Loading  bool        `json:"loading"`
	State    State       `json:"state"`
	Cursor   int         `json:"cursor"`
	Current  *EntryView  `json:"current,omitempty"`
	Items    []EntryView `json:"items"`
	EmbedKey string      `json:"embed_key,omitempty"`
	EmbedIDs []string    `json:"embed_ids,omitempty"`
}

func entryView(e Entry) EntryView {
	return EntryView{
		ID:      e.Item.ID,
		Title:   e.Item.Title,
		Class:   e.Class,
		Source:  e.Source,
		EmbedID: e.EmbedID,
	}
}

func (d *Display) View() View {
	window := d.rotation.Window()
	patients := make([]PatientView, 0, len(window))
	for _, p := range window {
		patients = append(patients, PatientView{Patient: p, Style: models.LookupStage(p.Stage)})
	}
	rv := RosterView{
		Loading:  d.loadingPatients,
		Empty:    !d.loadingPatients && d.roster.Len() == 0,
		Patients: patients,
	}
	if pager, ok := d.rotation.Pager(); ok {
		rv.Pager = &pager
	}

	entries := d.playlist.Entries()
	items := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		items = append(items, entryView(e))
	}
	mv := MediaView{
		Loading:  d.loadingMedia,
		State:    d.carousel.State(),
		Cursor:   d.carousel.Cursor(),
		Items:    items,
		EmbedKey: d.carousel.EmbedKey(),
		EmbedIDs: d.carousel.EmbedIDs(),
	}
	if current, ok := d.carousel.Current(); ok {
		ev := entryView(current)
		mv.Current = &ev
	}

	return View{
		Roster:    rv,
		Media:     mv,
		Connected: d.connected,
		Unlocked:  d.unlocked,
	}
}

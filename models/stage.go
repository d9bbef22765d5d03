package models

import "strings"

const (
	StagePreparation     = "preparacion"
	StageSurgery         = "cirugia"
	StageRecovery        = "recuperacion"
	StageHospitalisation = "hospitalizacion"
	StageDischarged      = "alta"
)

// StageStyle is how a clinical stage is rendered on the display
type StageStyle struct {
	Code       string `json:"code"`
	Label      string `json:"label"`
	Colour     string `json:"colour"`
	Background string `json:"background"`
	Known      bool   `json:"known"`
}

var stages = map[string]StageStyle{
	StagePreparation:     {Label: "Preparación", Colour: "#1e40af", Background: "#dbeafe"},
	StageSurgery:         {Label: "Cirugía", Colour: "#6b21a8", Background: "#f3e8ff"},
	StageRecovery:        {Label: "Recuperación", Colour: "#854d0e", Background: "#fef9c3"},
	StageHospitalisation: {Label: "Hospitalización", Colour: "#9a3412", Background: "#ffedd5"},
	StageDischarged:      {Label: "Alta", Colour: "#166534", Background: "#dcfce7"},
}

// LookupStage never fails. Codes we don't recognise are shown as-is in a neutral grey.
func LookupStage(code string) StageStyle {
	style, ok := stages[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return StageStyle{
			Code:       code,
			Label:      code,
			Colour:     "#1f2937",
			Background: "#f3f4f6",
		}
	}
	style.Code = strings.ToLower(strings.TrimSpace(code))
	style.Known = true
	return style
}

func IsKnownStage(code string) bool {
	return LookupStage(code).Known
}

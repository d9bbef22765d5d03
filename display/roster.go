package display

import "github.com/marcus-crane/lobby/models"

const WindowSize = 3

// RosterStore is the display's cached copy of the roster. It is only ever
// replaced wholesale.
type RosterStore struct {
	patients []models.Patient
}

func (s *RosterStore) Replace(patients []models.Patient) {
	s.patients = append([]models.Patient(nil), patients...)
}

func (s *RosterStore) Patients() []models.Patient {
	return s.patients
}

func (s *RosterStore) Len() int {
	return len(s.patients)
}

// ComputeWindow returns min(WindowSize, len(roster)) patients starting at
// offset, wrapping around to the start of the roster when it runs short.
// An offset outside the roster counts as 0.
func ComputeWindow(roster []models.Patient, offset int) []models.Patient {
	n := len(roster)
	if n == 0 {
		return []models.Patient{}
	}
	if offset < 0 || offset >= n {
		offset = 0
	}
	size := min(WindowSize, n)
	window := make([]models.Patient, 0, size)
	for i := 0; i < size; i++ {
		window = append(window, roster[(offset+i)%n])
	}
	return window
}

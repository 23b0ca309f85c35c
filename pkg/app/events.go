package app

import (
	"fmt"

	"tableflip.dev/zeit/pkg/entry"
	"tableflip.dev/zeit/pkg/notify"
)

// ApplyEvent updates the timer state for a pushed event and decides what to
// tell the user and which slices to refetch. Malformed payloads are logged
// and ignored.
func (s *Service) ApplyEvent(ev notify.Event) (Notice, Reload) {
	log := s.log().WithField("event", ev.Type)
	switch ev.Type {
	case notify.TimerStarted:
		var d notify.TimerStartedData
		if err := ev.Decode(&d); err != nil {
			log.WithError(err).Warn("dropping event")
			return Notice{}, 0
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.running != nil {
			return Notice{}, ReloadEntries
		}
		start := d.StartTime
		if start.IsZero() {
			start = entry.At(s.now())
		}
		s.running = &entry.Entry{
			ID:          d.ID,
			Project:     d.Project,
			Description: d.Description,
			Start:       start,
			Running:     true,
		}
		// Fetches issued before the push would clear the timer again.
		s.invalidate(SliceEntries)
		return ok("Timer wurde gestartet", ReloadEntries), ReloadEntries

	case notify.TimerStopped:
		var d notify.TimerStoppedData
		if err := ev.Decode(&d); err != nil {
			log.WithError(err).Warn("dropping event")
			return Notice{}, 0
		}
		s.mu.Lock()
		s.running = nil
		s.invalidate(SliceEntries)
		s.mu.Unlock()
		return ok(fmt.Sprintf("Timer gestoppt: %d Min", minutes(d.Duration)), ReloadWeek), ReloadWeek

	case notify.EntryCreated, notify.EntryUpdated, notify.EntryDeleted:
		var d notify.EntryChangedData
		if err := ev.Decode(&d); err != nil {
			log.WithError(err).Warn("dropping event")
			return Notice{}, 0
		}
		text := "Eintrag gelöscht"
		switch ev.Type {
		case notify.EntryCreated:
			text = "Neuer Eintrag: " + d.Project
		case notify.EntryUpdated:
			text = "Eintrag aktualisiert: " + d.Project
		}
		return ok(text, ReloadWeek), ReloadWeek

	case notify.ProjectCreated, notify.ProjectUpdated, notify.ProjectDeleted:
		var d notify.ProjectChangedData
		if err := ev.Decode(&d); err != nil {
			log.WithError(err).Warn("dropping event")
			return Notice{}, 0
		}
		switch ev.Type {
		case notify.ProjectCreated:
			return ok("Neues Projekt: "+d.Name, ReloadProjects), ReloadProjects
		case notify.ProjectUpdated:
			text := fmt.Sprintf("Projekt \"%s\" aktualisiert", d.Name)
			if d.UpdatedEntries > 0 {
				text = fmt.Sprintf("Projekt \"%s\" aktualisiert (%d Einträge)", d.Name, d.UpdatedEntries)
			}
			return ok(text, ReloadProjects|ReloadEntries), ReloadProjects | ReloadEntries
		default:
			return ok("Projekt deaktiviert", ReloadWeek), ReloadWeek
		}
	}
	log.Debug("ignoring event")
	return Notice{}, 0
}

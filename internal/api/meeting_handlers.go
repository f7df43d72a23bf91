// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package api

import (
	"net/http"

	"github.com/hactazia/assoconnect/internal/meeting"
)

type personView struct {
	ID      string `json:"id"`
	Display string `json:"display"`
}

type meetingView struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Start        int64        `json:"start"`
	End          *int64       `json:"end"`
	Location     string       `json:"location"`
	Owner        personView   `json:"owner"`
	Participants []personView `json:"participants"`
}

func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	_, err := s.deps.Gate.Authorize(r.Context(), requestToken(r))
	if err != nil {
		s.fail(w, r, "meeting list denied", err)
		return
	}

	listings, err := s.deps.Meetings.List(r.Context())
	if err != nil {
		s.fail(w, r, "meeting list failed", err)
		return
	}

	views := make([]meetingView, 0, len(listings))
	for _, l := range listings {
		views = append(views, viewMeeting(l))
	}
	writeData(w, r, http.StatusOK, views)
}

func viewMeeting(l meeting.Listing) meetingView {
	v := meetingView{
		ID:           l.ID.String(),
		Title:        l.Title,
		Description:  l.Description,
		Start:        l.StartsAt.UnixMilli(),
		Location:     l.Location,
		Owner:        personView{ID: l.Owner.ID.String(), Display: l.Owner.Display},
		Participants: make([]personView, 0, len(l.Participants)),
	}
	if l.EndsAt != nil {
		end := l.EndsAt.UnixMilli()
		v.End = &end
	}
	for _, p := range l.Participants {
		v.Participants = append(v.Participants, personView{ID: p.ID.String(), Display: p.Display})
	}
	return v
}

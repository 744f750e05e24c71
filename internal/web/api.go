package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"evcal/internal/bucket"
	appLog "evcal/internal/log"
	"evcal/internal/model"
	"evcal/internal/nav"
)

const maxBodyBytes = 64 << 10

type addRequest struct {
	Title string      `json:"title"`
	Start model.Date  `json:"start"`
	End   model.Date  `json:"end"`
	Color model.Color `json:"color"`
}

type moveRequest struct {
	Days int `json:"days"`
}

type dropRequest struct {
	EventID     string     `json:"event_id"`
	OriginalDay model.Date `json:"original_day"`
	TargetDay   model.Date `json:"target_day"`
}

type viewRequest struct {
	Granularity *string     `json:"granularity,omitempty"`
	Reference   *model.Date `json:"reference,omitempty"`
}

// viewResponse is the JSON shape for /api/view.
type viewResponse struct {
	Granularity model.Granularity `json:"granularity"`
	Reference   model.Date        `json:"reference"`
	Title       string            `json:"title"`
	Days        []bucket.Bucket   `json:"days"`
}

type eventsResponse struct {
	Events []model.Event `json:"events"`
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, eventsResponse{Events: s.cal.Events()})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := s.cal.Event(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMutationError(w, err)
		return
	}

	e, err := s.cal.Add(req.Title, req.Start, req.End, req.Color)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	appLog.Info("event added", "id", e.ID, "title", e.Title, "start", e.Start, "end", e.End)
	writeJSON(w, http.StatusCreated, e)
}

// handleUpdateEvent applies a partial update. An unknown id is tolerated
// (stale editors) and answered with 204.
func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch model.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeMutationError(w, err)
		return
	}
	if err := s.cal.Update(id, patch); err != nil {
		writeMutationError(w, err)
		return
	}

	e, ok := s.cal.Event(id)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	s.cal.Delete(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMutationError(w, err)
		return
	}
	s.cal.MoveByOffset(id, req.Days)
	s.writeEventOrNoContent(w, id)
}

func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	var req dropRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMutationError(w, err)
		return
	}
	if req.EventID == "" || req.OriginalDay.IsZero() || req.TargetDay.IsZero() {
		writeError(w, http.StatusBadRequest, "event_id, original_day and target_day are required")
		return
	}
	s.cal.Drop(req.EventID, req.OriginalDay, req.TargetDay)
	s.writeEventOrNoContent(w, req.EventID)
}

func (s *Server) writeEventOrNoContent(w http.ResponseWriter, id string) {
	e, ok := s.cal.Event(id)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleGetView(w http.ResponseWriter, _ *http.Request) {
	s.writeView(w, s.cal.View())
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMutationError(w, err)
		return
	}

	// Validate before touching state so a bad granularity leaves the
	// reference untouched too.
	var g model.Granularity
	if req.Granularity != nil {
		parsed, err := model.ParseGranularity(*req.Granularity)
		if err != nil {
			writeMutationError(w, err)
			return
		}
		g = parsed
	}
	if req.Reference != nil {
		s.cal.SetReference(*req.Reference)
	}
	if g != "" {
		if _, err := s.cal.SetGranularity(g); err != nil {
			writeMutationError(w, err)
			return
		}
	}
	s.writeView(w, s.cal.View())
}

func (s *Server) handlePrev(w http.ResponseWriter, _ *http.Request) {
	s.writeView(w, s.cal.Previous())
}

func (s *Server) handleNext(w http.ResponseWriter, _ *http.Request) {
	s.writeView(w, s.cal.Next())
}

// writeView renders v with the current collection. v is passed in rather
// than re-read so the response matches the navigation it reports.
func (s *Server) writeView(w http.ResponseWriter, v nav.View) {
	days := bucket.DaysToDisplay(v.Granularity, v.Reference)
	writeJSON(w, http.StatusOK, viewResponse{
		Granularity: v.Granularity,
		Reference:   v.Reference,
		Title:       v.Title(),
		Days:        bucket.Buckets(days, s.cal.Events()),
	})
}

func (s *Server) handleColors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.Palette())
}

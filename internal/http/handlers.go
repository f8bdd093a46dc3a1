package http

import (
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/state"
)

// viewParams select a screen and a filter. A range wins over a named filter.
type viewParams struct {
	Screen string `json:"screen"`
	Filter string `json:"filter"`
	From   string `json:"from"`
	To     string `json:"to"`
}

func viewParamsFromQuery(r *http.Request) viewParams {
	q := r.URL.Query()
	return viewParams{Screen: q.Get("screen"), Filter: q.Get("filter"), From: q.Get("from"), To: q.Get("to")}
}

// badRequest marks errors reported as 400 rather than by reason.
type badRequest struct{ error }

// resolve validates p. The filter is nil when p names none.
func (s *Server) resolve(p viewParams) (state.Screen, *state.Filter, error) {
	var screen state.Screen
	if strings.TrimSpace(p.Screen) != "" {
		sc, err := state.ParseScreen(p.Screen)
		if err != nil {
			return "", nil, badRequest{err}
		}
		screen = sc
	}

	from, err := optionalDate(p.From)
	if err != nil {
		return "", nil, err
	}
	to, err := optionalDate(p.To)
	if err != nil {
		return "", nil, err
	}

	var f state.Filter
	switch {
	case !from.IsZero() || !to.IsZero():
		f, err = state.RangeFilter(from, to)
	case strings.TrimSpace(p.Filter) != "":
		f, err = s.holder.FilterNamed(p.Filter)
	default:
		return screen, nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	return screen, &f, nil
}

// readView answers a read request. Query parameters scope only this
// response; the holder's active view changes through PUT /api/view.
func (s *Server) readView(r *http.Request) (state.View, error) {
	screen, f, err := s.resolve(viewParamsFromQuery(r))
	if err != nil {
		return state.View{}, err
	}

	var v state.View
	if f == nil {
		if err := s.holder.Refresh(r.Context()); err != nil {
			return state.View{}, err
		}
		v = s.holder.State()
	} else if v, err = s.holder.Peek(r.Context(), *f); err != nil {
		return state.View{}, err
	}

	if screen != "" {
		v.Screen = screen
	}
	return v, nil
}

func writeViewError(w http.ResponseWriter, r *http.Request, err error) {
	var br badRequest
	if errors.As(err, &br) {
		writeBadRequest(w, r, err.Error())
		return
	}
	writeError(w, r, err)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	v, err := s.readView(r)
	if err != nil {
		writeViewError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotJSON(v))
}

func (s *Server) handleListOperations(w http.ResponseWriter, r *http.Request) {
	v, err := s.readView(r)
	if err != nil {
		writeViewError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"filter":     toFilterJSON(v.Filter),
		"operations": toOperationsJSON(v.Snapshot.Operations),
	})
}

// handleSetView changes the shared active screen and filter. On a rejected
// filter the previous one stays in place.
func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	var p viewParams
	if err := decodeJSON(w, r, &p); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	screen, f, err := s.resolve(p)
	if err != nil {
		writeViewError(w, r, err)
		return
	}

	ctx := r.Context()
	switch {
	case f == nil:
		err = s.holder.Refresh(ctx)
	case f.Name == state.FilterCustom:
		err = s.holder.ApplyRange(ctx, f.From, f.To)
	default:
		err = s.holder.ApplyFilter(ctx, f.Name)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if screen != "" {
		s.holder.Navigate(screen)
	}
	writeJSON(w, http.StatusOK, toSnapshotJSON(s.holder.State()))
}

func (s *Server) handleCreateOperation(w http.ResponseWriter, r *http.Request) {
	var req operationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	op, err := req.toOperation("")
	if err != nil {
		writeError(w, r, err)
		return
	}

	added, err := s.holder.AddOperation(r.Context(), op)
	if err != nil {
		if added.ID == 0 {
			writeError(w, r, err)
			return
		}
		// Committed; only the follow-up resync failed.
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Operation added but snapshot is stale",
			applog.NewFields().WithEntry(added).WithError(err).ToSlice()...)
	}
	writeJSON(w, http.StatusCreated, toOperationJSON(added))
}

func (s *Server) handleUpdateOperation(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req operationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	op, err := req.toOperation(kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	op.ID = id

	if err := s.holder.EditOperation(r.Context(), op); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOperationJSON(op))
}

func (s *Server) handleDeleteOperation(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.holder.DeleteOperation(r.Context(), id, kind); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if err := s.holder.Refresh(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	snap := s.holder.State().Snapshot

	if v := r.URL.Query().Get("kind"); v != "" {
		kind, err := core.ParseKind(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		names := snap.ExpenseCategories
		if kind == core.Income {
			names = snap.IncomeCategories
		}
		writeJSON(w, http.StatusOK, map[string][]string{string(kind): nonNil(names)})
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{
		string(core.Income):  nonNil(snap.IncomeCategories),
		string(core.Expense): nonNil(snap.ExpenseCategories),
	})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.holder.AddCategory(r.Context(), sanitizeInput(req.Name), kind)
	if err != nil && c.ID == 0 {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryJSON(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.holder.DeleteCategory(r.Context(), r.PathValue("name"), kind); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	ds "github.com/oaiiae/contacts-edit/datastores"
	"github.com/oaiiae/contacts-edit/session"
)

// Sessions exposes edit sessions: a contact is loaded into a session,
// then updated (validated) or saved (as is) through it.
type Sessions struct {
	Registry     *session.Registry
	ErrorHandler func(context.Context, error)
}

type SessionModel struct {
	ID      string        `json:"id"                doc:"ID of the session"`
	State   string        `json:"state"             enum:"idle,loading,ready,saving"`
	Contact *ContactModel `json:"contact,omitempty" doc:"Contact held by the session"`
}

type SessionOutput struct {
	Body SessionModel
}

type sessionInput struct {
	SID string `path:"sid" doc:"ID of the session"`
}

// EditModel is a [ContactModel] whose ID is set by the client.
type EditModel struct {
	ID       ds.ContactID `json:"id"                 minimum:"1"`
	Name     string       `json:"name"               example:"Bubba" minLength:"1"`
	Email    string       `json:"email,omitempty"    example:"bubba@example.com"`
	Number   string       `json:"number,omitempty"   example:"555-123-4567"`
	Favorite bool         `json:"favorite,omitempty"`
}

func (m *EditModel) contact() ds.Contact {
	return ds.Contact{
		ID:       m.ID,
		Name:     m.Name,
		Email:    m.Email,
		Number:   m.Number,
		Favorite: m.Favorite,
	}
}

func sessionOutput(id ds.UUID, s *session.Session) *SessionOutput {
	out := &SessionOutput{Body: SessionModel{ID: id.String(), State: s.State().String()}}
	if c, ok := s.Contact(); ok {
		model := contactModel(&c)
		out.Body.Contact = &model
	}
	return out
}

func parseSID(sid string) (ds.UUID, error) {
	id, err := ds.ParseUUID(sid)
	if err != nil {
		return id, fmt.Errorf("%w: %q: %w", session.ErrNotFound, sid, err)
	}
	return id, nil
}

func (h *Sessions) lookup(sid string) (ds.UUID, *session.Session, error) {
	id, err := parseSID(sid)
	if err != nil {
		return id, nil, err
	}
	s, err := h.Registry.Get(id)
	return id, s, err
}

func (h *Sessions) RegisterOpen(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "",
		handlerWithErrorHandler(h.open, h.ErrorHandler),
		opStatus(http.StatusCreated),
		opErrors(http.StatusServiceUnavailable),
	)
}

func (h *Sessions) open(_ context.Context, _ *struct{}) (*SessionOutput, error) {
	id, s, err := h.Registry.Open()
	if err != nil {
		return nil, err
	}
	return sessionOutput(id, s), nil
}

func (h *Sessions) RegisterGet(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/{sid}",
		handlerWithErrorHandler(h.get, h.ErrorHandler),
		opErrors(http.StatusNotFound),
	)
}

func (h *Sessions) get(_ context.Context, input *sessionInput) (*SessionOutput, error) {
	id, s, err := h.lookup(input.SID)
	if err != nil {
		return nil, err
	}
	return sessionOutput(id, s), nil
}

func (h *Sessions) RegisterLoad(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "/{sid}/load/{id}",
		handlerWithErrorHandler(h.load, h.ErrorHandler),
		opErrors(http.StatusNotFound, http.StatusInternalServerError),
	)
}

func (h *Sessions) load(ctx context.Context, input *struct {
	SID string       `path:"sid" doc:"ID of the session"`
	ID  ds.ContactID `path:"id"  doc:"ID of the contact to load"`
}) (*SessionOutput, error) {
	id, s, err := h.lookup(input.SID)
	if err != nil {
		return nil, err
	}
	err = s.Load(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return sessionOutput(id, s), nil
}

func (h *Sessions) RegisterUpdate(api huma.API) { // called by [huma.AutoRegister]
	huma.Put(api, "/{sid}/contact",
		handlerWithErrorHandler(h.update, h.ErrorHandler),
		opErrors(http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusInternalServerError),
	)
}

type sessionContactInput struct {
	SID  string `path:"sid" doc:"ID of the session"`
	Body EditModel
}

func (h *Sessions) update(ctx context.Context, input *sessionContactInput) (*SessionOutput, error) {
	id, s, err := h.lookup(input.SID)
	if err != nil {
		return nil, err
	}
	err = s.Update(ctx, input.Body.contact())
	if err != nil {
		return nil, err
	}
	return sessionOutput(id, s), nil
}

func (h *Sessions) RegisterSave(api huma.API) { // called by [huma.AutoRegister]
	huma.Put(api, "/{sid}/contact/direct",
		handlerWithErrorHandler(h.save, h.ErrorHandler),
		opErrors(http.StatusNotFound, http.StatusInternalServerError),
	)
}

func (h *Sessions) save(ctx context.Context, input *sessionContactInput) (*SessionOutput, error) {
	id, s, err := h.lookup(input.SID)
	if err != nil {
		return nil, err
	}
	err = s.Save(ctx, input.Body.contact())
	if err != nil {
		return nil, err
	}
	return sessionOutput(id, s), nil
}

func (h *Sessions) RegisterClose(api huma.API) { // called by [huma.AutoRegister]
	huma.Delete(api, "/{sid}",
		handlerWithErrorHandler(h.close, h.ErrorHandler),
		opErrors(http.StatusNotFound),
	)
}

func (h *Sessions) close(_ context.Context, input *sessionInput) (*struct{}, error) {
	id, err := parseSID(input.SID)
	if err != nil {
		return nil, err
	}
	return nil, h.Registry.Close(id)
}

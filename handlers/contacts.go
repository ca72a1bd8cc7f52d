package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	ds "github.com/oaiiae/contacts-edit/datastores"
	"github.com/oaiiae/contacts-edit/validate"
)

type Contacts struct {
	Store        ds.ContactsStore
	ErrorHandler func(context.Context, error)
}

type ContactModel struct {
	ID ds.ContactID `json:"id" readOnly:"true"`

	Name     string `json:"name"               example:"Farooq"            minLength:"1"`
	Email    string `json:"email,omitempty"    example:"farooq@example.com"`
	Number   string `json:"number,omitempty"   example:"555-123-4567"`
	Favorite bool   `json:"favorite,omitempty"`
}

func contactModel(c *ds.Contact) ContactModel {
	return ContactModel{
		ID:       c.ID,
		Name:     c.Name,
		Email:    c.Email,
		Number:   c.Number,
		Favorite: c.Favorite,
	}
}

func (m *ContactModel) contact(id ds.ContactID) ds.Contact {
	return ds.Contact{
		ID:       id,
		Name:     m.Name,
		Email:    m.Email,
		Number:   m.Number,
		Favorite: m.Favorite,
	}
}

func (h *Contacts) RegisterList(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "",
		handlerWithErrorHandler(h.list, h.ErrorHandler),
		opErrors(http.StatusInternalServerError),
	)
}

type ContactsListOutput struct {
	Body []ContactModel
}

func (h *Contacts) list(ctx context.Context, _ *struct{}) (*ContactsListOutput, error) {
	contacts, err := h.Store.List(ctx)
	if err != nil {
		return nil, err
	}

	body := make([]ContactModel, 0, len(contacts))
	for _, contact := range contacts {
		body = append(body, contactModel(contact))
	}

	return &ContactsListOutput{Body: body}, nil
}

func (h *Contacts) RegisterCreate(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "",
		handlerWithErrorHandler(h.create, h.ErrorHandler),
		opStatus(http.StatusCreated),
		opErrors(http.StatusUnprocessableEntity, http.StatusInternalServerError),
	)
}

type ContactOutput struct {
	Body ContactModel
}

func (h *Contacts) create(ctx context.Context, input *struct {
	Body ContactModel
}) (*ContactOutput, error) {
	err := validate.Contact(input.Body.Email, input.Body.Number)
	if err != nil {
		return nil, err
	}

	contact := input.Body.contact(0)
	_, err = h.Store.Create(ctx, &contact)
	if err != nil {
		return nil, err
	}

	return &ContactOutput{Body: contactModel(&contact)}, nil
}

func (h *Contacts) RegisterGet(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/{id}",
		handlerWithErrorHandler(h.get, h.ErrorHandler),
		opErrors(http.StatusNotFound, http.StatusInternalServerError),
	)
}

func (h *Contacts) get(ctx context.Context, input *struct {
	ID ds.ContactID `path:"id" doc:"ID of the contact to get"`
}) (*ContactOutput, error) {
	contact, err := h.Store.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ContactOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterPut(api huma.API) { // called by [huma.AutoRegister]
	huma.Put(api, "/{id}",
		handlerWithErrorHandler(h.put, h.ErrorHandler),
		opErrors(http.StatusUnprocessableEntity, http.StatusInternalServerError),
	)
}

func (h *Contacts) put(ctx context.Context, input *struct {
	ID   ds.ContactID `path:"id" doc:"ID of the contact to put"`
	Body ContactModel
}) (*struct{}, error) {
	err := validate.Contact(input.Body.Email, input.Body.Number)
	if err != nil {
		return nil, err
	}

	contact := input.Body.contact(input.ID)
	return nil, h.Store.Save(ctx, &contact)
}

func (h *Contacts) RegisterDel(api huma.API) { // called by [huma.AutoRegister]
	huma.Delete(api, "/{id}",
		handlerWithErrorHandler(h.del, h.ErrorHandler),
		opErrors(http.StatusInternalServerError),
	)
}

func (h *Contacts) del(ctx context.Context, input *struct {
	ID ds.ContactID `path:"id" doc:"ID of the contact to delete"`
}) (*struct{}, error) {
	return nil, h.Store.Delete(ctx, input.ID)
}

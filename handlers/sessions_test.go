package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ds "github.com/oaiiae/contacts-edit/datastores"
	"github.com/oaiiae/contacts-edit/session"
)

func newSessionsAPI(t *testing.T, opts ...session.RegistryOption) (humatest.TestAPI, *session.Registry) {
	t.Helper()
	registry := session.NewRegistry(ds.NewContactsInmem(&ds.Contact{ID: 1, Name: "Farooq"}), nil, opts...)
	api := newTestAPI(t)
	huma.AutoRegister(huma.NewGroup(api, "/sessions"), &Sessions{Registry: registry})
	return api, registry
}

func openSession(t *testing.T, api humatest.TestAPI) string {
	t.Helper()
	resp := api.Post("/sessions")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	model := decode[SessionModel](t, resp.Body.Bytes())
	assert.Equal(t, "idle", model.State)
	assert.Nil(t, model.Contact)
	return model.ID
}

func loadFarooq(t *testing.T, api humatest.TestAPI, sid string) {
	t.Helper()
	resp := api.Post("/sessions/" + sid + "/load/1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	model := decode[SessionModel](t, resp.Body.Bytes())
	assert.Equal(t, "ready", model.State)
	require.NotNil(t, model.Contact)
	assert.Equal(t, "Farooq", model.Contact.Name)
}

func heldName(t *testing.T, api humatest.TestAPI, sid string) string {
	t.Helper()
	resp := api.Get("/sessions/" + sid)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	model := decode[SessionModel](t, resp.Body.Bytes())
	require.NotNil(t, model.Contact)
	return model.Contact.Name
}

func TestSessions_Load(t *testing.T) {
	api, _ := newSessionsAPI(t)
	sid := openSession(t, api)
	loadFarooq(t, api, sid)

	resp := api.Post("/sessions/" + sid + "/load/99")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Farooq", heldName(t, api, sid))
}

func TestSessions_Update(t *testing.T) {
	api, _ := newSessionsAPI(t)
	sid := openSession(t, api)
	loadFarooq(t, api, sid)

	resp := api.Put("/sessions/"+sid+"/contact", map[string]any{"id": 2, "name": "Bubba", "email": "", "number": ""})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Bubba", heldName(t, api, sid))
}

func TestSessions_Update_Invalid(t *testing.T) {
	for name, body := range map[string]map[string]any{
		"email":  {"id": 2, "name": "Bubba", "email": "bubba@", "number": ""},
		"number": {"id": 2, "name": "Bubba", "email": "", "number": "123"},
	} {
		t.Run(name, func(t *testing.T) {
			api, _ := newSessionsAPI(t)
			sid := openSession(t, api)
			loadFarooq(t, api, sid)

			resp := api.Put("/sessions/"+sid+"/contact", body)
			require.Equal(t, http.StatusUnprocessableEntity, resp.Code, resp.Body.String())
			assert.Equal(t, "Farooq", heldName(t, api, sid))
		})
	}
}

func TestSessions_Save(t *testing.T) {
	api, _ := newSessionsAPI(t)
	sid := openSession(t, api)

	resp := api.Put("/sessions/"+sid+"/contact/direct", map[string]any{"id": 1, "name": "Bubba", "number": "123"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Bubba", heldName(t, api, sid))
}

func TestSessions_UnknownSession(t *testing.T) {
	api, _ := newSessionsAPI(t)

	assert.Equal(t, http.StatusNotFound, api.Get("/sessions/not-a-session").Code)
	assert.Equal(t, http.StatusNotFound, api.Get("/sessions/"+ds.NewUUID().String()).Code)
	assert.Equal(t, http.StatusNotFound, api.Post("/sessions/"+ds.NewUUID().String()+"/load/1").Code)
}

func TestSessions_Close(t *testing.T) {
	api, registry := newSessionsAPI(t)
	sid := openSession(t, api)
	require.Equal(t, 1, registry.Len())

	resp := api.Delete("/sessions/" + sid)
	require.Less(t, resp.Code, 300, resp.Body.String())
	assert.Equal(t, 0, registry.Len())
	assert.Equal(t, http.StatusNotFound, api.Delete("/sessions/"+sid).Code)
}

func TestSessions_Close_Gone(t *testing.T) {
	var errs []error
	registry := session.NewRegistry(ds.NewContactsInmem(), nil)
	api := newTestAPI(t)
	huma.AutoRegister(huma.NewGroup(api, "/sessions"), &Sessions{
		Registry:     registry,
		ErrorHandler: func(_ context.Context, err error) { errs = append(errs, err) },
	})

	sid := openSession(t, api)
	id, err := ds.ParseUUID(sid)
	require.NoError(t, err)
	require.NoError(t, registry.Close(id))

	assert.Equal(t, http.StatusNotFound, api.Delete("/sessions/"+sid).Code)
	assert.Equal(t, http.StatusNotFound, api.Delete("/sessions/not-a-session").Code)
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.ErrorIs(t, err, session.ErrNotFound)
	}
}

func TestSessions_UnknownRoute(t *testing.T) {
	api, registry := newSessionsAPI(t)

	assert.Equal(t, http.StatusNotFound, api.Post("/sessions/junk/path").Code)
	assert.Equal(t, http.StatusNotFound, api.Post("/sessions/junk/load").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, api.Post("/sessions/junk").Code)
	assert.Equal(t, 0, registry.Len())

	openSession(t, api)
	assert.Equal(t, 1, registry.Len())
}

func TestSessions_Open_Full(t *testing.T) {
	api, registry := newSessionsAPI(t, session.WithMaxSessions(1))
	openSession(t, api)

	resp := api.Post("/sessions")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code, resp.Body.String())
	assert.Equal(t, 1, registry.Len())
}

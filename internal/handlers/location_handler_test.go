package handlers_test

import (
	"TrackingCar/internal/model"
	"TrackingCar/internal/service"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation_CRUDAndReferenceBlock(t *testing.T) {
	e := newTestEnv(t)
	e.createUser(t, "mgr", model.RoleManager, true)
	token := e.token(t, "mgr")

	rr := e.doJSON(t, http.MethodPost, "/api/locations", token, service.LocationInput{Name: "Yard A", Details: "north"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var loc model.Location
	decode(t, rr, &loc)

	rr = e.doJSON(t, http.MethodPost, "/api/locations", token, service.LocationInput{Name: "yard a"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = e.doJSON(t, http.MethodPost, "/api/locations", token, service.LocationInput{Name: " "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.doJSON(t, http.MethodPost, "/api/cars", token, []map[string]any{{"plate_number": "L-1", "location_id": loc.ID}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var cars []model.Car
	decode(t, rr, &cars)

	rr = e.doJSON(t, http.MethodGet, "/api/locations/"+loc.ID, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var details model.Location
	decode(t, rr, &details)
	require.Len(t, details.Cars, 1)
	assert.Equal(t, "L-1", details.Cars[0].PlateNumber)

	rr = e.doJSON(t, http.MethodDelete, "/api/locations/"+loc.ID, token, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = e.doJSON(t, http.MethodDelete, "/api/cars/"+cars[0].ID, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = e.doJSON(t, http.MethodPut, "/api/locations/"+loc.ID, token, service.LocationInput{Name: "Yard B"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = e.doJSON(t, http.MethodDelete, "/api/locations/"+loc.ID, token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = e.doJSON(t, http.MethodGet, "/api/locations/removed", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var removed []model.Location
	decode(t, rr, &removed)
	require.Len(t, removed, 1)
	assert.Equal(t, "Yard B", removed[0].Name)
}

func TestOwnership_CRUD(t *testing.T) {
	e := newTestEnv(t)
	e.createUser(t, "mgr", model.RoleManager, true)
	e.createUser(t, "viewer", model.RoleUser, true)
	token := e.token(t, "mgr")

	rr := e.doJSON(t, http.MethodPost, "/api/ownerships", e.token(t, "viewer"), service.OwnershipInput{Name: "Fleet"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	missing := "00000000-0000-0000-0000-000000000000"
	rr = e.doJSON(t, http.MethodPost, "/api/ownerships", token, service.OwnershipInput{Name: "Fleet", LocationID: &missing})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.doJSON(t, http.MethodPost, "/api/ownerships", token, service.OwnershipInput{Name: "Fleet"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var own model.Ownership
	decode(t, rr, &own)

	rr = e.doJSON(t, http.MethodGet, "/api/ownerships?search=fle", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var page service.Page[model.Ownership]
	decode(t, rr, &page)
	assert.Equal(t, int64(1), page.Total)

	rr = e.doJSON(t, http.MethodDelete, "/api/ownerships/"+own.ID, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = e.doJSON(t, http.MethodGet, "/api/ownerships/"+own.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

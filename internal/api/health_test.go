// Copyright (c) 2026 Folivafy authors. All rights reserved.

package api_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ErikWegner/folivafy-go/internal/api"
)

func TestHealthHandlers_Liveness_AlwaysOK(t *testing.T) {
	liveness, _ := api.NewHealthHandlers(api.HealthDependencies{}, testLogger())

	request := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()

	liveness(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestHealthHandlers_Readiness_OKWhenDependenciesHealthy(t *testing.T) {
	_, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error { return nil },
		CheckCache:    func() error { return nil },
	}, testLogger())

	request := httptest.NewRequest(http.MethodGet, "/ready", nil)
	recorder := httptest.NewRecorder()

	readiness(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestHealthHandlers_Readiness_DegradedWhenDependencyFails(t *testing.T) {
	_, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error { return errors.New("connection refused") },
		CheckCache:    func() error { return nil },
	}, testLogger())

	request := httptest.NewRequest(http.MethodGet, "/ready", nil)
	recorder := httptest.NewRecorder()

	readiness(recorder, request)

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

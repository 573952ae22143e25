package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_ComandoDesconocido(t *testing.T) {
	assert.Equal(t, 2, run([]string{"sideways"}))
}

func TestRun_BackendSinMigraciones(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "secreto-de-pruebas-suficientemente-largo")
	assert.Equal(t, 1, run([]string{"up"}))
}

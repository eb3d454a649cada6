package worker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSiguientePaso(t *testing.T) {
	fallo := errors.New("smtp down")

	assert.Equal(t, pasoHecho, siguientePaso(1, nil))
	assert.Equal(t, pasoHecho, siguientePaso(MaxIntentos, nil))
	for i := 1; i < MaxIntentos; i++ {
		assert.Equal(t, pasoReintentar, siguientePaso(i, fallo), "attempt %d", i)
	}
	assert.Equal(t, pasoDLQ, siguientePaso(MaxIntentos, fallo))
	assert.Equal(t, pasoDLQ, siguientePaso(MaxIntentos+1, fallo))
}

func TestNewPool_MinimoUnWorker(t *testing.T) {
	p := NewPool(nil, 0)
	assert.Equal(t, 1, p.size)
	assert.Equal(t, []string{QueueNotificaciones}, p.queues)
}

package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

func TestOperationMetrics_CuentaTransicionesYEntradas(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOperationMetrics(reg)

	m.TransitionRecorded(entity.OperationDelivery, entity.StatusReady, entity.StatusDone)
	m.TransitionRecorded(entity.OperationDelivery, entity.StatusReady, entity.StatusDone)
	m.LedgerEntriesAppended(entity.OperationTransfer, 4)
	m.ValidationObserved(entity.OperationDelivery, "done", 30*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("DELIVERY", "READY", "DONE")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ledger.WithLabelValues("TRANSFER")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.validations))
}

func TestHTTPMetrics_EtiquetaPorRuta(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/api/products/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	for _, id := range []string{"a", "b"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/products/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/products/:id", "204")))
}

package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

var (
	metricsMu        sync.Mutex
	metricsByService = map[string]*fiberprometheus.FiberPrometheus{}
)

// InitMetrics builds the fiber Prometheus middleware for serviceName. The
// collectors live in the default registry, so one instance is shared per name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	if p, ok := metricsByService[serviceName]; ok {
		return p
	}
	p := fiberprometheus.New(serviceName)
	metricsByService[serviceName] = p
	return p
}

// MetricsMiddleware records request counts and latencies, skipping the scrape endpoint itself.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	record := p.Middleware
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		return record(c)
	}
}

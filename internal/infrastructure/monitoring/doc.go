/*
Package monitoring provides Prometheus metrics collection.

# Overview

Each Metrics value owns a registry, tracking HTTP requests and filesystem
operations (list, scan, delete, fetch, link) by result.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, monitoring.OpFetch)
	// ... perform operation ...
	timer.Stop("success")
*/
package monitoring

// Package handlers contains the HTTP handlers, health checks and middleware
// of the lesson catalog API.
//
// # Health Checks
//
// Named checks run in parallel, each under its own timeout:
//
//	checker := handlers.NewCompositeHealthChecker("v1")
//	checker.AddCheck("catalog", handlers.NewCatalogCheck(lesson.Catalog()))
//	checker.AddCheck("postgres", handlers.NewPingCheck(db))
//	checker.AddCheck("redis", handlers.NewPingCheck(cache))
//
// # Lessons
//
// LessonHandler serves the catalog. List responses carry an ETag equal to
// the catalog fingerprint and answer 304 to a matching If-None-Match.
//
// # Admin
//
// AdminHandler triggers a publish to the configured sinks. It must be
// mounted behind AdminKeyAuth, which compares the X-Admin-Key header with a
// bcrypt hash:
//
//	auth := handlers.NewAdminKeyAuth(cfg.HTTP.AdminKeyHash, log)
//	r.With(auth.Middleware).Post("/publish", admin.Publish)
package handlers

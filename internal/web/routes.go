package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attend/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	recognizeHandler := handlers.NewRecognizeHandler(s.engine, s.stores.Attendance)
	calibrateHandler := handlers.NewCalibrateHandler(s.engine, s.stores.Calibrations)
	thresholdsHandler := handlers.NewThresholdsHandler(s.engine)
	statsHandler := handlers.NewStatsHandler(s.engine)
	identitiesHandler := handlers.NewIdentitiesHandler(s.engine, s.stores.Identities)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Recognition
		r.Post("/recognize", recognizeHandler.Recognize)

		// Calibration
		r.Post("/calibrate", calibrateHandler.Run)
		r.Get("/calibrations", calibrateHandler.History)

		// Thresholds
		r.Get("/thresholds", thresholdsHandler.Get)
		r.Put("/thresholds", thresholdsHandler.Update)

		// Stats
		r.Get("/stats", statsHandler.Get)
		r.Delete("/stats", statsHandler.Reset)

		// Identities
		r.Get("/identities", identitiesHandler.List)
		r.Post("/identities", identitiesHandler.Register)

		// Attendance (only when a store is configured)
		if s.stores.Attendance != nil {
			attendanceHandler := handlers.NewAttendanceHandler(s.stores.Attendance)
			r.Get("/attendance/{day}", attendanceHandler.ListDay)
			r.Delete("/attendance/{day}", attendanceHandler.ClearDay)
		}
	})
}

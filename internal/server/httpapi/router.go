package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/employnext/jobcore/internal/gate"
	"github.com/employnext/jobcore/internal/metrics"
	"github.com/employnext/jobcore/internal/models"
)

// RouterDeps bundles everything NewRouter wires together.
type RouterDeps struct {
	SecretKey []byte

	Registration RegistrationService
	Jobs         JobService
	Tracker      TrackerService
	SavedJobs    SavedJobService
	Resumes      ResumeService

	Recorder metrics.Recorder
	Gatherer prometheus.Gatherer
}

// NewRouter builds the full route tree. Route groups declare their gate
// requirement once; handlers never re-check roles, only resource ownership.
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(SessionMiddleware(deps.SecretKey))

	authHandler := NewAuthHandler(deps.Registration)
	jobHandler := NewJobHandler(deps.Jobs)
	appHandler := NewApplicationHandler(deps.Tracker, deps.Resumes)
	savedHandler := NewSavedJobHandler(deps.SavedJobs)
	resumeHandler := NewResumeHandler(deps.Resumes)

	browse := gate.Requirement{
		Roles:      []models.Role{models.RoleCandidate, models.RoleRecruiter},
		AllowGuest: true,
	}
	candidateOnly := gate.Requirement{Roles: []models.Role{models.RoleCandidate}}
	recruiterOnly := gate.Requirement{Roles: []models.Role{models.RoleRecruiter}}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		// Session entry points, open to signed-out requests.
		r.Post("/register", authHandler.Register)
		r.Post("/signin", authHandler.SignIn)
		r.Post("/guest", authHandler.Guest)
		r.Get("/me", authHandler.Me)

		// Browsing is open to every session kind, guests included. Signed-out
		// visitors may read postings too, so no gate here.
		r.Get("/jobs", jobHandler.ListActive)
		r.Get("/jobs/{jobID}", jobHandler.Get)

		// Membership reads admit guest sessions, which always see an empty
		// set, so demo views render without special cases.
		r.Group(func(r chi.Router) {
			r.Use(RequireMiddleware(browse, deps.Recorder))

			r.Get("/jobs/{jobID}/applied", appHandler.HasApplied)
			r.Get("/saved-jobs/{jobID}", savedHandler.IsSaved)
		})

		// Candidate-only surface.
		r.Group(func(r chi.Router) {
			r.Use(RequireMiddleware(candidateOnly, deps.Recorder))

			r.Post("/jobs/{jobID}/apply", appHandler.Apply)
			r.Delete("/jobs/{jobID}/apply", appHandler.Cancel)
			r.Get("/my/applications", appHandler.ListOwn)

			r.Put("/saved-jobs/{jobID}", savedHandler.Save)
			r.Delete("/saved-jobs/{jobID}", savedHandler.Unsave)
			r.Get("/saved-jobs", savedHandler.List)

			r.Get("/resume/upload-url", resumeHandler.UploadURL)
		})

		// Recruiter-only surface.
		r.Group(func(r chi.Router) {
			r.Use(RequireMiddleware(recruiterOnly, deps.Recorder))

			r.Post("/jobs", jobHandler.Create)
			r.Get("/my/jobs", jobHandler.ListOwn)
			r.Patch("/jobs/{jobID}/active", jobHandler.SetActive)
			r.Delete("/jobs/{jobID}", jobHandler.Delete)

			r.Get("/jobs/{jobID}/applications", appHandler.ListByJob)
			r.Patch("/applications/{applicationID}/status", appHandler.UpdateStatus)
			r.Get("/applications/{applicationID}/resume", appHandler.DownloadResume)
		})
	})

	return r
}

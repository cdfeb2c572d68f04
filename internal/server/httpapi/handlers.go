package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/employnext/jobcore/internal/common"
	"github.com/employnext/jobcore/internal/models"
	"github.com/employnext/jobcore/internal/services"
)

// Service interfaces consumed by the handlers. The concrete services in
// internal/services satisfy them; tests substitute fakes.

type RegistrationService interface {
	Register(ctx context.Context, email, displayName string, role models.Role) (*models.User, string, error)
	SignIn(ctx context.Context, email string) (*models.User, string, error)
	GuestSession(role models.Role) (string, error)
}

type JobService interface {
	Create(ctx context.Context, identity models.ResolvedIdentity, input services.JobInput) (*models.Job, error)
	Get(ctx context.Context, id string) (*models.Job, error)
	ListActive(ctx context.Context) ([]*models.Job, error)
	ListOwn(ctx context.Context, identity models.ResolvedIdentity) ([]*models.Job, error)
	SetActive(ctx context.Context, identity models.ResolvedIdentity, jobID string, active bool) error
	Delete(ctx context.Context, identity models.ResolvedIdentity, jobID string) error
}

type TrackerService interface {
	Apply(ctx context.Context, identity models.ResolvedIdentity, input services.ApplyInput) (*models.Application, error)
	Cancel(ctx context.Context, identity models.ResolvedIdentity, jobID string) error
	HasApplied(ctx context.Context, identity models.ResolvedIdentity, jobID string) (bool, error)
	UpdateStatus(ctx context.Context, identity models.ResolvedIdentity, applicationID string, status models.ApplicationStatus) error
	GetForOwner(ctx context.Context, identity models.ResolvedIdentity, applicationID string) (*models.Application, error)
	ListByUser(ctx context.Context, identity models.ResolvedIdentity) ([]*models.ApplicationWithJob, error)
	ListByJob(ctx context.Context, identity models.ResolvedIdentity, jobID string) ([]*models.Application, error)
}

type SavedJobService interface {
	Save(ctx context.Context, identity models.ResolvedIdentity, jobID string) error
	Unsave(ctx context.Context, identity models.ResolvedIdentity, jobID string) error
	IsSaved(ctx context.Context, identity models.ResolvedIdentity, jobID string) (bool, error)
	List(ctx context.Context, identity models.ResolvedIdentity) ([]*models.Job, error)
}

type ResumeService interface {
	GetPresignedPutURL(ctx context.Context, identity models.ResolvedIdentity) (string, string, error)
	GetPresignedGetURL(ctx context.Context, identity models.ResolvedIdentity, key string, ownerChecked bool) (string, error)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondServiceError maps the error taxonomy onto HTTP statuses. Each class
// gets a distinct message so clients can react without string matching.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorUnauthenticated):
		respondError(w, http.StatusUnauthorized, "sign in required")
	case errors.Is(err, common.ErrorForbidden):
		respondError(w, http.StatusForbidden, "not allowed for this account")
	case errors.Is(err, common.ErrorNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorAlreadyApplied):
		respondError(w, http.StatusConflict, "already applied to this job")
	case errors.Is(err, common.ErrorTransient):
		respondError(w, http.StatusServiceUnavailable, "temporary storage failure, try again")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

// AuthHandler serves registration, sign-in, and guest entry.
type AuthHandler struct {
	registration RegistrationService
}

func NewAuthHandler(registration RegistrationService) *AuthHandler {
	return &AuthHandler{registration: registration}
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user,omitempty"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string      `json:"email"`
		DisplayName string      `json:"display_name"`
		Role        models.Role `json:"role"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	user, token, err := h.registration.Register(r.Context(), body.Email, body.DisplayName, body.Role)
	if err != nil {
		if errors.Is(err, common.ErrorInternal) {
			respondServiceError(w, err)
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, sessionResponse{Token: token, User: user})
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	user, token, err := h.registration.SignIn(r.Context(), body.Email)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

func (h *AuthHandler) Guest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role models.Role `json:"role"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	token, err := h.registration.GuestSession(body.Role)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{Token: token})
}

// Me reports the session's resolved identity. Open to signed-out sessions,
// which read as such instead of erroring.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	respondJSON(w, http.StatusOK, map[string]any{
		"state":            identity.State,
		"user_id":          identity.UserID,
		"display_name":     identity.DisplayName,
		"email":            identity.Email,
		"is_authenticated": identity.IsAuthenticated,
		"effective_role":   identity.EffectiveRole,
		"is_guest":         identity.IsGuest,
	})
}

// JobHandler serves posting CRUD and browsing.
type JobHandler struct {
	jobs JobService
}

func NewJobHandler(jobs JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body services.JobInput
	if !decodeBody(w, r, &body) {
		return
	}
	job, err := h.jobs.Create(r.Context(), IdentityFromContext(r.Context()), body)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, job)
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, job)
}

func (h *JobHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.ListActive(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, jobs)
}

func (h *JobHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.ListOwn(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, jobs)
}

func (h *JobHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active bool `json:"active"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	err := h.jobs.SetActive(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "jobID"), body.Active)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.jobs.Delete(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "jobID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplicationHandler serves the application lifecycle.
type ApplicationHandler struct {
	tracker TrackerService
	resumes ResumeService
}

func NewApplicationHandler(tracker TrackerService, resumes ResumeService) *ApplicationHandler {
	return &ApplicationHandler{tracker: tracker, resumes: resumes}
}

func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CoverLetter string `json:"cover_letter"`
		ResumeKey   string `json:"resume_key"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	app, err := h.tracker.Apply(r.Context(), IdentityFromContext(r.Context()), services.ApplyInput{
		JobID:       chi.URLParam(r, "jobID"),
		CoverLetter: body.CoverLetter,
		ResumeKey:   body.ResumeKey,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, app)
}

func (h *ApplicationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	err := h.tracker.Cancel(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "jobID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ApplicationHandler) HasApplied(w http.ResponseWriter, r *http.Request) {
	applied, err := h.tracker.HasApplied(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "jobID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"applied": applied})
}

func (h *ApplicationHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	apps, err := h.tracker.ListByUser(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	type entry struct {
		Application *models.Application `json:"application"`
		Job         *models.Job         `json:"job,omitempty"`
		JobDeleted  bool                `json:"job_deleted"`
	}
	result := make([]entry, 0, len(apps))
	for _, a := range apps {
		result = append(result, entry{Application: a.Application, Job: a.Job, JobDeleted: a.Job == nil})
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *ApplicationHandler) ListByJob(w http.ResponseWriter, r *http.Request) {
	apps, err := h.tracker.ListByJob(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "jobID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, apps)
}

func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status models.ApplicationStatus `json:"status"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	err := h.tracker.UpdateStatus(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "applicationID"), body.Status)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthenticated) || errors.Is(err, common.ErrorForbidden) ||
			errors.Is(err, common.ErrorNotFound) {
			respondServiceError(w, err)
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadResume hands the posting's owner a presigned URL for an
// applicant's resume. Ownership is verified before the key leaves storage.
func (h *ApplicationHandler) DownloadResume(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	app, err := h.tracker.GetForOwner(r.Context(), identity, chi.URLParam(r, "applicationID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if app.ResumeKey == "" {
		respondError(w, http.StatusNotFound, "no resume attached")
		return
	}
	url, err := h.resumes.GetPresignedGetURL(r.Context(), identity, app.ResumeKey, true)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// SavedJobHandler serves the saved-job set.
type SavedJobHandler struct {
	saved SavedJobService
}

func NewSavedJobHandler(saved SavedJobService) *SavedJobHandler {
	return &SavedJobHandler{saved: saved}
}

func (h *SavedJobHandler) Save(w http.ResponseWriter, r *http.Request) {
	err := h.saved.Save(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "jobID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SavedJobHandler) Unsave(w http.ResponseWriter, r *http.Request) {
	err := h.saved.Unsave(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "jobID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SavedJobHandler) IsSaved(w http.ResponseWriter, r *http.Request) {
	saved, err := h.saved.IsSaved(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "jobID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"saved": saved})
}

func (h *SavedJobHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.saved.List(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, jobs)
}

// ResumeHandler issues presigned upload URLs.
type ResumeHandler struct {
	resumes ResumeService
}

func NewResumeHandler(resumes ResumeService) *ResumeHandler {
	return &ResumeHandler{resumes: resumes}
}

func (h *ResumeHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	key, url, err := h.resumes.GetPresignedPutURL(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"key": key, "url": url})
}

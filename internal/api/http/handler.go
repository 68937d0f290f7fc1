package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"facingcourage-backend/internal/domain"
	"facingcourage-backend/internal/logger"
	"facingcourage-backend/internal/service"

	"github.com/gorilla/mux"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	applications service.ApplicationService
	auth         service.AuthService
	health       Pinger
}

func NewHandler(applications service.ApplicationService, auth service.AuthService, health Pinger) *Handler {
	return &Handler{
		applications: applications,
		auth:         auth,
		health:       health,
	}
}

type submitApplicationRequest struct {
	Username       string   `json:"username" validate:"required,max=100"`
	Discord        string   `json:"discord" validate:"required,max=100"`
	Experience     string   `json:"experience" validate:"required,oneof=beginner intermediate advanced expert"`
	Role           string   `json:"role" validate:"required,oneof=assault sniper support medic driver strategist"`
	Availability   []string `json:"availability" validate:"required,min=1,unique,dive,oneof=weekdays weekends evenings nights"`
	Motivation     string   `json:"motivation" validate:"required,max=4000"`
	WhyAcceptYou   string   `json:"whyAcceptYou" validate:"required,max=4000"`
	PreviousGroups *string  `json:"previousGroups" validate:"omitempty,max=1000"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Admin     adminSummary `json:"admin"`
}

type adminSummary struct {
	ID       int32  `json:"id"`
	Username string `json:"username"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.applications.List(r.Context(), domain.ApplicationFilter{})
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch applications")
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := applicationID(w, r)
	if !ok {
		return
	}
	app, err := h.applications.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch application")
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req submitApplicationRequest
	fields, err := decodeAndValidate(r, &req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create application")
		return
	}
	if fields != nil {
		writeValidationError(w, fields)
		return
	}

	app := &domain.Application{
		Username:       req.Username,
		Discord:        req.Discord,
		Experience:     req.Experience,
		Role:           req.Role,
		Availability:   req.Availability,
		Motivation:     req.Motivation,
		WhyAcceptYou:   req.WhyAcceptYou,
		PreviousGroups: req.PreviousGroups,
	}
	created, err := h.applications.Submit(r.Context(), app)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create application")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	fields, err := decodeAndValidate(r, &req)
	if err != nil {
		writeServiceError(w, r, err, "Login failed")
		return
	}
	if fields != nil {
		writeValidationError(w, fields)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err, "Login failed")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		Admin:     adminSummary{ID: res.Admin.ID, Username: res.Admin.Username},
	})
}

func (h *Handler) AdminListApplications(w http.ResponseWriter, r *http.Request) {
	filter := domain.ApplicationFilter{}
	if s := r.URL.Query().Get("status"); s != "" {
		status, err := domain.ParseApplicationStatus(s)
		if err != nil {
			writeServiceError(w, r, err, "Failed to fetch applications")
			return
		}
		filter.Status = status
	}
	apps, err := h.applications.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch applications")
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *Handler) AdminApplicationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.applications.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch application stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) AdminExportApplications(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.applications.Export(r.Context(), &buf); err != nil {
		writeServiceError(w, r, err, "Failed to export applications")
		return
	}
	filename := fmt.Sprintf("applications-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.WarnContext(r.Context(), "Failed to write export", "error", err)
	}
}

func (h *Handler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := AdminFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	h.updateStatus(w, r, claims.Username, service.ReviewChannelAdmin)
}

// LegacyUpdateStatus is the unauthenticated status route kept for older
// clients. Decisions made through it are attributed to the system reviewer.
func (h *Handler) LegacyUpdateStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, domain.SystemReviewer, service.ReviewChannelLegacy)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request, reviewer string, channel service.ReviewChannel) {
	id, ok := applicationID(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if fields, _ := decodeAndValidate(r, &req); fields != nil {
		writeValidationError(w, fields)
		return
	}
	status, err := domain.ParseApplicationStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	app, err := h.applications.Review(r.Context(), id, status, reviewer, channel)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update application status")
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.health.Ping(ctx); err != nil {
		logger.WarnContext(r.Context(), "Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func applicationID(w http.ResponseWriter, r *http.Request) (int32, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid application id")
		return 0, false
	}
	return int32(id), true
}

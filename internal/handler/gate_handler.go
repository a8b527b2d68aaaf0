package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"imagegate-service/internal/generation"
	"imagegate-service/internal/identity"
	"imagegate-service/internal/model"
	"imagegate-service/internal/service"
	"imagegate-service/internal/util"
)

// GateHandler owns the admission+generation endpoint. It validates the
// multipart form, resolves the client identity, runs the admission engine
// and only then hands the request to the generator.
type GateHandler struct {
	admission      *service.AdmissionService
	audit          *service.AuditService
	generator      generation.Generator
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewGateHandler(admission *service.AdmissionService, audit *service.AuditService, generator generation.Generator, maxUploadBytes int64, logger *zap.Logger) *GateHandler {
	if generator == nil {
		generator = generation.Disabled{}
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &GateHandler{
		admission:      admission,
		audit:          audit,
		generator:      generator,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// RegisterRoutes registers the gate routes
func (h *GateHandler) RegisterRoutes(router chi.Router) {
	router.Post("/free2k", h.Gate)
}

type gateResponse struct {
	OK             bool                   `json:"ok"`
	Tier           string                 `json:"tier"`
	UsedToday      int64                  `json:"used_today"`
	RemainingToday int64                  `json:"remaining_today"`
	Note           string                 `json:"note"`
	Images         []model.GeneratedImage `json:"images,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type quotaResponse struct {
	Error          string `json:"error"`
	RemainingToday int64  `json:"remaining_today"`
}

const (
	msgTooFast       = "You're doing that too fast. Please try again in a few seconds."
	msgRateLimited   = "Too many requests. Please try again later."
	msgQuotaExceeded = "No free 2K generations left today. Come back tomorrow or upgrade."
)

// Gate handles POST /api/free2k
func (h *GateHandler) Gate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("productImage")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "productImage file is required"})
		return
	}
	defer file.Close()

	title := util.SanitizeInput(r.FormValue("title"))
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "title is required"})
		return
	}

	aspectRatio := r.FormValue("aspectRatio")
	if aspectRatio == "" {
		aspectRatio = "4:5"
	}

	outputCount := 1
	if v := r.FormValue("outputCount"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "outputCount must be an integer"})
			return
		}
		outputCount = n
	}

	clientID := identity.FromRequest(r)

	decision, err := h.admission.Check(ctx, clientID)
	if err != nil {
		h.logger.Error("admission check failed",
			zap.String("client_id", clientID),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	h.audit.PublishDecisionAsync(clientID, decision)

	if !decision.Allowed {
		switch decision.Reason {
		case model.ReasonQuotaExceeded:
			writeJSON(w, http.StatusTooManyRequests, quotaResponse{Error: msgQuotaExceeded, RemainingToday: 0})
		case model.ReasonRateLimited:
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: msgRateLimited})
		default:
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: msgTooFast})
		}
		return
	}

	imageBytes, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "could not read productImage"})
		return
	}

	genReq := &model.GenerationRequest{
		Title:            title,
		AspectRatio:      aspectRatio,
		OutputCount:      service.ClampOutputCount(outputCount),
		Image:            imageBytes,
		ImageFilename:    header.Filename,
		ImageContentType: header.Header.Get("Content-Type"),
	}

	result, err := h.generator.Generate(ctx, genReq)
	if err != nil {
		h.logger.Error("image generation failed",
			zap.String("client_id", clientID),
			zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "image generation failed"})
		return
	}

	writeJSON(w, http.StatusOK, gateResponse{
		OK:             true,
		Tier:           "free_2k",
		UsedToday:      decision.UsedToday,
		RemainingToday: decision.RemainingToday,
		Note:           result.Note,
		Images:         result.Images,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

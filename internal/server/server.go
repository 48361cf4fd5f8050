package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/iwvelando/capital-budget/internal/config"
	"github.com/iwvelando/capital-budget/internal/evaluate"
	"github.com/iwvelando/capital-budget/internal/telemetry"
	"github.com/iwvelando/capital-budget/internal/worksheet"
	"github.com/iwvelando/capital-budget/pkg/constants"
	"github.com/iwvelando/capital-budget/pkg/output"
	"github.com/iwvelando/capital-budget/pkg/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed static/*
var staticFiles embed.FS

// Options configures the handler returned by NewHandler. Zero values select
// the defaults from pkg/constants. DiscountRate applies to calculations that
// do not send their own rate.
type Options struct {
	MaxUploadSize int64
	Version       string
	DiscountRate  float64
	Recorder      *telemetry.Recorder
	Gatherer      prometheus.Gatherer
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	discountRate  float64
	recorder      *telemetry.Recorder
}

// NewHandler constructs the HTTP handler that serves the web UI and the
// calculation API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	discountRate := opts.DiscountRate
	if discountRate == 0 || validation.ValidateDiscountRate(discountRate) != nil {
		discountRate = constants.DefaultDiscountRate
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		discountRate:  discountRate,
		recorder:      opts.Recorder,
	}

	router := mux.NewRouter()

	// Calculation endpoint for the worksheet UI
	router.HandleFunc("/api/calculate", h.handleCalculate).Methods(http.MethodPost)

	// Calculation endpoint for YAML configuration uploads
	router.HandleFunc("/api/evaluate", h.handleEvaluate).Methods(http.MethodPost)

	// Config serialization endpoint for downloads
	router.HandleFunc("/api/export", h.handleConfigExport).Methods(http.MethodPost)

	// Version endpoint for UI metadata
	router.HandleFunc("/api/version", h.handleVersion).Methods(http.MethodGet)

	router.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet, http.MethodHead)

	if opts.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// Static assets (web UI). API paths never fall through to the file server.
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	router.PathPrefix("/").
		MatcherFunc(func(r *http.Request, _ *mux.RouteMatch) bool {
			return !strings.HasPrefix(r.URL.Path, "/api/")
		}).
		Handler(http.FileServer(http.FS(sub)))

	return wrapMiddleware(logger, h.recorder, router)
}

type calculateRequest struct {
	DiscountRate *float64        `json:"discountRate"`
	Projects     int             `json:"projects"`
	Years        int             `json:"years"`
	Names        []string        `json:"names"`
	CashFlows    [][]interface{} `json:"cashFlows"`
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	var req calculateRequest
	if err := decoder.Decode(&req); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return
	}

	discountRate := h.discountRate
	if req.DiscountRate != nil {
		discountRate = *req.DiscountRate
	}
	if err := validation.ValidateDiscountRate(discountRate); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	ws, err := buildWorksheet(req)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	evaluation := evaluate.Run(h.logger, ws, discountRate, nil)
	h.respondEvaluation(w, evaluation, start, op)
}

// buildWorksheet sizes a worksheet to the requested dimensions, defaulting to
// the shape of the submitted grid, and copies the submitted cells into it.
func buildWorksheet(req calculateRequest) (*worksheet.Worksheet, error) {
	projects := req.Projects
	if projects == 0 {
		projects = len(req.CashFlows)
	}
	years := req.Years
	if years == 0 {
		for _, row := range req.CashFlows {
			if len(row) > years {
				years = len(row)
			}
		}
	}

	ws, err := worksheet.New(projects, years)
	if err != nil {
		return nil, err
	}

	for p, row := range req.CashFlows {
		if p >= projects {
			break
		}
		raw := make([]string, len(row))
		for y, cell := range row {
			raw[y] = coerceCell(cell)
		}
		if err := ws.SetRow(p, raw); err != nil {
			return nil, err
		}
	}
	for p, name := range req.Names {
		if p >= projects {
			break
		}
		if err := ws.SetName(p, strings.TrimSpace(name)); err != nil {
			return nil, err
		}
	}
	return ws, nil
}

func (h *handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEvaluate"
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	conf, err := config.LoadConfigurationFromReader(&buf)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	evaluation, err := evaluate.GetEvaluation(h.logger, *conf)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.respondEvaluation(w, evaluation, start, op)
}

func (h *handler) respondEvaluation(w http.ResponseWriter, evaluation evaluate.Evaluation, start time.Time, op string) {
	h.recorder.ObserveReport(evaluation.Report)

	elapsed := time.Since(start)
	response := output.BuildResponse(evaluation)
	response.Duration = elapsed.String()

	h.logger.Info("calculation served",
		zap.String("op", op),
		zap.Int("projects", len(response.Projects)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode configuration: %v", err), op)
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

// exportKeyOrder lists the top-level keys that lead an exported configuration.
var exportKeyOrder = []string{"logging", "output", "discountRate", "projects"}

func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range exportKeyOrder {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	return yaml.Marshal(orderedConfig{items: items})
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

// coerceCell turns a decoded JSON cell into the raw text a user would have
// typed. Numbers keep their literal form and null is an empty cell.
func coerceCell(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/iwvelando/cohousing-finance/internal/config"
	"github.com/iwvelando/cohousing-finance/pkg/calculator"
	"github.com/iwvelando/cohousing-finance/pkg/carrying"
	"github.com/iwvelando/cohousing-finance/pkg/constants"
	"github.com/iwvelando/cohousing-finance/pkg/export"
	"github.com/iwvelando/cohousing-finance/pkg/loans"
	"github.com/iwvelando/cohousing-finance/pkg/output"
	"github.com/iwvelando/cohousing-finance/pkg/portage"
	"github.com/iwvelando/cohousing-finance/pkg/redistribution"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	json "github.com/goccy/go-json"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	results       *cache.Cache
	now           func() time.Time
}

// NewHandler constructs the HTTP handler that serves the calculation API.
// Results are cached for cacheTTL; zero disables the cache.
func NewHandler(logger *zap.Logger, maxUploadSize int64, cacheTTL time.Duration, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: trimmedVersion, now: time.Now}
	if cacheTTL > 0 {
		h.results = cache.New(cacheTTL, 2*cacheTTL)
	}

	mux := http.NewServeMux()

	// Calculation of a scenario (JSON body or YAML file upload)
	mux.HandleFunc("/api/calculate", h.handleCalculate)

	// Repayment schedule of one participant
	mux.HandleFunc("/api/schedule", h.handleSchedule)

	// Durable export documents
	mux.HandleFunc("/api/export", h.handleExport)
	mux.HandleFunc("/api/export/xlsx", h.handleExportWorkbook)
	mux.HandleFunc("/api/export/verify", h.handleExportVerify)

	// Scenario serialization for editor downloads
	mux.HandleFunc("/api/scenario/yaml", h.handleScenarioYAML)

	// Portage and copropriété helpers
	mux.HandleFunc("/api/portage/price", h.handlePortagePrice)
	mux.HandleFunc("/api/redistribute", h.handleRedistribute)
	mux.HandleFunc("/api/transfer", h.handleTransfer)

	// Version endpoint for UI metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

type calculateResponse struct {
	Results  calculator.CalculationResults `json:"results"`
	Warnings []string                      `json:"warnings,omitempty"`
	CSV      string                        `json:"csv"`
	Cached   bool                          `json:"cached"`
	Duration string                        `json:"duration"`
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := h.now()
	scenario, ok := h.readScenario(w, r, op)
	if !ok {
		return
	}

	results, cached, err := h.calculate(scenario)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}

	var csvBuf bytes.Buffer
	if err := output.CsvFormat(&csvBuf, results); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render CSV: %v", err), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("scenario calculated",
		zap.String("op", op),
		zap.Int("participants", results.Totals.ParticipantCount),
		zap.Bool("cached", cached),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, calculateResponse{
		Results:  results,
		Warnings: scenario.Validate(),
		CSV:      csvBuf.String(),
		Cached:   cached,
		Duration: elapsed.String(),
	})
}

// calculate returns the results of the scenario, from the cache when an
// identical scenario was calculated recently.
func (h *handler) calculate(scenario calculator.Scenario) (calculator.CalculationResults, bool, error) {
	if h.results == nil {
		results, err := scenario.Calculate(h.logger)
		return results, false, err
	}
	key, err := scenarioKey(scenario)
	if err != nil {
		results, calcErr := scenario.Calculate(h.logger)
		return results, false, calcErr
	}

	if cached, found := h.results.Get(key); found {
		return cached.(calculator.CalculationResults), true, nil
	}

	results, err := scenario.Calculate(h.logger)
	if err != nil {
		return results, false, err
	}
	h.results.SetDefault(key, results)
	return results, false, nil
}

func scenarioKey(scenario calculator.Scenario) (string, error) {
	data, err := json.Marshal(scenario)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

type scheduleRequest struct {
	Scenario    calculator.Scenario `json:"scenario"`
	Participant string              `json:"participant"`
}

type scheduleResponse struct {
	Participant string          `json:"participant"`
	Payments    []loans.Payment `json:"payments"`
}

func (h *handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSchedule"
	var req scheduleRequest
	if !h.decodeJSONBody(w, r, &req, op) {
		return
	}

	payments, err := req.Scenario.Schedule(h.logger, req.Participant)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, scheduleResponse{Participant: req.Participant, Payments: payments})
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	scenario, ok := h.readScenario(w, r, op)
	if !ok {
		return
	}

	doc, err := export.Build(h.logger, scenario, h.now())
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}
	data, err := export.Marshal(doc)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "cohousing-"+doc.ExportID+".json"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write export", zap.String("op", op), zap.Error(err))
	}
}

func (h *handler) handleExportWorkbook(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExportWorkbook"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	scenario, ok := h.readScenario(w, r, op)
	if !ok {
		return
	}

	doc, err := export.Build(h.logger, scenario, h.now())
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, doc); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "cohousing-"+doc.ExportID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("failed to write workbook", zap.String("op", op), zap.Error(err))
	}
}

func (h *handler) handleExportVerify(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExportVerify"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	data, ok := h.readBody(w, r, op)
	if !ok {
		return
	}
	doc, err := export.Load(data)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if err := export.Verify(h.logger, doc); err != nil {
		status := http.StatusUnprocessableEntity
		if !errors.Is(err, export.ErrMismatch) {
			status = calculationStatus(err)
		}
		h.respondErrorWithOp(w, status, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"exportId": doc.ExportID,
		"valid":    true,
	})
}

func (h *handler) handleScenarioYAML(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleScenarioYAML"
	var payload map[string]interface{}
	if !h.decodeJSONBody(w, r, &payload, op) {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	yamlBytes, err := marshalOrderedScenarioYAML(payload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode scenario: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"scenarioYaml": string(yamlBytes),
	})
}

// scenarioKeyOrder lists the top-level keys written first, in this order.
var scenarioKeyOrder = []string{"deedDate", "projectParams", "unitDetails", "formulaParams", "carrying", "participants", "logging", "output"}

func marshalOrderedScenarioYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range scenarioKeyOrder {
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

	ordered := orderedConfig{items: items}
	return yaml.Marshal(ordered)
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

type portagePriceRequest struct {
	// Lot and SaleDate price a portage lot held by a founder.
	Lot      *portage.Lot `json:"lot,omitempty"`
	SaleDate string       `json:"saleDate,omitempty"`
	// Copropriete prices a lot sold by the collective instead.
	Copropriete    *portage.CoproInput    `json:"copropriete,omitempty"`
	FormulaParams  *portage.FormulaParams `json:"formulaParams,omitempty"`
	RenovationCost float64                `json:"renovationCost"`
}

func (h *handler) handlePortagePrice(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePortagePrice"
	var req portagePriceRequest
	if !h.decodeJSONBody(w, r, &req, op) {
		return
	}

	params := portage.DefaultFormulaParams()
	if req.FormulaParams != nil {
		params = *req.FormulaParams
	}

	var (
		price portage.PriceBreakdown
		err   error
	)
	switch {
	case req.Lot != nil:
		price, err = portage.PriceLot(*req.Lot, req.SaleDate, params, req.RenovationCost)
	case req.Copropriete != nil:
		in := *req.Copropriete
		in.Params = params
		in.RenovationCost = req.RenovationCost
		if in.CarryingConfig == (carrying.Config{}) {
			in.CarryingConfig = carrying.DefaultConfig()
		}
		price, err = portage.ResalePriceFromCopropriete(in)
	default:
		err = errors.New("either lot or copropriete is required")
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, price)
}

type redistributeRequest struct {
	Proceeds        float64                `json:"proceeds"`
	ReservesPercent *float64               `json:"reservesPercent,omitempty"`
	Shares          []redistribution.Share `json:"shares"`
}

func (h *handler) handleRedistribute(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRedistribute"
	var req redistributeRequest
	if !h.decodeJSONBody(w, r, &req, op) {
		return
	}

	reserves := portage.DefaultCoproReservesShare
	if req.ReservesPercent != nil {
		reserves = *req.ReservesPercent
	}
	split, err := redistribution.SplitCoproprieteSale(req.Proceeds, reserves, req.Shares)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, split)
}

type transferRequest struct {
	Participants  []calculator.Participant `json:"participants"`
	Buyer         string                   `json:"buyer"`
	EntryDate     string                   `json:"entryDate"`
	FormulaParams *portage.FormulaParams   `json:"formulaParams,omitempty"`
}

func (h *handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleTransfer"
	var req transferRequest
	if !h.decodeJSONBody(w, r, &req, op) {
		return
	}

	params := portage.DefaultFormulaParams()
	if req.FormulaParams != nil {
		params = *req.FormulaParams
	}
	updated, err := calculator.ApplyBuyerEntryDate(req.Participants, req.Buyer, req.EntryDate, params)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"participants": updated})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version":       h.version,
		"exportVersion": export.Version,
	})
}

// readScenario reads a scenario either from a multipart YAML upload in the
// "file" field or from a JSON request body.
func (h *handler) readScenario(w http.ResponseWriter, r *http.Request, op string) (calculator.Scenario, bool) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return h.readUploadedScenario(w, r, op)
	}

	var scenario calculator.Scenario
	if !h.decodeJSONBody(w, r, &scenario, op) {
		return calculator.Scenario{}, false
	}
	return scenario, true
}

func (h *handler) readUploadedScenario(w http.ResponseWriter, r *http.Request, op string) (calculator.Scenario, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.respondReadError(w, err, "failed to parse upload", op)
		return calculator.Scenario{}, false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing scenario file", op)
		return calculator.Scenario{}, false
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	cfg, err := config.LoadConfigurationFromReader(file, "yaml")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return calculator.Scenario{}, false
	}
	return cfg.Scenario, true
}

func (h *handler) readBody(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondReadError(w, err, "failed to read request", op)
		return nil, false
	}
	return data, true
}

func (h *handler) decodeJSONBody(w http.ResponseWriter, r *http.Request, into interface{}, op string) bool {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return false
	}
	data, ok := h.readBody(w, r, op)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, into); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) respondReadError(w http.ResponseWriter, err error, msg, op string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
		return
	}
	h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", msg, err), op)
}

// calculationStatus maps engine errors to HTTP statuses: bad inputs are the
// client's fault, anything else is ours.
func calculationStatus(err error) int {
	if errors.Is(err, calculator.ErrInvalidInput) || errors.Is(err, loans.ErrConfiguration) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *handler) respondCalculationError(w http.ResponseWriter, err error, op string) {
	h.respondErrorWithOp(w, calculationStatus(err), err.Error(), op)
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

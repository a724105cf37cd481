package pagamento

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	httpmiddleware "github.com/institutomariaclaro/doacoes/internal/http/middleware"
)

// Handler expõe endpoints REST de pagamentos e doações.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) criarPreferencia(w http.ResponseWriter, r *http.Request) {
	doadorID, err := subjectAsID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload struct {
		Valor decimal.Decimal `json:"valor"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	initPoint, err := h.service.CriarPreferencia(r.Context(), &doadorID, payload.Valor)
	if err != nil {
		switch {
		case errors.Is(err, ErrValorInvalido):
			writeError(w, http.StatusBadRequest, "VALIDATION", "valor deve ser maior que zero", nil)
		case errors.Is(err, ErrGateway):
			writeError(w, http.StatusBadGateway, "UPSTREAM", "falha ao iniciar pagamento", nil)
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível iniciar pagamento", nil)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"init_point": initPoint})
}

// webhook recebe notificações do gateway. Todo caminho responde algo para que
// a política de retry do gateway funcione de forma previsível.
func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	var n Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "notificação inválida", nil)
		return
	}

	if err := h.service.ProcessarNotificacao(r.Context(), n); err != nil {
		switch {
		case errors.Is(err, ErrNotificacaoInvalida):
			writeError(w, http.StatusBadRequest, "VALIDATION", "notificação inválida", nil)
		case errors.Is(err, ErrGateway):
			writeError(w, http.StatusBadGateway, "UPSTREAM", "falha ao consultar gateway", nil)
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL", "falha ao processar notificação", nil)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listMe(w http.ResponseWriter, r *http.Request) {
	doadorID, err := subjectAsID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	h.listarPorDoador(w, r, doadorID)
}

func (h *Handler) listByDoador(w http.ResponseWriter, r *http.Request) {
	doadorID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	h.listarPorDoador(w, r, doadorID)
}

func (h *Handler) listarPorDoador(w http.ResponseWriter, r *http.Request, doadorID int64) {
	pagamentos, err := h.service.ListarPorDoador(r.Context(), doadorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar doações", nil)
		return
	}

	resumos := make([]Resumo, 0, len(pagamentos))
	for _, p := range pagamentos {
		resumos = append(resumos, NewResumo(p))
	}

	writeJSON(w, http.StatusOK, map[string]any{"doacoes": resumos})
}

func (h *Handler) anosDisponiveis(w http.ResponseWriter, r *http.Request) {
	anos, err := h.service.AnosDisponiveis(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar anos", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"anos": anos})
}

func (h *Handler) relatorioArrecadacao(w http.ResponseWriter, r *http.Request) {
	anoStr := strings.TrimSpace(r.URL.Query().Get("ano"))
	tipoStr := strings.TrimSpace(r.URL.Query().Get("tipo"))
	periodoStr := strings.TrimSpace(r.URL.Query().Get("periodo"))

	if anoStr == "" || tipoStr == "" || periodoStr == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION", "ano, tipo e periodo são obrigatórios", nil)
		return
	}

	ano, err := strconv.Atoi(anoStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "ano inválido", nil)
		return
	}

	tipo, err := ParseTipoRelatorio(tipoStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	periodo, err := strconv.Atoi(periodoStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "periodo inválido", nil)
		return
	}

	relatorio, err := h.service.RelatorioPorPeriodo(r.Context(), ano, tipo, periodo)
	if err != nil {
		if errors.Is(err, ErrPeriodoInvalido) {
			writeError(w, http.StatusBadRequest, "VALIDATION", "periodo fora do intervalo para o tipo informado", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível gerar relatório", nil)
		return
	}

	writeJSON(w, http.StatusOK, relatorio)
}

func subjectAsID(r *http.Request) (int64, error) {
	return strconv.ParseInt(httpmiddleware.GetSubject(r.Context()), 10, 64)
}

type successEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

type errorEnvelope struct {
	Data  any        `json:"data"`
	Error *errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Data: nil,
		Error: &errorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

package pagamento

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/institutomariaclaro/doacoes/internal/mailer"
	"github.com/institutomariaclaro/doacoes/internal/usuario"
)

var (
	// ErrValorInvalido indica valor de doação não positivo.
	ErrValorInvalido = errors.New("valor da doação deve ser maior que zero")
	// ErrNotificacaoInvalida indica payload de webhook que não referencia um
	// pagamento do gateway. Falha permanente: reenviar não ajuda.
	ErrNotificacaoInvalida = errors.New("notificação malformada")
	// ErrGateway encapsula falhas de comunicação com o Mercado Pago.
	ErrGateway = errors.New("falha no gateway de pagamento")
)

const (
	// TopicPayment é o único tópico de webhook que dispara processamento.
	TopicPayment = "payment"

	anosCacheKey = "pagamentos:anos"
	anosCacheTTL = time.Hour
)

var naoDigitos = regexp.MustCompile(`[^\d]`)

type repository interface {
	Create(ctx context.Context, p Pagamento) (*Pagamento, error)
	GetByExternalReference(ctx context.Context, ref string) (*Pagamento, error)
	ListByDoador(ctx context.Context, doadorID int64) ([]Pagamento, error)
	ApplyNotification(ctx context.Context, upd NotificationUpdate) (*Pagamento, bool, error)
	SumAprovadosPorPeriodo(ctx context.Context, inicio, fim time.Time) (*RelatorioArrecadacao, error)
	AnosDisponiveis(ctx context.Context) ([]int, error)
}

type doadores interface {
	GetByID(ctx context.Context, id int64) (*usuario.Usuario, error)
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Service concentra criação de doações, reconciliação de webhooks e
// relatórios de arrecadação.
type Service struct {
	repo     repository
	doadores doadores
	gateway  Gateway
	mailer   mailer.Mailer
	cache    redisCommander
}

// NewService cria novo serviço. O gateway chega pronto, construído uma vez
// por processo com o access token da configuração.
func NewService(repo repository, doadores doadores, gateway Gateway, m mailer.Mailer, cache redisCommander) *Service {
	return &Service{repo: repo, doadores: doadores, gateway: gateway, mailer: m, cache: cache}
}

// CriarPreferencia registra a intenção de doação: gera a referência de
// correlação, cria a preferência no gateway e só então persiste a linha
// PENDING. Se o gateway falhar nada é persistido; se a persistência falhar
// depois, o recurso órfão no gateway é apenas logado.
func (s *Service) CriarPreferencia(ctx context.Context, doadorID *int64, valor decimal.Decimal) (string, error) {
	if !valor.IsPositive() {
		return "", ErrValorInvalido
	}

	externalReference := uuid.NewString()

	pref, err := s.gateway.CriarPreferencia(ctx, CriarPreferenciaInput{
		Valor:             valor,
		ExternalReference: externalReference,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGateway, err)
	}

	novo := Pagamento{
		Valor:             valor,
		Status:            StatusPending,
		ExternalReference: externalReference,
		PreferenceID:      &pref.ID,
		DoadorID:          doadorID,
	}

	if _, err := s.repo.Create(ctx, novo); err != nil {
		log.Error().Err(err).
			Str("external_reference", externalReference).
			Str("preference_id", pref.ID).
			Msg("preferência criada no gateway mas não persistida localmente")
		return "", err
	}

	return pref.InitPoint, nil
}

// ProcessarNotificacao reconcilia um callback do gateway com a linha local.
// Retorno nil significa "confirmado": o gateway não reenvia. Qualquer erro
// vira resposta de falha e o gateway tenta de novo mais tarde, exceto
// ErrNotificacaoInvalida, tratado como permanente pelo handler.
func (s *Service) ProcessarNotificacao(ctx context.Context, n Notification) error {
	if n.Topic != TopicPayment {
		log.Debug().Str("topic", n.Topic).Msg("webhook ignorado: tópico não é payment")
		return nil
	}

	gatewayID, err := parseResourceID(n.Resource)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotificacaoInvalida, err)
	}

	fetched, err := s.gateway.BuscarPagamento(ctx, gatewayID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}

	local, err := s.repo.GetByExternalReference(ctx, fetched.ExternalReference)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Notificação alheia ou obsoleta: confirma para não gerar retry.
			log.Warn().
				Str("external_reference", fetched.ExternalReference).
				Int64("mp_payment_id", gatewayID).
				Msg("webhook sem pagamento local correspondente")
			return nil
		}
		return err
	}

	if local.Status == StatusApproved {
		log.Info().
			Str("external_reference", local.ExternalReference).
			Msg("webhook duplicado: pagamento já aprovado")
		return nil
	}

	upd := NotificationUpdate{
		ExternalReference:    local.ExternalReference,
		Status:               fetched.Status,
		MercadoPagoPaymentID: fetched.ID,
		ValorLiquido:         fetched.ValorLiquido,
	}
	if metodo := strings.TrimSpace(fetched.MetodoPagamento); metodo != "" {
		upd.MetodoPagamento = &metodo
	}
	if tipo := strings.TrimSpace(fetched.PayerIdentificationType); tipo != "" {
		upd.PayerIdentificationType = &tipo
	}
	if numero := naoDigitos.ReplaceAllString(fetched.PayerIdentificationNumber, ""); numero != "" {
		upd.PayerIdentificationNumber = &numero
	}

	atualizado, aplicado, err := s.repo.ApplyNotification(ctx, upd)
	if err != nil {
		return err
	}
	if !aplicado {
		// Callback concorrente chegou primeiro e aprovou a linha.
		log.Info().
			Str("external_reference", local.ExternalReference).
			Msg("webhook concorrente: mutação já aplicada")
		return nil
	}

	log.Info().
		Str("external_reference", atualizado.ExternalReference).
		Str("status", atualizado.Status).
		Int64("mp_payment_id", fetched.ID).
		Msg("pagamento reconciliado")

	if atualizado.Status == StatusApproved {
		s.cache.Del(ctx, anosCacheKey)
		s.enviarAgradecimento(ctx, atualizado)
	}

	return nil
}

// enviarAgradecimento dispara o e-mail de obrigado quando a doação tem
// doador com e-mail. A reconciliação já foi persistida: falha aqui é logada
// e nunca propagada.
func (s *Service) enviarAgradecimento(ctx context.Context, p *Pagamento) {
	if p.DoadorID == nil {
		return
	}

	doador, err := s.doadores.GetByID(ctx, *p.DoadorID)
	if err != nil {
		log.Warn().Err(err).Int64("doador_id", *p.DoadorID).Msg("agradecimento não enviado: doador não carregado")
		return
	}
	if strings.TrimSpace(doador.Email) == "" {
		return
	}

	msg := mailer.MensagemObrigado(doador.Email, doador.Nome, p.Valor)
	if err := s.mailer.Send(ctx, msg); err != nil {
		log.Warn().Err(err).
			Str("external_reference", p.ExternalReference).
			Msg("falha ao enviar e-mail de agradecimento")
	}
}

// ListarPorDoador devolve as doações de um doador específico.
func (s *Service) ListarPorDoador(ctx context.Context, doadorID int64) ([]Pagamento, error) {
	return s.repo.ListByDoador(ctx, doadorID)
}

// RelatorioPorPeriodo resume as doações aprovadas dentro do recorte pedido.
func (s *Service) RelatorioPorPeriodo(ctx context.Context, ano int, tipo TipoRelatorio, periodo int) (*RelatorioArrecadacao, error) {
	inicio, fim, err := PeriodoRange(ano, tipo, periodo)
	if err != nil {
		return nil, err
	}
	return s.repo.SumAprovadosPorPeriodo(ctx, inicio, fim)
}

// AnosDisponiveis lista os anos com doações aprovadas, usando redis como
// cache. Erros de cache valem como miss.
func (s *Service) AnosDisponiveis(ctx context.Context) ([]int, error) {
	if raw, err := s.cache.Get(ctx, anosCacheKey).Bytes(); err == nil {
		var anos []int
		if err := json.Unmarshal(raw, &anos); err == nil {
			return anos, nil
		}
	}

	anos, err := s.repo.AnosDisponiveis(ctx)
	if err != nil {
		return nil, err
	}
	if anos == nil {
		anos = []int{}
	}

	if payload, err := json.Marshal(anos); err == nil {
		s.cache.Set(ctx, anosCacheKey, payload, anosCacheTTL)
	}

	return anos, nil
}

// parseResourceID extrai o identificador numérico do pagamento a partir da
// URL de recurso enviada no webhook (último segmento do caminho).
func parseResourceID(resource string) (int64, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(resource), "/")
	if trimmed == "" {
		return 0, errors.New("resource vazio")
	}

	segment := trimmed
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		segment = trimmed[idx+1:]
	}

	id, err := strconv.ParseInt(segment, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("resource sem id numérico: %q", segment)
	}
	return id, nil
}

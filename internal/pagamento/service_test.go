package pagamento

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/institutomariaclaro/doacoes/internal/mailer"
	"github.com/institutomariaclaro/doacoes/internal/usuario"
)

type stubRepo struct {
	porReferencia map[string]*Pagamento
	criados       []Pagamento
	aplicados     []NotificationUpdate
	relatorio     *RelatorioArrecadacao
	anos          []int
	anosCalls     int
	createErr     error
}

func (s *stubRepo) Create(ctx context.Context, p Pagamento) (*Pagamento, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	p.ID = int64(len(s.criados) + 1)
	p.DataCriacao = time.Now()
	s.criados = append(s.criados, p)
	if s.porReferencia == nil {
		s.porReferencia = make(map[string]*Pagamento)
	}
	s.porReferencia[p.ExternalReference] = &p
	return &p, nil
}

func (s *stubRepo) GetByExternalReference(ctx context.Context, ref string) (*Pagamento, error) {
	p, ok := s.porReferencia[ref]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *stubRepo) ListByDoador(ctx context.Context, doadorID int64) ([]Pagamento, error) {
	var out []Pagamento
	for _, p := range s.porReferencia {
		if p.DoadorID != nil && *p.DoadorID == doadorID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubRepo) ApplyNotification(ctx context.Context, upd NotificationUpdate) (*Pagamento, bool, error) {
	p, ok := s.porReferencia[upd.ExternalReference]
	if !ok {
		return nil, false, nil
	}
	if p.Status == StatusApproved {
		return nil, false, nil
	}
	s.aplicados = append(s.aplicados, upd)
	p.Status = upd.Status
	p.MercadoPagoPaymentID = &upd.MercadoPagoPaymentID
	p.ValorLiquido = upd.ValorLiquido
	p.MetodoPagamento = upd.MetodoPagamento
	p.PayerIdentificationType = upd.PayerIdentificationType
	p.PayerIdentificationNumber = upd.PayerIdentificationNumber
	return p, true, nil
}

func (s *stubRepo) SumAprovadosPorPeriodo(ctx context.Context, inicio, fim time.Time) (*RelatorioArrecadacao, error) {
	if s.relatorio != nil {
		return s.relatorio, nil
	}

	total := decimal.Zero
	liquido := decimal.Zero
	count := 0
	for _, p := range s.porReferencia {
		if p.Status != StatusApproved {
			continue
		}
		if p.DataCriacao.Before(inicio) || !p.DataCriacao.Before(fim) {
			continue
		}
		total = total.Add(p.Valor)
		if p.ValorLiquido != nil {
			liquido = liquido.Add(*p.ValorLiquido)
		}
		count++
	}
	return &RelatorioArrecadacao{TotalArrecadado: total, TotalLiquido: liquido, TotalDoacoesAprovadas: count}, nil
}

func (s *stubRepo) AnosDisponiveis(ctx context.Context) ([]int, error) {
	s.anosCalls++
	return s.anos, nil
}

type stubGateway struct {
	preferencia Preferencia
	prefErr     error
	prefInputs  []CriarPreferenciaInput
	pagamentos  map[int64]*PagamentoGateway
	buscarErr   error
	buscarCalls int
}

func (s *stubGateway) CriarPreferencia(ctx context.Context, input CriarPreferenciaInput) (*Preferencia, error) {
	s.prefInputs = append(s.prefInputs, input)
	if s.prefErr != nil {
		return nil, s.prefErr
	}
	return &s.preferencia, nil
}

func (s *stubGateway) BuscarPagamento(ctx context.Context, id int64) (*PagamentoGateway, error) {
	s.buscarCalls++
	if s.buscarErr != nil {
		return nil, s.buscarErr
	}
	p, ok := s.pagamentos[id]
	if !ok {
		return nil, errors.New("pagamento desconhecido")
	}
	return p, nil
}

type stubDoadores struct {
	usuarios map[int64]*usuario.Usuario
}

func (s *stubDoadores) GetByID(ctx context.Context, id int64) (*usuario.Usuario, error) {
	u, ok := s.usuarios[id]
	if !ok {
		return nil, usuario.ErrNotFound
	}
	return u, nil
}

type stubMailer struct {
	enviados []mailer.Message
	err      error
}

func (s *stubMailer) Send(ctx context.Context, msg mailer.Message) error {
	s.enviados = append(s.enviados, msg)
	return s.err
}

type stubRedis struct {
	store map[string]string
	dels  []string
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if s.store == nil {
		s.store = make(map[string]string)
	}
	switch v := value.(type) {
	case []byte:
		s.store[key] = string(v)
	case string:
		s.store[key] = v
	default:
		s.store[key] = fmt.Sprint(v)
	}
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	val, ok := s.store[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		s.dels = append(s.dels, key)
		if _, ok := s.store[key]; ok {
			delete(s.store, key)
			removed++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(removed)
	return cmd
}

func newTestService(repo *stubRepo, gw *stubGateway, doadores *stubDoadores, m *stubMailer, cache *stubRedis) *Service {
	return &Service{repo: repo, doadores: doadores, gateway: gw, mailer: m, cache: cache}
}

func TestCriarPreferenciaPersisteLinhaPendente(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGateway{preferencia: Preferencia{ID: "pref-1", InitPoint: "https://mp.example/init"}}
	svc := newTestService(repo, gw, &stubDoadores{}, &stubMailer{}, &stubRedis{})

	doadorID := int64(7)
	initPoint, err := svc.CriarPreferencia(context.Background(), &doadorID, decimal.NewFromInt(50))
	if err != nil {
		t.Fatalf("criar preferencia: %v", err)
	}
	if initPoint != "https://mp.example/init" {
		t.Fatalf("init point inesperado: %s", initPoint)
	}

	if len(repo.criados) != 1 {
		t.Fatalf("esperava 1 pagamento persistido, veio %d", len(repo.criados))
	}
	criado := repo.criados[0]
	if criado.Status != StatusPending {
		t.Fatalf("status inicial deve ser PENDING, veio %s", criado.Status)
	}
	if criado.ExternalReference == "" {
		t.Fatal("external reference vazio")
	}
	if len(gw.prefInputs) != 1 || gw.prefInputs[0].ExternalReference != criado.ExternalReference {
		t.Fatal("referência enviada ao gateway difere da persistida")
	}
	if criado.DoadorID == nil || *criado.DoadorID != doadorID {
		t.Fatal("doador não associado")
	}
}

func TestCriarPreferenciaValorNaoPositivo(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGateway{}
	svc := newTestService(repo, gw, &stubDoadores{}, &stubMailer{}, &stubRedis{})

	for _, valor := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-10)} {
		if _, err := svc.CriarPreferencia(context.Background(), nil, valor); !errors.Is(err, ErrValorInvalido) {
			t.Fatalf("valor %s: esperava ErrValorInvalido, veio %v", valor, err)
		}
	}
	if len(gw.prefInputs) != 0 {
		t.Fatal("gateway não deveria ser chamado com valor inválido")
	}
}

func TestCriarPreferenciaGatewayFalhaNadaPersiste(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGateway{prefErr: errors.New("mp fora do ar")}
	svc := newTestService(repo, gw, &stubDoadores{}, &stubMailer{}, &stubRedis{})

	if _, err := svc.CriarPreferencia(context.Background(), nil, decimal.NewFromInt(25)); !errors.Is(err, ErrGateway) {
		t.Fatalf("esperava ErrGateway, veio %v", err)
	}
	if len(repo.criados) != 0 {
		t.Fatal("nada deveria ser persistido quando o gateway falha")
	}
}

func TestProcessarNotificacaoTopicoEstranhoNaoConsultaGateway(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGateway{}
	svc := newTestService(repo, gw, &stubDoadores{}, &stubMailer{}, &stubRedis{})

	err := svc.ProcessarNotificacao(context.Background(), Notification{Topic: "merchant_order", Resource: "https://mp/merchant_orders/1"})
	if err != nil {
		t.Fatalf("tópico estranho deve ser confirmado sem erro: %v", err)
	}
	if gw.buscarCalls != 0 {
		t.Fatal("gateway não deveria ser consultado")
	}
	if len(repo.aplicados) != 0 {
		t.Fatal("nenhuma mutação esperada")
	}
}

func TestProcessarNotificacaoResourceMalformado(t *testing.T) {
	svc := newTestService(&stubRepo{}, &stubGateway{}, &stubDoadores{}, &stubMailer{}, &stubRedis{})

	for _, resource := range []string{"", "https://mp/v1/payments/abc", "https://mp/v1/payments/"} {
		err := svc.ProcessarNotificacao(context.Background(), Notification{Topic: TopicPayment, Resource: resource})
		if !errors.Is(err, ErrNotificacaoInvalida) {
			t.Fatalf("resource %q: esperava ErrNotificacaoInvalida, veio %v", resource, err)
		}
	}
}

func TestProcessarNotificacaoGatewayIndisponivel(t *testing.T) {
	gw := &stubGateway{buscarErr: errors.New("timeout")}
	svc := newTestService(&stubRepo{}, gw, &stubDoadores{}, &stubMailer{}, &stubRedis{})

	err := svc.ProcessarNotificacao(context.Background(), Notification{Topic: TopicPayment, Resource: "https://mp/v1/payments/99"})
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("esperava ErrGateway, veio %v", err)
	}
}

func TestProcessarNotificacaoSemPagamentoLocalConfirma(t *testing.T) {
	gw := &stubGateway{pagamentos: map[int64]*PagamentoGateway{
		42: {ID: 42, Status: StatusApproved, ExternalReference: "ref-alheia"},
	}}
	repo := &stubRepo{}
	svc := newTestService(repo, gw, &stubDoadores{}, &stubMailer{}, &stubRedis{})

	err := svc.ProcessarNotificacao(context.Background(), Notification{Topic: TopicPayment, Resource: "https://mp/v1/payments/42"})
	if err != nil {
		t.Fatalf("notificação alheia deve ser confirmada: %v", err)
	}
	if len(repo.aplicados) != 0 {
		t.Fatal("nenhuma mutação esperada")
	}
}

func TestProcessarNotificacaoAprovaEEnviaEmail(t *testing.T) {
	doadorID := int64(3)
	liquido := decimal.NewFromFloat(96.55)
	repo := &stubRepo{porReferencia: map[string]*Pagamento{
		"ref-1": {ID: 1, Valor: decimal.NewFromInt(100), Status: StatusPending, ExternalReference: "ref-1", DoadorID: &doadorID},
	}}
	gw := &stubGateway{pagamentos: map[int64]*PagamentoGateway{
		42: {
			ID:                        42,
			Status:                    StatusApproved,
			ExternalReference:         "ref-1",
			ValorLiquido:              &liquido,
			MetodoPagamento:           "pix",
			PayerIdentificationType:   "CPF",
			PayerIdentificationNumber: "123.456.789-09",
		},
	}}
	doadores := &stubDoadores{usuarios: map[int64]*usuario.Usuario{
		doadorID: {ID: doadorID, Nome: "Maria", Email: "maria@example.com"},
	}}
	m := &stubMailer{}
	cache := &stubRedis{store: map[string]string{anosCacheKey: "[2024]"}}
	svc := newTestService(repo, gw, doadores, m, cache)

	err := svc.ProcessarNotificacao(context.Background(), Notification{Topic: TopicPayment, Resource: "https://api.mercadopago.com/v1/payments/42"})
	if err != nil {
		t.Fatalf("processar: %v", err)
	}

	if len(repo.aplicados) != 1 {
		t.Fatalf("esperava 1 mutação, veio %d", len(repo.aplicados))
	}
	upd := repo.aplicados[0]
	if upd.Status != StatusApproved || upd.MercadoPagoPaymentID != 42 {
		t.Fatalf("mutação inesperada: %+v", upd)
	}
	if upd.PayerIdentificationNumber == nil || *upd.PayerIdentificationNumber != "12345678909" {
		t.Fatalf("documento do pagador deveria conter só dígitos: %+v", upd.PayerIdentificationNumber)
	}

	if len(m.enviados) != 1 {
		t.Fatalf("esperava exatamente 1 e-mail, veio %d", len(m.enviados))
	}
	if m.enviados[0].ParaEndereco != "maria@example.com" {
		t.Fatalf("destinatário errado: %s", m.enviados[0].ParaEndereco)
	}

	if _, ok := cache.store[anosCacheKey]; ok {
		t.Fatal("cache de anos deveria ser invalidado na aprovação")
	}
}

func TestProcessarNotificacaoDuplicadaAprovadaNaoRepete(t *testing.T) {
	doadorID := int64(3)
	repo := &stubRepo{porReferencia: map[string]*Pagamento{
		"ref-1": {ID: 1, Valor: decimal.NewFromInt(100), Status: StatusApproved, ExternalReference: "ref-1", DoadorID: &doadorID},
	}}
	gw := &stubGateway{pagamentos: map[int64]*PagamentoGateway{
		42: {ID: 42, Status: StatusApproved, ExternalReference: "ref-1"},
	}}
	m := &stubMailer{}
	svc := newTestService(repo, gw, &stubDoadores{}, m, &stubRedis{})

	for i := 0; i < 3; i++ {
		if err := svc.ProcessarNotificacao(context.Background(), Notification{Topic: TopicPayment, Resource: "https://mp/v1/payments/42"}); err != nil {
			t.Fatalf("entrega %d: %v", i, err)
		}
	}

	if len(repo.aplicados) != 0 {
		t.Fatal("pagamento aprovado não deve sofrer nova mutação")
	}
	if len(m.enviados) != 0 {
		t.Fatal("nenhum e-mail esperado em reentrega")
	}
}

func TestProcessarNotificacaoStatusNaoTerminalSobrescreve(t *testing.T) {
	repo := &stubRepo{porReferencia: map[string]*Pagamento{
		"ref-1": {ID: 1, Valor: decimal.NewFromInt(100), Status: StatusPending, ExternalReference: "ref-1"},
	}}
	gw := &stubGateway{pagamentos: map[int64]*PagamentoGateway{
		42: {ID: 42, Status: "in_process", ExternalReference: "ref-1"},
	}}
	m := &stubMailer{}
	cache := &stubRedis{store: map[string]string{anosCacheKey: "[2024]"}}
	svc := newTestService(repo, gw, &stubDoadores{}, m, cache)

	// Cada entrega de status não terminal sobrescreve de novo.
	for i := 0; i < 2; i++ {
		if err := svc.ProcessarNotificacao(context.Background(), Notification{Topic: TopicPayment, Resource: "https://mp/v1/payments/42"}); err != nil {
			t.Fatalf("entrega %d: %v", i, err)
		}
	}

	if len(repo.aplicados) != 2 {
		t.Fatalf("esperava 2 mutações, veio %d", len(repo.aplicados))
	}
	if len(m.enviados) != 0 {
		t.Fatal("e-mail só é enviado na aprovação")
	}
	if _, ok := cache.store[anosCacheKey]; !ok {
		t.Fatal("cache de anos só é invalidado na aprovação")
	}
}

func TestProcessarNotificacaoConcorrenteNaoEnviaEmail(t *testing.T) {
	// Repo que simula outro callback aprovando entre o GET e o UPDATE.
	doadorID := int64(3)
	repo := &corridaRepo{stubRepo: stubRepo{porReferencia: map[string]*Pagamento{
		"ref-1": {ID: 1, Valor: decimal.NewFromInt(100), Status: StatusPending, ExternalReference: "ref-1", DoadorID: &doadorID},
	}}}
	gw := &stubGateway{pagamentos: map[int64]*PagamentoGateway{
		42: {ID: 42, Status: StatusApproved, ExternalReference: "ref-1"},
	}}
	m := &stubMailer{}
	svc := newTestService(&repo.stubRepo, gw, &stubDoadores{}, m, &stubRedis{})
	svc.repo = repo

	if err := svc.ProcessarNotificacao(context.Background(), Notification{Topic: TopicPayment, Resource: "https://mp/v1/payments/42"}); err != nil {
		t.Fatalf("callback concorrente deve ser confirmado: %v", err)
	}
	if len(m.enviados) != 0 {
		t.Fatal("perdedor da corrida não envia e-mail")
	}
}

type corridaRepo struct {
	stubRepo
}

func (r *corridaRepo) ApplyNotification(ctx context.Context, upd NotificationUpdate) (*Pagamento, bool, error) {
	return nil, false, nil
}

func TestProcessarNotificacaoFalhaDeEmailNaoPropaga(t *testing.T) {
	doadorID := int64(3)
	repo := &stubRepo{porReferencia: map[string]*Pagamento{
		"ref-1": {ID: 1, Valor: decimal.NewFromInt(100), Status: StatusPending, ExternalReference: "ref-1", DoadorID: &doadorID},
	}}
	gw := &stubGateway{pagamentos: map[int64]*PagamentoGateway{
		42: {ID: 42, Status: StatusApproved, ExternalReference: "ref-1"},
	}}
	doadores := &stubDoadores{usuarios: map[int64]*usuario.Usuario{
		doadorID: {ID: doadorID, Nome: "Maria", Email: "maria@example.com"},
	}}
	m := &stubMailer{err: errors.New("smtp recusou")}
	svc := newTestService(repo, gw, doadores, m, &stubRedis{})

	if err := svc.ProcessarNotificacao(context.Background(), Notification{Topic: TopicPayment, Resource: "https://mp/v1/payments/42"}); err != nil {
		t.Fatalf("falha de e-mail não pode propagar: %v", err)
	}
	if len(repo.aplicados) != 1 {
		t.Fatal("reconciliação deveria ter sido persistida")
	}
}

func TestRelatorioPorPeriodoSomaAprovados(t *testing.T) {
	liquido1 := decimal.NewFromFloat(96.55)
	liquido2 := decimal.NewFromFloat(48.10)
	jan := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	fev := time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)
	repo := &stubRepo{porReferencia: map[string]*Pagamento{
		"a": {Valor: decimal.NewFromInt(100), ValorLiquido: &liquido1, Status: StatusApproved, ExternalReference: "a", DataCriacao: jan},
		"b": {Valor: decimal.NewFromInt(50), ValorLiquido: &liquido2, Status: StatusApproved, ExternalReference: "b", DataCriacao: fev},
		"c": {Valor: decimal.NewFromInt(999), Status: "rejected", ExternalReference: "c", DataCriacao: jan},
	}}
	svc := newTestService(repo, &stubGateway{}, &stubDoadores{}, &stubMailer{}, &stubRedis{})

	rel, err := svc.RelatorioPorPeriodo(context.Background(), 2024, RelatorioTrimestral, 1)
	if err != nil {
		t.Fatalf("relatorio: %v", err)
	}

	if !rel.TotalArrecadado.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("bruto esperado 150, veio %s", rel.TotalArrecadado)
	}
	if !rel.TotalLiquido.Equal(decimal.NewFromFloat(144.65)) {
		t.Fatalf("líquido esperado 144.65, veio %s", rel.TotalLiquido)
	}
	if rel.TotalDoacoesAprovadas != 2 {
		t.Fatalf("contagem esperada 2, veio %d", rel.TotalDoacoesAprovadas)
	}
}

func TestRelatorioPorPeriodoForaDoIntervalo(t *testing.T) {
	svc := newTestService(&stubRepo{}, &stubGateway{}, &stubDoadores{}, &stubMailer{}, &stubRedis{})

	casos := []struct {
		tipo    TipoRelatorio
		periodo int
	}{
		{RelatorioMensal, 0},
		{RelatorioMensal, 13},
		{RelatorioTrimestral, 5},
		{RelatorioSemestral, 3},
	}
	for _, c := range casos {
		if _, err := svc.RelatorioPorPeriodo(context.Background(), 2024, c.tipo, c.periodo); !errors.Is(err, ErrPeriodoInvalido) {
			t.Fatalf("%s/%d: esperava ErrPeriodoInvalido, veio %v", c.tipo, c.periodo, err)
		}
	}
}

func TestAnosDisponiveisUsaCache(t *testing.T) {
	repo := &stubRepo{anos: []int{2025, 2023, 2021}}
	cache := &stubRedis{}
	svc := newTestService(repo, &stubGateway{}, &stubDoadores{}, &stubMailer{}, cache)

	anos, err := svc.AnosDisponiveis(context.Background())
	if err != nil {
		t.Fatalf("anos: %v", err)
	}
	if len(anos) != 3 || anos[0] != 2025 || anos[2] != 2021 {
		t.Fatalf("anos inesperados: %v", anos)
	}

	// Segunda chamada resolve pelo cache, sem bater no repositório.
	if _, err := svc.AnosDisponiveis(context.Background()); err != nil {
		t.Fatalf("anos (cache): %v", err)
	}
	if repo.anosCalls != 1 {
		t.Fatalf("esperava 1 leitura do repositório, veio %d", repo.anosCalls)
	}
}

func TestAnosDisponiveisSemDadosDevolveVazio(t *testing.T) {
	svc := newTestService(&stubRepo{}, &stubGateway{}, &stubDoadores{}, &stubMailer{}, &stubRedis{})

	anos, err := svc.AnosDisponiveis(context.Background())
	if err != nil {
		t.Fatalf("anos: %v", err)
	}
	if anos == nil || len(anos) != 0 {
		t.Fatalf("esperava slice vazio, veio %v", anos)
	}
}

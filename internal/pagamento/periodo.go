package pagamento

import (
	"errors"
	"strings"
	"time"
)

// TipoRelatorio enumera os recortes de período aceitos pelo relatório.
type TipoRelatorio string

const (
	RelatorioMensal     TipoRelatorio = "mensal"
	RelatorioTrimestral TipoRelatorio = "trimestral"
	RelatorioSemestral  TipoRelatorio = "semestral"
)

// ErrPeriodoInvalido indica tipo de relatório desconhecido ou período fora
// da faixa do tipo.
var ErrPeriodoInvalido = errors.New("período inválido para o tipo de relatório")

// ParseTipoRelatorio aceita o tipo sem diferenciar maiúsculas.
func ParseTipoRelatorio(value string) (TipoRelatorio, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "mensal":
		return RelatorioMensal, nil
	case "trimestral":
		return RelatorioTrimestral, nil
	case "semestral":
		return RelatorioSemestral, nil
	}
	return "", ErrPeriodoInvalido
}

// PeriodoRange calcula o intervalo semiaberto [inicio, fim) em UTC para o
// período pedido: mês 1-12, trimestre 1-4 ou semestre 1-2 do ano.
func PeriodoRange(ano int, tipo TipoRelatorio, periodo int) (time.Time, time.Time, error) {
	var mesInicial, meses int

	switch tipo {
	case RelatorioMensal:
		if periodo < 1 || periodo > 12 {
			return time.Time{}, time.Time{}, ErrPeriodoInvalido
		}
		mesInicial, meses = periodo, 1
	case RelatorioTrimestral:
		if periodo < 1 || periodo > 4 {
			return time.Time{}, time.Time{}, ErrPeriodoInvalido
		}
		mesInicial, meses = (periodo-1)*3+1, 3
	case RelatorioSemestral:
		if periodo < 1 || periodo > 2 {
			return time.Time{}, time.Time{}, ErrPeriodoInvalido
		}
		mesInicial, meses = (periodo-1)*6+1, 6
	default:
		return time.Time{}, time.Time{}, ErrPeriodoInvalido
	}

	inicio := time.Date(ano, time.Month(mesInicial), 1, 0, 0, 0, 0, time.UTC)
	fim := inicio.AddDate(0, meses, 0)
	return inicio, fim, nil
}

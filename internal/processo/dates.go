package processo

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/arquivamais/processos/internal/util"
)

// DateLayout é o formato das colunas DATE na API.
const DateLayout = "2006-01-02"

// Date é uma data de calendário recebida da API.
// Aceita "AAAA-MM-DD" ou um timestamp RFC 3339 (usa-se apenas o dia).
type Date struct {
	time.Time
}

// ParseDate interpreta texto no formato aceito pela API.
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return Date{}, err
	}
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}, nil
}

// UnmarshalJSON converte a string da requisição. Texto em branco vira a data
// zero, tratada como ausente (ver IsSet).
func (d *Date) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return util.Invalid("data", "data inválida: "+raw)
	}
	*d = parsed
	return nil
}

// IsSet informa se a data foi de fato preenchida.
func (d *Date) IsSet() bool {
	return d != nil && !d.IsZero()
}

// calendarDate reduz o instante ao dia civil no fuso, gravado como meia-noite UTC.
func calendarDate(t time.Time, loc *time.Location) time.Time {
	t = util.Midnight(t, loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// inLocation reinterpreta uma data de calendário como meia-noite no fuso.
func inLocation(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
}

// ParseDocgoDate extrai a data de criação do número no padrão AAAA.DDMM.
// Devolve nil quando o número não segue o padrão ou a data é impossível.
func ParseDocgoDate(numero string) *time.Time {
	numero = strings.TrimSpace(numero)
	if len(numero) < 9 || numero[4] != '.' {
		return nil
	}
	year, err := strconv.Atoi(numero[0:4])
	if err != nil || !allDigits(numero[0:4]) {
		return nil
	}
	day, err := strconv.Atoi(numero[5:7])
	if err != nil || !allDigits(numero[5:7]) {
		return nil
	}
	month, err := strconv.Atoi(numero[7:9])
	if err != nil || !allDigits(numero[7:9]) {
		return nil
	}
	if month < 1 || month > 12 || day < 1 {
		return nil
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return nil
	}
	return &t
}

func allDigits(s string) bool {
	return len(bytes.TrimLeft([]byte(s), "0123456789")) == 0
}

// DiasNoSetor conta dias civis desde a chegada ao setor atual.
// A referência é data_entrada, depois data_ultima_movimentacao, depois created_at.
// Processos concluídos devolvem nil.
func DiasNoSetor(p *Processo, now time.Time, loc *time.Location) *int {
	if p.Status == StatusConcluido {
		return nil
	}
	var ref time.Time
	switch {
	case !p.DataEntrada.IsZero():
		ref = inLocation(p.DataEntrada, loc)
	case p.DataUltimaMovimentacao != nil:
		ref = *p.DataUltimaMovimentacao
	case !p.CreatedAt.IsZero():
		ref = p.CreatedAt
	default:
		return nil
	}
	days := util.DaysBetween(ref, now, loc)
	if days < 0 {
		days = 0
	}
	return &days
}

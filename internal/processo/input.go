package processo

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Field distingue campo ausente de campo enviado vazio em atualizações parciais.
type Field[T any] struct {
	Set   bool
	Value T
}

// Value cria um Field preenchido.
func Value[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// UnmarshalJSON marca o campo como enviado; null vira o valor zero.
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if string(b) == "null" {
		var zero T
		f.Value = zero
		return nil
	}
	return json.Unmarshal(b, &f.Value)
}

// Amount é um valor monetário tolerante: número, texto numérico ou lixo (vira 0).
type Amount float64

// UnmarshalJSON nunca falha; entradas inválidas valem 0.
func (a *Amount) UnmarshalJSON(b []byte) error {
	*a = Amount(parseAmount(strings.Trim(string(b), `"`)))
	return nil
}

func parseAmount(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// CreateInput são os dados de cadastro de um processo.
type CreateInput struct {
	NumeroProcesso      string  `json:"numero_processo"`
	DataEntrada         *Date   `json:"data_entrada"`
	Competencia         *string `json:"competencia"`
	Objeto              string  `json:"objeto"`
	Credor              string  `json:"credor"`
	OrgaoGerador        string  `json:"orgao_gerador"`
	SetorAtual          string  `json:"setor_atual"`
	Descricao           *string `json:"descricao"`
	Observacao          *string `json:"observacao"`
	OutrosValores       Amount  `json:"outros_valores"`
	ValorRecursoProprio Amount  `json:"valor_recurso_proprio"`
	ValorRoyalties      Amount  `json:"valor_royalties"`
	DataCriacaoDocgo    *Date   `json:"data_criacao_docgo"`
}

// UpdateInput altera apenas os campos enviados.
type UpdateInput struct {
	NumeroProcesso         Field[string]  `json:"numero_processo"`
	DataEntrada            Field[*Date]   `json:"data_entrada"`
	Competencia            Field[*string] `json:"competencia"`
	Objeto                 Field[string]  `json:"objeto"`
	Credor                 Field[string]  `json:"credor"`
	OrgaoGerador           Field[string]  `json:"orgao_gerador"`
	SetorAtual             Field[string]  `json:"setor_atual"`
	Descricao              Field[*string] `json:"descricao"`
	Observacao             Field[*string] `json:"observacao"`
	OutrosValores          Field[Amount]  `json:"outros_valores"`
	ValorRecursoProprio    Field[Amount]  `json:"valor_recurso_proprio"`
	ValorRoyalties         Field[Amount]  `json:"valor_royalties"`
	Status                 Field[Status]  `json:"status"`
	DataCriacaoDocgo       Field[*Date]   `json:"data_criacao_docgo"`
	DataUltimaMovimentacao Field[*Date]   `json:"data_ultima_movimentacao"`
	// DataTramitacao substitui "hoje" como nova data de entrada quando o setor muda.
	DataTramitacao Field[*Date] `json:"data_tramitacao"`
}

// TransferInput é o corpo de PATCH /processos/{id}/setor.
type TransferInput struct {
	SetorAtual     string `json:"setor_atual"`
	DataTramitacao *Date  `json:"data_tramitacao"`
}

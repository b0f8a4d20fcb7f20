package lookup

import "strings"

// Kind identifica uma das tabelas de referência dos processos.
type Kind string

const (
	KindObjeto       Kind = "objeto"
	KindCredor       Kind = "credor"
	KindOrgaoGerador Kind = "orgao_gerador"
	KindSetor        Kind = "setor"
)

type kindMeta struct {
	table  string
	column string
	path   string
	label  string
}

var kinds = map[Kind]kindMeta{
	KindObjeto:       {table: "objetos", column: "objeto_id", path: "objetos", label: "objeto"},
	KindCredor:       {table: "credores", column: "credor_id", path: "credores", label: "credor"},
	KindOrgaoGerador: {table: "orgaos_geradores", column: "orgao_gerador_id", path: "orgaos-geradores", label: "órgão gerador"},
	KindSetor:        {table: "setores", column: "setor_id", path: "setores", label: "setor"},
}

// Kinds devolve os tipos na ordem em que aparecem no processo.
func Kinds() []Kind {
	return []Kind{KindObjeto, KindCredor, KindOrgaoGerador, KindSetor}
}

// Valid indica se o tipo é conhecido.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Table é a tabela de referência.
func (k Kind) Table() string { return kinds[k].table }

// Column é a chave estrangeira correspondente em processos.
func (k Kind) Column() string { return kinds[k].column }

// Path é o segmento de rota REST do tipo.
func (k Kind) Path() string { return kinds[k].path }

// Label é o nome legível em minúsculas.
func (k Kind) Label() string { return kinds[k].label }

func (k Kind) title() string {
	label := k.Label()
	if label == "" {
		return ""
	}
	if strings.HasPrefix(label, "ó") {
		return "Ó" + strings.TrimPrefix(label, "ó")
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

// KindFromPath resolve o tipo pelo segmento de rota.
func KindFromPath(path string) (Kind, bool) {
	for k, meta := range kinds {
		if meta.path == path {
			return k, true
		}
	}
	return "", false
}

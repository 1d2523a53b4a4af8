package models

import (
	"strconv"
	"strings"
)

// VariablesFromMap converts the accumulated extraction map into the
// typed schema. The LLM occasionally returns numbers as strings or
// booleans as "sim"/"não"; conversion is tolerant and drops anything
// it cannot coerce.
func VariablesFromMap(m map[string]interface{}) *Variables {
	v := &Variables{}
	v.ApelidoEdital = asString(m["apelido_edital"])
	v.Financiador1 = asString(m["financiador_1"])
	v.Financiador2 = asString(m["financiador_2"])
	v.AreaFoco = asString(m["area_foco"])
	v.TipoProponente = asString(m["tipo_proponente"])
	v.EmpresasQuePodemSubmeter = asString(m["empresas_que_podem_submeter"])
	v.DuracaoMinMeses = asInt(m["duracao_min_meses"])
	v.DuracaoMaxMeses = asInt(m["duracao_max_meses"])
	v.ValorMin = asFloat(m["valor_min_R$"])
	v.ValorMax = asFloat(m["valor_max_R$"])
	v.TipoRecurso = asString(m["tipo_recurso"])
	v.RecepcaoRecursos = asString(m["recepcao_recursos"])
	v.Custeio = asBool(m["custeio"])
	v.Capital = asBool(m["capital"])
	v.ContrapartidaMin = asFloat(m["contrapartida_min_%"])
	v.ContrapartidaMax = asFloat(m["contrapartida_max_%"])
	v.TipoContrapartida = asString(m["tipo_contrapartida"])
	v.DataInicialSubmissao = asString(m["data_inicial_submissao"])
	v.DataFinalSubmissao = asString(m["data_final_submissao"])
	v.DataResultado = asString(m["data_resultado"])
	v.DescricaoCompleta = asString(m["descricao_completa"])
	v.Origem = asString(m["origem"])
	v.Link = asString(m["link"])
	v.Observacoes = asString(m["observacoes"])
	return v
}

func asString(v interface{}) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}

func asFloat(v interface{}) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case string:
		cleaned := strings.TrimSpace(strings.NewReplacer("R$", "", "%", "", " ", "").Replace(n))
		// Brazilian formatting: dot as thousands separator, comma decimal
		if strings.Contains(cleaned, ",") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		}
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return &f
		}
	}
	return nil
}

func asInt(v interface{}) *int {
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i
	case int:
		return &n
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return &i
		}
	}
	return nil
}

func asBool(v interface{}) *bool {
	switch b := v.(type) {
	case bool:
		return &b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "sim":
			t := true
			return &t
		case "false", "não", "nao":
			f := false
			return &f
		}
	}
	return nil
}

package chat

import "strings"

// queryExpansions maps question terms to close synonyms. Kept
// deliberately small: precision beats recall for short queries, and
// long queries are not expanded at all.
var queryExpansions = []struct {
	term     string
	synonyms string
}{
	{"prazo", "prazo data"},
	{"data", "data prazo"},
	{"submissao", "submissão candidatura"},
	{"submissão", "submissão candidatura"},
	{"candidatura", "candidatura submissão"},
	{"valor", "valor financiamento"},
	{"financiamento", "financiamento valor recurso"},
	{"requisito", "requisito critério"},
	{"documento", "documento anexo"},
	{"candidato", "candidato proponente"},
	{"resultado", "resultado divulgação"},
	{"contato", "contato email telefone"},
	{"duracao", "duração prazo período"},
	{"duração", "duração prazo período"},
	{"area", "área tema"},
	{"área", "área tema"},
	{"quando", "quando data"},
	{"quanto", "quanto valor"},
	{"cronograma", "cronograma data"},
	{"etapa", "etapa fase"},
}

// ExpandQuery adds at most two close synonyms to short queries before
// vector search. Queries with three or more words are assumed specific
// enough and pass through unchanged.
func ExpandQuery(query string) string {
	if len(strings.Fields(query)) >= 3 {
		return query
	}

	lower := strings.ToLower(query)
	expanded := []string{query}
	matched := 0

	for _, e := range queryExpansions {
		if !strings.Contains(lower, e.term) {
			continue
		}
		for _, synonym := range strings.Fields(e.synonyms) {
			if !strings.Contains(lower, synonym) {
				expanded = append(expanded, synonym)
				break
			}
		}
		matched++
		if matched == 2 {
			break
		}
	}

	return strings.Join(expanded, " ")
}

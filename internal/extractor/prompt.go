package extractor

const extractionPrompt = `
Você é um especialista em análise de editais de fomento à pesquisa e inovação no Brasil.
Sua tarefa é extrair informações estruturadas de editais de agências como CNPq, FAPESQ, FINEP, CONFAP, CAPES, etc.

INSTRUÇÕES IMPORTANTES:
1. Leia TODO o texto cuidadosamente antes de extrair
2. Se um campo não estiver explícito no texto, preencha com null (não com string vazia)
3. Para datas, use o formato YYYY-MM-DD
4. Para valores monetários, extraia apenas o número (sem R$, pontos ou vírgulas)
5. Para percentuais, extraia apenas o número (sem % ou símbolos)
6. Para durações, converta para MESES (ex: "12 meses", "1 ano" = 12 meses)
7. Para booleanos, use true/false (não strings)

CAMPOS A EXTRAIR:

{
  "apelido_edital": "Título/nome completo do edital (ex: 'Chamada Pública FAPESQ Nº 01/2025')",
  "financiador_1": "Instituição principal que financia (ex: 'CNPq', 'FAPESQ-PB', 'FINEP', 'CONFAP', 'CAPES')",
  "financiador_2": "Instituição secundária ou parceira (null se não houver)",
  "area_foco": "Área(s) temática(s) do edital (ex: 'Saúde', 'Tecnologia', 'Mudanças Climáticas')",
  "tipo_proponente": "Quem pode se candidatar (ex: 'Pesquisadores doutores', 'Instituições de Ensino', 'Empresas')",
  "empresas_que_podem_submeter": "Tipos específicos de empresas elegíveis (ex: 'PMEs', 'Startups', 'Empresas brasileiras')",
  "duracao_min_meses": "Duração mínima do projeto EM MESES (número inteiro ou null)",
  "duracao_max_meses": "Duração máxima do projeto EM MESES (número inteiro ou null)",
  "valor_min_R$": "Valor mínimo de financiamento em REAIS (número ou null)",
  "valor_max_R$": "Valor máximo de financiamento em REAIS (número ou null)",
  "tipo_recurso": "Tipo de recurso oferecido (ex: 'Bolsas', 'Financiamento não-reembolsável', 'Subvenção econômica')",
  "recepcao_recursos": "Como os recursos serão recebidos (ex: 'Diretamente ao pesquisador', 'Via instituição')",
  "custeio": "Permite gastos de custeio? (true/false/null)",
  "capital": "Permite gastos de capital (equipamentos)? (true/false/null)",
  "contrapartida_min_%": "Percentual mínimo de contrapartida exigida (número ou null)",
  "contrapartida_max_%": "Percentual máximo de contrapartida exigida (número ou null)",
  "tipo_contrapartida": "Tipo de contrapartida aceita (ex: 'Financeira', 'Econômica', 'Não há')",
  "data_inicial_submissao": "Data de ABERTURA das submissões (YYYY-MM-DD ou null)",
  "data_final_submissao": "Data de ENCERRAMENTO/PRAZO das submissões (YYYY-MM-DD ou null)",
  "data_resultado": "Data prevista para divulgação dos RESULTADOS (YYYY-MM-DD ou null)",
  "descricao_completa": "Resumo do objetivo/finalidade do edital em 1-2 frases",
  "origem": "Agência de origem (extraia do texto: 'CNPq', 'FAPESQ', 'FINEP', 'CONFAP', 'CAPES', 'Governo da Paraíba', etc.)",
  "observacoes": "Observações importantes, requisitos especiais ou restrições mencionadas"
}

IMPORTANTE:
- Este é o chunk {CHUNK_INDEX} de {TOTAL_CHUNKS}. Alguns campos podem estar em outros chunks.
- Retorne APENAS o JSON válido, sem markdown, comentários ou texto adicional.
- Use null para campos ausentes, NÃO use string vazia "" ou "null".

Texto do edital:
---
{CHUNK_TEXT}
---

JSON extraído:`

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Variables is the structured schema extracted from an edital PDF.
// Absent values stay nil and serialize as JSON null, never as empty strings.
type Variables struct {
	ApelidoEdital            *string  `bson:"apelido_edital,omitempty" json:"apelido_edital"`
	Financiador1             *string  `bson:"financiador_1,omitempty" json:"financiador_1"`
	Financiador2             *string  `bson:"financiador_2,omitempty" json:"financiador_2"`
	AreaFoco                 *string  `bson:"area_foco,omitempty" json:"area_foco"`
	TipoProponente           *string  `bson:"tipo_proponente,omitempty" json:"tipo_proponente"`
	EmpresasQuePodemSubmeter *string  `bson:"empresas_que_podem_submeter,omitempty" json:"empresas_que_podem_submeter"`
	DuracaoMinMeses          *int     `bson:"duracao_min_meses,omitempty" json:"duracao_min_meses"`
	DuracaoMaxMeses          *int     `bson:"duracao_max_meses,omitempty" json:"duracao_max_meses"`
	ValorMin                 *float64 `bson:"valor_min_R$,omitempty" json:"valor_min_R$"`
	ValorMax                 *float64 `bson:"valor_max_R$,omitempty" json:"valor_max_R$"`
	TipoRecurso              *string  `bson:"tipo_recurso,omitempty" json:"tipo_recurso"`
	RecepcaoRecursos         *string  `bson:"recepcao_recursos,omitempty" json:"recepcao_recursos"`
	Custeio                  *bool    `bson:"custeio,omitempty" json:"custeio"`
	Capital                  *bool    `bson:"capital,omitempty" json:"capital"`
	ContrapartidaMin         *float64 `bson:"contrapartida_min_%,omitempty" json:"contrapartida_min_%"`
	ContrapartidaMax         *float64 `bson:"contrapartida_max_%,omitempty" json:"contrapartida_max_%"`
	TipoContrapartida        *string  `bson:"tipo_contrapartida,omitempty" json:"tipo_contrapartida"`
	DataInicialSubmissao     *string  `bson:"data_inicial_submissao,omitempty" json:"data_inicial_submissao"`
	DataFinalSubmissao       *string  `bson:"data_final_submissao,omitempty" json:"data_final_submissao"`
	DataResultado            *string  `bson:"data_resultado,omitempty" json:"data_resultado"`
	DescricaoCompleta        *string  `bson:"descricao_completa,omitempty" json:"descricao_completa"`
	Origem                   *string  `bson:"origem,omitempty" json:"origem"`
	Link                     *string  `bson:"link,omitempty" json:"link"`
	Observacoes              *string  `bson:"observacoes,omitempty" json:"observacoes"`
}

// ExtractionChunk is one raw per-chunk LLM result, appended progressively.
// Variables holds the raw parsed JSON, including placeholder entries
// like {"erro": "resposta_invalida", "raw": "..."}.
type ExtractionChunk struct {
	ChunkIndex  int       `bson:"chunk_index" json:"chunk_index"`
	ExtractedAt time.Time `bson:"extracted_at" json:"extracted_at"`
	Variables   bson.M    `bson:"variables" json:"variables"`
}

// Edital is the canonical record, one per ingested PDF. The final
// commit also copies the consolidated fields to the top level of the
// Mongo document so ad-hoc queries over single fields work without
// digging into the nested structure; Go code reads them through
// ConsolidatedVariables.
type Edital struct {
	ID                    string            `bson:"_id" json:"id"`
	Link                  string            `bson:"link" json:"link"`
	Origem                string            `bson:"origem,omitempty" json:"origem,omitempty"`
	ExtractionStatus      string            `bson:"extraction_status" json:"extraction_status"`
	ExtractionChunks      []ExtractionChunk `bson:"extraction_chunks,omitempty" json:"extraction_chunks,omitempty"`
	ConsolidatedVariables *Variables        `bson:"consolidated_variables,omitempty" json:"consolidated_variables,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Extraction status constants
const (
	ExtractionStatusPending    = "pending"
	ExtractionStatusInProgress = "in_progress"
	ExtractionStatusCompleted  = "completed"
	ExtractionStatusFailed     = "failed"
)

package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"editais-platform/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// editalColumns is the spreadsheet layout: the full extraction schema
// plus bookkeeping fields.
var editalColumns = []string{
	"uuid",
	"apelido_edital",
	"financiador_1",
	"financiador_2",
	"area_foco",
	"tipo_proponente",
	"empresas_que_podem_submeter",
	"duracao_min_meses",
	"duracao_max_meses",
	"valor_min_R$",
	"valor_max_R$",
	"tipo_recurso",
	"recepcao_recursos",
	"custeio",
	"capital",
	"contrapartida_min_%",
	"contrapartida_max_%",
	"tipo_contrapartida",
	"data_inicial_submissao",
	"data_final_submissao",
	"data_resultado",
	"descricao_completa",
	"origem",
	"link",
	"observacoes",
	"extraction_status",
	"created_at",
}

type editalLister interface {
	ListAll(ctx context.Context) ([]models.Edital, error)
}

// ExportService renders the editais catalog as an XLSX workbook.
type ExportService struct {
	editais editalLister
}

func NewExportService(editais editalLister) *ExportService {
	return &ExportService{editais: editais}
}

// BuildWorkbook produces a workbook with one row per edital, using the
// consolidated variables where extraction has completed.
func (es *ExportService) BuildWorkbook(ctx context.Context) (*excelize.File, int, error) {
	editais, err := es.editais.ListAll(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list editais: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Editais"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, header := range editalColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, 0, err
		}
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIdx, edital := range editais {
		for colIdx, value := range editalRow(edital) {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, 0, err
			}
			if value != nil {
				f.SetCellValue(sheetName, cell, value)
			}
		}
	}

	for i := range editalColumns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, 0, err
		}
		f.SetColWidth(sheetName, col, col, 18)
	}

	return f, len(editais), nil
}

// StreamXLSX writes the workbook as an attachment on the response.
func (es *ExportService) StreamXLSX(c *gin.Context) error {
	f, _, err := es.BuildWorkbook(c.Request.Context())
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	filename := fmt.Sprintf("editais_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Length", strconv.Itoa(buf.Len()))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	return nil
}

func editalRow(e models.Edital) []interface{} {
	v := e.ConsolidatedVariables
	if v == nil {
		v = &models.Variables{}
	}

	origem := strPtr(v.Origem)
	if origem == nil && e.Origem != "" {
		origem = e.Origem
	}
	link := strPtr(v.Link)
	if link == nil {
		link = e.Link
	}

	return []interface{}{
		e.ID,
		strPtr(v.ApelidoEdital),
		strPtr(v.Financiador1),
		strPtr(v.Financiador2),
		strPtr(v.AreaFoco),
		strPtr(v.TipoProponente),
		strPtr(v.EmpresasQuePodemSubmeter),
		intPtr(v.DuracaoMinMeses),
		intPtr(v.DuracaoMaxMeses),
		floatPtr(v.ValorMin),
		floatPtr(v.ValorMax),
		strPtr(v.TipoRecurso),
		strPtr(v.RecepcaoRecursos),
		boolPtr(v.Custeio),
		boolPtr(v.Capital),
		floatPtr(v.ContrapartidaMin),
		floatPtr(v.ContrapartidaMax),
		strPtr(v.TipoContrapartida),
		strPtr(v.DataInicialSubmissao),
		strPtr(v.DataFinalSubmissao),
		strPtr(v.DataResultado),
		strPtr(v.DescricaoCompleta),
		origem,
		link,
		strPtr(v.Observacoes),
		e.ExtractionStatus,
		e.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func strPtr(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtr(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func boolPtr(p *bool) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const transactionsSheet = "Reporte"

// WriteTransactionsXLSX writes the transaction report as a workbook with
// one sheet and a total row.
func WriteTransactionsXLSX(w io.Writer, rep Transactions) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(transactionsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}
	index, _ := f.GetSheetIndex(transactionsSheet)
	f.SetActiveSheet(index)

	for i, header := range TransactionHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(transactionsSheet, cell, header)
	}

	row := 2
	for _, r := range rep.Rows {
		f.SetCellValue(transactionsSheet, fmt.Sprintf("A%d", row), r.Fecha)
		f.SetCellValue(transactionsSheet, fmt.Sprintf("B%d", row), r.Alumno)
		f.SetCellValue(transactionsSheet, fmt.Sprintf("C%d", row), r.Tipo)
		f.SetCellValue(transactionsSheet, fmt.Sprintf("D%d", row), r.Clase)
		f.SetCellValue(transactionsSheet, fmt.Sprintf("E%d", row), r.Descripcion)
		f.SetCellValue(transactionsSheet, fmt.Sprintf("F%d", row), r.Estado)
		f.SetCellValue(transactionsSheet, fmt.Sprintf("G%d", row), r.Liquidacion)
		f.SetCellValue(transactionsSheet, fmt.Sprintf("H%d", row), r.Monto.InexactFloat64())
		row++
	}

	f.SetCellValue(transactionsSheet, fmt.Sprintf("G%d", row), "Total")
	f.SetCellValue(transactionsSheet, fmt.Sprintf("H%d", row), rep.Total.InexactFloat64())

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

package api

import (
	"fmt"
	"io"
	"time"

	"shareit/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	bookingsSheetName = "Bookings"
	exportTimeLayout  = "2006-01-02 15:04"
)

var bookingsHeaders = []interface{}{"ID", "Item ID", "Item", "Booker ID", "Start", "End", "Status"}

// status fill colors
var statusFills = map[models.BookingStatus]string{
	models.StatusWaiting:  "#FFEB9C",
	models.StatusApproved: "#C6EFCE",
	models.StatusRejected: "#FFC7CE",
	models.StatusCanceled: "#D9D9D9",
}

// writeBookingsWorkbook renders rows into a single-sheet workbook: a title
// line, a header line, then one line per booking.
func writeBookingsWorkbook(w io.Writer, state string, rows []*models.BookingDetails, generated time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", bookingsSheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	title := fmt.Sprintf("Bookings (%s), generated %s", state, generated.Format(exportTimeLayout))
	_ = f.SetCellValue(bookingsSheetName, "A1", title)
	_ = f.MergeCell(bookingsSheetName, "A1", "G1")
	if titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err == nil {
		_ = f.SetCellStyle(bookingsSheetName, "A1", "A1", titleStyle)
	}

	if err := f.SetSheetRow(bookingsSheetName, "A2", &bookingsHeaders); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	if headerStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	}); err == nil {
		_ = f.SetCellStyle(bookingsSheetName, "A2", "G2", headerStyle)
	}

	styles := make(map[models.BookingStatus]int, len(statusFills))
	for status, color := range statusFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("failed to create status style: %w", err)
		}
		styles[status] = id
	}

	for i, b := range rows {
		row := i + 3
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []interface{}{
			b.ID,
			b.Item.ID,
			b.Item.Name,
			b.Booker.ID,
			b.Start.UTC().Format(exportTimeLayout),
			b.End.UTC().Format(exportTimeLayout),
			string(b.Status),
		}
		if err := f.SetSheetRow(bookingsSheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write booking %d: %w", b.ID, err)
		}
		if style, ok := styles[b.Status]; ok {
			statusCell, _ := excelize.CoordinatesToCellName(7, row)
			_ = f.SetCellStyle(bookingsSheetName, statusCell, statusCell, style)
		}
	}

	_ = f.SetColWidth(bookingsSheetName, "A", "B", 10)
	_ = f.SetColWidth(bookingsSheetName, "C", "C", 30)
	_ = f.SetColWidth(bookingsSheetName, "D", "D", 10)
	_ = f.SetColWidth(bookingsSheetName, "E", "F", 18)
	_ = f.SetColWidth(bookingsSheetName, "G", "G", 12)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	"facingcourage-backend/internal/domain"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Applications"

var exportHeader = []interface{}{
	"id",
	"username",
	"discord",
	"experience",
	"role",
	"availability",
	"motivation",
	"why_accept_you",
	"previous_groups",
	"status",
	"reviewed_by",
	"reviewed_at",
	"submitted_at",
}

// WriteApplicationsWorkbook renders apps as a single-sheet XLSX workbook.
func WriteApplicationsWorkbook(w io.Writer, apps []domain.Application) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, a := range apps {
		row := []interface{}{
			a.ID,
			a.Username,
			a.Discord,
			a.Experience,
			a.Role,
			strings.Join(a.Availability, ", "),
			a.Motivation,
			a.WhyAcceptYou,
			derefString(a.PreviousGroups),
			string(a.Status),
			derefString(a.ReviewedBy),
			formatTime(a.ReviewedAt),
			a.SubmittedAt.UTC().Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

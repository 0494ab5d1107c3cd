package export

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// exportPageSize caps one export at a sane spreadsheet size.
const exportPageSize = 1000

var exportHeaders = []string{
	"Code", "Title", "Status", "Priority", "Requester", "Assignee",
	"SLA Due", "Breached", "Closure Reason", "Created", "Closed",
}

// ExcelExporter renders ticket lists as .xlsx workbooks.
type ExcelExporter struct {
	ticketSvc ports.TicketService
	userRepo  ports.UserRepository
	clock     func() time.Time
}

var _ ports.ExportService = (*ExcelExporter)(nil)

// NewExcelExporter creates a new exporter.
func NewExcelExporter(ticketSvc ports.TicketService, userRepo ports.UserRepository, clock func() time.Time) *ExcelExporter {
	if clock == nil {
		clock = time.Now
	}
	return &ExcelExporter{
		ticketSvc: ticketSvc,
		userRepo:  userRepo,
		clock:     clock,
	}
}

// ExportTickets builds a workbook of the tickets the caller may list and
// returns the file bytes plus a timestamped filename.
func (e *ExcelExporter) ExportTickets(ctx context.Context, params ports.ListTicketsParams) ([]byte, string, error) {
	params.Filter.Limit = exportPageSize
	params.Filter.Offset = 0

	tickets, _, err := e.ticketSvc.ListTickets(ctx, params)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Tickets"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, "", err
		}
	}

	names := map[uuid.UUID]string{}
	for i, ticket := range tickets {
		row := []interface{}{
			ticket.Code,
			ticket.Title,
			string(ticket.Status),
			string(ticket.Priority),
			e.userName(ctx, names, ticket.CreatedBy),
			e.assigneeName(ctx, names, ticket.AssignedTo),
			ticket.SLADueDate.UTC().Format(time.RFC3339),
			ticket.IsSLABreached,
			closureReason(ticket),
			ticket.CreatedAt.UTC().Format(time.RFC3339),
			closureDate(ticket),
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("tickets_%s.xlsx", e.clock().UTC().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}

func (e *ExcelExporter) userName(ctx context.Context, cache map[uuid.UUID]string, id uuid.UUID) string {
	if name, ok := cache[id]; ok {
		return name
	}
	user, err := e.userRepo.GetByID(ctx, id)
	if err != nil {
		cache[id] = id.String()
		return cache[id]
	}
	cache[id] = user.Name
	return user.Name
}

func (e *ExcelExporter) assigneeName(ctx context.Context, cache map[uuid.UUID]string, id *uuid.UUID) string {
	if id == nil {
		return domain.UnassignedLabel
	}
	return e.userName(ctx, cache, *id)
}

func closureReason(ticket *domain.Ticket) string {
	if ticket.ClosureReason == nil {
		return ""
	}
	return string(*ticket.ClosureReason)
}

func closureDate(ticket *domain.Ticket) string {
	if ticket.ClosureDate == nil {
		return ""
	}
	return ticket.ClosureDate.UTC().Format(time.RFC3339)
}

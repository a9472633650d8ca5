package render

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"festival-tickets/models"

	"github.com/go-pdf/fpdf"
)

type PDFOptions struct {
	EventName string
	Currency  string
	Now       time.Time
}

// TicketsPDF writes an A4 document with one page per ticket.
func TicketsPDF(w io.Writer, p Payloader, tickets []models.Ticket, opts PDFOptions) error {
	if len(tickets) == 0 {
		return fmt.Errorf("render: no tickets")
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(opts.EventName+" - Entry Tickets", true)
	pdf.SetAutoPageBreak(false, 0)

	for i := range tickets {
		t := &tickets[i]

		payload, err := p.Payload(t)
		if err != nil {
			return err
		}
		png, err := QR(payload)
		if err != nil {
			return err
		}

		pdf.AddPage()

		pdf.SetFont("Helvetica", "B", 18)
		pdf.CellFormat(0, 12, opts.EventName+" - Entry Ticket", "", 1, "C", false, 0, "")
		pdf.Ln(4)

		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 10, fmt.Sprintf("Ticket #%d - ID: %s", i+1, t.TicketID), "", 1, "L", false, 0, "")
		pdf.Ln(2)

		pdf.SetFont("Helvetica", "", 12)
		for _, row := range [][2]string{
			{"Event", opts.EventName},
			{"Name", t.HolderName},
			{"Phone", t.HolderPhone},
			{"Price", opts.Currency + " " + t.PricePaid.StringFixed(2)},
			{"Generated", opts.Now.Format("2006-01-02 15:04:05")},
			{"Valid", "Single Entry Only"},
		} {
			pdf.SetFont("Helvetica", "B", 12)
			pdf.CellFormat(30, 8, row[0]+":", "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 12)
			pdf.CellFormat(0, 8, pdf.UnicodeTranslatorFromDescriptor("")(row[1]), "", 1, "L", false, 0, "")
		}

		name := "qr-" + t.TicketID
		pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
		pdf.ImageOptions(name, 55, pdf.GetY()+10, 100, 100, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf.Output: %w", err)
	}
	return nil
}

package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		tickets := core.NewBaseCollection("tickets")
		tickets.Fields.Add(
			&core.TextField{Name: "ticket_id", Required: true, Max: 64},
			&core.TextField{Name: "qr_token", Required: true, Max: 128},
			&core.TextField{Name: "holder_name", Max: 200},
			&core.TextField{Name: "holder_phone", Max: 32},
			&core.TextField{Name: "price_paid", Required: true, Max: 32},
			&core.TextField{Name: "payment_id", Required: true, Max: 64},
			&core.TextField{Name: "order_id", Required: true, Max: 64},
			&core.NumberField{Name: "seq", OnlyInt: true},
			&core.BoolField{Name: "is_scanned"},
			&core.DateField{Name: "scanned_at"},
			&core.DateField{Name: "created_at", Required: true},
		)
		tickets.AddIndex("idx_tickets_ticket_id", true, "ticket_id", "")
		tickets.AddIndex("idx_tickets_qr_token", true, "qr_token", "")
		tickets.AddIndex("idx_tickets_payment_id", false, "payment_id", "")
		if err := app.Save(tickets); err != nil {
			return err
		}

		issuances := core.NewBaseCollection("ticket_issuances")
		issuances.Fields.Add(
			&core.TextField{Name: "payment_id", Required: true, Max: 64},
			&core.TextField{Name: "order_id", Required: true, Max: 64},
			&core.NumberField{Name: "quantity", OnlyInt: true},
			&core.AutodateField{Name: "created", OnCreate: true},
		)
		issuances.AddIndex("idx_ticket_issuances_payment_id", true, "payment_id", "")
		if err := app.Save(issuances); err != nil {
			return err
		}

		operators := core.NewAuthCollection("operators")
		operators.Fields.Add(
			&core.SelectField{Name: "role", Required: true, MaxSelect: 1, Values: []string{"admin", "gate"}},
		)
		if err := app.Save(operators); err != nil {
			return err
		}

		audits := core.NewBaseCollection("login_audits")
		audits.Fields.Add(
			&core.TextField{Name: "user_type", Max: 32},
			&core.EmailField{Name: "email"},
			&core.TextField{Name: "session_token", Max: 128},
			&core.DateField{Name: "login_time", Required: true},
		)
		audits.AddIndex("idx_login_audits_login_time", false, "login_time", "")
		return app.Save(audits)
	}, func(app core.App) error {
		for _, name := range []string{"login_audits", "operators", "ticket_issuances", "tickets"} {
			col, err := app.FindCollectionByNameOrId(name)
			if err != nil {
				continue
			}
			if err := app.Delete(col); err != nil {
				return err
			}
		}
		return nil
	})
}

package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/pribylovaa/duta-client/internal/models"
)

// render печатает value в JSON/YAML или вызывает text для текстового вывода.
// YAML строится из JSON-представления, чтобы имена полей совпадали с API.
func (a *App) render(value any, text func() error) error {
	switch a.Format {
	case FormatJSON:
		enc := json.NewEncoder(a.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	case FormatYAML:
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}

		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}

		enc := yaml.NewEncoder(a.Out)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text()
	}
}

// Rupiah форматирует сумму в индонезийской записи: "Rp 1.250.000".
func Rupiah(a models.Amount) string {
	return "Rp " + humanize.FormatFloat("#.###,", float64(a))
}

func (a *App) printUser(u *models.User) error {
	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", u.Name)
	fmt.Fprintf(tw, "Username:\t%s\n", u.Username)
	fmt.Fprintf(tw, "E-mail:\t%s\n", u.Email)
	fmt.Fprintf(tw, "Role:\t%s\n", u.Role)
	if u.DutaType != "" {
		fmt.Fprintf(tw, "Duta type:\t%s\n", u.DutaType)
	}

	return tw.Flush()
}

func (a *App) printDashboard(d models.Dashboard) error {
	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Pending:\t%d\n", d.PendingCount)
	fmt.Fprintf(tw, "Rejected this month:\t%d\n", d.RejectedCountThisMonth)
	fmt.Fprintf(tw, "Verified this month:\t%s\n", Rupiah(d.TotalVerifiedThisMonth))

	return tw.Flush()
}

func (a *App) printDonations(items []models.Donation) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(a.Out, "  (no donations)")
		return err
	}

	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tPROGRAM\tDONOR\tAMOUNT\tSTATUS")
	for _, d := range items {
		date := d.TransactionDate
		if date == "" {
			date = d.CreatedAt
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", d.ID, date, d.Program, d.DonorName, Rupiah(d.Amount), d.Status.Label())
	}

	return tw.Flush()
}

func (a *App) printList(v listView, title string) error {
	fmt.Fprintf(a.Out, "%s: %d item(s), %d page(s) loaded\n", title, v.Summary.Count, v.Pages)
	if err := a.printDonations(v.Items); err != nil {
		return err
	}

	more := ""
	if v.HasMore {
		more = " (more available, partial total)"
	}
	fmt.Fprintf(a.Out, "Total: %s%s\n", Rupiah(v.Summary.Total), more)

	statuses := make([]string, 0, len(v.Summary.ByStatus))
	for s := range v.Summary.ByStatus {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)

	for _, s := range statuses {
		fmt.Fprintf(a.Out, "  %s: %d\n", models.DonationStatus(s).Label(), v.Summary.ByStatus[models.DonationStatus(s)])
	}

	return nil
}

func (a *App) printMasterData(md models.MasterData) error {
	sections := []struct {
		title string
		opts  []models.Option
	}{
		{"Programs", md.Programs},
		{"Salutations", md.Salutations},
		{"Payment methods", md.PaymentMethods},
	}

	for _, s := range sections {
		if len(s.opts) == 0 {
			continue
		}

		fmt.Fprintf(a.Out, "%s:\n", s.title)
		for _, o := range s.opts {
			fmt.Fprintf(a.Out, "  %d\t%s\n", o.ID, o.Name)
		}
	}

	return nil
}

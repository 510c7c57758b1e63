package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	apierrors "github.com/pribylovaa/duta-client/internal/errors"
	"github.com/pribylovaa/duta-client/internal/feed"
	"github.com/pribylovaa/duta-client/internal/models"
	"github.com/pribylovaa/duta-client/internal/service"
)

func newFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false

	return fs
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUsage, fs.Name(), err)
	}

	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s: unexpected argument %q", ErrUsage, fs.Name(), fs.Arg(0))
	}

	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	fs := newFlags("login")
	login := fs.StringP("login", "l", "", "username or e-mail")
	password := fs.StringP("password", "p", "", "password (default: $DUTA_PASSWORD)")
	if err := parse(fs, args); err != nil {
		return err
	}

	if *password == "" {
		*password = a.getenv("DUTA_PASSWORD")
	}

	user, err := a.session.Login(ctx, *login, *password)
	if err != nil {
		return err
	}

	return a.render(user, func() error {
		_, err := fmt.Fprintf(a.Out, "Logged in as %s (%s)\n", user.Name, user.Username)
		return err
	})
}

func (a *App) logout(ctx context.Context, args []string) error {
	if err := parse(newFlags("logout"), args); err != nil {
		return err
	}

	if err := a.session.Logout(ctx); err != nil {
		return err
	}

	_, err := fmt.Fprintln(a.Out, "Logged out")
	return err
}

func (a *App) whoami(_ context.Context, args []string) error {
	if err := parse(newFlags("whoami"), args); err != nil {
		return err
	}

	user := a.session.Current()
	if user == nil {
		return ErrNotLoggedIn
	}

	return a.render(user, func() error { return a.printUser(user) })
}

func (a *App) dashboard(ctx context.Context, args []string) error {
	if err := parse(newFlags("dashboard"), args); err != nil {
		return err
	}

	d, err := a.svc.Dashboard(ctx)
	if err != nil {
		return err
	}

	return a.render(d, func() error { return a.printDashboard(d) })
}

type homeView struct {
	Dashboard *models.Dashboard `json:"dashboard,omitempty"`
	Recent    []models.Donation `json:"recent"`
	HasMore   bool              `json:"has_more"`
	Errors    []string          `json:"errors,omitempty"`
}

func (a *App) home(ctx context.Context, args []string) error {
	if err := parse(newFlags("home"), args); err != nil {
		return err
	}

	recent := a.svc.NewRecentFeed()
	defer recent.Close()

	home, err := a.svc.LoadHome(ctx, recent)
	if home.DashboardErr != nil && home.RecentErr != nil {
		return err
	}

	view := homeView{Recent: home.Recent, HasMore: home.HasMore}
	if home.DashboardErr == nil {
		view.Dashboard = &home.Dashboard
	} else {
		view.Errors = append(view.Errors, "dashboard: "+apierrors.UserMessage(home.DashboardErr))
	}
	if home.RecentErr != nil {
		view.Errors = append(view.Errors, "recent: "+apierrors.UserMessage(home.RecentErr))
	}

	return a.render(view, func() error {
		if view.Dashboard != nil {
			if err := a.printDashboard(*view.Dashboard); err != nil {
				return err
			}
			fmt.Fprintln(a.Out)
		}

		fmt.Fprintln(a.Out, "Recent activity:")
		if err := a.printDonations(view.Recent); err != nil {
			return err
		}

		for _, e := range view.Errors {
			fmt.Fprintln(a.Err, "warning:", e)
		}

		return nil
	})
}

type listView struct {
	Items   []models.Donation `json:"items"`
	Pages   int               `json:"pages"`
	HasMore bool              `json:"has_more"`
	Summary service.Summary   `json:"summary"`
}

// loadPages догружает ленту, пока не загружено pages страниц или не кончились данные.
func loadPages[T any, Q comparable](ctx context.Context, f *feed.Feed[T, Q], pages int) error {
	for len(f.Pages()) < pages && f.HasMore() {
		if err := f.LoadNextPage(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (a *App) donations(ctx context.Context, args []string) error {
	fs := newFlags("donations")
	rawStatus := fs.StringP("status", "s", "all", "filter: all, validated, pending, rejected, correction_needed")
	pages := fs.IntP("pages", "n", 1, "number of pages to load")
	if err := parse(fs, args); err != nil {
		return err
	}

	status, err := models.ParseStatus(*rawStatus)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if *pages < 1 {
		return fmt.Errorf("%w: --pages must be positive", ErrUsage)
	}

	f := a.svc.NewDonationsFeed()
	defer f.Close()

	if err := f.LoadFirstPage(ctx, status); err != nil {
		return err
	}
	if err := loadPages(ctx, f, *pages); err != nil {
		return err
	}

	snap := f.Snapshot()
	view := listView{Items: snap.Items, Pages: snap.Pages, HasMore: snap.HasMore, Summary: service.Summarize(snap.Items)}

	return a.render(view, func() error { return a.printList(view, status.Label()) })
}

func (a *App) recent(ctx context.Context, args []string) error {
	fs := newFlags("recent")
	pages := fs.IntP("pages", "n", 1, "number of pages to load")
	show := fs.Int("show", 0, "print at most N items (0 = all loaded)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *pages < 1 || *show < 0 {
		return fmt.Errorf("%w: --pages must be positive and --show non-negative", ErrUsage)
	}

	f := a.svc.NewRecentFeed()
	defer f.Close()

	if err := f.LoadFirstPage(ctx, service.RecentQuery{}); err != nil {
		return err
	}
	if err := loadPages(ctx, f, *pages); err != nil {
		return err
	}

	snap := f.Snapshot()
	items := snap.Items
	if *show > 0 {
		items = service.Take(items, *show)
	}

	view := listView{Items: items, Pages: snap.Pages, HasMore: snap.HasMore, Summary: service.Summarize(snap.Items)}

	return a.render(view, func() error { return a.printList(view, "Recent") })
}

func (a *App) programs(ctx context.Context, args []string) error {
	if err := parse(newFlags("programs"), args); err != nil {
		return err
	}

	md, err := a.svc.MasterData(ctx)
	if err != nil {
		return err
	}

	return a.render(md, func() error { return a.printMasterData(md) })
}

func (a *App) submit(ctx context.Context, args []string) error {
	fs := newFlags("submit")
	var sub models.DonationSubmission
	fs.StringVar(&sub.ProgramID, "program", "", "program id (see `duta programs`)")
	fs.StringVar(&sub.Amount, "amount", "", "amount in rupiah")
	fs.StringVar(&sub.PaymentMethodID, "payment-method", "", "payment method id")
	fs.StringVar(&sub.SalutationID, "salutation", "", "salutation id")
	fs.StringVar(&sub.DonorName, "donor-name", "", "donor name")
	fs.StringVar(&sub.DonorPhone, "donor-phone", "", "donor phone")
	fs.StringVar(&sub.DonorEmail, "donor-email", "", "donor e-mail")
	fs.StringVar(&sub.TransactionDate, "date", "", "transaction date (YYYY-MM-DD)")
	fs.StringVar(&sub.Notes, "notes", "", "notes")
	proofPaths := fs.StringArray("proof", nil, "proof of transfer photo (repeatable)")
	if err := parse(fs, args); err != nil {
		return err
	}

	var total int64
	for _, p := range *proofPaths {
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		defer f.Close()

		if st, err := f.Stat(); err == nil {
			total += st.Size()
		}

		sub.Proofs = append(sub.Proofs, models.Proof{Filename: filepath.Base(p), Body: f})
	}

	progress := func(pct int) {
		if a.Format == FormatText {
			fmt.Fprintf(a.Err, "\ruploading %s: %3d%%", humanize.Bytes(uint64(total)), pct)
		}
	}

	if err := a.svc.Submit(ctx, sub, progress); err != nil {
		if a.Format == FormatText {
			fmt.Fprintln(a.Err)
		}
		return err
	}

	if a.Format == FormatText {
		fmt.Fprintln(a.Err)
	}

	return a.render(map[string]any{"submitted": true, "proofs": len(sub.Proofs)}, func() error {
		_, err := fmt.Fprintf(a.Out, "Donation submitted with %d proof(s)\n", len(sub.Proofs))
		return err
	})
}

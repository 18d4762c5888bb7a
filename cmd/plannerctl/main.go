package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/schedule"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/shared/gtin"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "plannerctl",
		Short: "Launch planner operator tools",
		Long: `plannerctl previews launch schedules without touching the database.
- schedule: reconcile retailer launch weeks and list the generated activities.
- gtin: check EAN-13 article numbers.
- templates: print the activity template catalog.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(scheduleCmd())
	root.AddCommand(gtinCmd())
	root.AddCommand(templatesCmd())
	return root
}

func scheduleCmd() *cobra.Command {
	var (
		productType string
		retailers   []string
		users       []string
		year        int
		week        int
		catalogPath string
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Preview the activity schedule for a product",
		Example: `  plannerctl schedule --retailer ICA:20,22 --retailer Coop:15 --year 2024
  plannerctl schedule --type delisting --week 40 --year 2024 --user u1:Anna:masterdata`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pt := schedule.ProductType(productType)
			if !pt.Valid() {
				return fmt.Errorf("unknown product type %q", productType)
			}

			launches := make([]schedule.RetailerLaunch, 0, len(retailers))
			for _, raw := range retailers {
				r, err := parseRetailer(raw, year)
				if err != nil {
					return err
				}
				launches = append(launches, r)
			}
			if pt == schedule.ProductTypeLaunch && len(launches) == 0 {
				return fmt.Errorf("--retailer required for launch products")
			}

			roster := make([]schedule.Member, 0, len(users))
			for _, raw := range users {
				m, err := parseMember(raw)
				if err != nil {
					return err
				}
				roster = append(roster, m)
			}

			catalog, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}
			entries := schedule.BuiltinTemplate(pt)
			if tmpl, ok := catalog.Find(pt); ok {
				entries = tmpl.Entries
			}

			launch := schedule.Reconcile(pt, launches, schedule.Week{Year: year, Week: week}, time.Now())
			activities := schedule.Generate(entries, launch.Start(), roster)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Launch week: %s (%s)\n", launch, launch.Start().Format("2006-01-02"))
			printActivities(out, activities)
			return nil
		},
	}
	cmd.Flags().StringVar(&productType, "type", string(schedule.ProductTypeLaunch), "product type (launch, delisting)")
	cmd.Flags().StringArrayVar(&retailers, "retailer", []string{}, "retailer launch weeks as NAME:W1,W2[:YEAR] (repeatable)")
	cmd.Flags().StringArrayVar(&users, "user", []string{}, "team member as ID:NAME:ROLE1,ROLE2 (repeatable)")
	cmd.Flags().IntVar(&year, "year", 0, "launch year (defaults to the current ISO year)")
	cmd.Flags().IntVar(&week, "week", 0, "launch week when no retailer weeks apply")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "path to a YAML template catalog")
	return cmd
}

func gtinCmd() *cobra.Command {
	g := &cobra.Command{Use: "gtin", Short: "EAN-13 utilities"}
	g.AddCommand(&cobra.Command{
		Use:   "validate <code>...",
		Short: "Validate EAN-13 check digits",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Input", "Valid", "Formatted", "Error"})
			invalid := 0
			for _, code := range args {
				cleaned, err := gtin.Validate(code)
				if err != nil {
					invalid++
					tw.AppendRow(table.Row{code, "no", "", err.Error()})
					continue
				}
				tw.AppendRow(table.Row{code, "yes", gtin.Format(cleaned), ""})
			}
			tw.Render()
			if invalid > 0 {
				return fmt.Errorf("%d of %d codes invalid", invalid, len(args))
			}
			return nil
		},
	})
	return g
}

func templatesCmd() *cobra.Command {
	var catalogPath string
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Print the activity template catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, tmpl := range catalog.Templates {
				marker := ""
				if tmpl.Default {
					marker = " (default)"
				}
				fmt.Fprintf(out, "%s: %s [%s]%s\n", tmpl.Code, tmpl.Name, tmpl.ProductType, marker)

				tw := table.NewWriter()
				tw.SetOutputMirror(out)
				tw.AppendHeader(table.Row{"#", "ID", "Name", "Weeks", "Category", "Role"})
				for _, e := range tmpl.Entries {
					tw.AppendRow(table.Row{e.Order, e.ID, e.Name, e.WeeksBeforeLaunch, e.Category, e.DefaultAssigneeRole})
				}
				tw.Render()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "path to a YAML template catalog")
	return cmd
}

func printActivities(out io.Writer, activities []schedule.Activity) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"#", "Activity", "Category", "Deadline", "Week", "Assignee"})
	for _, a := range activities {
		tw.AppendRow(table.Row{
			a.Order,
			a.Name,
			a.Category,
			a.Deadline.Format("2006-01-02"),
			schedule.ISOWeekOf(a.Deadline).String(),
			a.AssigneeName,
		})
	}
	tw.Render()
}

func loadCatalog(path string) (*schedule.Catalog, error) {
	if path == "" {
		return schedule.BuiltinCatalog(), nil
	}
	return schedule.LoadCatalogFile(path)
}

// parseRetailer reads NAME:W1,W2 with an optional :YEAR suffix.
func parseRetailer(raw string, defaultYear int) (schedule.RetailerLaunch, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 || strings.TrimSpace(parts[0]) == "" {
		return schedule.RetailerLaunch{}, fmt.Errorf("invalid retailer %q, want NAME:W1,W2[:YEAR]", raw)
	}
	r := schedule.RetailerLaunch{Retailer: strings.TrimSpace(parts[0]), LaunchYear: defaultYear}
	for _, w := range strings.Split(parts[1], ",") {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		n, err := strconv.Atoi(w)
		if err != nil || !schedule.ValidWeek(n) {
			return schedule.RetailerLaunch{}, fmt.Errorf("invalid week %q for %s", w, r.Retailer)
		}
		r.LaunchWeeks = append(r.LaunchWeeks, n)
	}
	if len(parts) == 3 {
		y, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return schedule.RetailerLaunch{}, fmt.Errorf("invalid year in %q", raw)
		}
		r.LaunchYear = y
	}
	return r, nil
}

// parseMember reads ID:NAME:ROLE1,ROLE2.
func parseMember(raw string) (schedule.Member, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 || parts[0] == "" {
		return schedule.Member{}, fmt.Errorf("invalid user %q, want ID:NAME:ROLE1,ROLE2", raw)
	}
	m := schedule.Member{ID: parts[0], Name: parts[1]}
	for _, role := range strings.Split(parts[2], ",") {
		if role = strings.TrimSpace(role); role != "" {
			m.Roles = append(m.Roles, role)
		}
	}
	return m, nil
}

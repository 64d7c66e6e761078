// Command dailyctl is a terminal dashboard for a running daily tracker.
//
//	dailyctl list
//	dailyctl add -date 2024-01-01 -sales 100 -expenses 40 -notes "market day"
//	dailyctl delete [-yes] <id>
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"daily_tracker/internal/client"
	"daily_tracker/internal/config"
	"daily_tracker/internal/dashboard"
	"daily_tracker/internal/records"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	logger, _ := zap.NewDevelopment(zap.IncreaseLevel(zap.WarnLevel))
	defer logger.Sync()

	c := client.New(cfg.APIBaseURL)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	d := dashboard.New(c, logger)
	if err := d.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "could not load records from %s: %v\n", cfg.APIBaseURL, err)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "list":
		render(os.Stdout, d)
	case "add":
		err = add(ctx, d, os.Args[2:])
	case "delete":
		err = remove(ctx, d, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: dailyctl list | add -sales N -expenses N [-date YYYY-MM-DD] [-notes TEXT] | delete [-yes] ID")
}

func add(ctx context.Context, d *dashboard.Dashboard, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	date := fs.String("date", d.Form.Date, "day of the record (YYYY-MM-DD)")
	sales := fs.String("sales", "", "total sales")
	expenses := fs.String("expenses", "", "total expenses")
	notes := fs.String("notes", "", "optional notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d.Form = dashboard.Form{Date: *date, Sales: *sales, Expenses: *expenses, Notes: *notes}
	if _, err := d.Submit(ctx); err != nil {
		return errors.New(d.Error)
	}
	fmt.Println(d.Notice)
	render(os.Stdout, d)
	return nil
}

func remove(ctx context.Context, d *dashboard.Dashboard, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	confirm := func(id string) bool {
		if *yes {
			return true
		}
		fmt.Printf("Are you sure you want to delete record %s? [y/N] ", id)
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	}

	ok, err := d.Delete(ctx, fs.Arg(0), confirm)
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("record %s not found", fs.Arg(0))
		}
		return errors.New(d.Notice)
	}
	if ok {
		fmt.Println(d.Notice)
	}
	return nil
}

func render(w io.Writer, d *dashboard.Dashboard) {
	t := d.Totals()
	fmt.Fprintf(w, "Total Sales: $%s  Total Expenses: $%s  Total Profit: $%s\n\n",
		t.Sales.StringFixed(2), t.Expenses.StringFixed(2), t.Profit.StringFixed(2))

	if len(d.Records) == 0 {
		fmt.Fprintln(w, "No records yet. Add your first daily record.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tSALES\tEXPENSES\tPROFIT\tNOTES")
	for _, r := range d.Records {
		notes := r.Notes
		if notes == "" {
			notes = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Date.Format(records.DateLayout),
			r.Sales.StringFixed(2), r.Expenses.StringFixed(2), r.Profit.StringFixed(2), notes)
	}
	tw.Flush()
}

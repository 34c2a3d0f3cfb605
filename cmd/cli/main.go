package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dvloznov/edufin/internal/app"
	"github.com/dvloznov/edufin/internal/config"
	"github.com/dvloznov/edufin/internal/directory"
	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/fees"
	"github.com/dvloznov/edufin/internal/format"
	"github.com/dvloznov/edufin/internal/idgen"
	"github.com/dvloznov/edufin/internal/logger"
	"github.com/dvloznov/edufin/internal/notify"
	"github.com/dvloznov/edufin/internal/prediction"
	"github.com/dvloznov/edufin/internal/salary"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var errUsage = errors.New("usage")

func main() {
	log := logger.New(logger.Options{Console: true})

	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	err := run(os.Args[1], os.Args[2:], os.Stdout, log)
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage(os.Stdout)
		os.Exit(1)
	case err != nil:
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("Command failed")
	}
}

func run(cmd string, args []string, out io.Writer, log zerolog.Logger) error {
	switch cmd {
	case "slip":
		return runSlip(args, out, log)
	case "words":
		return runWords(args, out)
	case "format":
		return runFormat(args, out)
	case "predict":
		return runPredict(args, out, log)
	case "remind":
		return runRemind(args, out, log)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		return errUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "EduFin CLI")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  cli <command> [options]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  slip      Generate a salary slip for one staff member")
	fmt.Fprintln(w, "  words     Spell an amount in Indian English words")
	fmt.Fprintln(w, "  format    Format an amount, date or account number for display")
	fmt.Fprintln(w, "  predict   Predict a course fee or monthly budget")
	fmt.Fprintln(w, "  remind    Send fee reminders for a student")
	fmt.Fprintln(w, "  help      Show this help message")
	fmt.Fprintln(w, "\nRun 'cli <command> -h' for more information on a command.")
}

func runSlip(args []string, out io.Writer, log zerolog.Logger) error {
	fs := flag.NewFlagSet("slip", flag.ContinueOnError)
	staffID := fs.String("staff", "", "Staff ID, e.g. staff-2")
	month := fs.Int("month", int(time.Now().Month()), "Salary month (1-12)")
	year := fs.Int("year", time.Now().Year(), "Salary year")
	basic := fs.String("basic", "", "Basic salary in rupees (random demo value when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *staffID == "" {
		return fmt.Errorf("--staff is required")
	}

	req := salary.Request{StaffID: *staffID, Month: time.Month(*month), Year: *year}
	if *basic != "" {
		b, err := decimal.NewFromString(*basic)
		if err != nil {
			return fmt.Errorf("invalid --basic %q: %w", *basic, err)
		}
		req.Basic = b
	}

	gen := salary.NewGenerator(salary.NewMemoryDirectory(salary.SeedStaff()), salary.DefaultRates(), idgen.New("legacy"))
	ctx := logger.WithContext(context.Background(), log)
	slip, err := gen.Generate(ctx, req)
	if err != nil {
		return err
	}
	printSlip(out, slip)
	return nil
}

func printSlip(w io.Writer, s domain.SalarySlip) {
	fmt.Fprintln(w, "\n=== Salary Slip ===")
	fmt.Fprintf(w, "ID:          %s\n", s.ID)
	fmt.Fprintf(w, "Staff:       %s (%s, %s)\n", s.Staff.Name, s.Staff.Designation, s.Staff.Department)
	fmt.Fprintf(w, "Period:      %s %d\n", s.Month, s.Year)
	fmt.Fprintf(w, "Paid on:     %s\n", format.FormatDate(s.PaymentDate))

	fmt.Fprintln(w, "\nEarnings")
	fmt.Fprintf(w, "  Basic      %s\n", format.FormatCurrency(s.Earnings.Basic))
	fmt.Fprintf(w, "  HRA        %s\n", format.FormatCurrency(s.Earnings.HRA))
	fmt.Fprintf(w, "  DA         %s\n", format.FormatCurrency(s.Earnings.DA))
	fmt.Fprintf(w, "  TA         %s\n", format.FormatCurrency(s.Earnings.TA))
	fmt.Fprintln(w, "Deductions")
	fmt.Fprintf(w, "  PF         %s\n", format.FormatCurrency(s.Deductions.PF))
	fmt.Fprintf(w, "  Prof. Tax  %s\n", format.FormatCurrency(s.Deductions.ProfessionalTax))
	fmt.Fprintf(w, "  TDS        %s\n", format.FormatCurrency(s.Deductions.TDS))

	fmt.Fprintf(w, "\nGross:       %s\n", format.FormatCurrency(s.Gross))
	fmt.Fprintf(w, "Deductions:  %s\n", format.FormatCurrency(s.TotalDeductions))
	fmt.Fprintf(w, "Net:         %s\n", format.FormatCurrency(s.Net))
	fmt.Fprintf(w, "In words:    %s\n\n", s.NetInWords)
}

func runWords(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("words", flag.ContinueOnError)
	amount := fs.String("amount", "", "Amount in rupees, paise allowed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*amount))
	if err != nil {
		return fmt.Errorf("invalid --amount %q: %w", *amount, err)
	}
	if d.IsNegative() {
		return fmt.Errorf("--amount must not be negative")
	}
	fmt.Fprintln(out, salary.AmountInWords(d))
	return nil
}

func runFormat(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("format", flag.ContinueOnError)
	amount := fs.Int64("amount", 0, "Amount in rupees")
	date := fs.String("date", "", "Date in YYYY-MM-DD format")
	account := fs.String("account", "", "Account number to mask")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintf(out, "Amount:  %s\n", format.FormatCurrency(*amount))
	if *date != "" {
		t, err := time.Parse("2006-01-02", *date)
		if err != nil {
			return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", *date)
		}
		fmt.Fprintf(out, "Date:    %s\n", format.FormatDate(t))
	}
	if *account != "" {
		fmt.Fprintf(out, "Account: %s\n", format.MaskAccountNumber(*account))
	}
	return nil
}

func runPredict(args []string, out io.Writer, log zerolog.Logger) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	course := fs.String("course", "", "Course name for a fee prediction")
	income := fs.Float64("income", 0, "Annual family income")
	scholarship := fs.Bool("scholarship", false, "Student holds a scholarship")
	expenses := fs.Float64("expenses", -1, "Monthly expenses for a budget prediction")
	gemini := fs.Bool("gemini", false, "Ask Gemini instead of the rule-based engine")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := logger.WithContext(context.Background(), log)
	var p prediction.Predictor = prediction.RuleBased{}
	if *gemini {
		g, err := prediction.NewGeminiPredictor(ctx, prediction.DefaultModelName)
		if err != nil {
			return err
		}
		p = g
	}

	switch {
	case *course != "":
		res, err := p.PredictFee(ctx, prediction.FeeRequest{Course: *course, Income: *income, Scholarship: *scholarship})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Predicted fee: %.2f\n", res.PredictedFee)
	case *expenses >= 0:
		res, err := p.PredictBudget(ctx, prediction.BudgetRequest{Expenses: *expenses})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Predicted budget: %.2f\n", res.PredictedBudget)
	default:
		return fmt.Errorf("--course or --expenses is required")
	}
	return nil
}

func runRemind(args []string, out io.Writer, log zerolog.Logger) error {
	fs := flag.NewFlagSet("remind", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("EDUFIN_CONFIG"), "Path to YAML config")
	studentID := fs.String("student", "2", "Student ID")
	grace := fs.Int("grace-days", fees.DefaultGraceDays, "Days past due before an upcoming fee is reminded")
	dryRun := fs.Bool("dry-run", false, "Print reminders without sending them")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	ctx := logger.WithContext(context.Background(), log)

	name := *studentID
	repo := directory.NewMemoryRepository(directory.SeedUsers()...)
	if u, err := repo.GetByUserID(ctx, *studentID); err == nil {
		name = u.Name
	}

	book := fees.NewBook(fees.StudentSeed)
	msgs := reminders(book.For(*studentID), fees.ReminderPolicy{GraceDays: *grace}, time.Now(), name)
	if len(msgs) == 0 {
		fmt.Fprintln(out, "No reminders due.")
		return nil
	}
	if *dryRun {
		for _, m := range msgs {
			fmt.Fprintln(out, m.String())
		}
		return nil
	}

	rt, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	var errs []error
	for _, m := range msgs {
		if err := rt.Notifier.Notify(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	fmt.Fprintf(out, "Sent %d reminder(s).\n", len(msgs)-len(errs))
	return errors.Join(errs...)
}

// reminders builds one message per obligation the policy flags at now.
func reminders(l *fees.Ledger, policy fees.ReminderPolicy, now time.Time, studentName string) []notify.Message {
	var msgs []notify.Message
	for _, f := range policy.Due(l, now) {
		delay := 0
		if now.After(f.DueDate) {
			delay = int(now.Sub(f.DueDate).Hours() / 24)
		}
		msgs = append(msgs, notify.FeeReminder(studentName, f.Amount, delay))
	}
	return msgs
}

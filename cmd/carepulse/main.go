package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nexushealth/carepulse/internal/adaptive"
	"github.com/nexushealth/carepulse/internal/caregiver"
	"github.com/nexushealth/carepulse/internal/config"
	"github.com/nexushealth/carepulse/internal/i18n"
	"github.com/nexushealth/carepulse/internal/jobs"
	"github.com/nexushealth/carepulse/internal/metrics"
	"github.com/nexushealth/carepulse/internal/prescription"
	"github.com/nexushealth/carepulse/internal/rules"
	"github.com/nexushealth/carepulse/internal/schedule"
	"github.com/nexushealth/carepulse/internal/score"
	"github.com/nexushealth/carepulse/internal/store"
)

var version = "dev"

// App holds the application components
type App struct {
	cfg         *config.Config
	store       *store.Store
	logger      *zap.Logger
	catalog     *rules.Catalog
	synthesizer *schedule.Synthesizer
	scorer      *score.Scorer
	adaptive    *adaptive.Engine
	monitor     *caregiver.Monitor
	scanner     *prescription.Scanner
	jobs        *jobs.Runner
}

func main() {
	if len(os.Args) < 2 {
		printHelp()
		return
	}

	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "help", "--help", "-h":
		printHelp()
		return
	case "version", "--version", "-v":
		fmt.Printf("CarePulse version %s\n", version)
		return
	}

	app := initApp()
	defer app.close()

	switch cmd {
	case "user":
		app.handleUserCommand(args)
	case "medicine":
		app.handleMedicineCommand(args)
	case "schedule":
		app.handleScheduleCommand(args)
	case "reminders":
		app.handleRemindersCommand(args)
	case "log":
		app.handleLogCommand(args)
	case "hydrate":
		app.handleHydrateCommand(args)
	case "score":
		app.handleScoreCommand(args)
	case "suggest":
		app.handleSuggestCommand(args)
	case "apply":
		app.handleApplyCommand(args)
	case "alerts":
		app.handleAlertsCommand(args)
	case "scan":
		app.handleScanCommand(args)
	case "status":
		app.handleStatusCommand()
	case "serve":
		app.runServe()
	default:
		fmt.Printf("Unknown command %q\n\n", cmd)
		printHelp()
		os.Exit(1)
	}
}

func initApp() *App {
	cfg, err := config.Load(os.Getenv("CAREPULSE_CONFIG"), os.Getenv("CAREPULSE_DATA_DIR"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Logging.JSON {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	st, err := store.New(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}

	catalog, err := rules.Load()
	if err != nil {
		logger.Fatal("Failed to load rule catalog", zap.Error(err))
	}
	messages, err := i18n.Load()
	if err != nil {
		logger.Fatal("Failed to load message templates", zap.Error(err))
	}

	synthesizer := schedule.NewSynthesizer(st, catalog, messages, cfg.Schedule, logger)
	scorer := score.NewScorer(st, logger)
	engine := adaptive.NewEngine(st, cfg.Adaptive, logger)
	monitor := caregiver.NewMonitor(st, cfg.Alerts, logger)
	scanner := prescription.NewScanner(st, synthesizer, logger)
	runner := jobs.NewRunner(cfg.Jobs, st, scorer, monitor, logger)

	return &App{
		cfg:         cfg,
		store:       st,
		logger:      logger,
		catalog:     catalog,
		synthesizer: synthesizer,
		scorer:      scorer,
		adaptive:    engine,
		monitor:     monitor,
		scanner:     scanner,
		jobs:        runner,
	}
}

func (a *App) close() {
	_ = a.logger.Sync()
	_ = a.store.Close()
}

// resolveUser picks the explicit user ID, or the only profile when exactly
// one exists.
func (a *App) resolveUser(explicit string) *store.UserProfile {
	if explicit != "" {
		p, err := a.store.GetProfile(explicit)
		if err != nil {
			fatalErr(err)
		}
		if p == nil {
			fmt.Printf("User %q not found\n", explicit)
			os.Exit(1)
		}
		return p
	}

	profiles, err := a.store.ListProfiles()
	if err != nil {
		fatalErr(err)
	}
	switch len(profiles) {
	case 0:
		fmt.Println("No users yet. Add one with: carepulse user add -name <name>")
		os.Exit(1)
	case 1:
		return &profiles[0]
	}
	fmt.Println("Multiple users exist; pass -u <user-id>")
	os.Exit(1)
	return nil
}

func (a *App) handleUserCommand(args []string) {
	if len(args) == 0 {
		printUserHelp()
		return
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("user add", flag.ExitOnError)
		name := fs.String("name", "", "Full name")
		age := fs.Int("age", 0, "Age in years")
		condition := fs.String("condition", "", "Health condition, free text")
		wake := fs.String("wake", "", "Wake time HH:MM")
		sleep := fs.String("sleep", "", "Sleep time HH:MM")
		lang := fs.String("lang", "", "Language code (en, kn, te, hi)")
		caregiverContact := fs.String("caregiver", "", "Caregiver phone or email")
		_ = fs.Parse(args[1:])

		if *name == "" {
			fmt.Println("Usage: carepulse user add -name <name> [-age N] [-condition C] [-wake HH:MM] [-sleep HH:MM] [-lang L] [-caregiver contact]")
			os.Exit(1)
		}
		for _, t := range []string{*wake, *sleep} {
			if t != "" && !config.ValidHHMM(t) {
				fmt.Printf("Invalid time %q, expected HH:MM\n", t)
				os.Exit(1)
			}
		}

		p := &store.UserProfile{
			Name:             *name,
			Age:              *age,
			Condition:        *condition,
			WakeTime:         *wake,
			SleepTime:        *sleep,
			Language:         *lang,
			CaregiverContact: *caregiverContact,
		}
		if err := a.store.CreateProfile(p); err != nil {
			fatalErr(err)
		}
		fmt.Printf("✓ Created user %s (%s)\n", p.Name, p.ID)

	case "set":
		fs := flag.NewFlagSet("user set", flag.ExitOnError)
		user := fs.String("u", "", "User ID")
		age := fs.Int("age", -1, "Age in years")
		condition := fs.String("condition", "\x00", "Health condition")
		wake := fs.String("wake", "", "Wake time HH:MM")
		sleep := fs.String("sleep", "", "Sleep time HH:MM")
		lang := fs.String("lang", "", "Language code")
		caregiverContact := fs.String("caregiver", "\x00", "Caregiver contact")
		_ = fs.Parse(args[1:])

		p := a.resolveUser(*user)
		if *age >= 0 {
			p.Age = *age
		}
		if *condition != "\x00" {
			p.Condition = *condition
		}
		if *wake != "" {
			if !config.ValidHHMM(*wake) {
				fmt.Printf("Invalid time %q, expected HH:MM\n", *wake)
				os.Exit(1)
			}
			p.WakeTime = *wake
		}
		if *sleep != "" {
			if !config.ValidHHMM(*sleep) {
				fmt.Printf("Invalid time %q, expected HH:MM\n", *sleep)
				os.Exit(1)
			}
			p.SleepTime = *sleep
		}
		if *lang != "" {
			p.Language = *lang
		}
		if *caregiverContact != "\x00" {
			p.CaregiverContact = *caregiverContact
		}
		if err := a.store.UpdateProfile(p); err != nil {
			fatalErr(err)
		}
		fmt.Printf("✓ Updated user %s\n", p.ID)

	case "show":
		var id string
		if len(args) > 1 {
			id = args[1]
		}
		p := a.resolveUser(id)
		fmt.Println("User Profile:")
		fmt.Println("=============")
		fmt.Printf("ID:        %s\n", p.ID)
		fmt.Printf("Name:      %s\n", p.Name)
		fmt.Printf("Age:       %d\n", p.Age)
		fmt.Printf("Condition: %s\n", p.Condition)
		fmt.Printf("Wake:      %s\n", p.WakeTime)
		fmt.Printf("Sleep:     %s\n", p.SleepTime)
		fmt.Printf("Language:  %s\n", p.Language)
		fmt.Printf("Caregiver: %s\n", p.CaregiverContact)

	case "list":
		profiles, err := a.store.ListProfiles()
		if err != nil {
			fatalErr(err)
		}
		if len(profiles) == 0 {
			fmt.Println("No users yet")
			return
		}
		for _, p := range profiles {
			fmt.Printf("%s  %-20s age %-3d %s\n", p.ID, p.Name, p.Age, p.Condition)
		}

	default:
		printUserHelp()
	}
}

func (a *App) handleMedicineCommand(args []string) {
	if len(args) == 0 {
		printMedicineHelp()
		return
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("medicine add", flag.ExitOnError)
		user := fs.String("u", "", "User ID")
		name := fs.String("name", "", "Medicine name")
		dosage := fs.String("dosage", "1 tablet", "Dosage, e.g. 500mg")
		times := fs.String("times", "08:00", "Comma-separated HH:MM slots")
		days := fs.Int("days", 7, "Duration in days")
		_ = fs.Parse(args[1:])

		if *name == "" {
			fmt.Println("Usage: carepulse medicine add -name <name> [-dosage D] [-times 08:00,20:00] [-days N] [-u user]")
			os.Exit(1)
		}
		p := a.resolveUser(*user)

		var slots []string
		for _, t := range strings.Split(*times, ",") {
			t = strings.TrimSpace(t)
			if !config.ValidHHMM(t) {
				fmt.Printf("Invalid time %q, expected HH:MM\n", t)
				os.Exit(1)
			}
			slots = append(slots, t)
		}

		med := &store.Medicine{
			UserID:       p.ID,
			Name:         *name,
			Dosage:       *dosage,
			Times:        slots,
			DurationDays: *days,
		}
		if err := a.store.CreateMedicine(med); err != nil {
			fatalErr(err)
		}
		fmt.Printf("✓ Added %s %s at %s (%s)\n", med.Name, med.Dosage, strings.Join(slots, ", "), med.ID)
		fmt.Println("Run 'carepulse schedule' to rebuild the daily plan")

	case "list":
		fs := flag.NewFlagSet("medicine list", flag.ExitOnError)
		user := fs.String("u", "", "User ID")
		_ = fs.Parse(args[1:])

		p := a.resolveUser(*user)
		meds, err := a.store.ActiveMedicines(p.ID)
		if err != nil {
			fatalErr(err)
		}
		if len(meds) == 0 {
			fmt.Println("No active medicines")
			return
		}
		for _, m := range meds {
			tag := ""
			if m.FromScan {
				tag = " [scanned]"
			}
			fmt.Printf("%s  %-16s %-10s %s  %d days%s\n",
				m.ID, m.Name, m.Dosage, strings.Join(m.Times, ","), m.DurationDays, tag)
		}

	case "rm":
		if len(args) < 2 {
			fmt.Println("Usage: carepulse medicine rm <medicine-id>")
			os.Exit(1)
		}
		if err := a.store.DeactivateMedicine(args[1]); err != nil {
			fatalErr(err)
		}
		fmt.Printf("✓ Removed medicine %s\n", args[1])
		fmt.Println("Run 'carepulse schedule' to rebuild the daily plan")

	default:
		printMedicineHelp()
	}
}

func (a *App) handleScheduleCommand(args []string) {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	user := fs.String("u", "", "User ID")
	_ = fs.Parse(args)

	p := a.resolveUser(*user)
	plan, err := a.synthesizer.Synthesize(p.ID)
	if err != nil {
		fatalErr(err)
	}

	fmt.Printf("Daily plan for %s (%d reminders):\n", p.Name, len(plan))
	printReminders(plan)
}

func (a *App) handleRemindersCommand(args []string) {
	fs := flag.NewFlagSet("reminders", flag.ExitOnError)
	user := fs.String("u", "", "User ID")
	_ = fs.Parse(args)

	p := a.resolveUser(*user)
	reminders, err := a.store.ActiveReminders(p.ID)
	if err != nil {
		fatalErr(err)
	}
	if len(reminders) == 0 {
		fmt.Println("No active reminders. Run 'carepulse schedule' first")
		return
	}
	printReminders(reminders)
}

func printReminders(reminders []store.ReminderEvent) {
	for _, r := range reminders {
		fmt.Printf("%s  [%-10s] %-24s %-6s  %s\n", r.Scheduled, r.Kind, r.Title, r.Priority, r.ID)
	}
}

func (a *App) handleLogCommand(args []string) {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	user := fs.String("u", "", "User ID")
	_ = fs.Parse(args)
	rest := fs.Args()

	if len(rest) < 2 {
		fmt.Println("Usage: carepulse log <reminder-id> <completed|skipped|snoozed> [-u user]")
		os.Exit(1)
	}
	reminderID, action := rest[0], rest[1]

	switch action {
	case store.ActionCompleted, store.ActionSkipped, store.ActionSnoozed:
	default:
		fmt.Printf("Invalid action %q, expected completed, skipped or snoozed\n", action)
		os.Exit(1)
	}

	p := a.resolveUser(*user)
	r, err := a.store.GetReminder(reminderID)
	if err != nil {
		fatalErr(err)
	}
	if r == nil || r.UserID != p.ID {
		fmt.Printf("Reminder %q not found for user %s\n", reminderID, p.ID)
		os.Exit(1)
	}

	if err := a.store.AppendActivity(&store.ActivityLog{
		UserID:     p.ID,
		ReminderID: reminderID,
		Kind:       r.Kind,
		Action:     action,
	}); err != nil {
		fatalErr(err)
	}
	metrics.RecordActivity(r.Kind)
	fmt.Printf("✓ Logged %s for %s\n", action, r.Title)

	if action == store.ActionSkipped && r.Kind == store.KindMedicine {
		raised, err := a.monitor.Check(p.ID, time.Now())
		if err != nil {
			a.logger.Warn("caregiver check failed", zap.Error(err))
		} else if raised {
			fmt.Println("⚠ Caregiver has been alerted about repeated missed doses")
		}
	}
}

func (a *App) handleHydrateCommand(args []string) {
	fs := flag.NewFlagSet("hydrate", flag.ExitOnError)
	user := fs.String("u", "", "User ID")
	glasses := fs.Int("glasses", 1, "Glasses of water drunk")
	_ = fs.Parse(args)

	p := a.resolveUser(*user)
	if err := a.store.AddHydration(p.ID, *glasses); err != nil {
		fatalErr(err)
	}
	// Drinking water also counts as a completed water activity.
	if err := a.store.AppendActivity(&store.ActivityLog{
		UserID: p.ID,
		Kind:   store.KindWater,
		Action: store.ActionCompleted,
	}); err != nil {
		fatalErr(err)
	}
	metrics.RecordHydration()

	total, err := a.store.HydrationForDay(p.ID, time.Now())
	if err != nil {
		fatalErr(err)
	}
	fmt.Printf("✓ Logged %d glass(es), %d today 💧\n", *glasses, total)
}

func (a *App) handleScoreCommand(args []string) {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	user := fs.String("u", "", "User ID")
	history := fs.Bool("history", false, "Show recent daily scores")
	_ = fs.Parse(args)

	p := a.resolveUser(*user)

	if *history {
		records, err := a.store.RecentScores(p.ID, 7)
		if err != nil {
			fatalErr(err)
		}
		if len(records) == 0 {
			fmt.Println("No scores recorded yet")
			return
		}
		for _, rec := range records {
			fmt.Printf("%s  %5.1f  %s\n", rec.Day, rec.Score, rec.Grade)
		}
		return
	}

	res, err := a.scorer.Compute(p.ID, time.Now())
	if err != nil {
		fatalErr(err)
	}

	fmt.Printf("Health score for %s: %.1f (%s)\n", p.Name, res.Score, res.Grade)
	if res.Breakdown != nil {
		b := res.Breakdown
		fmt.Printf("  Compliance: %.1f%% (%d/%d reminders completed)\n", b.CompliancePct, b.Completed, b.TotalReminders)
		fmt.Printf("  Hydration:  %.1f%% (%d glasses)\n", b.HydrationScore, b.HydrationGlasses)
		fmt.Printf("  Medicine:   %.1f%%\n", b.MedicineScore)
		fmt.Printf("  Skipped %d, snoozed %d\n", b.Skipped, b.Snoozed)
	}
}

func (a *App) handleSuggestCommand(args []string) {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	user := fs.String("u", "", "User ID")
	_ = fs.Parse(args)

	p := a.resolveUser(*user)
	suggestions, err := a.adaptive.Suggest(p.ID)
	if err != nil {
		fatalErr(err)
	}
	if len(suggestions) == 0 {
		fmt.Println("No reschedule suggestions, keep it up!")
		return
	}
	for _, sug := range suggestions {
		fmt.Printf("%s  %s → %s  (%s)\n", sug.Title, sug.CurrentTime, sug.SuggestedTime, sug.Reason)
		fmt.Printf("  apply with: carepulse apply %s %s\n", sug.ReminderID, sug.SuggestedTime)
	}
}

func (a *App) handleApplyCommand(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: carepulse apply <reminder-id> <HH:MM>")
		os.Exit(1)
	}
	if err := a.adaptive.Apply(args[0], args[1]); err != nil {
		fatalErr(err)
	}
	fmt.Printf("✓ Moved reminder %s to %s\n", args[0], args[1])
}

func (a *App) handleAlertsCommand(args []string) {
	fs := flag.NewFlagSet("alerts", flag.ExitOnError)
	user := fs.String("u", "", "User ID")
	_ = fs.Parse(args)

	p := a.resolveUser(*user)
	alerts, err := a.store.RecentAlerts(p.ID, 20)
	if err != nil {
		fatalErr(err)
	}
	if len(alerts) == 0 {
		fmt.Println("No caregiver alerts")
		return
	}
	for _, al := range alerts {
		fmt.Printf("%s  → %s\n  %s\n", al.SentAt.Format("2006-01-02 15:04"), al.Contact, al.Message)
	}
}

func (a *App) handleScanCommand(args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	user := fs.String("u", "", "User ID")
	file := fs.String("file", "", "Path to prescription text file")
	text := fs.String("text", "", "Prescription text")
	_ = fs.Parse(args)

	input := *text
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			fatalErr(err)
		}
		input = string(data)
	}
	if input == "" {
		fmt.Println("Usage: carepulse scan -text \"...\" | -file <path> [-u user]")
		os.Exit(1)
	}

	p := a.resolveUser(*user)
	parsed, err := a.scanner.Scan(p.ID, input)
	if err != nil {
		fatalErr(err)
	}
	if len(parsed) == 0 {
		fmt.Println("No medicines recognized in the text")
		return
	}
	fmt.Printf("✓ Registered %d medicine(s) and rebuilt the schedule:\n", len(parsed))
	for _, m := range parsed {
		fmt.Printf("  %-16s %-10s %s  %d days\n", m.Name, m.Dosage, strings.Join(m.Times, ","), m.DurationDays)
	}
}

func (a *App) handleStatusCommand() {
	profiles, err := a.store.ListProfiles()
	if err != nil {
		fatalErr(err)
	}

	fmt.Println("CarePulse Status")
	fmt.Println("================")
	fmt.Printf("Data dir: %s\n", a.cfg.Storage.DataDir)
	fmt.Printf("Users:    %d\n", len(profiles))

	now := time.Now()
	for _, p := range profiles {
		reminders, err := a.store.ActiveReminders(p.ID)
		if err != nil {
			fatalErr(err)
		}
		logs, err := a.store.LogsForDay(p.ID, now)
		if err != nil {
			fatalErr(err)
		}
		completed := 0
		for _, l := range logs {
			if l.Action == store.ActionCompleted {
				completed++
			}
		}
		glasses, err := a.store.HydrationForDay(p.ID, now)
		if err != nil {
			fatalErr(err)
		}
		scores, err := a.store.RecentScores(p.ID, 1)
		if err != nil {
			fatalErr(err)
		}
		last := "no score yet"
		if len(scores) > 0 {
			last = fmt.Sprintf("%.1f (%s) on %s", scores[0].Score, scores[0].Grade, scores[0].Day)
		}
		target := a.catalog.AgeProfile(p.Age).HydrationGlasses
		fmt.Printf("  %s %-20s %2d reminders, %d done today, water %d/%d, last score %s\n",
			p.ID, p.Name, len(reminders), completed, glasses, target, last)
	}
}

func (a *App) runServe() {
	if !a.cfg.Jobs.Enabled {
		a.logger.Fatal("background jobs are disabled in config")
	}

	if err := a.jobs.Start(); err != nil {
		a.logger.Fatal("Failed to start jobs runner", zap.Error(err))
	}
	a.logger.Info("CarePulse daemon running",
		zap.String("version", version))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	a.logger.Info("Shutting down")
	a.jobs.Stop()
}

func fatalErr(err error) {
	fmt.Printf("Error: %v\n", err)
	os.Exit(1)
}

func printHelp() {
	fmt.Println(`CarePulse - personalized health reminder engine

Usage: carepulse <command> [options]

Users:
  user add -name <name> [-age N] [-condition C] [-wake HH:MM] [-sleep HH:MM] [-lang L] [-caregiver contact]
  user set [-u id] [-age N] [-condition C] [-wake HH:MM] [-sleep HH:MM] [-lang L] [-caregiver contact]
  user show [id]
  user list

Medicines:
  medicine add -name <name> [-dosage D] [-times 08:00,20:00] [-days N] [-u user]
  medicine list [-u user]
  medicine rm <medicine-id>

Daily plan:
  schedule [-u user]        Rebuild and show the daily reminder plan
  reminders [-u user]       Show the active reminder plan
  log <id> <action> [-u u]  Record completed, skipped or snoozed
  hydrate [-glasses N]      Log drinking water

Insights:
  score [-history] [-u u]   Compute (or list) daily health scores
  suggest [-u user]         Propose new slots for habitually skipped reminders
  apply <id> <HH:MM>        Accept a reschedule suggestion
  alerts [-u user]          Show caregiver alerts

Prescriptions:
  scan -text "..." | -file <path> [-u user]

Daemon:
  serve                     Run the background score and alert sweeps
  status                    Show per-user overview
  version                   Print version`)
}

func printUserHelp() {
	fmt.Println("Usage: carepulse user <add|set|show|list>")
}

func printMedicineHelp() {
	fmt.Println("Usage: carepulse medicine <add|list|rm>")
}

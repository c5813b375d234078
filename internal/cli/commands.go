package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/gmsas95/medreminder/internal/app"
	"github.com/gmsas95/medreminder/internal/config"
	apperrors "github.com/gmsas95/medreminder/internal/errors"
	"github.com/gmsas95/medreminder/internal/medication"
	"github.com/gmsas95/medreminder/internal/reminder"
	"github.com/gmsas95/medreminder/internal/voice"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var Version = "dev"

// swapped in tests
var (
	now                  = time.Now
	stdin      io.Reader = os.Stdin
	isTerminal           = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

// Run executes one subcommand against an initialized application
func Run(application *app.App, cmd string, args []string, w io.Writer) error {
	switch cmd {
	case "add":
		return HandleAddCommand(application, args, w)
	case "list", "ls":
		return HandleListCommand(application, w)
	case "delete", "rm":
		return HandleDeleteCommand(application, args, w)
	case "take":
		return HandleTakeCommand(application, args, w)
	case "status":
		return HandleStatusCommand(application, args, w)
	case "history":
		return HandleHistoryCommand(application, args, w)
	case "triggers":
		return HandleTriggersCommand(application, args, w)
	case "ask":
		return HandleAskCommand(application, args, w)
	case "speak":
		return HandleSpeakCommand(application, args, w)
	case "say":
		return HandleSayCommand(application, args, w)
	case "voices":
		return HandleVoicesCommand(application, w)
	case "voice":
		return HandleVoiceCommand(application, args, w)
	case "serve", "server":
		fmt.Fprintf(w, "Starting medreminder server on http://localhost:%d\n", application.Config.Server.Port)
		application.RunServer()
		return nil
	default:
		PrintHelp(w)
		return apperrors.Validation("unknown command %q", cmd)
	}
}

func today(application *app.App) string {
	return medication.FormatDate(now().In(application.Location))
}

func parseID(args []string, usage string) (uint, error) {
	if len(args) == 0 {
		return 0, apperrors.Validation("usage: %s", usage)
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.Validation("invalid medication id %q", args[0])
	}
	return uint(id), nil
}

func newFlagSet(name string, w io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	return fs
}

func HandleAddCommand(application *app.App, args []string, w io.Writer) error {
	fs := newFlagSet("add", w)
	name := fs.String("name", "", "Medication name")
	dosage := fs.String("dosage", "", "Dosage, e.g. 500mg")
	schedule := fs.String("schedule", "", "Time of day, e.g. 08:00 or 8:00 PM")
	sideEffects := fs.String("side-effects", "", "Known side effects")
	icon := fs.String("icon", "", "Display icon")
	color := fs.String("color", "", "Display color")
	days := fs.String("days", "daily", "Reminder days: daily, weekdays, weekends, mon,wed,fri or a 7-char mask from Sunday")
	startsOn := fs.String("starts-on", "", "First day of the course (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return apperrors.Validation("%s", err.Error())
	}

	selected, err := medication.ParseWeekdays(*days)
	if err != nil {
		return apperrors.Validation("%s", err.Error())
	}

	ctx := context.Background()
	med, err := application.Medications.AddMedication(ctx, medication.NewMedication{
		Name:         *name,
		Dosage:       *dosage,
		Schedule:     *schedule,
		SideEffects:  *sideEffects,
		Icon:         *icon,
		Color:        *color,
		SelectedDays: selected,
		StartsOn:     *startsOn,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s Added %s %s (#%d)\n", successStyle.Render("✓"), med.Icon, med.Name, med.ID)

	triggers, err := reminder.TriggersFor(*med, now().In(application.Location))
	if err == nil && len(triggers) > 0 {
		next := triggers[0].FirstFire
		for _, t := range triggers[1:] {
			if t.FirstFire.Before(next) {
				next = t.FirstFire
			}
		}
		fmt.Fprintf(w, "  Next reminder: %s\n", next.Format("Mon Jan 2 15:04"))
	}
	return nil
}

func HandleListCommand(application *app.App, w io.Writer) error {
	meds, err := application.Medications.ListMedications(context.Background())
	if err != nil {
		return err
	}

	if len(meds) == 0 {
		fmt.Fprintln(w, "No medications yet. Add one with: medreminder add --name <name> --dosage <dose> --schedule <time>")
		return nil
	}

	heading(w, "Medications")
	for _, m := range meds {
		name := colorStyle(m.Color).Render(m.Name)
		fmt.Fprintf(w, "%3d  %s %s  %s at %s  %s\n",
			m.ID, m.Icon, name, m.Dosage, m.Schedule,
			mutedStyle.Render(strings.Join(m.SelectedDays.Names(), " ")))
		if m.SideEffects != "" {
			fmt.Fprintf(w, "     %s\n", mutedStyle.Render("Side effects: "+m.SideEffects))
		}
	}
	return nil
}

func HandleDeleteCommand(application *app.App, args []string, w io.Writer) error {
	fs := newFlagSet("delete", w)
	yes := fs.Bool("yes", false, "Delete without asking")
	if err := fs.Parse(args); err != nil {
		return apperrors.Validation("%s", err.Error())
	}

	id, err := parseID(fs.Args(), "medreminder delete [--yes] <id>")
	if err != nil {
		return err
	}

	ctx := context.Background()
	med, err := application.Medications.GetMedication(ctx, id)
	if err != nil {
		return err
	}

	if !*yes {
		if !isTerminal() {
			return apperrors.Validation("pass --yes to delete without a terminal")
		}
		prompt := fmt.Sprintf("Delete %s and all of its logs? (yes/no): ", med.Name)
		if !confirm(w, prompt) {
			fmt.Fprintln(w, "Cancelled")
			return nil
		}
	}

	if err := application.Medications.DeleteMedication(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s Deleted %s\n", successStyle.Render("✓"), med.Name)
	return nil
}

func confirm(w io.Writer, prompt string) bool {
	fmt.Fprint(w, prompt)
	reader := bufio.NewReader(stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes" || response == "y"
}

func HandleTakeCommand(application *app.App, args []string, w io.Writer) error {
	fs := newFlagSet("take", w)
	date := fs.String("date", "", "Calendar date (YYYY-MM-DD), defaults to today")
	skip := fs.Bool("skip", false, "Record the dose as not taken")
	if err := fs.Parse(args); err != nil {
		return apperrors.Validation("%s", err.Error())
	}

	id, err := parseID(fs.Args(), "medreminder take [--date YYYY-MM-DD] [--skip] <id>")
	if err != nil {
		return err
	}

	day := *date
	if day == "" {
		day = today(application)
	}

	entry, err := application.Medications.LogDose(context.Background(), id, day, !*skip)
	if err != nil {
		return err
	}

	if entry.Taken {
		fmt.Fprintf(w, "%s Marked #%d as taken on %s\n", successStyle.Render("✓"), id, entry.Date)
	} else {
		fmt.Fprintf(w, "%s Recorded #%d as not taken on %s\n", warnStyle.Render("•"), id, entry.Date)
	}
	return nil
}

func HandleStatusCommand(application *app.App, args []string, w io.Writer) error {
	fs := newFlagSet("status", w)
	date := fs.String("date", "", "Calendar date (YYYY-MM-DD), defaults to today")
	if err := fs.Parse(args); err != nil {
		return apperrors.Validation("%s", err.Error())
	}

	day := *date
	if day == "" {
		day = today(application)
	}

	st, err := application.Tracker.Today(context.Background(), day)
	if err != nil {
		return err
	}

	notice := st.Notice()
	printNotice(w, notice.Title, notice.Message)
	if st.Kind() == medication.Incomplete {
		fmt.Fprintf(w, "%d of %d taken on %s\n", st.Taken, st.Total, day)
	}
	return nil
}

func HandleHistoryCommand(application *app.App, args []string, w io.Writer) error {
	fs := newFlagSet("history", w)
	asYAML := fs.Bool("yaml", false, "Print history as YAML")
	if err := fs.Parse(args); err != nil {
		return apperrors.Validation("%s", err.Error())
	}

	history, err := application.Medications.History(context.Background())
	if err != nil {
		return err
	}

	if *asYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(history); err != nil {
			return fmt.Errorf("failed to encode history: %w", err)
		}
		return enc.Close()
	}

	if len(history) == 0 {
		fmt.Fprintln(w, "No doses logged yet")
		return nil
	}

	for _, day := range history {
		heading(w, day.Date)
		for _, e := range day.Entries {
			mark := successStyle.Render("✓")
			if !e.Taken {
				mark = warnStyle.Render("✗")
			}
			fmt.Fprintf(w, "  %s %s\n", mark, e.MedicationName)
		}
	}
	return nil
}

func HandleTriggersCommand(application *app.App, args []string, w io.Writer) error {
	id, err := parseID(args, "medreminder triggers <id>")
	if err != nil {
		return err
	}

	med, err := application.Medications.GetMedication(context.Background(), id)
	if err != nil {
		return err
	}

	triggers, err := reminder.TriggersFor(*med, now().In(application.Location))
	if err != nil {
		return apperrors.Validation("schedule %q is not a time of day", med.Schedule)
	}

	if len(triggers) == 0 {
		fmt.Fprintf(w, "No upcoming reminders for %s\n", med.Name)
		return nil
	}

	heading(w, "Reminders for "+med.Name)
	for _, t := range triggers {
		fmt.Fprintf(w, "  %-16s %s  %s\n", t.String(),
			mutedStyle.Render("cron "+t.CronSpec()),
			mutedStyle.Render("first "+t.FirstFire.Format("Jan 2")))
	}
	return nil
}

func HandleAskCommand(application *app.App, args []string, w io.Writer) error {
	question := strings.Join(args, " ")

	answer, err := application.Voice.AskQuestion(context.Background(), question)
	if err != nil {
		return err
	}

	fmt.Fprint(w, renderMarkdown(answer))
	fmt.Fprintln(w, mutedStyle.Render("  answered by "+application.LLM.GetModel()))
	return nil
}

func HandleSpeakCommand(application *app.App, args []string, w io.Writer) error {
	fs := newFlagSet("speak", w)
	text := fs.String("text", "", "Speak this text instead of a medication description")
	if err := fs.Parse(args); err != nil {
		return apperrors.Validation("%s", err.Error())
	}

	say := *text
	if say == "" {
		id, err := parseID(fs.Args(), "medreminder speak <id> | --text <text>")
		if err != nil {
			return err
		}
		med, err := application.Medications.GetMedication(context.Background(), id)
		if err != nil {
			return err
		}
		say = voice.DescribeMedication(*med)
	}

	return speak(application, say, w)
}

// HandleSayCommand is speak --text with the words given as arguments
func HandleSayCommand(application *app.App, args []string, w io.Writer) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return apperrors.Validation("usage: medreminder say <text>")
	}
	return speak(application, text, w)
}

func speak(application *app.App, text string, w io.Writer) error {
	fmt.Fprintf(w, "%s %s\n", mutedStyle.Render("🔊 ["+application.Speaker.Name()+"]"), text)
	return application.Speaker.Speak(context.Background(), text)
}

func HandleVoicesCommand(application *app.App, w io.Writer) error {
	current := application.Voice.Themes().Current()

	heading(w, "Voice themes")
	for _, t := range voice.Themes {
		marker := " "
		if t.Name == current {
			marker = successStyle.Render("▶")
		}
		fmt.Fprintf(w, "%s %s  %s\n", marker, colorStyle(t.Color).Render(fmt.Sprintf("%-8s", t.Name)), mutedStyle.Render(t.Description))
	}
	return nil
}

func HandleVoiceCommand(application *app.App, args []string, w io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(w, application.Voice.Themes().Current())
		return nil
	}

	name := args[0]
	if name == "pick" {
		picked, err := RunVoicePicker(application.Voice.Themes().Current())
		if err != nil {
			return err
		}
		if picked == "" {
			fmt.Fprintln(w, "Cancelled")
			return nil
		}
		name = picked
	}

	theme, err := application.Voice.Themes().Select(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s Voice set to %s\n", successStyle.Render("✓"), theme.Name)
	return nil
}

func HandleConfigCommand(args []string, cfg *config.Config, w io.Writer) {
	if len(args) == 0 || args[0] == "path" {
		fmt.Fprintln(w, cfg.Path())
		return
	}

	switch args[0] {
	case "show", "view":
		data, err := os.ReadFile(cfg.Path())
		if err != nil {
			fmt.Fprintf(w, "No config file at %s, defaults and MEDREMINDER_* env are in effect\n", cfg.Path())
			return
		}
		fmt.Fprintln(w, string(data))
	default:
		fmt.Fprintln(w, "Usage: medreminder config [path|show]")
	}
}

// HandleDoctorCommand checks the pieces reminders and read-aloud depend on
func HandleDoctorCommand(cfg *config.Config, w io.Writer) int {
	heading(w, "medreminder diagnostics")

	issues := 0
	check := func(ok bool, good, bad string) {
		if ok {
			fmt.Fprintln(w, successStyle.Render("✅ ")+good)
			return
		}
		fmt.Fprintln(w, warnStyle.Render("⚠️  ")+bad)
		issues++
	}

	_, err := os.Stat(cfg.Storage.DataDir)
	check(err == nil, "Data directory: "+cfg.Storage.DataDir, "Data directory missing: "+cfg.Storage.DataDir)
	check(cfg.LLM.APIKey != "", "Assistant API key: configured", "Assistant API key: not set (MEDREMINDER_LLM_API_KEY)")
	check(cfg.Security.AdminPassword != "", "Admin password: configured", "Admin password: not set, the HTTP API accepts any login")

	switch cfg.Voice.Speaker {
	case "piper":
		_, err := exec.LookPath("piper")
		check(err == nil && cfg.Voice.PiperModel != "", "Piper: found", "Piper: binary or voice.piper_model missing")
	case "command":
		check(anyOnPath("espeak-ng", "espeak", "say"), "Speech command: found", "Speech command: install espeak-ng")
	default:
		check(anyOnPath("ffplay", "afplay", "mpg123", "paplay", "aplay"), "Audio player: found", "Audio player: install ffmpeg or mpg123")
	}

	fmt.Fprintln(w)
	if issues == 0 {
		fmt.Fprintln(w, successStyle.Render("All checks passed!"))
	} else {
		fmt.Fprintf(w, "Found %d issue(s)\n", issues)
	}
	return issues
}

func anyOnPath(names ...string) bool {
	for _, n := range names {
		if _, err := exec.LookPath(n); err == nil {
			return true
		}
	}
	return false
}

func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `medreminder - medication reminders with a voice assistant

Usage:
  medreminder <command> [options]

Medications:
  add --name N --dosage D --schedule T [--days D] [--side-effects S]
                          Add a medication
  list                    List medications
  delete [--yes] <id>     Delete a medication and its logs
  take [--date D] [--skip] <id>
                          Log a dose for today or the given date
  status [--date D]       Show today's adherence
  history [--yaml]        Show logged doses, newest day first
  triggers <id>           Show the weekly reminder triggers

Assistant:
  ask <question>          Ask a medication question
  speak <id> | --text T   Read a medication or text aloud
  say <text>              Read text aloud
  voices                  List voice themes
  voice [name|pick]       Show or select the voice theme

Server:
  serve                   Run the HTTP API and reminder dispatcher
  config [path|show]      Show the config file
  doctor                  Check the local setup
  version                 Print the version
`)
}

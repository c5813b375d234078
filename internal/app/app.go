package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gmsas95/medreminder/internal/api"
	"github.com/gmsas95/medreminder/internal/config"
	"github.com/gmsas95/medreminder/internal/llm"
	"github.com/gmsas95/medreminder/internal/medication"
	"github.com/gmsas95/medreminder/internal/metrics"
	"github.com/gmsas95/medreminder/internal/reminder"
	"github.com/gmsas95/medreminder/internal/store"
	"github.com/gmsas95/medreminder/internal/voice"
	"go.uber.org/zap"
)

type App struct {
	Config      *config.Config
	Store       *store.Store
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	Medications *medication.Store
	Tracker     *medication.Tracker
	LLM         *llm.Client
	Voice       *voice.Facade
	Clips       *voice.ClipSlot
	Speaker     voice.Speaker
	Dispatcher  *reminder.Dispatcher
	Location    *time.Location
	Version     string
}

// New builds every service on top of an opened store
func New(cfg *config.Config, st *store.Store, logger *zap.Logger, version string) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := metrics.Default()

	loc, err := LoadLocation(cfg.Reminders.Timezone)
	if err != nil {
		return nil, err
	}

	meds, err := medication.NewStore(st.DB(), logger.Named("medication"), m)
	if err != nil {
		return nil, err
	}

	themes, err := voice.NewThemeSelector(st, cfg.Voice.Theme)
	if err != nil {
		return nil, err
	}

	llmClient := llm.NewClient(cfg.LLM, logger.Named("llm"), m)
	facade := voice.NewFacade(llmClient, llmClient, themes, time.Duration(cfg.LLM.Timeout)*time.Second, logger.Named("voice"))

	clips, err := voice.NewClipSlot(cfg.Voice.ScratchDir, voice.NewCommandPlayer())
	if err != nil {
		return nil, err
	}

	return &App{
		Config:      cfg,
		Store:       st,
		Logger:      logger,
		Metrics:     m,
		Medications: meds,
		Tracker:     medication.NewTracker(meds),
		LLM:         llmClient,
		Voice:       facade,
		Clips:       clips,
		Speaker:     NewSpeaker(cfg.Voice, facade, clips),
		Location:    loc,
		Version:     version,
	}, nil
}

// LoadLocation resolves the reminders timezone; "" and "Local" mean the host zone
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid reminders.timezone %q: %w", name, err)
	}
	return loc, nil
}

// NewSpeaker picks the read-aloud path configured in voice.speaker
func NewSpeaker(cfg config.VoiceConfig, facade *voice.Facade, clips *voice.ClipSlot) voice.Speaker {
	switch cfg.Speaker {
	case "piper":
		return voice.NewPiperSpeaker(cfg.PiperModel, cfg.Rate, clips)
	case "command":
		return voice.NewCommandSpeaker(cfg.Rate)
	default:
		return voice.NewRemoteSpeaker(facade, clips)
	}
}

// Notifiers builds the reminder delivery channels enabled in config
func (app *App) Notifiers() []reminder.Notifier {
	notifiers := []reminder.Notifier{reminder.NewLogNotifier(app.Logger.Named("reminder"))}

	tg := app.Config.Reminders.Telegram
	if tg.Enabled {
		n, err := reminder.NewTelegramNotifier(tg.BotToken, tg.ChatID)
		if err != nil {
			app.Logger.Error("Failed to create Telegram notifier", zap.Error(err))
		} else {
			notifiers = append(notifiers, n)
		}
	}

	dc := app.Config.Reminders.Discord
	if dc.Enabled {
		n, err := reminder.NewDiscordNotifier(dc.Token, dc.ChannelID)
		if err != nil {
			app.Logger.Error("Failed to create Discord notifier", zap.Error(err))
		} else {
			notifiers = append(notifiers, n)
		}
	}

	return notifiers
}

// Resync re-registers reminder triggers for every stored medication
func (app *App) Resync(ctx context.Context) error {
	if app.Dispatcher == nil {
		return nil
	}
	meds, err := app.Medications.ListMedications(ctx)
	if err != nil {
		return err
	}
	return app.Dispatcher.Sync(ctx, meds)
}

// StartReminders creates and starts the dispatcher with a nightly resync so
// weekdays dropped earlier in the week are picked up again
func (app *App) StartReminders(ctx context.Context) error {
	app.Dispatcher = reminder.NewDispatcher(app.Location, app.Logger.Named("reminder"), app.Metrics, app.Notifiers()...)

	if err := app.Resync(ctx); err != nil {
		return err
	}

	err := app.Dispatcher.AddJob("@midnight", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := app.Resync(ctx); err != nil {
			app.Logger.Error("Nightly reminder resync failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	return app.Dispatcher.Start()
}

// ApplyConfig takes over settings that can change without a restart
func (app *App) ApplyConfig(next *config.Config) {
	if next.Voice.Theme != app.Config.Voice.Theme {
		if _, err := app.Voice.Themes().Select(next.Voice.Theme); err != nil {
			app.Logger.Warn("Failed to apply voice theme", zap.Error(err))
		}
	}
	app.Config.Voice.Theme = next.Voice.Theme
	app.Logger.Info("Configuration reloaded",
		zap.String("path", next.Path()),
		zap.String("voice", app.Voice.Themes().Current()),
	)
}

func (app *App) RunServer() {
	ctx := context.Background()

	if app.Config.Reminders.Enabled {
		if err := app.StartReminders(ctx); err != nil {
			app.Logger.Error("Failed to start reminder dispatcher", zap.Error(err))
		}
	}

	app.Config.Watch(app.ApplyConfig)

	server := api.New(api.Deps{
		Config:      app.Config,
		Medications: app.Medications,
		Tracker:     app.Tracker,
		Voice:       app.Voice,
		Reminders:   app,
		Metrics:     app.Metrics,
		Logger:      app.Logger.Named("api"),
		Location:    app.Location,
	})

	go func() {
		if err := server.Start(); err != nil {
			app.Logger.Fatal("Server error", zap.Error(err))
		}
	}()

	app.Logger.Info("Server started",
		zap.String("address", app.Config.Server.Address),
		zap.Int("port", app.Config.Server.Port),
		zap.String("url", fmt.Sprintf("http://localhost:%d", app.Config.Server.Port)),
		zap.String("version", app.Version),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info("Shutting down...")

	if app.Dispatcher != nil {
		stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := app.Dispatcher.Stop(stopCtx); err != nil {
			app.Logger.Error("Reminder dispatcher shutdown error", zap.Error(err))
		}
		cancel()
	}

	if err := server.Shutdown(); err != nil {
		app.Logger.Error("Server shutdown error", zap.Error(err))
	}
}

// Close releases the scratch clip and the databases
func (app *App) Close() error {
	if app.Clips != nil {
		if err := app.Clips.Release(); err != nil {
			app.Logger.Warn("Failed to release audio clip", zap.Error(err))
		}
	}
	return app.Store.Close()
}
